package main

import (
	"fmt"
	"os"
)

func main() {
	c := newCLI(os.Stdout, nil)
	err := c.rootCmd().Execute()
	if cerr := c.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}
