package main

import (
	"context"
	"io"

	"github.com/sheikh-saqib/kivoro-ledger/internal/app"
	"github.com/sheikh-saqib/kivoro-ledger/internal/config"
	"github.com/sheikh-saqib/kivoro-ledger/internal/logging"
	"github.com/spf13/cobra"
)

// appFactory opens the ledger a command runs against.
type appFactory func(ctx context.Context, cfg *config.Config) (*app.App, error)

type cli struct {
	out     io.Writer
	open    appFactory
	envFile string
	account string
	cfg     *config.Config
	app     *app.App
}

func newCLI(out io.Writer, open appFactory) *cli {
	c := &cli{out: out, open: open}
	if c.open == nil {
		c.open = func(ctx context.Context, cfg *config.Config) (*app.App, error) {
			logger := logging.New(cfg.LogLevel, true)
			return app.Build(ctx, cfg, nil, logger)
		}
	}
	return c
}

// close releases the app opened by the last command, whether or not it succeeded.
func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Inspect and operate the Kivoro balance ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return err
			}
			if c.account == "" {
				c.account = cfg.DefaultAccount
			}
			c.cfg = cfg
			c.app, err = c.open(cmd.Context(), cfg)
			return err
		},
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "optional .env file with configuration")
	root.PersistentFlags().StringVarP(&c.account, "account", "a", "", "account id (defaults to DEFAULT_ACCOUNT)")

	root.AddCommand(
		c.balanceCmd(),
		c.buyCmd(),
		c.sellCmd(),
		c.topUpCmd(),
		c.dividendCmd(),
		c.historyCmd(),
		c.resetCmd(),
	)
	return root
}
