package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sheikh-saqib/kivoro-ledger/internal/format"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func parseAmount(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return d, nil
}

func (c *cli) printResult(res models.Result) error {
	if res.Success {
		if res.TransactionID != "" {
			fmt.Fprintf(c.out, "ok %s\n", res.TransactionID)
		} else {
			fmt.Fprintln(c.out, "ok")
		}
		return nil
	}
	fmt.Fprintf(c.out, "error [%s]: %s\n", res.Kind, res.Error)
	return errors.New(res.Error)
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := c.app.Ledger.GetBalance(cmd.Context(), c.account)
			cur := string(b.Currency)
			fmt.Fprintf(c.out, "account:   %s\n", b.UserID)
			fmt.Fprintf(c.out, "total:     %s\n", format.Currency(b.TotalBalance, cur))
			fmt.Fprintf(c.out, "available: %s\n", format.Currency(b.AvailableBalance, cur))
			fmt.Fprintf(c.out, "locked:    %s\n", format.Currency(b.LockedBalance, cur))
			return nil
		},
	}
}

func (c *cli) buyCmd() *cobra.Command {
	var shares, price string
	cmd := &cobra.Command{
		Use:   "buy SYMBOL AMOUNT",
		Short: "Debit AMOUNT to buy SYMBOL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			p, err := parseAmount("price", price)
			if err != nil {
				return err
			}
			var est decimal.Decimal
			switch {
			case shares != "":
				if est, err = parseAmount("shares", shares); err != nil {
					return err
				}
			case p.IsPositive():
				est = amount.DivRound(p, 8)
			}
			return c.printResult(c.app.Ledger.ProcessBuyOrder(cmd.Context(), c.account, models.BuyOrder{
				Symbol:          strings.ToUpper(args[0]),
				AmountUSD:       amount,
				EstimatedShares: est,
				CurrentPrice:    p,
			}))
		},
	}
	cmd.Flags().StringVar(&price, "price", "0", "current price per share")
	cmd.Flags().StringVar(&shares, "shares", "", "estimated shares (default AMOUNT / price)")
	return cmd
}

func (c *cli) sellCmd() *cobra.Command {
	var amountFlag, price string
	cmd := &cobra.Command{
		Use:   "sell SYMBOL QUANTITY",
		Short: "Credit the proceeds of selling QUANTITY of SYMBOL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseAmount("quantity", args[1])
			if err != nil {
				return err
			}
			p, err := parseAmount("price", price)
			if err != nil {
				return err
			}
			proceeds := qty.Mul(p)
			if amountFlag != "" {
				if proceeds, err = parseAmount("amount", amountFlag); err != nil {
					return err
				}
			}
			return c.printResult(c.app.Ledger.ProcessSellOrder(cmd.Context(), c.account, models.SellOrder{
				Symbol:          strings.ToUpper(args[0]),
				Quantity:        qty,
				EstimatedAmount: proceeds,
				CurrentPrice:    p,
			}))
		},
	}
	cmd.Flags().StringVar(&price, "price", "0", "current price per share")
	cmd.Flags().StringVar(&amountFlag, "amount", "", "estimated proceeds (default QUANTITY * price)")
	return cmd
}

func (c *cli) topUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topup AMOUNT",
		Short: "Credit AMOUNT to the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			return c.printResult(c.app.Ledger.TopUpBalance(cmd.Context(), c.account, amount))
		},
	}
}

func (c *cli) dividendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dividend SYMBOL AMOUNT",
		Short: "Record a dividend payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			if err := c.app.Ledger.AddDividendPayment(cmd.Context(), c.account, strings.ToUpper(args[0]), amount); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "ok")
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur := string(c.app.Ledger.GetBalance(cmd.Context(), c.account).Currency)
			for _, tx := range c.app.Ledger.Transactions(cmd.Context(), c.account, limit) {
				fmt.Fprintf(c.out, "%s  %-8s  %12s  %s  %s\n",
					tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Type,
					format.Currency(tx.Amount, cur), tx.ID, tx.Description)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of transactions")
	return cmd
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe history and restore the seed balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Ledger.ResetBalance(cmd.Context(), c.account); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "ok")
			return nil
		},
	}
}
