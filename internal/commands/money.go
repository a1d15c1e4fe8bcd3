package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newDepositCommand(root *string) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "deposit <name> <amount>",
		Short: "Deposit money into an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if _, err := l.Authenticate(cmd.Context(), args[0], pin); err != nil {
				return err
			}

			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			rec, err := l.Deposit(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deposited %s. New balance: %s\n",
				rec.Amount.StringFixed(2), rec.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func newWithdrawCommand(root *string) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "withdraw <name> <amount>",
		Short: "Withdraw money from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if _, err := l.Authenticate(cmd.Context(), args[0], pin); err != nil {
				return err
			}

			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			rec, err := l.Withdraw(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Withdrew %s. New balance: %s\n",
				rec.Amount.StringFixed(2), rec.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func newTransferCommand(root *string) *cobra.Command {
	var (
		pin string
		to  string
	)

	cmd := &cobra.Command{
		Use:   "transfer <name> <amount>",
		Short: "Transfer money to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if _, err := l.Authenticate(cmd.Context(), args[0], pin); err != nil {
				return err
			}

			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			out, _, err := l.Transfer(cmd.Context(), args[0], to, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s. New balance: %s\n",
				out.Amount.StringFixed(2), to, out.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient account name (required)")
	_ = cmd.MarkFlagRequired("pin")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newBalanceCommand(root *string) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "balance <name>",
		Short: "Show the current balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if _, err := l.Authenticate(cmd.Context(), args[0], pin); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Current balance: %s\n", l.Balance(args[0]).StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func newHistoryCommand(root *string) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "Show transaction history with running totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if _, err := l.Authenticate(cmd.Context(), args[0], pin); err != nil {
				return err
			}

			entries, err := l.HistoryWithTotals(args[0])
			if err != nil {
				return err
			}
			printHistory(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}
