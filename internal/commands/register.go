package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passbook-dev/passbook/internal/ledger"
	"github.com/passbook-dev/passbook/internal/model"
)

func newRegisterCommand(root *string) *cobra.Command {
	var (
		name   string
		gender string
		age    int
		pin    string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}

			acct, err := l.Register(cmd.Context(), ledger.RegisterParams{
				Name:   name,
				Gender: model.Gender(gender),
				Age:    age,
				PIN:    pin,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n  ID:     %s\n  Gender: %s\n  Age:    %d\n",
				acct.Name, acct.ID, acct.Gender, acct.Age)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account holder name (required)")
	cmd.Flags().StringVar(&gender, "gender", "", "gender: Male, Female, or Other (required)")
	cmd.Flags().IntVar(&age, "age", 0, "age, 1-99 (required)")
	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	for _, f := range []string{"name", "gender", "age", "pin"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newLoginCommand(root *string) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "login <name>",
		Short: "Check a name/PIN pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}

			acct, err := l.Authenticate(cmd.Context(), args[0], pin)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (ID %s). Balance: %s\n",
				acct.Name, acct.ID, l.Balance(acct.Name).StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (required)")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}
