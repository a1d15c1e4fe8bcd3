package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/passbook-dev/passbook/internal/auditlog"
	"github.com/passbook-dev/passbook/internal/model"
)

func newAdminCommand(root *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative account management",
	}

	cmd.AddCommand(newAdminListCommand(root))
	cmd.AddCommand(newAdminStatusCommand(root, "enable", model.StatusEnabled))
	cmd.AddCommand(newAdminStatusCommand(root, "disable", model.StatusDisabled))
	cmd.AddCommand(newAdminDeleteCommand(root))
	cmd.AddCommand(newAdminMonitorCommand(root))
	cmd.AddCommand(newAdminAuditCommand(root))

	return cmd
}

func newAdminListCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			printAccounts(cmd, l.ListAccounts())
			return nil
		},
	}
}

func newAdminStatusCommand(root *string, verb string, status model.Status) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <name>",
		Short: verb + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if err := l.SetStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s is now %s\n", args[0], status)
			return nil
		},
	}
}

func newAdminDeleteCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an account and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}
			if err := l.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s deleted\n", args[0])
			return nil
		},
	}
}

func newAdminMonitorCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor <name>",
		Short: "Show an account's history with running totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(*root)
			if err != nil {
				return err
			}

			acct, err := l.FindAccount(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account status: %s\n", acct.Status)

			entries, err := l.HistoryWithTotals(args[0])
			if err != nil {
				return err
			}
			printHistory(cmd, entries)
			return nil
		},
	}
}

func newAdminAuditCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the administrative audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absRoot, err := filepath.Abs(*root)
			if err != nil {
				return err
			}
			entries, err := auditlog.Read(absRoot)
			if err != nil {
				return err
			}
			printAudit(cmd, entries)
			return nil
		},
	}
}
