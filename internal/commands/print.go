package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/passbook-dev/passbook/internal/auditlog"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/passbook-dev/passbook/internal/txlog"
)

func printAccounts(cmd *cobra.Command, accounts []model.Account) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tGENDER\tAGE\tSTATUS")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.Name, a.ID, a.Gender, a.Age, a.Status)
	}
	w.Flush()
}

func printHistory(cmd *cobra.Command, entries []txlog.HistoryEntry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NO.\tKIND\tAMOUNT\tDEPOSITED\tWITHDRAWN\tBALANCE\tCOUNTERPARTY\tTIMESTAMP")
	for i, e := range entries {
		r := e.Record
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			r.Kind,
			r.Amount.StringFixed(2),
			e.TotalDeposited.StringFixed(2),
			e.TotalWithdrawn.StringFixed(2),
			r.Balance.StringFixed(2),
			r.Counterparty,
			r.Timestamp.Format(time.RFC3339))
	}
	w.Flush()
}

func printAudit(cmd *cobra.Command, entries []auditlog.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTOR\tACTION\tACCOUNT\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.Actor, e.Action, e.Account, e.Detail)
	}
	w.Flush()
}
