package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"economoney/internal/core"
)

func expensesCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List individual expenses with the daily limit they are measured against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}
			to, err := current.day()
			if err != nil {
				return err
			}
			from := to.AddDays(-(days - 1))
			records, err := current.reports.Expenses(cmd.Context(), flagUser, from, to)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Expenses %s .. %s (daily limit %s)\n", from, to, current.money(current.balances.DailyLimit()))
			if len(records) == 0 {
				fmt.Fprintln(out, "No expenses.")
				return nil
			}
			var total core.Money
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDAY\tCATEGORY\tAMOUNT")
			for _, e := range records {
				total = total.Add(e.Amount)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Day, core.CategoryOrDefault(e.Category), current.money(e.Amount))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Total: %s\n", current.money(total))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of days to list, ending on --day")
	return cmd
}
