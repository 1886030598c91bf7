package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"economoney/internal/core"
	"economoney/internal/services"
)

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "report day|week|month",
		Short:     "Show expense totals by category for a period",
		Long:      "Sum expenses by category for the period ending on --day. The day report also shows the end-of-day balance.",
		ValidArgs: []string{string(core.PeriodDay), string(core.PeriodWeek), string(core.PeriodMonth)},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := core.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			day, err := current.day()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if period == core.PeriodDay {
				report, err := current.reports.DayReport(cmd.Context(), flagUser, day)
				if err != nil {
					return fmt.Errorf("failed to build day report: %w", err)
				}
				writeTotals(out, report.Totals)
				fmt.Fprintf(out, "End-of-day balance: %s\n", current.money(report.Balance))
				return nil
			}

			totals, err := current.reports.PeriodTotals(cmd.Context(), flagUser, period, day)
			if err != nil {
				return fmt.Errorf("failed to build %s report: %w", period, err)
			}
			writeTotals(out, totals)
			return nil
		},
	}
}

func writeTotals(out io.Writer, t services.PeriodTotals) {
	fmt.Fprintf(out, "Expenses %s .. %s\n", t.From, t.To)
	if len(t.Categories) == 0 {
		fmt.Fprintln(out, "No expenses.")
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range t.Categories {
		fmt.Fprintf(w, "  %s\t%s\n", c.Category, current.money(c.Amount))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "Total: %s\n", current.money(t.Total))
}

func breakdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown",
		Short: "Show the last seven days with categories and closing balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := current.day()
			if err != nil {
				return err
			}
			b, err := current.reports.WeeklyBreakdown(cmd.Context(), flagUser, day)
			if err != nil {
				return fmt.Errorf("failed to build weekly breakdown: %w", err)
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tSPENT\tBALANCE")
			for _, d := range b.Days {
				balance := "-"
				if d.HasBalance {
					balance = current.money(d.Balance)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Day, current.money(d.Total), balance)
				for _, c := range d.Categories {
					fmt.Fprintf(w, "  %s\t%s\t\n", c.Category, current.money(c.Amount))
				}
			}
			_ = w.Flush()
			fmt.Fprintf(out, "Spent this week: %s\n", current.money(b.GrandTotal))
			return nil
		},
	}
}
