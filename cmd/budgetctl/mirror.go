package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func mirrorCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "List the expenses mirrored to the spreadsheet",
		Long: `List the rows the sync worker appended to the configured Google
spreadsheet for the days ending on --day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}
			to, err := current.day()
			if err != nil {
				return err
			}
			mirror, err := current.mirror(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := mirror.ListRows(cmd.Context(), flagUser, to.AddDays(-(days - 1)), to)
			if err != nil {
				return fmt.Errorf("failed to list mirrored rows: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No mirrored expenses.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tCATEGORY\tAMOUNT\tBALANCE\tEVENT")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.Day, r.Category, current.money(r.Amount), current.money(r.Balance), r.EventID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to list")
	return cmd
}
