package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"economoney/internal/core"
)

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the balance available for the day",
		Long: `Resolve the balance of the day, accruing the daily limit for every
day since the last recorded balance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := current.day()
			if err != nil {
				return err
			}
			balance, err := current.ledger.Balance(cmd.Context(), flagUser, day)
			if err != nil {
				return fmt.Errorf("failed to resolve balance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance for %s: %s\n", day, current.money(balance))
			return nil
		},
	}
}

func spendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spend AMOUNT [CATEGORY]",
		Short: "Record an expense",
		Example: `  budgetctl spend --user 42 350 Groceries
  budgetctl spend --user 42 12.50 "Delivery/Restaurants"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			if !amount.IsPositive() {
				return fmt.Errorf("%w: expense must be greater than zero", core.ErrInvalidAmount)
			}
			category := strings.TrimSpace(strings.Join(args[1:], " "))
			day, err := current.day()
			if err != nil {
				return err
			}

			balance, err := current.ledger.PostExpense(cmd.Context(), flagUser, amount, category, day)
			if err != nil {
				return fmt.Errorf("failed to post expense: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spent %s on %s.\nLeft for %s: %s\n",
				current.money(amount), core.CategoryOrDefault(category), day, current.money(balance))
			return nil
		},
	}
}

func adjustCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "adjust DELTA",
		Short:   "Increase or decrease the day's budget",
		Example: "  budgetctl adjust --user 42 1000\n  budgetctl adjust --user 42 -- -500",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			day, err := current.day()
			if err != nil {
				return err
			}

			balance, err := current.ledger.AdjustBudget(cmd.Context(), flagUser, delta, day)
			if err != nil {
				return fmt.Errorf("failed to adjust budget: %w", err)
			}
			verb := "increased"
			if delta.IsNegative() {
				verb = "decreased"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget %s by %s.\nCurrent balance: %s\n",
				verb, current.money(delta.Abs()), current.money(balance))
			return nil
		},
	}
}
