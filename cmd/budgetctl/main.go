package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagUser     int64
	flagDay      string
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:   "budgetctl",
		Short: "💰 Operate the daily budget ledger from the terminal",
		Long: `budgetctl reads and mutates the same ledger the chat server uses.

Configuration comes from the environment and an optional .env file
(DATA_BACKEND, SQLITE_DB_PATH, DATABASE_URL, DAILY_LIMIT, TIMEZONE, ...).
Negative amounts must follow "--", for example: budgetctl adjust --user 42 -- -500`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
)

func init() {
	rootCmd.PersistentFlags().Int64Var(&flagUser, "user", 0, "user id the command acts on (required)")
	rootCmd.PersistentFlags().StringVar(&flagDay, "day", "", "day as YYYY-MM-DD (default: today in TIMEZONE)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(spendCmd())
	rootCmd.AddCommand(adjustCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(breakdownCmd())
	rootCmd.AddCommand(expensesCmd())
	rootCmd.AddCommand(mirrorCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
