package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"economoney/internal/backend"
	"economoney/internal/cli"
	"economoney/internal/core"
	"economoney/internal/log"
	"economoney/internal/services"
)

// app holds the services one command invocation works with.
type app struct {
	balances *services.BalanceService
	ledger   *services.LedgerService
	reports  *services.ReportService
	clock    core.Clock
	currency string
	mirror   func(ctx context.Context) (backend.Mirror, error)
	cleanup  func() error
}

// current is set by setup for the running command.
var current *app

// openApp builds the app from the environment. Tests replace it.
var openApp = func(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger := cli.SetupLogger(level).WithComponent(log.ComponentCLI)

	limit, err := cfg.Limit()
	if err != nil {
		return nil, err
	}
	clock, err := cli.Clock(cfg)
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	factory := backend.NewFactory(logger)
	store, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	publisher, closePublisher := factory.CreatePublisher(bcfg)

	balances := services.NewBalanceService(store.Store, limit)
	reports := services.NewReportService(balances, cfg.ReportCacheTTL)
	return &app{
		balances: balances,
		ledger:   services.NewLedgerService(balances, publisher, reports).WithLogger(logger),
		reports:  reports,
		clock:    clock,
		currency: cfg.CurrencySymbol,
		mirror: func(ctx context.Context) (backend.Mirror, error) {
			return factory.CreateMirror(ctx, bcfg)
		},
		cleanup: func() error {
			var errs []error
			if closePublisher != nil {
				errs = append(errs, closePublisher())
			}
			errs = append(errs, store.Cleanup())
			return errors.Join(errs...)
		},
	}, nil
}

func setup(cmd *cobra.Command, _ []string) error {
	if flagUser == 0 {
		return fmt.Errorf("--user is required: %w", core.ErrInvalidUser)
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	current = a
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if current == nil {
		return nil
	}
	a := current
	current = nil
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// day returns --day or, when unset, today in the configured timezone.
func (a *app) day() (core.Day, error) {
	if flagDay == "" {
		return a.clock.Today(), nil
	}
	d, err := core.ParseDay(flagDay)
	if err != nil {
		return core.Day{}, fmt.Errorf("invalid --day %q: %w", flagDay, err)
	}
	return d, nil
}

func (a *app) money(m core.Money) string {
	return m.String() + " " + a.currency
}
