// Package cli provides common process bootstrap utilities shared by
// cmd/economoney, cmd/economoney-worker and cmd/budgetctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"economoney/internal/backend"
	"economoney/internal/config"
	"economoney/internal/core"
	"economoney/internal/log"
)

// SetupLogger builds the process logger for the given LOG_LEVEL value and
// installs it as the slog default.
func SetupLogger(level string) *log.Logger {
	lvl := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clock returns the clock that decides "today" for the configured timezone.
func Clock(cfg *config.Config) (core.Clock, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return core.LocalClock{Location: loc}, nil
}

// InitStore opens the configured ledger store.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.StoreResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("init %s store: %w", bcfg.Type, err)
	}
	return res, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once after the signal, bounded by timeout; done closes when it
// returned or the timeout expired.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
		cancel()
		runCleanup(logger, timeout, cleanup)
		close(done)
	}()

	return ctx, done
}

func runCleanup(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	finished := make(chan struct{})
	go func() {
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		close(finished)
	}()

	select {
	case <-finished:
		logger.Info("Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	}
}
