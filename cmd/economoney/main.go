package main

import (
	"context"
	"os"
	"time"

	"economoney/internal/backend"
	"economoney/internal/cache"
	"economoney/internal/chat"
	"economoney/internal/cli"
	apphttp "economoney/internal/http"
	"economoney/internal/log"
	"economoney/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	limit, _ := cfg.Limit()
	clock, _ := cli.Clock(cfg)

	storeRes, err := cli.InitStore(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	bcfg, _ := backend.FromAppConfig(cfg)
	publisher, closePublisher := backend.NewFactory(logger).CreatePublisher(bcfg)

	balances := services.NewBalanceService(storeRes.Store, limit)
	reports := services.NewReportService(balances, cfg.ReportCacheTTL)
	ledger := services.NewLedgerService(balances, publisher, reports).WithLogger(logger)

	caches := cache.NewManager()
	reports.RegisterCaches(caches)
	caches.StartCleanup(cacheCleanupInterval)

	bot := chat.NewBot(ledger, reports, services.NewSessionStore(), clock, cfg.CurrencySymbol).WithLogger(logger)
	srv := apphttp.NewServer(":"+cfg.Port, bot, storeRes.Store, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, _ := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	logger.Info("Starting economoney server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"daily_limit", limit.String(),
		"amqp_enabled", publisher != nil)
	if err := cli.Serve(ctx, srv, shutdownTimeout); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
	}

	caches.Stop()
	if closePublisher != nil {
		_ = closePublisher()
	}
	if err := storeRes.Cleanup(); err != nil {
		logger.Error("Failed to close ledger store", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
