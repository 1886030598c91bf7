package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"economoney/internal/amqp"
	"economoney/internal/backend"
	"economoney/internal/cache"
	"economoney/internal/cli"
	"economoney/internal/log"
	"economoney/internal/worker"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	mirror, err := backend.NewFactory(logger).CreateMirror(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize spreadsheet mirror", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewSyncWorker(mirror)
	caches := cache.NewManager()
	w.RegisterCaches(caches)
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	logger.Info("Starting economoney sync worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"sheets_enabled", cfg.SheetsEnabled())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerEvents(gctx, w.HandleLedgerEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sync worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	<-done
	logger.Info("Sync worker stopped")
}
