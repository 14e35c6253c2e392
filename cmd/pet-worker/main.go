package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/backend"
	"spendlog/internal/cli"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(cli.SetupLogger(applog.ComponentWorker, "info"), "Failed to load .env file", err)
	}

	logger := cli.SetupLogger(applog.ComponentWorker, "info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentWorker, cfg.LogLevel)
	logger.Info("Starting pet-worker")

	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "pet-worker needs an activity queue", errors.New("AMQP_URL is not set"))
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	if result.Publisher == nil {
		cli.Fatal(logger, "Failed to connect to the activity queue", errors.New("AMQP client unavailable"),
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	pets := services.NewPetService(result.Records)
	w := worker.NewActivityWorker(pets, result.Records, result.Sheets)
	if result.Sheets == nil {
		logger.Info("Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := result.Publisher.ConsumeActivity(gctx, w.HandleActivity)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if result.Sheets != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.SyncInterval)
			defer ticker.Stop()

			sync := func() {
				if _, err := w.SyncSheets(gctx); err != nil {
					logger.Error("Periodic sheets sync failed", "error", err)
				}
			}
			sync()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					sync()
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		if cerr := result.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup failed", "error", cerr)
		}
		cli.Fatal(logger, "Worker stopped with error", err)
	}
	logger.Info("Worker shutdown complete")
}
