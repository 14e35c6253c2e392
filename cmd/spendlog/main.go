package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/backend"
	"spendlog/internal/cache"
	"spendlog/internal/cli"
	"spendlog/internal/geocode"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/share"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(cli.SetupLogger(applog.ComponentApp, "info"), "Failed to load .env file", err)
	}

	logger := cli.SetupLogger(applog.ComponentApp, "info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentApp, cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	compressor, err := share.Probe(share.Mode(cfg.ShareCodec))
	if err != nil {
		cli.Fatal(logger, "Failed to select share codec", err, applog.FieldCodec, cfg.ShareCodec)
	}
	codec := share.NewCodec(compressor, share.WithMaxDecodedBytes(int64(cfg.ShareMaxDecodedBytes)))

	// A nil *amqp.Client must not become a non-nil interface.
	var publisher services.ActivityPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}

	pets := services.NewPetService(result.Records)
	expenses, err := services.NewExpenseService(ctx, result.Records, pets, publisher)
	if err != nil {
		cli.Fatal(logger, "Failed to load expenses", err)
	}

	geocoder := geocode.New(geocode.Config{
		BaseURL:   cfg.GeocodeURL,
		UserAgent: cfg.GeocodeUserAgent,
		CacheSize: cfg.GeocodeCacheSize,
		CacheTTL:  cfg.GeocodeCacheTTL,
	})
	caches := cache.NewManager()
	caches.Register(geocoder.Cache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:       expenses,
		Pets:           pets,
		Locations:      services.NewLocationService(result.Records, geocoder),
		Codec:          codec,
		Sheets:         result.Sheets,
		Health:         result.Health,
		Logger:         logger,
		PublicOrigin:   cfg.PublicOrigin,
		RateLimit:      cfg.RateLimitPerMinute,
		TrustedProxies: cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendlog server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			applog.FieldCodec, codec.Compression(),
			"activity_events", result.Publisher != nil,
			"sheets_export", result.Sheets != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		caches.Stop()
		if cerr := result.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup failed", "error", cerr)
		}
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}
	logger.Info("Server stopped gracefully")
}
