package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/amqp"
	"spendlog/internal/sheets"
	gsheet "spendlog/internal/sheets/google"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// HealthChecker reports whether the record store can serve requests.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// BackendResult bundles the collaborators built from one configuration.
// Publisher and Sheets are nil when their integration is disabled.
type BackendResult struct {
	Records   *storage.Records
	Health    HealthChecker
	Publisher *amqp.Client
	Sheets    sheets.Exporter
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

type alwaysReady struct{}

func (alwaysReady) Ping(context.Context) error { return nil }

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &BackendResult{}
	var closers []func() error

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		res.Records = storage.NewRecords(store)
		res.Health = store
		closers = append(closers, store.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store := storage.NewMemoryStore()
		res.Records = storage.NewRecords(store)
		res.Health = alwaysReady{}
		f.logger.Info("Initialized memory backend; data is lost on exit")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			// Treats are then granted in-process.
			f.logger.Warn("Failed to initialize AMQP client, continuing without activity events", "error", err)
		} else {
			res.Publisher = client
			closers = append(closers, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	switch {
	case config.GoogleSpreadsheetID != "":
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			res.close(closers)
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		res.Sheets = client
	case config.Type == MemoryBackend:
		res.Sheets = memory.New()
		f.logger.Info("Using in-memory sheet for exports")
	}

	res.Cleanup = func() error { return res.close(closers) }
	return res, nil
}

func (r *BackendResult) close(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
