package backend

import (
	"context"
	"fmt"

	"economoney/internal/amqp"
	"economoney/internal/log"
	"economoney/internal/services"
	gsheet "economoney/internal/sheets/google"
	sheetsmem "economoney/internal/sheets/memory"
	"economoney/internal/storage"
	"economoney/internal/storage/memory"
	"economoney/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite ledger store", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil

	case PostgresBackend:
		repo, err := postgres.NewRepository(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL ledger store")
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		f.logger.Warn("Using in-memory ledger store, data is lost on restart")
		store := memory.New()
		return &StoreResult{Store: store, Cleanup: store.Close}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}

// CreatePublisher implements Factory.CreatePublisher
func (f *DefaultFactory) CreatePublisher(config Config) (services.EventPublisher, CleanupFunc) {
	if config.AMQPURL == "" {
		return nil, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return nil, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, client.Close
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (Mirror, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Warn("No spreadsheet configured, mirroring expenses in memory")
		return sheetsmem.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", config.GoogleSpreadsheetID)
	return client, nil
}
