package backend

import (
	"context"

	"economoney/internal/ledger"
	"economoney/internal/services"
	"economoney/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the ledger store and its cleanup function
type StoreResult struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Mirror is the spreadsheet the worker writes posted expenses to.
type Mirror interface {
	sheets.RowWriter
	sheets.RowLister
}

// Factory creates the process's external dependencies from configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	// CreatePublisher returns a nil publisher when event fan-out is disabled
	// or the broker is unreachable.
	CreatePublisher(config Config) (services.EventPublisher, CleanupFunc)
	CreateMirror(ctx context.Context, config Config) (Mirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of ledger store
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
