//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"economoney/internal/ledger"
	"economoney/internal/ledger/ledgertest"
)

// Run with: DATABASE_URL=postgres://... go test -tags=integration ./internal/storage/postgres
func TestRepositoryContract(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ledgertest.Run(t, func(t *testing.T) ledger.Store {
		ctx := context.Background()
		repo, err := NewRepository(ctx, url)
		require.NoError(t, err)
		_, err = repo.pool.Exec(ctx, "TRUNCATE expenses, balances RESTART IDENTITY")
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}
