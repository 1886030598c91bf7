package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"economoney/internal/ledger"
	"economoney/internal/ledger/ledgertest"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store { return newTestRepository(t) })
}

func TestNewSQLiteRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// migrations are idempotent
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	assert.NoError(t, repo.Close())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("a.db?cache=shared"))
}
