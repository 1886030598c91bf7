// Package ledger defines the persistence ports of the balance ledger: an
// append-only expense table and a sparse per-day balance snapshot table,
// both keyed by user and calendar day.
package ledger

import (
	"context"

	"economoney/internal/core"
)

type (
	// Reader holds the read-only queries shared by stores and transactions.
	Reader interface {
		// SnapshotOn returns the snapshot of userID on day or core.ErrNotFound.
		SnapshotOn(ctx context.Context, userID int64, day core.Day) (core.BalanceSnapshot, error)
		// LatestSnapshot returns the user's most recent snapshot whatever its
		// day, or core.ErrNotFound when the user has no history.
		LatestSnapshot(ctx context.Context, userID int64) (core.BalanceSnapshot, error)
		// SnapshotsBetween lists snapshots with from <= day <= to, ordered by day.
		SnapshotsBetween(ctx context.Context, userID int64, from, to core.Day) ([]core.BalanceSnapshot, error)

		// SumByCategory groups expenses with from <= day <= to by category.
		SumByCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.CategoryAmount, error)
		// SumByDayCategory groups expenses with from <= day <= to by day and
		// category, ordered by day.
		SumByDayCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.DayCategoryAmount, error)
		// SumExpenses totals expenses with from <= day <= to.
		SumExpenses(ctx context.Context, userID int64, from, to core.Day) (core.Money, error)
		// ListExpenses returns expenses with from <= day <= to, ordered by day and id.
		ListExpenses(ctx context.Context, userID int64, from, to core.Day) ([]core.ExpenseRecord, error)
	}

	// Tx is a unit of work. Writes become visible only when the enclosing
	// Store.WithTx callback returns nil.
	Tx interface {
		Reader
		// InsertSnapshot creates the snapshot for (userID, day). It returns
		// core.ErrDuplicate when that row already exists.
		InsertSnapshot(ctx context.Context, userID int64, day core.Day, balance core.Money) (core.BalanceSnapshot, error)
		// AdjustSnapshot applies balance = balance + delta to exactly the
		// (userID, day) row and returns the new balance. A missing row is a
		// *core.ConsistencyError.
		AdjustSnapshot(ctx context.Context, userID int64, day core.Day, delta core.Money) (core.Money, error)
		// InsertExpense appends an expense and returns it with its ID.
		InsertExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
	}

	Store interface {
		Reader
		// WithTx runs fn in a transaction, committing when fn returns nil
		// and rolling back otherwise.
		WithTx(ctx context.Context, fn func(tx Tx) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
