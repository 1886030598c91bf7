// Package ledgertest holds the behaviour every ledger.Store must share.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"economoney/internal/core"
	"economoney/internal/ledger"
)

var (
	day1 = core.NewDay(2025, 3, 1)
	day2 = core.NewDay(2025, 3, 2)
	day5 = core.NewDay(2025, 3, 5)
)

// Run exercises newStore against the ledger.Store contract. newStore must
// return an empty store; the suite uses user ids 1 and 2.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Run("snapshots", func(t *testing.T) { testSnapshots(t, newStore(t)) })
	t.Run("adjust", func(t *testing.T) { testAdjust(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("ping", func(t *testing.T) { assert.NoError(t, newStore(t).Ping(context.Background())) })
}

func insertSnapshot(t *testing.T, s ledger.Store, userID int64, day core.Day, balance string) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx ledger.Tx) error {
		_, err := tx.InsertSnapshot(context.Background(), userID, day, core.MustMoney(balance))
		return err
	})
	require.NoError(t, err)
}

func insertExpense(t *testing.T, s ledger.Store, userID int64, day core.Day, amount, category string) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx ledger.Tx) error {
		_, err := tx.InsertExpense(context.Background(), core.ExpenseRecord{
			UserID: userID, Day: day, Amount: core.MustMoney(amount), Category: category,
		})
		return err
	})
	require.NoError(t, err)
}

func testSnapshots(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	_, err := s.SnapshotOn(ctx, 1, day1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.LatestSnapshot(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)

	insertSnapshot(t, s, 1, day1, "2000")
	insertSnapshot(t, s, 1, day2, "3500")
	insertSnapshot(t, s, 2, day1, "10")

	snap, err := s.SnapshotOn(ctx, 1, day2)
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney("3500"), snap.Balance)
	assert.Equal(t, int64(1), snap.UserID)
	assert.Equal(t, day2.String(), snap.Day.String())

	latest, err := s.LatestSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, day2.String(), latest.Day.String())
	assert.Equal(t, core.MustMoney("3500"), latest.Balance)

	// ordered by day, not by insertion
	insertSnapshot(t, s, 2, day5, "20")
	insertSnapshot(t, s, 2, day2, "30")
	latest, err = s.LatestSnapshot(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, day5.String(), latest.Day.String())

	between, err := s.SnapshotsBetween(ctx, 1, day1, day5)
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, day1.String(), between[0].Day.String())
	assert.Equal(t, day2.String(), between[1].Day.String())

	err = s.WithTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.InsertSnapshot(ctx, 1, day1, core.MustMoney("1"))
		return err
	})
	assert.ErrorIs(t, err, core.ErrDuplicate)
	snap, err = s.SnapshotOn(ctx, 1, day1)
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney("2000"), snap.Balance)
}

func testAdjust(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	insertSnapshot(t, s, 1, day1, "2000")

	var got core.Money
	err := s.WithTx(ctx, func(tx ledger.Tx) error {
		var err error
		got, err = tx.AdjustSnapshot(ctx, 1, day1, core.MustMoney("-2500"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney("-500"), got)

	err = s.WithTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.AdjustSnapshot(ctx, 1, day2, core.MustMoney("1"))
		return err
	})
	assert.ErrorIs(t, err, core.ErrConsistency)
	var ce *core.ConsistencyError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, int64(0), ce.Affected)
}

func testRollback(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.InsertSnapshot(ctx, 1, day1, core.MustMoney("2000")); err != nil {
			return err
		}
		if _, err := tx.InsertExpense(ctx, core.ExpenseRecord{UserID: 1, Day: day1, Amount: core.MustMoney("5")}); err != nil {
			return err
		}
		// writes are visible inside the transaction
		snap, err := tx.SnapshotOn(ctx, 1, day1)
		if err != nil {
			return err
		}
		assert.Equal(t, core.MustMoney("2000"), snap.Balance)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.SnapshotOn(ctx, 1, day1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	total, err := s.SumExpenses(ctx, 1, day1, day1)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func testExpenses(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.InsertExpense(ctx, core.ExpenseRecord{UserID: 1, Day: day1, Amount: core.Money{}})
		return err
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	insertExpense(t, s, 1, day1, "100", "Groceries")
	insertExpense(t, s, 1, day1, "50", "")
	insertExpense(t, s, 1, day2, "300", "Transport")
	insertExpense(t, s, 1, day2, "25", "Groceries")
	insertExpense(t, s, 1, day5, "7", "Other")
	insertExpense(t, s, 2, day1, "999", "Groceries")

	sums, err := s.SumByCategory(ctx, 1, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Category: "Transport", Amount: core.MustMoney("300")},
		{Category: "Groceries", Amount: core.MustMoney("125")},
		{Category: "", Amount: core.MustMoney("50")},
	}, sums)

	byDay, err := s.SumByDayCategory(ctx, 1, day1, day5)
	require.NoError(t, err)
	require.Len(t, byDay, 5)
	assert.Equal(t, day1.String(), byDay[0].Day.String())
	assert.Equal(t, "Groceries", byDay[0].Category)
	assert.Equal(t, "", byDay[1].Category)
	assert.Equal(t, "Transport", byDay[2].Category)
	assert.Equal(t, day5.String(), byDay[4].Day.String())

	total, err := s.SumExpenses(ctx, 1, day2, day5)
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney("332"), total)

	list, err := s.ListExpenses(ctx, 1, day1, day2)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, core.MustMoney("100"), list[0].Amount)
	assert.Equal(t, "", list[1].Category)
	assert.Less(t, list[0].ID, list[1].ID)
	assert.Equal(t, day2.String(), list[3].Day.String())

	empty, err := s.ListExpenses(ctx, 1, core.NewDay(2024, 1, 1), core.NewDay(2024, 1, 31))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
