package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"economoney/internal/cache"
	"economoney/internal/core"
	"economoney/internal/sheets/memory"
)

func expenseEvent(id string) core.LedgerEvent {
	return core.LedgerEvent{
		ID:       id,
		Kind:     core.EventExpensePosted,
		UserID:   7,
		Day:      core.NewDay(2025, 3, 1),
		Amount:   core.MustMoney("120"),
		Category: "Transport",
		Balance:  core.MustMoney("1880"),
	}
}

func TestHandleLedgerEvent_MirrorsExpense(t *testing.T) {
	rows := memory.New()
	w := NewSyncWorker(rows)

	require.NoError(t, w.HandleLedgerEvent(context.Background(), expenseEvent("e1")))

	got := rows.Rows()
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].UserID)
	assert.Equal(t, "Transport", got[0].Category)
	assert.Equal(t, core.MustMoney("1880"), got[0].Balance)
	assert.Equal(t, "e1", got[0].EventID)
}

func TestHandleLedgerEvent_Redelivery(t *testing.T) {
	rows := memory.New()
	w := NewSyncWorker(rows)
	ctx := context.Background()

	require.NoError(t, w.HandleLedgerEvent(ctx, expenseEvent("e1")))
	require.NoError(t, w.HandleLedgerEvent(ctx, expenseEvent("e1")))
	require.NoError(t, w.HandleLedgerEvent(ctx, expenseEvent("e2")))

	assert.Len(t, rows.Rows(), 2)
}

func TestHandleLedgerEvent_IgnoresAdjustments(t *testing.T) {
	rows := memory.New()
	w := NewSyncWorker(rows)

	e := expenseEvent("a1")
	e.Kind = core.EventBudgetAdjusted
	require.NoError(t, w.HandleLedgerEvent(context.Background(), e))
	assert.Empty(t, rows.Rows())
}

func TestHandleLedgerEvent_AppendFailureIsRetryable(t *testing.T) {
	rows := memory.New()
	rows.Fail = errors.New("quota exceeded")
	w := NewSyncWorker(rows)
	ctx := context.Background()

	err := w.HandleLedgerEvent(ctx, expenseEvent("e1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	rows.Fail = nil
	require.NoError(t, w.HandleLedgerEvent(ctx, expenseEvent("e1")))
	assert.Len(t, rows.Rows(), 1)
}

func TestRegisterCaches(t *testing.T) {
	w := NewSyncWorker(memory.New())
	m := cache.NewManager()
	w.RegisterCaches(m)
	assert.Zero(t, m.Sweep())
}
