package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"economoney/internal/core"
)

func post(t *testing.T, e *engine, day core.Day, amount, category string) {
	t.Helper()
	_, err := e.ledger.PostExpense(context.Background(), 1, money(amount), category, day)
	require.NoError(t, err)
}

func TestPeriodTotals_Windows(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	today := core.NewDay(2025, 3, 10)

	post(t, e, core.NewDay(2025, 2, 28), "1000", "Groceries") // previous month
	post(t, e, today.AddDays(-8), "1", "Transport")           // outside rolling week
	post(t, e, today.AddDays(-7), "200", "Transport")         // first day of rolling week
	post(t, e, today.AddDays(-1), "30", "Groceries")
	post(t, e, today, "40", "Groceries")
	post(t, e, today, "5", "")

	day, err := e.reports.PeriodTotals(ctx, 1, core.PeriodDay, today)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.Money{
		"Groceries":             money("40"),
		core.UncategorizedLabel: money("5"),
	}, day.ByCategory())
	assert.Equal(t, money("45"), day.Total)

	week, err := e.reports.PeriodTotals(ctx, 1, core.PeriodWeek, today)
	require.NoError(t, err)
	assert.Equal(t, today.AddDays(-7), week.From)
	assert.Equal(t, map[string]core.Money{
		"Transport":             money("200"),
		"Groceries":             money("70"),
		core.UncategorizedLabel: money("5"),
	}, week.ByCategory())
	assert.Equal(t, "Transport", week.Categories[0].Category, "largest first")

	month, err := e.reports.PeriodTotals(ctx, 1, core.PeriodMonth, today)
	require.NoError(t, err)
	assert.Equal(t, core.NewDay(2025, 3, 1), month.From)
	assert.Equal(t, money("276"), month.Total)
}

func TestPeriodTotals_EmptyAndInvalid(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	totals, err := e.reports.PeriodTotals(ctx, 1, core.PeriodMonth, day1)
	require.NoError(t, err)
	assert.Empty(t, totals.Categories)
	assert.True(t, totals.Total.IsZero())

	_, err = e.reports.PeriodTotals(ctx, 1, core.Period("year"), day1)
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestPeriodTotals_DoesNotWrite(t *testing.T) {
	e := newEngine(t)
	_, err := e.reports.PeriodTotals(context.Background(), 1, core.PeriodWeek, day1)
	require.NoError(t, err)
	assert.Zero(t, e.store.SnapshotCount(1))
}

func TestWeeklyBreakdown(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	today := core.NewDay(2025, 3, 10)

	post(t, e, today.AddDays(-7), "999", "Other") // outside the 7-day window
	post(t, e, today.AddDays(-6), "100", "Groceries")
	post(t, e, today.AddDays(-6), "50", "Transport")
	post(t, e, today.AddDays(-2), "20", "")
	post(t, e, today, "10", "Groceries")

	wb, err := e.reports.WeeklyBreakdown(ctx, 1, today)
	require.NoError(t, err)
	require.Len(t, wb.Days, 7)
	assert.Equal(t, today.AddDays(-6), wb.From)
	assert.Equal(t, today.AddDays(-6), wb.Days[0].Day)
	assert.Equal(t, today, wb.Days[6].Day)
	assert.Equal(t, money("180"), wb.GrandTotal)

	first := wb.Days[0]
	assert.Equal(t, money("150"), first.Total)
	assert.True(t, first.HasBalance)
	assert.Equal(t, money("2851"), first.Balance)

	idle := wb.Days[1]
	assert.Empty(t, idle.Categories)
	assert.False(t, idle.HasBalance, "days without a snapshot are not reconstructed")

	assert.Equal(t, core.UncategorizedLabel, wb.Days[4].Categories[0].Category)
}

func TestWeeklyBreakdown_GrandTotalEqualsDailyTotals(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	today := core.NewDay(2025, 3, 10)
	for i := 0; i < 9; i++ {
		post(t, e, today.AddDays(-i), "1.25", "Groceries")
		if i%2 == 0 {
			post(t, e, today.AddDays(-i), "3", "")
		}
	}

	wb, err := e.reports.WeeklyBreakdown(ctx, 1, today)
	require.NoError(t, err)

	var sum core.Money
	for _, d := range core.DaysBetween(today.AddDays(-6), today) {
		totals, err := e.reports.PeriodTotals(ctx, 1, core.PeriodDay, d)
		require.NoError(t, err)
		sum = sum.Add(totals.Total)
	}
	assert.Equal(t, sum, wb.GrandTotal)
}

func TestDayBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot today", func(t *testing.T) {
		e := newEngine(t)
		post(t, e, day1, "300", "Other")
		balance, err := e.reports.DayBalance(ctx, 1, day1)
		require.NoError(t, err)
		assert.Equal(t, money("1700"), balance)
	})

	t.Run("no history", func(t *testing.T) {
		e := newEngine(t)
		balance, err := e.reports.DayBalance(ctx, 1, day1)
		require.NoError(t, err)
		assert.Equal(t, limit, balance)
		assert.Zero(t, e.store.SnapshotCount(1))
	})

	t.Run("matches resolve after missed days", func(t *testing.T) {
		e := newEngine(t)
		e.store.Seed(1, day1, money("250"))
		today := day1.AddDays(4)

		peeked, err := e.reports.DayBalance(ctx, 1, today)
		require.NoError(t, err)
		assert.Equal(t, 1, e.store.SnapshotCount(1))

		resolved, err := e.balances.Resolve(ctx, 1, today)
		require.NoError(t, err)
		assert.Equal(t, resolved, peeked)
	})
}

func TestDayReport(t *testing.T) {
	e := newEngine(t)
	post(t, e, day1, "120", "Entertainment")

	report, err := e.reports.DayReport(context.Background(), 1, day1)
	require.NoError(t, err)
	assert.Equal(t, money("120"), report.Totals.Total)
	assert.Equal(t, money("1880"), report.Balance)
}

func TestExpenses(t *testing.T) {
	e := newEngine(t)
	post(t, e, day1, "500", "Groceries")
	post(t, e, day1.AddDays(1), "40", "")
	post(t, e, day1.AddDays(5), "7", "Other")

	records, err := e.reports.Expenses(context.Background(), 1, day1, day1.AddDays(1))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Groceries", records[0].Category)
	assert.Equal(t, money("40"), records[1].Amount)
	assert.NotZero(t, records[1].ID)
	assert.Equal(t, limit, e.balances.DailyLimit())
}

func TestReportCache_InvalidatedByMutations(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	reports := NewReportService(e.balances, time.Hour)
	svc := NewLedgerService(e.balances, nil, reports)

	_, err := svc.PostExpense(ctx, 1, money("10"), "Other", day1)
	require.NoError(t, err)

	before, err := reports.PeriodTotals(ctx, 1, core.PeriodDay, day1)
	require.NoError(t, err)
	assert.Equal(t, money("10"), before.Total)

	_, err = svc.PostExpense(ctx, 1, money("5"), "Other", day1)
	require.NoError(t, err)

	after, err := reports.PeriodTotals(ctx, 1, core.PeriodDay, day1)
	require.NoError(t, err)
	assert.Equal(t, money("15"), after.Total)

	wb, err := reports.WeeklyBreakdown(ctx, 1, day1)
	require.NoError(t, err)
	assert.Equal(t, money("15"), wb.GrandTotal)
}

func TestReportCache_ServesCachedValue(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	reports := NewReportService(e.balances, time.Hour)
	post(t, e, day1, "10", "Other")

	first, err := reports.PeriodTotals(ctx, 1, core.PeriodDay, day1)
	require.NoError(t, err)

	// written behind the cache's back
	post(t, e, day1, "10", "Other")

	second, err := reports.PeriodTotals(ctx, 1, core.PeriodDay, day1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	reports.Invalidate(1)
	third, err := reports.PeriodTotals(ctx, 1, core.PeriodDay, day1)
	require.NoError(t, err)
	assert.Equal(t, money("20"), third.Total)
}
