package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"economoney/internal/cache"
	"economoney/internal/core"
	"economoney/internal/ledger"
)

const breakdownDays = 7

type (
	// PeriodTotals sums the expenses of one period by category.
	PeriodTotals struct {
		Period     core.Period
		From       core.Day
		To         core.Day
		Categories []core.CategoryAmount // largest first, empty category labelled
		Total      core.Money
	}

	DayBreakdown struct {
		Day        core.Day
		Categories []core.CategoryAmount
		Total      core.Money
		// Balance is only meaningful when HasBalance is set; days without a
		// materialized snapshot are not reconstructed.
		Balance    core.Money
		HasBalance bool
	}

	WeeklyBreakdown struct {
		From       core.Day
		To         core.Day
		Days       []DayBreakdown // oldest first, one entry per calendar day
		GrandTotal core.Money
	}

	DayReport struct {
		Totals  PeriodTotals
		Balance core.Money
	}
)

// ByCategory returns the totals as a category to amount mapping.
func (p PeriodTotals) ByCategory() map[string]core.Money {
	out := make(map[string]core.Money, len(p.Categories))
	for _, c := range p.Categories {
		out[c.Category] = c.Amount
	}
	return out
}

// ReportService reconstructs period aggregates. It never writes to the
// store.
type ReportService struct {
	store    ledger.Store
	balances *BalanceService

	totals    *cache.LRUCache[PeriodTotals]
	breakdown *cache.LRUCache[WeeklyBreakdown]
	group     singleflight.Group

	// generations makes fills that raced an invalidation land on keys
	// nobody reads anymore.
	mu          sync.Mutex
	generations map[int64]uint64
}

// NewReportService caches results for ttl; a zero ttl disables caching.
func NewReportService(balances *BalanceService, ttl time.Duration) *ReportService {
	s := &ReportService{
		store:       balances.store,
		balances:    balances,
		generations: make(map[int64]uint64),
	}
	if ttl > 0 {
		s.totals = cache.NewLRUCache[PeriodTotals](1024, ttl)
		s.breakdown = cache.NewLRUCache[WeeklyBreakdown](256, ttl)
	}
	return s
}

// RegisterCaches hands the report caches to m for periodic cleanup.
func (s *ReportService) RegisterCaches(m *cache.Manager) {
	if s.totals == nil {
		return
	}
	m.Register(s.totals)
	m.Register(s.breakdown)
}

// Invalidate drops every cached report of userID.
func (s *ReportService) Invalidate(userID int64) {
	if s.totals == nil {
		return
	}
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()

	prefix := strconv.FormatInt(userID, 10) + ":"
	s.totals.DeletePrefix(prefix)
	s.breakdown.DeletePrefix(prefix)
}

// PeriodTotals sums userID's expenses from the start of period through today.
func (s *ReportService) PeriodTotals(ctx context.Context, userID int64, period core.Period, today core.Day) (PeriodTotals, error) {
	from, err := period.Start(today)
	if err != nil {
		return PeriodTotals{}, err
	}
	key := s.keyPrefix(userID) + string(period) + ":" + today.String()
	return cached(s, s.totals, key, func() (PeriodTotals, error) {
		sums, err := s.store.SumByCategory(ctx, userID, from, today)
		if err != nil {
			return PeriodTotals{}, fmt.Errorf("period totals: %w", err)
		}
		categories, total := labelCategories(sums)
		return PeriodTotals{
			Period:     period,
			From:       from,
			To:         today,
			Categories: categories,
			Total:      total,
		}, nil
	})
}

// WeeklyBreakdown reports each of the seven days ending on today with its
// category totals and materialized balance.
func (s *ReportService) WeeklyBreakdown(ctx context.Context, userID int64, today core.Day) (WeeklyBreakdown, error) {
	from := today.AddDays(-(breakdownDays - 1))
	key := s.keyPrefix(userID) + "breakdown:" + today.String()
	return cached(s, s.breakdown, key, func() (WeeklyBreakdown, error) {
		sums, err := s.store.SumByDayCategory(ctx, userID, from, today)
		if err != nil {
			return WeeklyBreakdown{}, fmt.Errorf("weekly breakdown: %w", err)
		}
		snaps, err := s.store.SnapshotsBetween(ctx, userID, from, today)
		if err != nil {
			return WeeklyBreakdown{}, fmt.Errorf("weekly breakdown: %w", err)
		}

		perDay := make(map[string][]core.CategoryAmount, breakdownDays)
		for _, row := range sums {
			k := row.Day.String()
			perDay[k] = append(perDay[k], core.CategoryAmount{Category: row.Category, Amount: row.Amount})
		}
		balances := make(map[string]core.Money, len(snaps))
		for _, snap := range snaps {
			balances[snap.Day.String()] = snap.Balance
		}

		out := WeeklyBreakdown{From: from, To: today}
		for _, day := range core.DaysBetween(from, today) {
			categories, total := labelCategories(perDay[day.String()])
			balance, ok := balances[day.String()]
			out.Days = append(out.Days, DayBreakdown{
				Day:        day,
				Categories: categories,
				Total:      total,
				Balance:    balance,
				HasBalance: ok,
			})
			out.GrandTotal = out.GrandTotal.Add(total)
		}
		return out, nil
	})
}

// DayBalance returns the end-of-day balance of today without materializing
// a snapshot. Without a snapshot for today the accrued balance is reduced
// by today's expenses.
func (s *ReportService) DayBalance(ctx context.Context, userID int64, today core.Day) (core.Money, error) {
	snap, err := s.store.SnapshotOn(ctx, userID, today)
	if err == nil {
		return snap.Balance, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Money{}, fmt.Errorf("day balance: %w", err)
	}

	base, err := s.balances.Peek(ctx, userID, today)
	if err != nil {
		return core.Money{}, fmt.Errorf("day balance: %w", err)
	}
	spent, err := s.store.SumExpenses(ctx, userID, today, today)
	if err != nil {
		return core.Money{}, fmt.Errorf("day balance: %w", err)
	}
	return base.Sub(spent), nil
}

// DayReport combines today's category totals with the end-of-day balance.
// The balance is never cached.
func (s *ReportService) DayReport(ctx context.Context, userID int64, today core.Day) (DayReport, error) {
	totals, err := s.PeriodTotals(ctx, userID, core.PeriodDay, today)
	if err != nil {
		return DayReport{}, err
	}
	balance, err := s.DayBalance(ctx, userID, today)
	if err != nil {
		return DayReport{}, err
	}
	return DayReport{Totals: totals, Balance: balance}, nil
}

// Expenses lists the individual expenses with from <= day <= to. The
// listing is not cached.
func (s *ReportService) Expenses(ctx context.Context, userID int64, from, to core.Day) ([]core.ExpenseRecord, error) {
	records, err := s.store.ListExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return records, nil
}

// cached serves key from c, filling it through fill at most once per key at
// a time.
func cached[T any](s *ReportService, c *cache.LRUCache[T], key string, fill func() (T, error)) (T, error) {
	if c == nil {
		return fill()
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		v, err := fill()
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// keyPrefix is "<user>:<generation>:".
func (s *ReportService) keyPrefix(userID int64) string {
	s.mu.Lock()
	gen := s.generations[userID]
	s.mu.Unlock()
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatUint(gen, 10) + ":"
}

// labelCategories names the empty category, merges rows sharing a label
// and orders the result by amount, largest first.
func labelCategories(sums []core.CategoryAmount) ([]core.CategoryAmount, core.Money) {
	merged := make(map[string]core.Money, len(sums))
	var total core.Money
	for _, s := range sums {
		label := core.CategoryOrDefault(s.Category)
		merged[label] = merged[label].Add(s.Amount)
		total = total.Add(s.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(merged))
	for label, amount := range merged {
		out = append(out, core.CategoryAmount{Category: label, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out, total
}
