// Package memory is an in-process ledger store. Data lives only as long as
// the process; it backs tests and DATA_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"economoney/internal/core"
	"economoney/internal/ledger"
)

var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Tx    = (*state)(nil)
)

type snapshotKey struct {
	userID int64
	day    string
}

func keyOf(userID int64, day core.Day) snapshotKey {
	return snapshotKey{userID: userID, day: day.String()}
}

type state struct {
	expenses  []core.ExpenseRecord
	snapshots map[snapshotKey]core.BalanceSnapshot
	nextID    int64
}

type Store struct {
	mu sync.Mutex
	st *state
	// FailCommit, when set, is returned by WithTx instead of committing.
	FailCommit error
}

func New() *Store {
	return &Store{st: &state{snapshots: map[snapshotKey]core.BalanceSnapshot{}}}
}

// WithTx runs fn against a private copy that replaces the live state only
// when fn succeeds. Transactions are serialized.
func (s *Store) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	if s.FailCommit != nil {
		return fmt.Errorf("commit transaction: %w", s.FailCommit)
	}
	s.st = work
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// ExpenseCount and SnapshotCount expose row counts for assertions.
func (s *Store) ExpenseCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.st.expenses {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) SnapshotCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.st.snapshots {
		if k.userID == userID {
			n++
		}
	}
	return n
}

// Seed stores a snapshot directly, bypassing accrual. Meant for tests.
func (s *Store) Seed(userID int64, day core.Day, balance core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextID++
	s.st.snapshots[keyOf(userID, day)] = core.BalanceSnapshot{ID: s.st.nextID, UserID: userID, Day: day, Balance: balance}
}

func (s *Store) read() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Reads outside a transaction see the last committed state; committed
// states are never mutated in place.
func (s *Store) SnapshotOn(ctx context.Context, userID int64, day core.Day) (core.BalanceSnapshot, error) {
	return s.read().SnapshotOn(ctx, userID, day)
}

func (s *Store) LatestSnapshot(ctx context.Context, userID int64) (core.BalanceSnapshot, error) {
	return s.read().LatestSnapshot(ctx, userID)
}

func (s *Store) SnapshotsBetween(ctx context.Context, userID int64, from, to core.Day) ([]core.BalanceSnapshot, error) {
	return s.read().SnapshotsBetween(ctx, userID, from, to)
}

func (s *Store) SumByCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.CategoryAmount, error) {
	return s.read().SumByCategory(ctx, userID, from, to)
}

func (s *Store) SumByDayCategory(ctx context.Context, userID int64, from, to core.Day) ([]core.DayCategoryAmount, error) {
	return s.read().SumByDayCategory(ctx, userID, from, to)
}

func (s *Store) SumExpenses(ctx context.Context, userID int64, from, to core.Day) (core.Money, error) {
	return s.read().SumExpenses(ctx, userID, from, to)
}

func (s *Store) ListExpenses(ctx context.Context, userID int64, from, to core.Day) ([]core.ExpenseRecord, error) {
	return s.read().ListExpenses(ctx, userID, from, to)
}

func (st *state) clone() *state {
	c := &state{
		expenses:  append([]core.ExpenseRecord(nil), st.expenses...),
		snapshots: make(map[snapshotKey]core.BalanceSnapshot, len(st.snapshots)),
		nextID:    st.nextID,
	}
	for k, v := range st.snapshots {
		c.snapshots[k] = v
	}
	return c
}

func (st *state) InsertSnapshot(_ context.Context, userID int64, day core.Day, balance core.Money) (core.BalanceSnapshot, error) {
	key := keyOf(userID, day)
	if _, ok := st.snapshots[key]; ok {
		return core.BalanceSnapshot{}, fmt.Errorf("insert snapshot for user %d on %s: %w", userID, day, core.ErrDuplicate)
	}
	st.nextID++
	snap := core.BalanceSnapshot{ID: st.nextID, UserID: userID, Day: day, Balance: balance}
	st.snapshots[key] = snap
	return snap, nil
}

func (st *state) AdjustSnapshot(_ context.Context, userID int64, day core.Day, delta core.Money) (core.Money, error) {
	key := keyOf(userID, day)
	snap, ok := st.snapshots[key]
	if !ok {
		return core.Money{}, &core.ConsistencyError{Op: "adjust snapshot", UserID: userID, Day: day}
	}
	balance, err := snap.Balance.CheckedAdd(delta)
	if err != nil {
		return core.Money{}, fmt.Errorf("adjust snapshot: %w", err)
	}
	snap.Balance = balance
	st.snapshots[key] = snap
	return snap.Balance, nil
}

func (st *state) InsertExpense(_ context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	st.nextID++
	e.ID = st.nextID
	st.expenses = append(st.expenses, e)
	return e, nil
}

func (st *state) SnapshotOn(_ context.Context, userID int64, day core.Day) (core.BalanceSnapshot, error) {
	snap, ok := st.snapshots[keyOf(userID, day)]
	if !ok {
		return core.BalanceSnapshot{}, core.ErrNotFound
	}
	return snap, nil
}

func (st *state) LatestSnapshot(_ context.Context, userID int64) (core.BalanceSnapshot, error) {
	var (
		best  core.BalanceSnapshot
		found bool
	)
	for k, v := range st.snapshots {
		if k.userID != userID {
			continue
		}
		if !found || v.Day.After(best.Day) {
			best, found = v, true
		}
	}
	if !found {
		return core.BalanceSnapshot{}, core.ErrNotFound
	}
	return best, nil
}

func (st *state) SnapshotsBetween(_ context.Context, userID int64, from, to core.Day) ([]core.BalanceSnapshot, error) {
	var out []core.BalanceSnapshot
	for k, v := range st.snapshots {
		if k.userID == userID && inRange(v.Day, from, to) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (st *state) SumByCategory(_ context.Context, userID int64, from, to core.Day) ([]core.CategoryAmount, error) {
	totals := map[string]core.Money{}
	for _, e := range st.expenses {
		if e.UserID == userID && inRange(e.Day, from, to) {
			cat := normalizeCategory(e.Category)
			totals[cat] = totals[cat].Add(e.Amount)
		}
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for cat, amount := range totals {
		out = append(out, core.CategoryAmount{Category: cat, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (st *state) SumByDayCategory(_ context.Context, userID int64, from, to core.Day) ([]core.DayCategoryAmount, error) {
	type key struct {
		day string
		cat string
	}
	totals := map[key]core.Money{}
	days := map[string]core.Day{}
	for _, e := range st.expenses {
		if e.UserID == userID && inRange(e.Day, from, to) {
			k := key{e.Day.String(), normalizeCategory(e.Category)}
			totals[k] = totals[k].Add(e.Amount)
			days[k.day] = e.Day
		}
	}
	out := make([]core.DayCategoryAmount, 0, len(totals))
	for k, amount := range totals {
		out = append(out, core.DayCategoryAmount{Day: days[k.day], Category: k.cat, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		if a.Amount != b.Amount {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Category < b.Category
	})
	return out, nil
}

func (st *state) SumExpenses(_ context.Context, userID int64, from, to core.Day) (core.Money, error) {
	var total core.Money
	for _, e := range st.expenses {
		if e.UserID == userID && inRange(e.Day, from, to) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (st *state) ListExpenses(_ context.Context, userID int64, from, to core.Day) ([]core.ExpenseRecord, error) {
	var out []core.ExpenseRecord
	for _, e := range st.expenses {
		if e.UserID == userID && inRange(e.Day, from, to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func inRange(d, from, to core.Day) bool {
	return !d.Before(from) && !d.After(to)
}

func normalizeCategory(c string) string {
	if strings.TrimSpace(c) == "" {
		return ""
	}
	return c
}
