package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"economoney/internal/core"
	"economoney/internal/ledger"
)

// BalanceService owns the daily allowance rule. Resolve materializes the
// balance of a day on first touch; Peek computes the same value without
// writing.
type BalanceService struct {
	store ledger.Store
	limit core.Money
}

func NewBalanceService(store ledger.Store, dailyLimit core.Money) *BalanceService {
	return &BalanceService{store: store, limit: dailyLimit}
}

func (s *BalanceService) DailyLimit() core.Money { return s.limit }

// Resolve returns the balance of userID on day, creating the day's
// snapshot if it does not exist yet.
func (s *BalanceService) Resolve(ctx context.Context, userID int64, day core.Day) (core.Money, error) {
	if userID == 0 {
		return core.Money{}, core.ErrInvalidUser
	}
	var balance core.Money
	err := s.store.WithTx(ctx, func(tx ledger.Tx) error {
		var err error
		balance, err = s.resolveTx(ctx, tx, userID, day)
		return err
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("resolve balance: %w", err)
	}
	return balance, nil
}

// resolveTx is Resolve inside an existing transaction. On return a
// snapshot for (userID, day) exists unless the latest snapshot is dated
// on or after day, in which case its balance is returned and nothing is
// written.
func (s *BalanceService) resolveTx(ctx context.Context, tx ledger.Tx, userID int64, day core.Day) (core.Money, error) {
	snap, err := tx.SnapshotOn(ctx, userID, day)
	if err == nil {
		slog.DebugContext(ctx, "Balance fast path", "user_id", userID, "day", day.String(), "balance", snap.Balance.String())
		return snap.Balance, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Money{}, err
	}

	balance := s.limit
	last, err := tx.LatestSnapshot(ctx, userID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		slog.InfoContext(ctx, "Bootstrapping balance for new user", "user_id", userID, "day", day.String())
	case err != nil:
		return core.Money{}, err
	default:
		accrued, daysPassed, err := core.Accrue(last.Balance, last.Day, day, s.limit)
		if err != nil {
			return core.Money{}, err
		}
		if daysPassed <= 0 {
			slog.WarnContext(ctx, "Latest snapshot is not before requested day, keeping its balance",
				"user_id", userID,
				"day", day.String(),
				"latest_day", last.Day.String(),
				"balance", last.Balance.String())
			return last.Balance, nil
		}
		balance = accrued
		slog.InfoContext(ctx, "Accrued missed days",
			"user_id", userID,
			"from", last.Day.String(),
			"day", day.String(),
			"days_passed", daysPassed,
			"balance", balance.String())
	}

	created, err := tx.InsertSnapshot(ctx, userID, day, balance)
	if errors.Is(err, core.ErrDuplicate) {
		// Another writer materialized the day first; its row is authoritative.
		snap, err := tx.SnapshotOn(ctx, userID, day)
		if err != nil {
			return core.Money{}, err
		}
		return snap.Balance, nil
	}
	if err != nil {
		return core.Money{}, err
	}
	return created.Balance, nil
}

// Peek returns what Resolve would return on day without persisting
// anything. It reads the committed state only.
func (s *BalanceService) Peek(ctx context.Context, userID int64, day core.Day) (core.Money, error) {
	return s.peek(ctx, s.store, userID, day)
}

func (s *BalanceService) peek(ctx context.Context, r ledger.Reader, userID int64, day core.Day) (core.Money, error) {
	snap, err := r.SnapshotOn(ctx, userID, day)
	if err == nil {
		return snap.Balance, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Money{}, fmt.Errorf("peek balance: %w", err)
	}

	last, err := r.LatestSnapshot(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return s.limit, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("peek balance: %w", err)
	}
	accrued, _, err := core.Accrue(last.Balance, last.Day, day, s.limit)
	if err != nil {
		return core.Money{}, fmt.Errorf("peek balance: %w", err)
	}
	return accrued, nil
}
