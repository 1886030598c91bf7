package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"economoney/internal/core"
	"economoney/internal/ledger"
	"economoney/internal/log"
)

// EventPublisher receives committed ledger mutations.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event core.LedgerEvent) error
}

// Invalidator drops derived per-user state after a mutation.
type Invalidator interface {
	Invalidate(userID int64)
}

// LedgerService posts expenses and budget adjustments. Every mutation for
// a user runs under that user's lock and inside one store transaction.
type LedgerService struct {
	balances    *BalanceService
	locks       *UserLocks
	publisher   EventPublisher
	invalidator Invalidator
	logger      *log.StructuredLogger
	now         func() time.Time
}

// NewLedgerService wires the transaction engine. publisher and invalidator
// may be nil.
func NewLedgerService(balances *BalanceService, publisher EventPublisher, invalidator Invalidator) *LedgerService {
	return &LedgerService{
		balances:    balances,
		locks:       NewUserLocks(),
		publisher:   publisher,
		invalidator: invalidator,
		logger:      log.NewStructuredLogger(log.FromContext(context.Background())),
		now:         time.Now,
	}
}

// WithLogger replaces the logger committed entries and failures go to.
func (s *LedgerService) WithLogger(l *log.Logger) *LedgerService {
	s.logger = log.NewStructuredLogger(l)
	return s
}

// Balance resolves the day's balance under the user's lock. Resolving may
// materialize a snapshot, so cached reports are dropped as well.
func (s *LedgerService) Balance(ctx context.Context, userID int64, day core.Day) (core.Money, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	balance, err := s.balances.Resolve(ctx, userID, day)
	if err != nil {
		return core.Money{}, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
	return balance, nil
}

// PostExpense records amount under category on day and deducts it from the
// day's balance. The balance may go negative.
func (s *LedgerService) PostExpense(ctx context.Context, userID int64, amount core.Money, category string, day core.Day) (core.Money, error) {
	if userID == 0 {
		return core.Money{}, core.ErrInvalidUser
	}
	if !amount.IsPositive() {
		return core.Money{}, fmt.Errorf("%w: expense must be positive, got %s", core.ErrInvalidAmount, amount)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var balance core.Money
	err := s.balances.store.WithTx(ctx, func(tx ledger.Tx) error {
		current, err := s.balances.resolveTx(ctx, tx, userID, day)
		if err != nil {
			return fmt.Errorf("resolve balance: %w", err)
		}
		if _, err := current.CheckedAdd(amount.Neg()); err != nil {
			return err
		}
		if _, err := tx.InsertExpense(ctx, core.ExpenseRecord{
			UserID:   userID,
			Amount:   amount,
			Day:      day,
			Category: category,
		}); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		balance, err = tx.AdjustSnapshot(ctx, userID, day, amount.Neg())
		return err
	})
	if err != nil {
		s.logFailure(ctx, log.OpPostExpense, userID, day, err)
		return core.Money{}, fmt.Errorf("post expense: %w", err)
	}

	s.logger.LogLedgerEntry(ctx, log.OpPostExpense, userID, day, amount, category, balance)

	s.afterCommit(ctx, core.LedgerEvent{
		Kind:     core.EventExpensePosted,
		UserID:   userID,
		Day:      day,
		Amount:   amount,
		Category: category,
		Balance:  balance,
	})
	return balance, nil
}

// AdjustBudget adds delta (positive or negative) to the day's balance
// without recording an expense.
func (s *LedgerService) AdjustBudget(ctx context.Context, userID int64, delta core.Money, day core.Day) (core.Money, error) {
	if userID == 0 {
		return core.Money{}, core.ErrInvalidUser
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var balance core.Money
	err := s.balances.store.WithTx(ctx, func(tx ledger.Tx) error {
		current, err := s.balances.resolveTx(ctx, tx, userID, day)
		if err != nil {
			return fmt.Errorf("resolve balance: %w", err)
		}
		if _, err := current.CheckedAdd(delta); err != nil {
			return err
		}
		balance, err = tx.AdjustSnapshot(ctx, userID, day, delta)
		return err
	})
	if err != nil {
		s.logFailure(ctx, log.OpAdjustBudget, userID, day, err)
		return core.Money{}, fmt.Errorf("adjust budget: %w", err)
	}

	s.logger.LogLedgerEntry(ctx, log.OpAdjustBudget, userID, day, delta, "", balance)

	s.afterCommit(ctx, core.LedgerEvent{
		Kind:    core.EventBudgetAdjusted,
		UserID:  userID,
		Day:     day,
		Amount:  delta,
		Balance: balance,
	})
	return balance, nil
}

func (s *LedgerService) logFailure(ctx context.Context, op string, userID int64, day core.Day, err error) {
	msg := "Ledger mutation failed"
	if errors.Is(err, core.ErrConsistency) {
		msg = "Ledger consistency violation"
	}
	s.logger.LogError(ctx, msg, err, log.ComponentLedger, op, log.NewFields().WithUser(userID, day.String()))
}

// afterCommit runs the side effects of a committed mutation. Failures are
// logged and never reach the caller.
func (s *LedgerService) afterCommit(ctx context.Context, event core.LedgerEvent) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(event.UserID)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event", "kind", event.Kind)
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event_id", event.ID, "kind", event.Kind, "user_id", event.UserID, "error", err)
	}
}
