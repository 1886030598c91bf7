package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// UncategorizedLabel groups expenses posted without a category.
const UncategorizedLabel = "Uncategorized"

type (
	Period string

	// ExpenseRecord is an immutable posted expense.
	ExpenseRecord struct {
		ID       int64
		UserID   int64
		Amount   Money
		Day      Day
		Category string // empty when no category was chosen
	}

	// BalanceSnapshot is the remaining allowance of a user at the end of Day.
	BalanceSnapshot struct {
		ID      int64
		UserID  int64
		Day     Day
		Balance Money
	}

	CategoryAmount struct {
		Category string
		Amount   Money
	}

	DayCategoryAmount struct {
		Day      Day
		Category string
		Amount   Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidUser     = errors.New("invalid user id")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidDay      = errors.New("invalid day")
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrNoPendingAmount = errors.New("no pending amount")
	ErrConsistency     = errors.New("ledger consistency violation")
)

// ConsistencyError reports a ledger write that did not touch exactly one row.
type ConsistencyError struct {
	Op       string
	UserID   int64
	Day      Day
	Affected int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: user %d on %s affected %d rows, want 1", e.Op, e.UserID, e.Day, e.Affected)
}

func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// ParsePeriod accepts "day", "week" or "month" in any case.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Start returns the first day included in the period ending on today.
// The week is rolling and reaches back seven days, the month starts on
// the first of the calendar month.
func (p Period) Start(today Day) (Day, error) {
	switch p {
	case PeriodDay:
		return today, nil
	case PeriodWeek:
		return today.AddDays(-7), nil
	case PeriodMonth:
		return today.StartOfMonth(), nil
	}
	return Day{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
}

// CategoryOrDefault returns the bucket name used in reports.
func CategoryOrDefault(category string) string {
	if strings.TrimSpace(category) == "" {
		return UncategorizedLabel
	}
	return category
}

func (e ExpenseRecord) Validate() error {
	if e.UserID == 0 {
		return ErrInvalidUser
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Day.IsZero() {
		return ErrInvalidDay
	}
	if len(e.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	return nil
}

// LedgerEvent describes a committed ledger mutation.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	UserID    int64     `json:"user_id"`
	Day       Day       `json:"day"`
	Amount    Money     `json:"amount"`
	Category  string    `json:"category,omitempty"`
	Balance   Money     `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

type EventKind string

const (
	EventExpensePosted  EventKind = "expense_posted"
	EventBudgetAdjusted EventKind = "budget_adjusted"
)
