// Package sheets mirrors posted expenses into a spreadsheet.
package sheets

import (
	"context"

	"economoney/internal/core"
)

// Row is one mirrored expense.
type Row struct {
	Day      core.Day
	UserID   int64
	Category string
	Amount   core.Money
	Balance  core.Money
	EventID  string
}

// RowFromEvent builds the row mirrored for an expense_posted event.
func RowFromEvent(e core.LedgerEvent) Row {
	return Row{
		Day:      e.Day,
		UserID:   e.UserID,
		Category: core.CategoryOrDefault(e.Category),
		Amount:   e.Amount,
		Balance:  e.Balance,
		EventID:  e.ID,
	}
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		Append(ctx context.Context, r Row) (rowRef string, err error)
	}

	RowLister interface {
		// ListRows returns the mirrored rows of userID dated within [from, to].
		ListRows(ctx context.Context, userID int64, from, to core.Day) ([]Row, error)
	}
)
