package google

import (
	"fmt"
	"strconv"
	"strings"

	"economoney/internal/core"
	ports "economoney/internal/sheets"
)

// Sheet columns: Date, User, Category, Amount, Balance, Event.
const rowColumns = 6

func formatRow(r ports.Row) []any {
	return []any{
		r.Day.String(),
		strconv.FormatInt(r.UserID, 10),
		r.Category,
		r.Amount.String(),
		r.Balance.String(),
		r.EventID,
	}
}

// parseRow reads a row as returned by the Values API. Amounts may carry a
// decimal comma or thousands spaces depending on the sheet locale.
func parseRow(values []any) (ports.Row, error) {
	cols := toStrings(values)
	if len(cols) < rowColumns-1 {
		return ports.Row{}, fmt.Errorf("expected at least %d columns, got %d", rowColumns-1, len(cols))
	}
	day, err := core.ParseDay(cols[0])
	if err != nil {
		return ports.Row{}, err
	}
	userID, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil {
		return ports.Row{}, fmt.Errorf("user id %q: %w", cols[1], err)
	}
	amount, err := core.ParseAmount(normalizeNumber(cols[3]))
	if err != nil {
		return ports.Row{}, fmt.Errorf("amount %q: %w", cols[3], err)
	}
	balance, err := core.ParseAmount(normalizeNumber(cols[4]))
	if err != nil {
		return ports.Row{}, fmt.Errorf("balance %q: %w", cols[4], err)
	}
	row := ports.Row{
		Day:      day,
		UserID:   userID,
		Category: cols[2],
		Amount:   amount,
		Balance:  balance,
	}
	if len(cols) >= rowColumns {
		row.EventID = cols[5]
	}
	return row, nil
}

func normalizeNumber(s string) string {
	return strings.NewReplacer(" ", "", " ", "", " ", "").Replace(s)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
