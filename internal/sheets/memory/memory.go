// Package memory is an in-process spreadsheet used when no Google
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"economoney/internal/core"
	ports "economoney/internal/sheets"
)

var (
	_ ports.RowWriter = (*Store)(nil)
	_ ports.RowLister = (*Store)(nil)
)

type Store struct {
	mu   sync.Mutex
	rows []ports.Row
	// Fail, when set, makes Append return it.
	Fail error
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r ports.Row) (string, error) {
	if r.UserID == 0 {
		return "", core.ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return "", s.Fail
	}
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) ListRows(_ context.Context, userID int64, from, to core.Day) ([]ports.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.Row
	for _, r := range s.rows {
		if r.UserID == userID && !r.Day.Before(from) && !r.Day.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Row(nil), s.rows...)
}
