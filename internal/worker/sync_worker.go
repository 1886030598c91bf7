package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"economoney/internal/cache"
	"economoney/internal/core"
	"economoney/internal/sheets"
)

const (
	seenCacheSize = 4096
	seenCacheTTL  = 24 * time.Hour
)

// SyncWorker mirrors posted expenses into the spreadsheet.
type SyncWorker struct {
	rows sheets.RowWriter
	// seen remembers recently mirrored event ids so broker redeliveries
	// do not append the same row twice.
	seen *cache.LRUCache[string]
}

func NewSyncWorker(rows sheets.RowWriter) *SyncWorker {
	return &SyncWorker{
		rows: rows,
		seen: cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
	}
}

// RegisterCaches lets the manager sweep expired dedup entries.
func (w *SyncWorker) RegisterCaches(m *cache.Manager) {
	m.Register(w.seen)
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, e core.LedgerEvent) error {
	if e.Kind != core.EventExpensePosted {
		slog.DebugContext(ctx, "Ignoring ledger event",
			"event_id", e.ID,
			"kind", e.Kind)
		return nil
	}

	if ref, ok := w.seen.Get(e.ID); ok {
		slog.InfoContext(ctx, "Skipping already mirrored event",
			"event_id", e.ID,
			"ref", ref)
		return nil
	}

	ref, err := w.rows.Append(ctx, sheets.RowFromEvent(e))
	if err != nil {
		return fmt.Errorf("append row for event %s: %w", e.ID, err)
	}
	w.seen.Set(e.ID, ref)

	slog.InfoContext(ctx, "Mirrored expense to spreadsheet",
		"event_id", e.ID,
		"user_id", e.UserID,
		"day", e.Day,
		"amount", e.Amount,
		"ref", ref)
	return nil
}
