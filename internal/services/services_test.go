package services

import (
	"context"
	"sync"
	"testing"

	"economoney/internal/core"
	"economoney/internal/storage/memory"
)

var (
	limit = core.MustMoney("2000")
	day1  = core.NewDay(2025, 3, 1)
)

type engine struct {
	store    *memory.Store
	balances *BalanceService
	ledger   *LedgerService
	reports  *ReportService
	events   *recordingPublisher
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	store := memory.New()
	balances := NewBalanceService(store, limit)
	reports := NewReportService(balances, 0)
	events := &recordingPublisher{}
	return &engine{
		store:    store,
		balances: balances,
		ledger:   NewLedgerService(balances, events, reports),
		reports:  reports,
		events:   events,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) all() []core.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.LedgerEvent(nil), p.events...)
}

func money(s string) core.Money { return core.MustMoney(s) }
