package log

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"economoney/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestErrorType(t *testing.T) {
	consistency := &core.ConsistencyError{Op: "adjust", UserID: 1}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"consistency", fmt.Errorf("post expense: %w", consistency), ErrorTypeConsistency},
		{"not found", core.ErrNotFound, ErrorTypeNotFound},
		{"amount", fmt.Errorf("x: %w", core.ErrInvalidAmount), ErrorTypeValidation},
		{"pending", core.ErrNoPendingAmount, ErrorTypeValidation},
		{"other", errors.New("disk full"), ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorType(tt.err))
		})
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentLedger})

	logger.Info("posted", FieldUserID, 42)
	assert.Contains(t, buf.String(), "component=ledger")
	assert.Contains(t, buf.String(), "user_id=42")
}

func TestStructuredLogger_LogLedgerEntry(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentApp}))

	sl.LogLedgerEntry(context.Background(), OpPostExpense, 7, core.NewDay(2025, 3, 1),
		core.MustMoney("500"), "Groceries", core.MustMoney("1500"))

	out := buf.String()
	assert.Contains(t, out, "operation=post_expense")
	assert.Contains(t, out, "day=2025-03-01")
	assert.Contains(t, out, "amount=500.00")
	assert.Contains(t, out, "balance=1500.00")
	assert.Contains(t, out, "category=Groceries")
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, "unknown", l.Component())

	custom := New(Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil), Component: ComponentChat})
	assert.Equal(t, ComponentChat, FromContext(WithLogger(context.Background(), custom)).Component())
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentApp}).
		With(FieldRequestID, "req-1").
		WithComponent(ComponentWorker)

	logger.Info("started")
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="))
	assert.Contains(t, out, "component=worker")
	assert.Contains(t, out, "request_id=req-1")
	assert.Equal(t, ComponentWorker, logger.Component())
}
