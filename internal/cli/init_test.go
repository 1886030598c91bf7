package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"economoney/internal/config"
	"economoney/internal/core"
	"economoney/internal/log"
)

func testLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(buf, nil), Component: log.ComponentApp})
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	assert.Equal(t, log.ComponentApp, logger.Component())
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DAILY_LIMIT", "1500")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "1500", cfg.DailyLimit)

	t.Setenv("DAILY_LIMIT", "abc")
	_, err = LoadAndValidateConfig()
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	clock, err := Clock(&config.Config{Timezone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, core.DayOf(time.Now().UTC()), clock.Today())

	_, err = Clock(&config.Config{Timezone: "Nowhere/City"})
	assert.Error(t, err)
}

func TestInitStore(t *testing.T) {
	logger := testLogger(&bytes.Buffer{})
	ctx := context.Background()

	res, err := InitStore(ctx, logger, &config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.NoError(t, res.Store.Ping(ctx))
	assert.NoError(t, res.Cleanup())

	_, err = InitStore(ctx, logger, &config.Config{DataBackend: "postgres"})
	assert.Error(t, err)
}

func TestRunCleanup(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger(&buf)

	called := false
	runCleanup(logger, time.Second, func(ctx context.Context) { called = true })
	assert.True(t, called)
	assert.Contains(t, buf.String(), "Shutdown complete")

	buf.Reset()
	runCleanup(logger, 10*time.Millisecond, func(ctx context.Context) { <-ctx.Done(); time.Sleep(50 * time.Millisecond) })
	assert.Contains(t, buf.String(), "Shutdown timeout reached")
}
