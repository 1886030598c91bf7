package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("42"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("42"))
	assert.False(t, rl.Allow("42"))
	assert.True(t, rl.Allow("7"), "other keys have their own window")

	*now = now.Add(time.Minute)
	assert.True(t, rl.Allow("42"))

	m := rl.GetMetrics()
	assert.Equal(t, int64(2), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestLimiter_RejectedRequestsDoNotExtendWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 1)

	assert.True(t, rl.Allow("1"))
	*now = now.Add(30 * time.Second)
	assert.False(t, rl.Allow("1"))
	*now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("1"))
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.Allow("a")
	*now = now.Add(5 * time.Minute)
	rl.Allow("b")
	*now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.cleanupStaleEntries())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestLimiter_Defaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()
	assert.Equal(t, 60, rl.requestsPerMinute)
	assert.Equal(t, 5*time.Minute, rl.cleanupInterval)
	rl.Stop()
}
