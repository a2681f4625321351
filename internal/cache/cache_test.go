package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	s := New(logger.Mock(), WithClock(clock.Now), WithSweepInterval(time.Hour))
	t.Cleanup(s.Close)
	return s
}

func TestCache_PutGet(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("profile:u1", "value", time.Minute)

	got, ok := c.Get("profile:u1")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestCache_GetExpiredEvicts(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("k", 42, time.Minute)
	clock.Advance(time.Minute + time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_DefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("k", "v", 0)

	clock.Advance(29 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_PutOverwrites(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("k", "old", time.Minute)
	c.Put("k", "new", time.Minute)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestCache_SweepRemovesExpiredWithoutAccess(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("stale-1", 1, time.Minute)
	c.Put("stale-2", 2, time.Minute)
	c.Put("live", 3, time.Hour)

	clock.Advance(2 * time.Minute)

	removed := c.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("live")
	assert.True(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Minute)

	c.Invalidate("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCache_InvalidateAll(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Minute)

	c.InvalidateAll()

	assert.Equal(t, 0, c.Len())
}
