// Package cache implements the in-process TTL cache shared by the sync
// services. Entries are disposable projections of durable data; dropping the
// whole cache at any time loses nothing.
package cache

import (
	"sync"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/rs/zerolog"
)

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

type entry struct {
	data      interface{}
	storedAt  time.Time
	expiresAt time.Time
}

// Service is a TTL keyed cache with a background sweep that evicts expired
// entries regardless of access, bounding growth from stale keys. There is no
// size bound beyond expiry; unbounded key cardinality will grow the map until
// the sweep catches up.
type Service struct {
	log   zerolog.Logger
	clock func() time.Time
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source, letting tests advance time
// deterministically.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithDefaultTTL overrides the TTL applied by Put when none is given.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithSweepInterval overrides how often the background sweep runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) { s.sweepInterval = interval }
}

func New(log logger.Logger, opts ...Option) *Service {
	s := &Service{
		log:           log.With().Str("module", "cache").Logger(),
		clock:         time.Now,
		ttl:           DefaultTTL,
		entries:       map[string]entry{},
		sweepInterval: DefaultSweepInterval,
		stop:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweepLoop()

	return s
}

// NewFromConfig builds a Service from the cache section of the app config.
func NewFromConfig(log logger.Logger, cfg *domain.Config) *Service {
	opts := []Option{}
	if cfg.Cache.TTLMinutes > 0 {
		opts = append(opts, WithDefaultTTL(time.Duration(cfg.Cache.TTLMinutes)*time.Minute))
	}
	if cfg.Cache.SweepIntervalSeconds > 0 {
		opts = append(opts, WithSweepInterval(time.Duration(cfg.Cache.SweepIntervalSeconds)*time.Second))
	}
	return New(log, opts...)
}

// Put stores value under key, overwriting any existing entry unconditionally.
// A ttl of zero applies the default.
func (s *Service) Put(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.clock()

	s.mu.Lock()
	s.entries[key] = entry{
		data:      value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
}

// Get returns the live value for key. An expired entry is evicted and
// reported as a miss.
func (s *Service) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if s.clock().After(e.expiresAt) {
		s.mu.Lock()
		// re-check under the write lock; a concurrent Put may have refreshed it
		if cur, still := s.entries[key]; still && s.clock().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return e.data, true
}

// Invalidate removes a single key.
func (s *Service) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// InvalidateAll clears the cache.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.entries = map[string]entry{}
	s.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes all expired entries immediately.
func (s *Service) Sweep() int {
	now := s.clock()
	removed := 0

	s.mu.Lock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("swept expired cache entries")
	}
	return removed
}

// Close stops the background sweep.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Service) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
