// Package syncertest provides in-memory fakes for the sync stack, used by
// entity service tests.
package syncertest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fitsyncd/fitsync/internal/cache"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/retry"
	"github.com/fitsyncd/fitsync/internal/syncer"
	"github.com/google/uuid"
)

// MemStore is an in-memory domain.LocalStore.
type MemStore struct {
	mu     sync.Mutex
	Items  map[string]string
	SetErr error
}

func NewMemStore() *MemStore {
	return &MemStore{Items: map[string]string{}}
}

func (m *MemStore) GetItem(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Items[key], nil
}

func (m *MemStore) SetItem(_ context.Context, key string, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[key] = value
	return nil
}

// Gateway is an in-memory domain.RemoteGateway backed by nested maps:
// collection path → document id → data.
type Gateway struct {
	mu        sync.Mutex
	Online    bool
	Docs      map[string]map[string]map[string]interface{}
	GetErr    error
	SetErr    error
	DeleteErr error

	GetCalls    int
	ListCalls   int
	SetCalls    int
	AddCalls    int
	DeleteCalls int
}

func NewGateway() *Gateway {
	return &Gateway{
		Online: true,
		Docs:   map[string]map[string]map[string]interface{}{},
	}
}

// Seed places a document without counting as a call.
func (g *Gateway) Seed(collection, id string, data map[string]interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.put(collection, id, data)
}

func (g *Gateway) put(collection, id string, data map[string]interface{}) {
	if g.Docs[collection] == nil {
		g.Docs[collection] = map[string]map[string]interface{}{}
	}
	g.Docs[collection][id] = data
}

// Document returns the stored data for inspection, nil when absent.
func (g *Gateway) Document(collection, id string) map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Docs[collection][id]
}

func (g *Gateway) GetDocument(_ context.Context, collection, id string) (*domain.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.GetCalls++
	if g.GetErr != nil {
		return nil, g.GetErr
	}
	data, ok := g.Docs[collection][id]
	if !ok {
		return nil, nil
	}
	return &domain.Document{ID: id, Data: data}, nil
}

func (g *Gateway) GetCollection(_ context.Context, collection string, filters []domain.Filter) ([]domain.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ListCalls++
	if g.GetErr != nil {
		return nil, g.GetErr
	}
	out := []domain.Document{}
	for id, data := range g.Docs[collection] {
		if matches(data, filters) {
			out = append(out, domain.Document{ID: id, Data: data})
		}
	}
	return out, nil
}

func matches(data map[string]interface{}, filters []domain.Filter) bool {
	for _, f := range filters {
		if f.Op == "==" && data[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func (g *Gateway) SetDocument(_ context.Context, collection, id string, data map[string]interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.SetCalls++
	if g.SetErr != nil {
		return g.SetErr
	}
	g.put(collection, id, data)
	return nil
}

func (g *Gateway) UpdateDocument(_ context.Context, collection, id string, partial map[string]interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	existing, ok := g.Docs[collection][id]
	if !ok {
		g.put(collection, id, partial)
		return nil
	}
	for k, v := range partial {
		existing[k] = v
	}
	return nil
}

func (g *Gateway) DeleteDocument(_ context.Context, collection, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DeleteCalls++
	if g.DeleteErr != nil {
		return g.DeleteErr
	}
	delete(g.Docs[collection], id)
	return nil
}

func (g *Gateway) AddDocument(_ context.Context, collection string, data map[string]interface{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AddCalls++
	if g.SetErr != nil {
		return "", g.SetErr
	}
	id := uuid.NewString()
	g.put(collection, id, data)
	return id, nil
}

func (g *Gateway) Reachable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Online
}

// SetOnline flips the reachability flag mid-test.
func (g *Gateway) SetOnline(online bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Online = online
}

// Harness bundles a fully wired in-memory sync stack.
type Harness struct {
	Sync    *syncer.Service
	Cache   *cache.Service
	Store   *MemStore
	Gateway *Gateway
}

// New builds a Harness with millisecond retry delays and no background sweep.
func New(t *testing.T) *Harness {
	t.Helper()
	log := logger.Mock()
	c := cache.New(log, cache.WithSweepInterval(time.Hour))
	t.Cleanup(c.Close)
	store := NewMemStore()
	gw := NewGateway()
	rx := retry.New(log, retry.WithMaxAttempts(2), retry.WithBaseDelay(time.Millisecond))
	return &Harness{
		Sync:    syncer.New(log, c, store, gw, rx),
		Cache:   c,
		Store:   store,
		Gateway: gw,
	}
}
