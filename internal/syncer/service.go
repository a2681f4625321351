// Package syncer implements the base synchronization service every entity
// service builds on: the cache → remote → local-fallback read path, the
// local-first best-effort-remote write path, and the merge primitives.
package syncer

import (
	"context"
	"time"

	"github.com/fitsyncd/fitsync/internal/cache"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/localstore"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/retry"
	"github.com/rs/zerolog"
)

type Service struct {
	log     zerolog.Logger
	cache   *cache.Service
	store   domain.LocalStore
	gateway domain.RemoteGateway
	retry   *retry.Executor
}

func New(log logger.Logger, c *cache.Service, store domain.LocalStore, gateway domain.RemoteGateway, rx *retry.Executor) *Service {
	return &Service{
		log:     log.With().Str("module", "syncer").Logger(),
		cache:   c,
		store:   store,
		gateway: gateway,
		retry:   rx,
	}
}

// RemoteAvailable reports whether a remote path may be attempted: the caller
// must say it is online and the construction-time probe must have succeeded.
func (s *Service) RemoteAvailable(online bool) bool {
	return online && s.gateway.Reachable()
}

// Invalidate drops cache keys.
func (s *Service) Invalidate(keys ...string) {
	for _, key := range keys {
		s.cache.Invalidate(key)
	}
}

// InvalidateAll clears the whole cache.
func (s *Service) InvalidateAll() {
	s.cache.InvalidateAll()
}

// FetchRequest describes one cached single-document read.
type FetchRequest struct {
	CacheKey   string
	CacheTTL   time.Duration
	Collection string
	ID         string
	// StorageKey addresses the local record set; empty means the entity is
	// not persisted locally (cache + remote only).
	StorageKey string
	// Match identifies the record inside the storage key's record set.
	Match func(doc map[string]interface{}) bool
	// Policy resolves local/remote field conflicts on read.
	Policy MergePolicy
}

// FetchDocument runs the canonical cached read: cache hit, else remote with
// merge-into-local, else local fallback. An absent document is (nil, nil),
// never an error, so callers can treat "no data yet" uniformly.
func (s *Service) FetchDocument(ctx context.Context, online bool, req FetchRequest) (map[string]interface{}, error) {
	if cached, ok := s.cache.Get(req.CacheKey); ok {
		if doc, ok := cached.(map[string]interface{}); ok {
			return doc, nil
		}
	}

	if s.RemoteAvailable(online) {
		remoteDoc, err := retry.DoValue(ctx, s.retry, "get "+req.Collection+"/"+req.ID, func(ctx context.Context) (*domain.Document, error) {
			return s.gateway.GetDocument(ctx, req.Collection, req.ID)
		})
		if err != nil {
			s.log.Warn().Err(err).Str("collection", req.Collection).Str("id", req.ID).Msg("remote read failed, falling back to local")
		} else if remoteDoc != nil {
			data := NormalizeTimestamps(Sanitize(remoteDoc.Data))
			merged := data

			if req.StorageKey != "" {
				localDocs := s.loadLocalDocs(ctx, req.StorageKey)
				if existing, idx := findDoc(localDocs, req.Match); idx >= 0 {
					merged = MergeWithPolicy(existing, data, req.Policy)
					localDocs[idx] = merged
				} else {
					localDocs = append(localDocs, merged)
				}
				if err := localstore.SaveJSON(ctx, s.store, req.StorageKey, localDocs); err != nil {
					s.log.Error().Err(err).Str("key", req.StorageKey).Msg("failed to persist merged record")
				}
			}

			s.cache.Put(req.CacheKey, merged, req.CacheTTL)
			return merged, nil
		}
	}

	if req.StorageKey == "" {
		return nil, nil
	}

	localDocs := s.loadLocalDocs(ctx, req.StorageKey)
	if doc, idx := findDoc(localDocs, req.Match); idx >= 0 {
		s.cache.Put(req.CacheKey, doc, req.CacheTTL)
		return doc, nil
	}

	return nil, nil
}

// ListRequest describes one cached collection read.
type ListRequest struct {
	CacheKey   string
	CacheTTL   time.Duration
	Collection string
	Filters    []domain.Filter
	StorageKey string
	// BelongsTo selects the subset of the storage key's records this list
	// covers (usually one user's records).
	BelongsTo func(doc map[string]interface{}) bool
	Policy    MergePolicy
}

// FetchCollection runs the canonical cached read over a whole collection.
// Remote results are merged per-id with the local subset; records present
// only locally (e.g. created offline) stay visible.
func (s *Service) FetchCollection(ctx context.Context, online bool, req ListRequest) ([]map[string]interface{}, error) {
	if cached, ok := s.cache.Get(req.CacheKey); ok {
		if docs, ok := cached.([]map[string]interface{}); ok {
			return docs, nil
		}
	}

	if s.RemoteAvailable(online) {
		remoteDocs, err := retry.DoValue(ctx, s.retry, "list "+req.Collection, func(ctx context.Context) ([]domain.Document, error) {
			return s.gateway.GetCollection(ctx, req.Collection, req.Filters)
		})
		if err != nil {
			s.log.Warn().Err(err).Str("collection", req.Collection).Msg("remote list failed, falling back to local")
		} else {
			merged := s.mergeCollection(ctx, remoteDocs, req)
			s.cache.Put(req.CacheKey, merged, req.CacheTTL)
			return merged, nil
		}
	}

	if req.StorageKey == "" {
		return []map[string]interface{}{}, nil
	}

	local := filterDocs(s.loadLocalDocs(ctx, req.StorageKey), req.BelongsTo)
	s.cache.Put(req.CacheKey, local, req.CacheTTL)
	return local, nil
}

// backfillID makes the document id addressable as a data field. Documents
// created before their id was known may carry an empty string, which counts
// as absent.
func backfillID(data map[string]interface{}, id string) {
	if v, ok := data["id"].(string); !ok || v == "" {
		data["id"] = id
	}
}

func (s *Service) mergeCollection(ctx context.Context, remoteDocs []domain.Document, req ListRequest) []map[string]interface{} {
	normalized := make([]map[string]interface{}, 0, len(remoteDocs))
	for _, d := range remoteDocs {
		data := NormalizeTimestamps(Sanitize(d.Data))
		backfillID(data, d.ID)
		normalized = append(normalized, data)
	}

	if req.StorageKey == "" {
		return normalized
	}

	allLocal := s.loadLocalDocs(ctx, req.StorageKey)
	subset := filterDocs(allLocal, req.BelongsTo)

	byID := map[string]int{}
	for i, doc := range subset {
		if id, ok := doc["id"].(string); ok {
			byID[id] = i
		}
	}

	merged := make([]map[string]interface{}, 0, len(normalized)+len(subset))
	seen := map[string]bool{}
	for _, remote := range normalized {
		id, _ := remote["id"].(string)
		if idx, ok := byID[id]; ok {
			merged = append(merged, MergeWithPolicy(subset[idx], remote, req.Policy))
		} else {
			merged = append(merged, remote)
		}
		seen[id] = true
	}
	// keep local-only records (offline-created, not yet pushed)
	for _, local := range subset {
		id, _ := local["id"].(string)
		if !seen[id] {
			merged = append(merged, local)
		}
	}

	rest := excludeDocs(allLocal, req.BelongsTo)
	if err := localstore.SaveJSON(ctx, s.store, req.StorageKey, append(rest, merged...)); err != nil {
		s.log.Error().Err(err).Str("key", req.StorageKey).Msg("failed to persist merged record set")
	}

	return merged
}

// WriteRequest describes one local-first write.
type WriteRequest struct {
	InvalidateKeys []string
	Collection     string
	ID             string
	StorageKey     string
	Match          func(doc map[string]interface{}) bool
	Doc            map[string]interface{}
	// SkipRemote suppresses the remote step, e.g. when the document was just
	// created remotely through AddDocument.
	SkipRemote bool
}

// WriteDocument runs the canonical write: merge with the existing local
// record, persist locally unconditionally, invalidate caches, then attempt
// the remote write best-effort. A remote failure is logged and swallowed;
// the local write already made the operation durable.
func (s *Service) WriteDocument(ctx context.Context, online bool, req WriteRequest) (map[string]interface{}, error) {
	docs := s.loadLocalDocs(ctx, req.StorageKey)

	merged := req.Doc
	if existing, idx := findDoc(docs, req.Match); idx >= 0 {
		merged = MergeData(req.Doc, existing)
		docs[idx] = merged
	} else {
		docs = append(docs, merged)
	}

	if err := localstore.SaveJSON(ctx, s.store, req.StorageKey, docs); err != nil {
		return nil, err
	}

	s.Invalidate(req.InvalidateKeys...)

	if !req.SkipRemote && s.RemoteAvailable(online) {
		err := s.retry.Do(ctx, "set "+req.Collection+"/"+req.ID, func(ctx context.Context) error {
			return s.gateway.SetDocument(ctx, req.Collection, req.ID, merged)
		})
		if err != nil {
			s.log.Warn().Err(err).Str("collection", req.Collection).Str("id", req.ID).Msg("remote write failed, local copy is durable")
		}
	}

	return merged, nil
}

// DeleteRequest describes one local-first delete.
type DeleteRequest struct {
	InvalidateKeys []string
	Collection     string
	ID             string
	StorageKey     string
	Match          func(doc map[string]interface{}) bool
}

// DeleteDocument removes the local record immediately and attempts the
// remote delete when online. A failed remote delete is not queued for retry.
func (s *Service) DeleteDocument(ctx context.Context, online bool, req DeleteRequest) (bool, error) {
	docs := s.loadLocalDocs(ctx, req.StorageKey)

	kept := make([]map[string]interface{}, 0, len(docs))
	removed := false
	for _, doc := range docs {
		if !removed && req.Match(doc) {
			removed = true
			continue
		}
		kept = append(kept, doc)
	}

	if removed {
		if err := localstore.SaveJSON(ctx, s.store, req.StorageKey, kept); err != nil {
			return false, err
		}
	}

	s.Invalidate(req.InvalidateKeys...)

	if s.RemoteAvailable(online) {
		err := s.retry.Do(ctx, "delete "+req.Collection+"/"+req.ID, func(ctx context.Context) error {
			return s.gateway.DeleteDocument(ctx, req.Collection, req.ID)
		})
		if err != nil {
			s.log.Warn().Err(err).Str("collection", req.Collection).Str("id", req.ID).Msg("remote delete failed, not queued")
		}
	}

	return removed, nil
}

// RemoteAdd creates a document with a store-generated id, retry-wrapped.
func (s *Service) RemoteAdd(ctx context.Context, collection string, doc map[string]interface{}) (string, error) {
	return retry.DoValue(ctx, s.retry, "add "+collection, func(ctx context.Context) (string, error) {
		return s.gateway.AddDocument(ctx, collection, doc)
	})
}

// RemoteGet fetches a single document, retry-wrapped and normalized.
func (s *Service) RemoteGet(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	doc, err := retry.DoValue(ctx, s.retry, "get "+collection+"/"+id, func(ctx context.Context) (*domain.Document, error) {
		return s.gateway.GetDocument(ctx, collection, id)
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	data := NormalizeTimestamps(Sanitize(doc.Data))
	backfillID(data, doc.ID)
	return data, nil
}

// RemoteList fetches a collection, retry-wrapped and normalized.
func (s *Service) RemoteList(ctx context.Context, collection string, filters []domain.Filter) ([]map[string]interface{}, error) {
	docs, err := retry.DoValue(ctx, s.retry, "list "+collection, func(ctx context.Context) ([]domain.Document, error) {
		return s.gateway.GetCollection(ctx, collection, filters)
	})
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		data := NormalizeTimestamps(Sanitize(d.Data))
		backfillID(data, d.ID)
		out = append(out, data)
	}
	return out, nil
}

// RemoteSet replaces a document, retry-wrapped.
func (s *Service) RemoteSet(ctx context.Context, collection, id string, doc map[string]interface{}) error {
	return s.retry.Do(ctx, "set "+collection+"/"+id, func(ctx context.Context) error {
		return s.gateway.SetDocument(ctx, collection, id, doc)
	})
}

// RemoteUpdate applies a partial update, retry-wrapped.
func (s *Service) RemoteUpdate(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	return s.retry.Do(ctx, "update "+collection+"/"+id, func(ctx context.Context) error {
		return s.gateway.UpdateDocument(ctx, collection, id, partial)
	})
}

// RemoteDelete removes a document, retry-wrapped.
func (s *Service) RemoteDelete(ctx context.Context, collection, id string) error {
	return s.retry.Do(ctx, "delete "+collection+"/"+id, func(ctx context.Context) error {
		return s.gateway.DeleteDocument(ctx, collection, id)
	})
}

// LoadLocalDocs reads the record set under a storage key. A read failure is
// treated as "no data" so the caller degrades to remote-only behavior.
func (s *Service) LoadLocalDocs(ctx context.Context, storageKey string) []map[string]interface{} {
	return s.loadLocalDocs(ctx, storageKey)
}

// SaveLocalDocs replaces the record set under a storage key.
func (s *Service) SaveLocalDocs(ctx context.Context, storageKey string, docs []map[string]interface{}) error {
	return localstore.SaveJSON(ctx, s.store, storageKey, docs)
}

func (s *Service) loadLocalDocs(ctx context.Context, storageKey string) []map[string]interface{} {
	docs, err := localstore.LoadJSON[[]map[string]interface{}](ctx, s.store, storageKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", storageKey).Msg("local read failed, treating as empty")
		return nil
	}
	return docs
}

func findDoc(docs []map[string]interface{}, match func(map[string]interface{}) bool) (map[string]interface{}, int) {
	if match == nil {
		return nil, -1
	}
	for i, doc := range docs {
		if match(doc) {
			return doc, i
		}
	}
	return nil, -1
}

func filterDocs(docs []map[string]interface{}, keep func(map[string]interface{}) bool) []map[string]interface{} {
	if keep == nil {
		return docs
	}
	out := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		if keep(doc) {
			out = append(out, doc)
		}
	}
	return out
}

func excludeDocs(docs []map[string]interface{}, exclude func(map[string]interface{}) bool) []map[string]interface{} {
	if exclude == nil {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		if !exclude(doc) {
			out = append(out, doc)
		}
	}
	return out
}
