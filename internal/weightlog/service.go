// Package weightlog implements the body-weight log entity service. The
// calendar date is the real identity of an entry: ids are derived from it and
// same-day logging overwrites the existing entry.
package weightlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer"
	"github.com/rs/zerolog"
)

const weightLogSub = "weightLog"

type Service interface {
	Log(ctx context.Context, online bool, entry domain.WeightLogEntry) (domain.WeightLogEntry, error)
	Get(ctx context.Context, online bool, uid string) ([]domain.WeightLogEntry, error)
	Update(ctx context.Context, online bool, entry domain.WeightLogEntry) (domain.WeightLogEntry, error)
	DeleteEntry(ctx context.Context, online bool, uid, id string) (bool, error)
}

type service struct {
	log  zerolog.Logger
	sync *syncer.Service
}

func NewService(log logger.Logger, sync *syncer.Service) Service {
	return &service{
		log:  log.With().Str("module", "weightlog").Logger(),
		sync: sync,
	}
}

func cacheKey(uid string) string {
	return "weight-log:" + uid
}

// DeriveID builds the date-scoped entry id.
func DeriveID(uid, date string) string {
	return fmt.Sprintf("wl-%s-%s", uid, date)
}

func byUserAndDate(uid, date string) func(map[string]interface{}) bool {
	return func(doc map[string]interface{}) bool {
		return doc["userId"] == uid && doc["date"] == date
	}
}

func byUserAndID(uid, id string) func(map[string]interface{}) bool {
	return func(doc map[string]interface{}) bool {
		return doc["userId"] == uid && doc["id"] == id
	}
}

func validate(entry domain.WeightLogEntry) error {
	if entry.UserID == "" {
		return domain.ErrMissingField("userId")
	}
	if entry.Date == "" {
		return domain.ErrMissingField("date")
	}
	if _, err := time.Parse(domain.WeightDateLayout, entry.Date); err != nil {
		return domain.ErrValidation("date must be formatted %s", domain.WeightDateLayout)
	}
	if entry.Weight <= 0 {
		return domain.ErrValidation("weight must be positive")
	}
	return nil
}

func (s *service) Log(ctx context.Context, online bool, entry domain.WeightLogEntry) (domain.WeightLogEntry, error) {
	if err := validate(entry); err != nil {
		return domain.WeightLogEntry{}, err
	}

	if entry.ID == "" {
		entry.ID = DeriveID(entry.UserID, entry.Date)
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	// delta from the chronologically preceding entry, never the same-date
	// record being overwritten
	entry.Change = s.changeFrom(ctx, entry)

	doc, err := syncer.ToDoc(entry)
	if err != nil {
		return domain.WeightLogEntry{}, err
	}

	merged, err := s.sync.WriteDocument(ctx, online, syncer.WriteRequest{
		InvalidateKeys: []string{cacheKey(entry.UserID)},
		Collection:     domain.UserCollection(entry.UserID, weightLogSub),
		ID:             entry.ID,
		StorageKey:     domain.StorageKeyWeightLog,
		Match:          byUserAndDate(entry.UserID, entry.Date),
		Doc:            doc,
	})
	if err != nil {
		return domain.WeightLogEntry{}, err
	}

	return syncer.FromDoc[domain.WeightLogEntry](merged)
}

// changeFrom computes the weight delta against the nearest earlier-dated
// entry for the same user.
func (s *service) changeFrom(ctx context.Context, entry domain.WeightLogEntry) float64 {
	docs := s.sync.LoadLocalDocs(ctx, domain.StorageKeyWeightLog)

	var prevDate string
	var prevWeight float64
	for _, doc := range docs {
		if doc["userId"] != entry.UserID {
			continue
		}
		date, _ := doc["date"].(string)
		if date == "" || date >= entry.Date {
			continue
		}
		if date > prevDate {
			prevDate = date
			prevWeight, _ = doc["weight"].(float64)
		}
	}

	if prevDate == "" {
		return 0
	}
	return entry.Weight - prevWeight
}

func (s *service) Get(ctx context.Context, online bool, uid string) ([]domain.WeightLogEntry, error) {
	if uid == "" {
		return nil, domain.ErrMissingField("userId")
	}

	docs, err := s.sync.FetchCollection(ctx, online, syncer.ListRequest{
		CacheKey:   cacheKey(uid),
		Collection: domain.UserCollection(uid, weightLogSub),
		StorageKey: domain.StorageKeyWeightLog,
		BelongsTo: func(doc map[string]interface{}) bool {
			return doc["userId"] == uid
		},
	})
	if err != nil {
		return nil, err
	}

	entries, err := syncer.FromDocs[domain.WeightLogEntry](docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (s *service) Update(ctx context.Context, online bool, entry domain.WeightLogEntry) (domain.WeightLogEntry, error) {
	if entry.UserID == "" {
		return domain.WeightLogEntry{}, domain.ErrMissingField("userId")
	}
	if entry.ID == "" {
		return domain.WeightLogEntry{}, domain.ErrMissingField("id")
	}

	docs := s.sync.LoadLocalDocs(ctx, domain.StorageKeyWeightLog)
	var existing map[string]interface{}
	for _, doc := range docs {
		if byUserAndID(entry.UserID, entry.ID)(doc) {
			existing = doc
			break
		}
	}
	if existing == nil {
		return domain.WeightLogEntry{}, domain.ErrNotFound("weight entry", entry.ID)
	}

	if entry.Date == "" {
		entry.Date, _ = existing["date"].(string)
	}

	// moving an entry to another date retires the old record first, keeping
	// one entry per date
	oldDate, _ := existing["date"].(string)
	if oldDate != "" && oldDate != entry.Date {
		if _, err := s.DeleteEntry(ctx, online, entry.UserID, entry.ID); err != nil {
			return domain.WeightLogEntry{}, err
		}
		entry.ID = DeriveID(entry.UserID, entry.Date)
	}

	entry.UpdatedAt = time.Now().UTC()
	return s.Log(ctx, online, entry)
}

func (s *service) DeleteEntry(ctx context.Context, online bool, uid, id string) (bool, error) {
	if uid == "" {
		return false, domain.ErrMissingField("userId")
	}
	if id == "" {
		return false, domain.ErrMissingField("id")
	}

	return s.sync.DeleteDocument(ctx, online, syncer.DeleteRequest{
		InvalidateKeys: []string{cacheKey(uid)},
		Collection:     domain.UserCollection(uid, weightLogSub),
		ID:             id,
		StorageKey:     domain.StorageKeyWeightLog,
		Match:          byUserAndID(uid, id),
	})
}
