// Package profile implements the user profile entity service.
package profile

import (
	"context"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer"
	"github.com/rs/zerolog"
)

// Profiles live as documents in the root users collection, keyed by uid.
const collection = "users"

// Merge policy: the last authenticated write owns identity-facing fields, the
// device owns biometric fields.
var mergePolicy = syncer.MergePolicy{
	"username": syncer.RemoteWins,
	"weight":   syncer.LocalWins,
	"height":   syncer.LocalWins,
}

type Service interface {
	Save(ctx context.Context, online bool, profile domain.UserProfile) (domain.UserProfile, error)
	Get(ctx context.Context, online bool, uid string) (*domain.UserProfile, error)
	Delete(ctx context.Context, online bool, uid string) (bool, error)
}

type service struct {
	log  zerolog.Logger
	sync *syncer.Service
}

func NewService(log logger.Logger, sync *syncer.Service) Service {
	return &service{
		log:  log.With().Str("module", "profile").Logger(),
		sync: sync,
	}
}

func cacheKey(uid string) string {
	return "profile:" + uid
}

func byUID(uid string) func(map[string]interface{}) bool {
	return func(doc map[string]interface{}) bool { return doc["uid"] == uid }
}

func validate(p domain.UserProfile) error {
	if p.UID == "" {
		return domain.ErrMissingField("uid")
	}
	if p.Email == "" {
		return domain.ErrMissingField("email")
	}
	if p.Weight < 0 {
		return domain.ErrValidation("weight must not be negative")
	}
	if p.Height < 0 {
		return domain.ErrValidation("height must not be negative")
	}
	return nil
}

func (s *service) Save(ctx context.Context, online bool, profile domain.UserProfile) (domain.UserProfile, error) {
	if err := validate(profile); err != nil {
		return domain.UserProfile{}, err
	}

	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	doc, err := syncer.ToDoc(profile)
	if err != nil {
		return domain.UserProfile{}, err
	}

	merged, err := s.sync.WriteDocument(ctx, online, syncer.WriteRequest{
		InvalidateKeys: []string{cacheKey(profile.UID)},
		Collection:     collection,
		ID:             profile.UID,
		StorageKey:     domain.StorageKeyProfile,
		Match:          byUID(profile.UID),
		Doc:            doc,
	})
	if err != nil {
		return domain.UserProfile{}, err
	}

	s.log.Debug().Str("uid", profile.UID).Msg("profile saved")
	return syncer.FromDoc[domain.UserProfile](merged)
}

func (s *service) Get(ctx context.Context, online bool, uid string) (*domain.UserProfile, error) {
	if uid == "" {
		return nil, domain.ErrMissingField("uid")
	}

	doc, err := s.sync.FetchDocument(ctx, online, syncer.FetchRequest{
		CacheKey:   cacheKey(uid),
		Collection: collection,
		ID:         uid,
		StorageKey: domain.StorageKeyProfile,
		Match:      byUID(uid),
		Policy:     mergePolicy,
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	p, err := syncer.FromDoc[domain.UserProfile](doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *service) Delete(ctx context.Context, online bool, uid string) (bool, error) {
	if uid == "" {
		return false, domain.ErrMissingField("uid")
	}

	removed, err := s.sync.DeleteDocument(ctx, online, syncer.DeleteRequest{
		InvalidateKeys: []string{cacheKey(uid)},
		Collection:     collection,
		ID:             uid,
		StorageKey:     domain.StorageKeyProfile,
		Match:          byUID(uid),
	})
	if err != nil {
		return false, err
	}
	if !removed {
		return false, domain.ErrNotFound("profile", uid)
	}
	return true, nil
}
