// Package events wires the internal event bus to its subscribers: sync
// completions are recorded under the cache-metadata storage key and friend
// events are logged.
package events

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/localstore"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/rs/zerolog"
)

type Subscriber struct {
	log   zerolog.Logger
	bus   EventBus.Bus
	store domain.LocalStore
}

func NewSubscriber(log logger.Logger, bus EventBus.Bus, store domain.LocalStore) *Subscriber {
	return &Subscriber{
		log:   log.With().Str("module", "events").Logger(),
		bus:   bus,
		store: store,
	}
}

// Register subscribes all handlers. Call once at startup.
func (s *Subscriber) Register() error {
	if err := s.bus.Subscribe(domain.EventSyncCompleted, s.onSyncCompleted); err != nil {
		return err
	}
	if err := s.bus.Subscribe(domain.EventFriendAccepted, s.onFriendAccepted); err != nil {
		return err
	}
	if err := s.bus.Subscribe(domain.EventRemoteUnreachable, s.onRemoteUnreachable); err != nil {
		return err
	}
	return nil
}

func (s *Subscriber) onSyncCompleted(summary domain.SyncSummary) {
	ctx := context.Background()

	summaries, err := localstore.LoadJSON[[]domain.SyncSummary](ctx, s.store, domain.StorageKeyCacheMetadata)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read sync metadata, starting fresh")
		summaries = nil
	}
	summaries = append(summaries, summary)

	if err := localstore.SaveJSON(ctx, s.store, domain.StorageKeyCacheMetadata, summaries); err != nil {
		s.log.Error().Err(err).Msg("could not record sync completion")
		return
	}

	s.log.Debug().
		Str("userId", summary.UserID).
		Int("pushed", summary.Pushed).
		Int("pulled", summary.Pulled).
		Msg("sync completion recorded")
}

func (s *Subscriber) onFriendAccepted(e domain.FriendAccepted) {
	s.log.Info().Str("from", e.FromUID).Str("to", e.ToUID).Msg("friendship established")
}

func (s *Subscriber) onRemoteUnreachable(reason string) {
	s.log.Warn().Str("reason", reason).Msg("remote store unreachable, operating local-only")
}
