package events

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/localstore"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer/syncertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriber(t *testing.T) (*Subscriber, EventBus.Bus, *syncertest.MemStore) {
	t.Helper()
	bus := EventBus.New()
	store := syncertest.NewMemStore()
	sub := NewSubscriber(logger.Mock(), bus, store)
	require.NoError(t, sub.Register())
	return sub, bus, store
}

func TestSyncCompletion_IsRecorded(t *testing.T) {
	_, bus, store := newSubscriber(t)

	bus.Publish(domain.EventSyncCompleted, domain.SyncSummary{
		UserID: "u1", Pushed: 2, Pulled: 1, CompletedAt: time.Now().UTC(),
	})

	summaries, err := localstore.LoadJSON[[]domain.SyncSummary](context.Background(), store, domain.StorageKeyCacheMetadata)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "u1", summaries[0].UserID)
	assert.Equal(t, 2, summaries[0].Pushed)
}

func TestSyncCompletions_Append(t *testing.T) {
	_, bus, store := newSubscriber(t)

	for i := 0; i < 3; i++ {
		bus.Publish(domain.EventSyncCompleted, domain.SyncSummary{
			UserID: "u1", CompletedAt: time.Now().UTC(),
		})
	}

	summaries, err := localstore.LoadJSON[[]domain.SyncSummary](context.Background(), store, domain.StorageKeyCacheMetadata)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestFriendAccepted_DoesNotTouchStorage(t *testing.T) {
	_, bus, store := newSubscriber(t)

	bus.Publish(domain.EventFriendAccepted, domain.FriendAccepted{
		FromUID: "alice", ToUID: "bob", AcceptedAt: time.Now().UTC(),
	})

	assert.Empty(t, store.Items)
}
