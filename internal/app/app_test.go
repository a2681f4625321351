package app

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/friends"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/profile"
	"github.com/fitsyncd/fitsync/internal/syncer/syncertest"
	"github.com/fitsyncd/fitsync/internal/weightlog"
	"github.com/fitsyncd/fitsync/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*App, *syncertest.Harness) {
	t.Helper()
	h := syncertest.New(t)
	log := logger.Mock()
	bus := EventBus.New()
	return New(
		profile.NewService(log, h.Sync),
		workout.NewService(log, h.Sync, bus),
		weightlog.NewService(log, h.Sync),
		friends.NewService(log, h.Sync, bus),
	), h
}

func TestFacade_SuccessCarriesData(t *testing.T) {
	a, _ := newApp(t)

	res := a.SaveProfile(context.Background(), false, domain.UserProfile{
		UID: "u1", Email: "a@b.c", Username: "alice",
	})

	require.True(t, res.Success)
	require.Nil(t, res.Error)
	assert.Equal(t, "alice", res.Data.Username)
}

func TestFacade_ValidationSurfacesAsErrorResult(t *testing.T) {
	a, _ := newApp(t)

	res := a.SaveProfile(context.Background(), false, domain.UserProfile{Email: "a@b.c"})

	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ErrCodeMissingRequiredField, res.Error.Code)
}

func TestFacade_OfflineRestrictedOperation(t *testing.T) {
	a, _ := newApp(t)

	res := a.AcceptFriendRequest(context.Background(), false, "bob", "r1")

	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ErrCodeOfflineWriteRejected, res.Error.Code)
}

func TestFacade_AbsentReadIsSuccess(t *testing.T) {
	a, _ := newApp(t)

	res := a.GetProfile(context.Background(), false, "nobody")

	require.True(t, res.Success)
	assert.Nil(t, res.Data)
}

func TestFacade_EndToEndWorkoutRoundTrip(t *testing.T) {
	a, _ := newApp(t)
	ctx := context.Background()

	saved := a.SaveWorkout(ctx, true, domain.Workout{UserID: "u1", Name: "push day"})
	require.True(t, saved.Success)

	listed := a.GetWorkouts(ctx, true, "u1")
	require.True(t, listed.Success)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, saved.Data.ID, listed.Data[0].ID)
}
