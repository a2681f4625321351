package workout

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer/syncertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (Service, *syncertest.Harness, EventBus.Bus) {
	t.Helper()
	h := syncertest.New(t)
	bus := EventBus.New()
	return NewService(logger.Mock(), h.Sync, bus), h, bus
}

func TestSaveWorkout_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SaveWorkout(ctx, true, domain.Workout{Name: "push day"})
	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeMissingRequiredField, svcErr.Code)

	_, err = svc.SaveWorkout(ctx, true, domain.Workout{UserID: "u1"})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeMissingRequiredField, svcErr.Code)
}

func TestSaveWorkout_OfflineAssignsLocalID(t *testing.T) {
	svc, h, _ := newService(t)

	saved, err := svc.SaveWorkout(context.Background(), false, domain.Workout{
		UserID: "u1", Name: "push day",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 0, h.Gateway.AddCalls)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestSaveWorkout_OnlineTakesRemoteID(t *testing.T) {
	svc, h, _ := newService(t)

	saved, err := svc.SaveWorkout(context.Background(), true, domain.Workout{
		UserID: "u1", Name: "push day",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, h.Gateway.AddCalls)
	assert.NotNil(t, h.Gateway.Document("users/u1/workouts", saved.ID))
}

func TestSaveWorkout_OnlineCreateIsNotDuplicatedOnList(t *testing.T) {
	svc, h, _ := newService(t)
	ctx := context.Background()

	saved, err := svc.SaveWorkout(ctx, true, domain.Workout{UserID: "u1", Name: "push day"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	stored := h.Gateway.Document("users/u1/workouts", saved.ID)
	require.NotNil(t, stored)
	assert.NotContains(t, stored, "id", "remote copy must not carry a placeholder id")

	h.Cache.InvalidateAll()
	workouts, err := svc.GetWorkouts(ctx, true, "u1")
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, saved.ID, workouts[0].ID)

	summary, err := svc.SyncAll(ctx, true, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Pushed)

	workouts, err = svc.GetWorkouts(ctx, false, "u1")
	require.NoError(t, err)
	assert.Len(t, workouts, 1)
}

func TestGetWorkouts_OfflineSeesOfflineSave(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	saved, err := svc.SaveWorkout(ctx, false, domain.Workout{
		UserID: "u1", Name: "push day",
		Exercises: []domain.PerformedExercise{
			{ExerciseID: "bench", Name: "Bench Press", Sets: []domain.ExerciseSet{{Weight: 80, Reps: 5}}},
		},
	})
	require.NoError(t, err)

	workouts, err := svc.GetWorkouts(ctx, false, "u1")
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, saved.ID, workouts[0].ID)
	require.Len(t, workouts[0].Exercises, 1)
	assert.Equal(t, 5, workouts[0].Exercises[0].Sets[0].Reps)
}

func TestSyncAll_PushesOfflineCreatedWorkout(t *testing.T) {
	svc, h, _ := newService(t)
	ctx := context.Background()

	h.Gateway.SetOnline(false)
	saved, err := svc.SaveWorkout(ctx, true, domain.Workout{UserID: "u1", Name: "push day"})
	require.NoError(t, err)

	workouts, err := svc.GetWorkouts(ctx, true, "u1")
	require.NoError(t, err)
	require.Len(t, workouts, 1)

	h.Gateway.SetOnline(true)
	summary, err := svc.SyncAll(ctx, true, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pushed)

	doc := h.Gateway.Document("users/u1/workouts", saved.ID)
	require.NotNil(t, doc)
	assert.Equal(t, "push day", doc["name"])
	assert.Equal(t, "u1", doc["userId"])
}

func TestSyncAll_PullsRemoteOnlyRecords(t *testing.T) {
	svc, h, _ := newService(t)
	ctx := context.Background()

	h.Gateway.Seed("users/u1/workouts", "w-remote", map[string]interface{}{
		"id": "w-remote", "userId": "u1", "name": "leg day",
		"updatedAt": "2024-01-01T10:00:00Z",
	})

	summary, err := svc.SyncAll(ctx, true, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pulled)

	workouts, err := svc.GetWorkouts(ctx, false, "u1")
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, "leg day", workouts[0].Name)
}

func TestSyncAll_NewerSideWinsTieTakesRemote(t *testing.T) {
	svc, h, _ := newService(t)
	ctx := context.Background()

	older := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	// local newer than remote
	h.Gateway.SetOnline(false)
	_, err := svc.SaveWorkout(ctx, true, domain.Workout{
		ID: "w1", UserID: "u1", Name: "local-new", CreatedAt: older, UpdatedAt: newer,
	})
	require.NoError(t, err)
	h.Gateway.SetOnline(true)
	h.Gateway.Seed("users/u1/workouts", "w1", map[string]interface{}{
		"id": "w1", "userId": "u1", "name": "remote-old",
		"updatedAt": older.Format(time.RFC3339),
	})

	_, err = svc.SyncAll(ctx, true, "u1")
	require.NoError(t, err)

	doc := h.Gateway.Document("users/u1/workouts", "w1")
	require.NotNil(t, doc)
	assert.Equal(t, "local-new", doc["name"])

	// tie goes to remote
	h.Gateway.Seed("users/u1/workouts", "w1", map[string]interface{}{
		"id": "w1", "userId": "u1", "name": "remote-tie",
		"updatedAt": newer.Format(time.RFC3339),
	})
	h.Cache.InvalidateAll()

	_, err = svc.SyncAll(ctx, true, "u1")
	require.NoError(t, err)

	workouts, err := svc.GetWorkouts(ctx, false, "u1")
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, "remote-tie", workouts[0].Name)
}

func TestSyncAll_OfflineIsRejected(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.SyncAll(context.Background(), false, "u1")

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeOfflineWriteRejected, svcErr.Code)
}

func TestSyncAll_PublishesCompletionEvent(t *testing.T) {
	svc, _, bus := newService(t)

	var got domain.SyncSummary
	require.NoError(t, bus.Subscribe(domain.EventSyncCompleted, func(s domain.SyncSummary) {
		got = s
	}))

	_, err := svc.SyncAll(context.Background(), true, "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestPlans_SaveGetDelete(t *testing.T) {
	svc, h, _ := newService(t)
	ctx := context.Background()

	saved, err := svc.SavePlan(ctx, true, domain.WorkoutPlan{
		UserID: "u1", Name: "5x5",
		Exercises: []domain.PlannedExercise{{ExerciseID: "squat", Name: "Squat", TargetSets: 5, TargetReps: 5}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.NotNil(t, h.Gateway.Document("users/u1/workoutPlans", saved.ID))

	plans, err := svc.GetPlans(ctx, true, "u1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, 5, plans[0].Exercises[0].TargetReps)

	removed, err := svc.DeletePlan(ctx, true, "u1", saved.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Nil(t, h.Gateway.Document("users/u1/workoutPlans", saved.ID))
}

func TestDeleteWorkout_RequiresID(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.DeleteWorkout(context.Background(), true, "u1", "")

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeMissingRequiredField, svcErr.Code)
}
