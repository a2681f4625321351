package profile

import (
	"context"
	"testing"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer/syncertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (Service, *syncertest.Harness) {
	t.Helper()
	h := syncertest.New(t)
	return NewService(logger.Mock(), h.Sync), h
}

func TestSave_RequiresUIDAndEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, true, domain.UserProfile{Email: "a@b.c"})
	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeMissingRequiredField, svcErr.Code)

	_, err = svc.Save(ctx, true, domain.UserProfile{UID: "u1"})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeMissingRequiredField, svcErr.Code)
}

func TestSave_RejectsNegativeBiometrics(t *testing.T) {
	svc, h := newService(t)

	_, err := svc.Save(context.Background(), true, domain.UserProfile{
		UID: "u1", Email: "a@b.c", Weight: -1,
	})

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeValidationFailed, svcErr.Code)
	assert.Empty(t, h.Store.Items, "validation failures must not touch storage")
}

func TestSaveAndGet_Offline(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, false, domain.UserProfile{
		UID: "u1", Email: "a@b.c", Username: "alice", Weight: 82,
	})
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())
	assert.Equal(t, 0, h.Gateway.SetCalls)

	got, err := svc.Get(ctx, false, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, 82.0, got.Weight)
}

func TestSave_OnlinePushesToRemote(t *testing.T) {
	svc, h := newService(t)

	_, err := svc.Save(context.Background(), true, domain.UserProfile{
		UID: "u1", Email: "a@b.c", Username: "alice",
	})

	require.NoError(t, err)
	doc := h.Gateway.Document("users", "u1")
	require.NotNil(t, doc)
	assert.Equal(t, "alice", doc["username"])
}

func TestGet_MergePolicy(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	// device-entered biometrics, stale identity fields
	_, err := svc.Save(ctx, false, domain.UserProfile{
		UID: "u1", Email: "a@b.c", Username: "stale", Weight: 82, Height: 180,
	})
	require.NoError(t, err)
	h.Cache.InvalidateAll()

	h.Gateway.Seed("users", "u1", map[string]interface{}{
		"uid":      "u1",
		"email":    "a@b.c",
		"username": "remote",
		"weight":   81.0,
	})

	got, err := svc.Get(ctx, true, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 82.0, got.Weight, "device biometrics win")
	assert.Equal(t, 180.0, got.Height)
	assert.Equal(t, "remote", got.Username, "authenticated identity wins")
}

func TestGet_AbsentIsNil(t *testing.T) {
	svc, _ := newService(t)

	got, err := svc.Get(context.Background(), true, "nobody")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, true, domain.UserProfile{
		UID: "u1", Email: "a@b.c", UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, true, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, h.Gateway.Document("users", "u1"))

	got, err := svc.Get(ctx, false, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete_UnknownOfflineIsNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Delete(context.Background(), false, "nobody")

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeNotFound, svcErr.Code)
}

func TestDelete_UnknownIsNotFoundEvenOnline(t *testing.T) {
	svc, h := newService(t)

	ok, err := svc.Delete(context.Background(), true, "nobody")

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrCodeNotFound, svcErr.Code)
	assert.False(t, ok)
	assert.Equal(t, 1, h.Gateway.DeleteCalls, "remote delete is idempotent and still attempted")
}
