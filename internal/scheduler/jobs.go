package scheduler

import (
	"context"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/localstore"
	"github.com/fitsyncd/fitsync/internal/workout"
	"github.com/rs/zerolog"
)

// SyncJob runs the full data-set synchronization for the configured user.
// Scheduled runs always claim connectivity; the gateway's reachability probe
// still gates the actual remote access.
type SyncJob struct {
	Name       string
	Log        zerolog.Logger
	UserID     string
	WorkoutSvc workout.Service
}

func (j *SyncJob) Run() {
	ctx := context.Background()

	summary, err := j.WorkoutSvc.SyncAll(ctx, true, j.UserID)
	if err != nil {
		j.Log.Warn().Err(err).Str("userId", j.UserID).Msg("periodic sync did not complete")
		return
	}

	j.Log.Info().
		Str("userId", summary.UserID).
		Int("pushed", summary.Pushed).
		Int("pulled", summary.Pulled).
		Msg("periodic sync completed")
}

// SyncMetadataCleanupJob prunes old sync summaries from the cache-metadata
// record so the bookkeeping key does not grow without bound.
type SyncMetadataCleanupJob struct {
	Name      string
	Log       zerolog.Logger
	Store     domain.LocalStore
	Retention time.Duration
}

func (j *SyncMetadataCleanupJob) Run() {
	ctx := context.Background()

	summaries, err := localstore.LoadJSON[[]domain.SyncSummary](ctx, j.Store, domain.StorageKeyCacheMetadata)
	if err != nil {
		j.Log.Error().Err(err).Msg("failed to read sync metadata")
		return
	}
	if len(summaries) == 0 {
		return
	}

	cutoff := time.Now().Add(-j.Retention)
	kept := make([]domain.SyncSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.CompletedAt.After(cutoff) {
			kept = append(kept, s)
		}
	}

	if len(kept) == len(summaries) {
		return
	}

	if err := localstore.SaveJSON(ctx, j.Store, domain.StorageKeyCacheMetadata, kept); err != nil {
		j.Log.Error().Err(err).Msg("failed to write pruned sync metadata")
		return
	}

	j.Log.Info().Int("pruned", len(summaries)-len(kept)).Msg("sync metadata cleanup completed")
}
