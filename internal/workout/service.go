// Package workout implements the workout and workout plan entity service,
// including the full data-set synchronization pass.
package workout

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/syncer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	workoutsSub = "workouts"
	plansSub    = "workoutPlans"
)

type Service interface {
	SaveWorkout(ctx context.Context, online bool, w domain.Workout) (domain.Workout, error)
	GetWorkouts(ctx context.Context, online bool, uid string) ([]domain.Workout, error)
	DeleteWorkout(ctx context.Context, online bool, uid, id string) (bool, error)

	SavePlan(ctx context.Context, online bool, p domain.WorkoutPlan) (domain.WorkoutPlan, error)
	GetPlans(ctx context.Context, online bool, uid string) ([]domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, online bool, uid, id string) (bool, error)

	// SyncAll reconciles the full workout and plan data sets with the remote
	// store. Requires connectivity.
	SyncAll(ctx context.Context, online bool, uid string) (domain.SyncSummary, error)
}

type service struct {
	log  zerolog.Logger
	sync *syncer.Service
	bus  EventBus.Bus
}

func NewService(log logger.Logger, sync *syncer.Service, bus EventBus.Bus) Service {
	return &service{
		log:  log.With().Str("module", "workout").Logger(),
		sync: sync,
		bus:  bus,
	}
}

func workoutsKey(uid string) string { return "workouts:" + uid }
func plansKey(uid string) string    { return "workout-plans:" + uid }

func byID(id string) func(map[string]interface{}) bool {
	return func(doc map[string]interface{}) bool { return doc["id"] == id }
}

func byUser(uid string) func(map[string]interface{}) bool {
	return func(doc map[string]interface{}) bool { return doc["userId"] == uid }
}

// assignID gives a new record its identity: the remote store generates the id
// when reachable, otherwise a locally generated one stands in until the next
// full sync pushes it.
func (s *service) assignID(ctx context.Context, online bool, collection string, doc map[string]interface{}) (string, bool) {
	if s.sync.RemoteAvailable(online) {
		// the store assigns the id; never send the empty placeholder
		delete(doc, "id")
		id, err := s.sync.RemoteAdd(ctx, collection, doc)
		if err == nil {
			return id, true
		}
		s.log.Warn().Err(err).Str("collection", collection).Msg("remote id assignment failed, generating local id")
	}
	return uuid.NewString(), false
}

func (s *service) SaveWorkout(ctx context.Context, online bool, w domain.Workout) (domain.Workout, error) {
	if w.UserID == "" {
		return domain.Workout{}, domain.ErrMissingField("userId")
	}
	if w.Name == "" {
		return domain.Workout{}, domain.ErrMissingField("name")
	}

	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}

	collection := domain.UserCollection(w.UserID, workoutsSub)

	createdRemotely := false
	if w.ID == "" {
		doc, err := syncer.ToDoc(w)
		if err != nil {
			return domain.Workout{}, err
		}
		w.ID, createdRemotely = s.assignID(ctx, online, collection, doc)
	}

	doc, err := syncer.ToDoc(w)
	if err != nil {
		return domain.Workout{}, err
	}

	merged, err := s.sync.WriteDocument(ctx, online, syncer.WriteRequest{
		InvalidateKeys: []string{workoutsKey(w.UserID)},
		Collection:     collection,
		ID:             w.ID,
		StorageKey:     domain.StorageKeyWorkouts,
		Match:          byID(w.ID),
		Doc:            doc,
		SkipRemote:     createdRemotely,
	})
	if err != nil {
		return domain.Workout{}, err
	}

	return syncer.FromDoc[domain.Workout](merged)
}

func (s *service) GetWorkouts(ctx context.Context, online bool, uid string) ([]domain.Workout, error) {
	if uid == "" {
		return nil, domain.ErrMissingField("userId")
	}

	docs, err := s.sync.FetchCollection(ctx, online, syncer.ListRequest{
		CacheKey:   workoutsKey(uid),
		Collection: domain.UserCollection(uid, workoutsSub),
		StorageKey: domain.StorageKeyWorkouts,
		BelongsTo:  byUser(uid),
		Policy:     syncer.MergePolicy{"name": syncer.NewestWins, "notes": syncer.NewestWins},
	})
	if err != nil {
		return nil, err
	}
	return syncer.FromDocs[domain.Workout](docs)
}

func (s *service) DeleteWorkout(ctx context.Context, online bool, uid, id string) (bool, error) {
	if uid == "" {
		return false, domain.ErrMissingField("userId")
	}
	if id == "" {
		return false, domain.ErrMissingField("id")
	}

	return s.sync.DeleteDocument(ctx, online, syncer.DeleteRequest{
		InvalidateKeys: []string{workoutsKey(uid)},
		Collection:     domain.UserCollection(uid, workoutsSub),
		ID:             id,
		StorageKey:     domain.StorageKeyWorkouts,
		Match:          byID(id),
	})
}

func (s *service) SavePlan(ctx context.Context, online bool, p domain.WorkoutPlan) (domain.WorkoutPlan, error) {
	if p.UserID == "" {
		return domain.WorkoutPlan{}, domain.ErrMissingField("userId")
	}
	if p.Name == "" {
		return domain.WorkoutPlan{}, domain.ErrMissingField("name")
	}

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	collection := domain.UserCollection(p.UserID, plansSub)

	createdRemotely := false
	if p.ID == "" {
		doc, err := syncer.ToDoc(p)
		if err != nil {
			return domain.WorkoutPlan{}, err
		}
		p.ID, createdRemotely = s.assignID(ctx, online, collection, doc)
	}

	doc, err := syncer.ToDoc(p)
	if err != nil {
		return domain.WorkoutPlan{}, err
	}

	merged, err := s.sync.WriteDocument(ctx, online, syncer.WriteRequest{
		InvalidateKeys: []string{plansKey(p.UserID)},
		Collection:     collection,
		ID:             p.ID,
		StorageKey:     domain.StorageKeyWorkoutPlans,
		Match:          byID(p.ID),
		Doc:            doc,
		SkipRemote:     createdRemotely,
	})
	if err != nil {
		return domain.WorkoutPlan{}, err
	}

	return syncer.FromDoc[domain.WorkoutPlan](merged)
}

func (s *service) GetPlans(ctx context.Context, online bool, uid string) ([]domain.WorkoutPlan, error) {
	if uid == "" {
		return nil, domain.ErrMissingField("userId")
	}

	docs, err := s.sync.FetchCollection(ctx, online, syncer.ListRequest{
		CacheKey:   plansKey(uid),
		Collection: domain.UserCollection(uid, plansSub),
		StorageKey: domain.StorageKeyWorkoutPlans,
		BelongsTo:  byUser(uid),
		Policy:     syncer.MergePolicy{"name": syncer.NewestWins},
	})
	if err != nil {
		return nil, err
	}
	return syncer.FromDocs[domain.WorkoutPlan](docs)
}

func (s *service) DeletePlan(ctx context.Context, online bool, uid, id string) (bool, error) {
	if uid == "" {
		return false, domain.ErrMissingField("userId")
	}
	if id == "" {
		return false, domain.ErrMissingField("id")
	}

	return s.sync.DeleteDocument(ctx, online, syncer.DeleteRequest{
		InvalidateKeys: []string{plansKey(uid)},
		Collection:     domain.UserCollection(uid, plansSub),
		ID:             id,
		StorageKey:     domain.StorageKeyWorkoutPlans,
		Match:          byID(id),
	})
}

func (s *service) SyncAll(ctx context.Context, online bool, uid string) (domain.SyncSummary, error) {
	if uid == "" {
		return domain.SyncSummary{}, domain.ErrMissingField("userId")
	}
	if !s.sync.RemoteAvailable(online) {
		return domain.SyncSummary{}, domain.ErrOfflineRejected("sync")
	}

	summary := domain.SyncSummary{UserID: uid}

	sets := []struct {
		collection string
		storageKey string
		cacheKey   string
	}{
		{domain.UserCollection(uid, workoutsSub), domain.StorageKeyWorkouts, workoutsKey(uid)},
		{domain.UserCollection(uid, plansSub), domain.StorageKeyWorkoutPlans, plansKey(uid)},
	}

	for _, set := range sets {
		pushed, pulled, err := s.reconcile(ctx, uid, set.collection, set.storageKey)
		if err != nil {
			return domain.SyncSummary{}, err
		}
		summary.Pushed += pushed
		summary.Pulled += pulled
		s.sync.Invalidate(set.cacheKey)
	}

	summary.CompletedAt = time.Now().UTC()
	s.log.Info().Str("userId", uid).Int("pushed", summary.Pushed).Int("pulled", summary.Pulled).Msg("full sync completed")
	s.bus.Publish(domain.EventSyncCompleted, summary)

	return summary, nil
}

// reconcile merges one record set with the remote collection: the side with
// the newer updatedAt wins per record, remote wins ties, one-sided records are
// copied across.
func (s *service) reconcile(ctx context.Context, uid, collection, storageKey string) (pushed, pulled int, err error) {
	remoteDocs, err := s.sync.RemoteList(ctx, collection, nil)
	if err != nil {
		return 0, 0, err
	}

	allLocal := s.sync.LoadLocalDocs(ctx, storageKey)
	rest := make([]map[string]interface{}, 0, len(allLocal))
	localByID := map[string]map[string]interface{}{}
	for _, doc := range allLocal {
		if doc["userId"] != uid {
			rest = append(rest, doc)
			continue
		}
		if id, ok := doc["id"].(string); ok {
			localByID[id] = doc
		}
	}

	merged := make([]map[string]interface{}, 0, len(remoteDocs)+len(localByID))
	seen := map[string]bool{}

	for _, remote := range remoteDocs {
		id, _ := remote["id"].(string)
		seen[id] = true

		local, ok := localByID[id]
		if !ok {
			merged = append(merged, remote)
			pulled++
			continue
		}

		if syncer.DocTime(local, "updatedAt").After(syncer.DocTime(remote, "updatedAt")) {
			if err := s.sync.RemoteSet(ctx, collection, id, local); err != nil {
				s.log.Warn().Err(err).Str("id", id).Msg("push of newer local record failed")
			} else {
				pushed++
			}
			merged = append(merged, local)
			continue
		}
		merged = append(merged, remote)
		pulled++
	}

	for id, local := range localByID {
		if seen[id] {
			continue
		}
		if err := s.sync.RemoteSet(ctx, collection, id, local); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("push of local-only record failed")
		} else {
			pushed++
		}
		merged = append(merged, local)
	}

	if err := s.sync.SaveLocalDocs(ctx, storageKey, append(rest, merged...)); err != nil {
		return pushed, pulled, err
	}
	return pushed, pulled, nil
}
