package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/workout"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Service interface {
	Start()
	Stop()
	// AddJob adds a job that runs periodically at the given interval.
	AddJob(job cron.Job, interval time.Duration, identifier string) (int, error)
	// AddJobWithSpec adds a job using a cron spec string (e.g., "0 3 * * *").
	AddJobWithSpec(job cron.Job, spec string, identifier string) (int, error)
	RemoveJobByIdentifier(id string) error
	GetNextRun(id string) (time.Time, error)
}

type service struct {
	log        zerolog.Logger
	config     *domain.Config
	workoutSvc workout.Service
	store      domain.LocalStore

	cron *cron.Cron
	jobs map[string]cron.EntryID
	m    sync.RWMutex
}

func NewService(log logger.Logger, config *domain.Config, workoutSvc workout.Service, store domain.LocalStore) Service {
	return &service{
		log:        log.With().Str("module", "scheduler").Logger(),
		config:     config,
		workoutSvc: workoutSvc,
		store:      store,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
		)),
		jobs: map[string]cron.EntryID{},
	}
}

func (s *service) Start() {
	s.log.Info().Msg("starting scheduler service")

	s.cron.Start()

	go s.addAppJobs()
}

func (s *service) addAppJobs() {
	if s.config.Sync.Enabled && s.config.Sync.UserID != "" {
		syncJob := &SyncJob{
			Name:       "app-periodic-sync",
			Log:        s.log.With().Str("job", "app-periodic-sync").Logger(),
			UserID:     s.config.Sync.UserID,
			WorkoutSvc: s.workoutSvc,
		}

		spec := s.config.Sync.Schedule
		if spec == "" {
			spec = "@every 15m"
		}
		if _, err := s.AddJobWithSpec(syncJob, spec, "app-periodic-sync"); err != nil {
			s.log.Error().Err(err).Msg("failed to add 'app-periodic-sync' job")
		}
	} else {
		s.log.Info().Msg("periodic sync is disabled, skipping 'app-periodic-sync' job")
	}

	cleanupJob := &SyncMetadataCleanupJob{
		Name:      "app-sync-metadata-cleanup",
		Log:       s.log.With().Str("job", "app-sync-metadata-cleanup").Logger(),
		Store:     s.store,
		Retention: 30 * 24 * time.Hour,
	}
	if _, err := s.AddJobWithSpec(cleanupJob, "0 3 * * *", "app-sync-metadata-cleanup"); err != nil {
		s.log.Error().Err(err).Msg("failed to add 'app-sync-metadata-cleanup' job")
	}
}

func (s *service) Stop() {
	s.log.Info().Msg("stopping scheduler service")
	s.cron.Stop()
}

func (s *service) AddJob(job cron.Job, interval time.Duration, identifier string) (int, error) {
	return s.add(job, fmt.Sprintf("@every %s", interval.String()), identifier)
}

func (s *service) AddJobWithSpec(job cron.Job, spec string, identifier string) (int, error) {
	return s.add(job, spec, identifier)
}

func (s *service) add(job cron.Job, spec string, identifier string) (int, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if _, exists := s.jobs[identifier]; exists {
		return 0, fmt.Errorf("job with identifier '%s' already exists", identifier)
	}

	entryID, err := s.cron.AddJob(spec, cron.NewChain(
		cron.SkipIfStillRunning(cron.DefaultLogger)).Then(job))
	if err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Str("spec", spec).Msg("failed to add job")
		return 0, fmt.Errorf("failed to add job '%s': %w", identifier, err)
	}

	s.log.Info().Str("identifier", identifier).Str("spec", spec).Int("entryID", int(entryID)).Msg("scheduled job added")
	s.jobs[identifier] = entryID
	return int(entryID), nil
}

func (s *service) RemoveJobByIdentifier(id string) error {
	s.m.Lock()
	defer s.m.Unlock()

	v, ok := s.jobs[id]
	if !ok {
		return nil
	}

	s.log.Debug().Msgf("scheduler.Remove: removing job: %v", id)

	s.cron.Remove(v)
	delete(s.jobs, id)
	return nil
}

func (s *service) GetNextRun(id string) (time.Time, error) {
	entry := s.getEntryById(id)

	if !entry.Valid() {
		return time.Time{}, nil
	}

	s.log.Debug().Msgf("scheduler.GetNextRun: %s next run: %s", id, entry.Next)

	return entry.Next, nil
}

func (s *service) getEntryById(id string) cron.Entry {
	s.m.Lock()
	defer s.m.Unlock()

	v, ok := s.jobs[id]
	if !ok {
		return cron.Entry{}
	}

	return s.cron.Entry(v)
}
