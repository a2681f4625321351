// Package server owns the process lifecycle: it starts the background pieces
// of the sync client and tears them down in order on shutdown.
package server

import (
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/cache"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/localstore"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/scheduler"
	"github.com/rs/zerolog"
)

type Server struct {
	log    zerolog.Logger
	config *domain.Config

	scheduler scheduler.Service
	cache     *cache.Service
	store     *localstore.Store
	bus       EventBus.Bus

	lock sync.Mutex
}

func NewServer(log logger.Logger, config *domain.Config, schedulerSvc scheduler.Service, cacheSvc *cache.Service, store *localstore.Store, bus EventBus.Bus) *Server {
	return &Server{
		log:       log.With().Str("module", "server").Logger(),
		config:    config,
		scheduler: schedulerSvc,
		cache:     cacheSvc,
		store:     store,
		bus:       bus,
	}
}

func (s *Server) Start() error {
	// start cron scheduler
	s.scheduler.Start()

	return nil
}

func (s *Server) Shutdown() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.log.Info().Msg("Shutting down")

	// stop cron scheduler
	s.scheduler.Stop()

	// let in-flight event handlers finish before the store goes away
	s.bus.WaitAsync()

	s.cache.Close()

	if err := s.store.Close(); err != nil {
		s.log.Error().Stack().Err(err).Msg("could not close local store")
	}
}
