package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/fitsyncd/fitsync/internal/app"
	"github.com/fitsyncd/fitsync/internal/cache"
	"github.com/fitsyncd/fitsync/internal/config"
	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/events"
	"github.com/fitsyncd/fitsync/internal/friends"
	"github.com/fitsyncd/fitsync/internal/localstore"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/internal/profile"
	"github.com/fitsyncd/fitsync/internal/remote"
	"github.com/fitsyncd/fitsync/internal/retry"
	"github.com/fitsyncd/fitsync/internal/scheduler"
	"github.com/fitsyncd/fitsync/internal/server"
	"github.com/fitsyncd/fitsync/internal/syncer"
	"github.com/fitsyncd/fitsync/internal/weightlog"
	"github.com/fitsyncd/fitsync/internal/workout"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	var configPath string
	pflag.StringVar(&configPath, "config", "", "path to configuration file")
	pflag.Parse()

	// read config
	cfg := config.New(configPath, version)

	// init new logger
	log := logger.New(cfg.Config)

	// init dynamic config
	cfg.DynamicReload(log)

	// setup internal eventbus
	bus := EventBus.New()

	log.Info().Msgf("Starting fitsync")
	log.Info().Msgf("Version: %s", version)
	log.Info().Msgf("Commit: %s", commit)
	log.Info().Msgf("Build date: %s", date)
	log.Info().Msgf("Log-level: %s", cfg.Config.Logging.Level)

	// open local store
	store, err := localstore.New(cfg.Config, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open local store")
	}

	// remote gateway + connectivity probe
	gateway, err := remote.NewClient(cfg.Config, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create remote gateway")
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := gateway.Probe(probeCtx); err != nil {
		log.Warn().Err(err).Msg("remote store unreachable, starting local-only")
		bus.Publish(domain.EventRemoteUnreachable, err.Error())
	}
	cancel()

	// core sync stack
	cacheSvc := cache.NewFromConfig(log, cfg.Config)
	retryExec := retry.NewFromConfig(log, cfg.Config)
	syncSvc := syncer.New(log, cacheSvc, store, gateway, retryExec)

	// entity services
	var (
		profileService   = profile.NewService(log, syncSvc)
		workoutService   = workout.NewService(log, syncSvc, bus)
		weightlogService = weightlog.NewService(log, syncSvc)
		friendsService   = friends.NewService(log, syncSvc, bus)
	)

	// register event subscribers
	subscriber := events.NewSubscriber(log, bus, store)
	if err := subscriber.Register(); err != nil {
		log.Fatal().Err(err).Msg("could not register event subscribers")
	}

	// facade for external callers
	application := app.New(profileService, workoutService, weightlogService, friendsService)

	// catch-up pass before the periodic schedule takes over
	if cfg.Config.Sync.Enabled && cfg.Config.Sync.UserID != "" {
		if res := application.SyncAll(context.Background(), true, cfg.Config.Sync.UserID); res.Success {
			log.Info().Int("pushed", res.Data.Pushed).Int("pulled", res.Data.Pulled).Msg("startup sync completed")
		} else {
			log.Warn().Msgf("startup sync skipped: %s", res.Error.Message)
		}
	}

	schedulingService := scheduler.NewService(log, cfg.Config, workoutService, store)

	srv := server.NewServer(log, cfg.Config, schedulingService, cacheSvc, store, bus)
	if err := srv.Start(); err != nil {
		log.Fatal().Stack().Err(err).Msg("could not start")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info().Msgf("Shutting down due to %s...", sig)

	srv.Shutdown()
	os.Exit(0)
}
