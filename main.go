package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/api"
	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/auth"
	"github.com/video-stream/editor/internal/config"
	"github.com/video-stream/editor/internal/db"
	"github.com/video-stream/editor/internal/logging"
	"github.com/video-stream/editor/internal/pipeline"
	"github.com/video-stream/editor/internal/project"
	"github.com/video-stream/editor/internal/store"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	st, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}
	defer st.Close()
	log.WithField("backend", cfg.StorageBackend).Info("storage ready")

	// Auth
	tokens := auth.NewTokenService(cfg.SessionSecret)
	authManager := auth.NewManager(st, tokens, cfg.SessionTTL, log)

	sweeper, err := auth.NewSweeper(st, cfg.SessionSweep, log)
	if err != nil {
		log.WithError(err).Fatal("failed to schedule session sweep")
	}
	sweeper.Start()

	// Projects and processing
	projects := project.NewService(st, log)
	schedule := pipeline.DefaultSchedule.Scaled(cfg.PipelineScale)
	if err := schedule.Validate(); err != nil {
		log.WithError(err).Fatal("invalid processing schedule")
	}
	runner := pipeline.NewRunner(pipeline.New(pipeline.MockStages{}, schedule), projects, log)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit)

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Store:    st,
		Auth:     authManager,
		Projects: projects,
		Runner:   runner,
		Limiter:  limiter,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
	}()

	log.WithFields(logrus.Fields{"addr": srv.Addr, "cors": cfg.CORSOrigins}).Info("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}

	runner.Stop()
	limiter.Stop()
	sweeper.Stop()
	log.Info("stopped")
}

// openStore selects the persistence back-end named by STORAGE_BACKEND.
func openStore(cfg *config.Config, log logrus.FieldLogger) (store.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return db.NewSQLite(cfg.DBPath)
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		return db.NewPostgres(cfg.DatabaseURL)
	case config.BackendMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
