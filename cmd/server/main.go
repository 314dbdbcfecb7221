// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tomtom215/animerec/internal/api"
	"github.com/tomtom215/animerec/internal/auth"
	"github.com/tomtom215/animerec/internal/cache"
	"github.com/tomtom215/animerec/internal/config"
	"github.com/tomtom215/animerec/internal/database"
	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/supervisor"
	"github.com/tomtom215/animerec/internal/supervisor/services"
)

// maintenanceInterval is how often caches and login limiters are swept.
const maintenanceInterval = 5 * time.Minute

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("data_dir", cfg.Data.Dir).
		Int("min_ratings", cfg.Recommend.MinRatings).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("auth_required", cfg.Security.AuthRequired).
		Msg("Starting animerec")

	if err := ensureDirectories(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create data directories")
	}

	db, err := database.New(cfg.Data)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var backend cache.Backend
	if cfg.Recommend.CacheTTL > 0 {
		backend, err = cache.New(ctx, cfg.Cache)
		if err != nil {
			logging.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("Failed to initialize result cache")
		}
		defer func() {
			if err := backend.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing result cache")
			}
		}()
		logging.Info().Str("backend", backend.Name()).Dur("ttl", cfg.Recommend.CacheTTL).Msg("Result cache ready")
	} else {
		logging.Info().Msg("Result caching disabled (RECOMMEND_CACHE_TTL=0)")
	}

	engine, err := initRecommend(ctx, cfg, db, backend, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = ephemeralSecret()
		logging.Warn().Msg("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	users := auth.NewUserStore(cfg.Data.Path(cfg.Data.UsersFile))
	loginLimiter := auth.NewLoginLimiter(cfg.Security.LoginAttempts, cfg.Security.LoginWindow)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	trainingService := services.NewTrainingService(engine, services.TrainingServiceConfig{
		TrainOnStartup:  cfg.Recommend.TrainOnStartup,
		RetrainInterval: cfg.Recommend.RetrainInterval,
	}, logging.Logger())

	cacheName := "disabled"
	if backend != nil {
		cacheName = backend.Name()
	}
	handler := api.NewHandler(api.Dependencies{
		Engine:       engine,
		Trainer:      trainingService,
		Data:         db,
		Users:        users,
		Tokens:       jwtManager,
		Limiter:      loginLimiter,
		CacheBackend: cacheName,
	}, cfg)
	authMiddleware := auth.NewMiddleware(jwtManager, cfg.Security.AuthRequired, api.DenyFunc())
	chiMW := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	router := api.NewRouter(handler, chiMW, authMiddleware)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// /train may run for minutes.
		WriteTimeout: cfg.Server.TrainTimeout + cfg.Server.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	tasks := []services.MaintenanceTask{{
		Name: "login-limiter-cleanup",
		Run: func(context.Context) error {
			if n := loginLimiter.Cleanup(); n > 0 {
				logging.Debug().Int("removed", n).Msg("expired login limiters removed")
			}
			return nil
		},
	}}
	if backend != nil {
		tasks = append(tasks, services.MaintenanceTask{Name: "cache-" + backend.Name(), Run: backend.Maintain})
	}

	tree.AddTrainingService(trainingService)
	tree.AddMaintenanceService(services.NewMaintenanceService(maintenanceInterval, logging.Logger(), tasks...))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// errCh delivers exactly one value, when the tree has stopped.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// ensureDirectories creates the data, model and badger directories.
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{cfg.Data.Dir, cfg.Recommend.ModelDir}
	if cfg.Cache.Backend == cache.BackendBadger && cfg.Cache.BadgerPath != "" {
		dirs = append(dirs, filepath.Dir(cfg.Cache.BadgerPath))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return nil
}

// ephemeralSecret returns a random signing key for processes started
// without JWT_SECRET.
func ephemeralSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logging.Fatal().Err(err).Msg("Failed to generate JWT secret")
	}
	return hex.EncodeToString(buf)
}
