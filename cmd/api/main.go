package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"freightdeck/internal/auth"
	"freightdeck/internal/config"
	transporthttp "freightdeck/internal/http"
	"freightdeck/internal/platform/database"
	"freightdeck/internal/platform/logging"
	"freightdeck/internal/platform/metrics"
	"freightdeck/internal/platform/migrate"
	"freightdeck/internal/platform/storage"
	"freightdeck/internal/profile"
	"freightdeck/internal/realtime"
	"freightdeck/internal/shipments"
)

const sessionCleanupInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	metrics.Register()

	hub := realtime.NewHub(logger)

	repos, cleanup, err := buildRepositories(ctx, cfg, hub, logger)
	if err != nil {
		logger.Error("failed to initialize repositories", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	store, err := buildObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	profileSvc := profile.NewService(repos.profiles, store, logger)
	authSvc := auth.NewService(repos.auth, profileSvc, cfg.SessionTTL)
	shipmentSvc := shipments.NewService(repos.shipments)

	var google *auth.GoogleAuthenticator
	if cfg.OAuthConfigured() {
		google, err = auth.NewGoogleAuthenticator(ctx,
			cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL,
			cfg.AllowedEmailDomains, cfg.AllowedEmails)
		if err != nil {
			logger.Error("failed to initialize google oauth", "error", err)
			os.Exit(1)
		}
	}

	router := transporthttp.NewRouter(cfg, transporthttp.Services{
		Auth:      authSvc,
		Google:    google,
		Profiles:  profileSvc,
		Shipments: shipmentSvc,
		Hub:       hub,
	}, logger)

	go runSessionCleanup(ctx, authSvc, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Freightdeck API listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

type repositories struct {
	auth      auth.Repository
	profiles  profile.Repository
	shipments shipments.Repository
}

func buildRepositories(ctx context.Context, cfg config.Config, hub *realtime.Hub, logger *slog.Logger) (repositories, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repositories")
		// Without Postgres triggers the profile repository publishes its own
		// change events.
		profileRepo := realtime.NewPublishingProfileRepository(profile.NewInMemoryRepository(), hub)
		return repositories{
			auth:      auth.NewInMemoryRepository(),
			profiles:  profileRepo,
			shipments: shipments.NewInMemoryRepository(seedLocalShipments()),
		}, nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return repositories{}, nil, err
	}
	logger.Info("connected to postgres")

	listener := realtime.NewListener(cfg.DatabaseURL, hub, logger)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change feed listener stopped", "error", err)
		}
	}()

	return repositories{
		auth:      auth.NewPostgresRepository(db),
		profiles:  profile.NewPostgresRepository(db),
		shipments: shipments.NewPostgresRepository(db),
	}, cleanup, nil
}

func buildObjectStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if cfg.S3Bucket == "" {
		logger.Warn("no S3 bucket configured; avatars are stored in process memory")
		return storage.NewMemoryStore("memory://avatars"), nil
	}

	return storage.NewS3Store(ctx, storage.S3Options{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
}

func runSessionCleanup(ctx context.Context, authSvc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authSvc.CleanupExpiredSessions(ctx)
			if err != nil {
				logger.Error("session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
