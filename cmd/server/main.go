package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Robertorri/HopVerk1/pkg/api"
	"github.com/Robertorri/HopVerk1/pkg/audit"
	"github.com/Robertorri/HopVerk1/pkg/auth"
	"github.com/Robertorri/HopVerk1/pkg/config"
	"github.com/Robertorri/HopVerk1/pkg/gallery"
	"github.com/Robertorri/HopVerk1/pkg/middleware"
	"github.com/Robertorri/HopVerk1/pkg/observability"
	"github.com/Robertorri/HopVerk1/pkg/storage"
	"github.com/Robertorri/HopVerk1/pkg/storage/postgres"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(nil)

	db, err := postgres.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	accounts, err := postgres.NewAccountRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize account repository: %v", err)
	}
	sessions, err := postgres.NewSessionRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize session repository: %v", err)
	}
	images, err := postgres.NewImageRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize image repository: %v", err)
	}
	ratings, err := postgres.NewRatingRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize rating repository: %v", err)
	}

	auditLog, err := audit.NewDBLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	recorder := audit.NewRecorder(auditLog, appLog)

	sweeper, err := audit.NewSweeper(
		auditLog,
		audit.RetentionPolicy{RetentionDays: cfg.Audit.RetentionDays},
		cfg.Audit.SweepSchedule,
		appLog,
	)
	if err != nil {
		log.Fatalf("Failed to initialize audit sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// S3 is optional; without it the gallery serves rating and median
	// queries but rejects uploads.
	var objects storage.ObjectStore
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Endpoint:     cfg.ObjectStore.Endpoint,
			Region:       cfg.ObjectStore.Region,
			Bucket:       cfg.ObjectStore.Bucket,
			AccessKey:    cfg.ObjectStore.AccessKey,
			SecretKey:    cfg.ObjectStore.SecretKey,
			UsePathStyle: cfg.ObjectStore.UsePathStyle,
		})
		if err != nil {
			log.Fatalf("Failed to initialize object store: %v", err)
		}
		objects = s3Store
	} else {
		log.Warn("No S3 bucket configured, image uploads disabled")
	}

	tokens, err := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}
	lockout := auth.NewLockoutTracker(auth.LockoutConfig{
		Threshold: cfg.Auth.LockoutThreshold,
		Duration:  cfg.Auth.LockoutDuration,
	})

	// Idle lockout entries accumulate for the process lifetime unless swept.
	housekeeping := cron.New()
	if _, err := housekeeping.AddFunc("@hourly", lockout.Sweep); err != nil {
		log.Fatalf("Failed to schedule lockout sweep: %v", err)
	}
	housekeeping.Start()
	defer housekeeping.Stop()

	authService, err := auth.NewService(auth.ServiceConfig{
		Accounts:          accounts,
		Sessions:          sessions,
		Hasher:            auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:            tokens,
		Lockout:           lockout,
		Audit:             recorder,
		Metrics:           metrics,
		TokenTTL:          cfg.Auth.TokenTTL,
		PasswordMinLength: cfg.Auth.PasswordMinLength,
	})
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	galleryService, err := gallery.NewService(images, ratings, objects, recorder)
	if err != nil {
		log.Fatalf("Failed to initialize gallery service: %v", err)
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Limit:          cfg.RateLimit.RequestsPerWindow,
		Window:         cfg.RateLimit.WindowDuration,
		MaxTrackedKeys: cfg.RateLimit.MaxTrackedKeys,
	}, metrics)

	server, err := api.NewServer(cfg.Server, api.Deps{
		Auth:          auth.NewHandlers(authService, appLog),
		Gallery:       gallery.NewHandlers(galleryService, appLog),
		Authenticator: middleware.NewAuthenticator(tokens),
		RateLimiter:   rateLimiter,
		Metrics:       metrics,
		Health:        observability.NewHealthChecker(db),
		Logger:        appLog,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(server.ListenAPI)
	group.Go(server.ListenOps)
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down")
		return server.Shutdown(context.Background())
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	log.Info("Shutdown complete")
}
