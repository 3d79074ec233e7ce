package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/app"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/mail"
	"github.com/meridian-crm/meridian/internal/media"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/platform/cache"
	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/internal/users"
	"github.com/meridian-crm/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := cache.New(cfg.RedisAddr)
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	codec := auth.NewTokenCodec(cfg.SecretKey, cfg.PasswordResetSecret)
	resets := auth.NewResetRegistry(codec, redisClient, cfg.PasswordResetTTL, logger)
	hasher := auth.NewHasher(cfg.BcryptCost)

	dispatcher := jobs.NewEmailDispatcher(asynqClient)
	notifier := mail.NewNotifier(dispatcher, cfg.PublicBaseURL, cfg.PasswordResetTTL)

	snapshotCache := users.NewRedisSnapshotCache(redisClient, cfg.UserCacheTTL, logger)

	usersRepo := users.NewRepository(dbpool)
	loader := users.NewCachedLoader(snapshotCache, usersRepo)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, hasher, codec, resets, notifier, snapshotCache, auth.ServiceConfig{
		AccessTokenTTL:       cfg.AccessTokenTTL,
		VerificationTokenTTL: cfg.VerificationTokenTTL,
	}, logger)
	authHandler := auth.NewHandler(logger, authService)
	guard := auth.NewGuard(codec, loader, logger)

	mediaClient := media.NewClient(cfg.MediaURL)
	if err := mediaClient.Ping(ctx); err != nil {
		logger.Warn("media host ping", slog.Any("error", err))
	}

	usersService := users.NewService(usersRepo, snapshotCache, mediaClient, logger)
	usersHandler := users.NewHandler(logger, usersService, guard)

	contactsRepo := contacts.NewRepository(dbpool)
	contactsService := contacts.NewService(contactsRepo)
	contactsHandler := contacts.NewHandler(logger, contactsService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Guard:           guard,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		ContactsHandler: contactsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
