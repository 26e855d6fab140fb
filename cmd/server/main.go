// Command server runs the join-request API.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Open SQLite, run migrations.
//  4. Wire services: outbox worker, join orchestration, notifications.
//  5. Install OpenTelemetry tracing when enabled.
//  6. Serve HTTP until SIGINT/SIGTERM, then drain gracefully.
//
// @title        go-meet-backend API
// @version      1.0
// @description  Join requests, group formation, and notifications for activity posts.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/dlampros/go-meet-backend/docs"
	"github.com/dlampros/go-meet-backend/internal/chatclient"
	"github.com/dlampros/go-meet-backend/internal/config"
	httpapi "github.com/dlampros/go-meet-backend/internal/http"
	"github.com/dlampros/go-meet-backend/internal/observability"
	"github.com/dlampros/go-meet-backend/internal/repo"
	"github.com/dlampros/go-meet-backend/internal/services"
	"github.com/dlampros/go-meet-backend/internal/sysutil"
)

// version is stamped via -ldflags at release time.
var version = "dev"

func main() {
	// Local development convenience; real deployments set the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Tracing (optional).
	ctx := context.Background()
	if cfg.OTEL.Enabled {
		shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			log.Fatal().Err(err).Msg("setup opentelemetry")
		}
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(c)
		}()
	}

	// Services.
	chat := chatclient.New(cfg.ChatBaseURL, cfg.ChatTimeout)
	channelSvc := services.NewChannelService(db, chat)
	notifSvc := services.NewNotificationService(db, nil)

	outbox := services.NewOutboxService(db, channelSvc, notifSvc)
	outbox.MaxAttempts = cfg.OutboxMaxAttempts
	outbox.BaseBackoff = cfg.OutboxBaseBackoff
	stopOutbox, err := outbox.Start(cfg.OutboxInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("start outbox worker")
	}
	defer stopOutbox()

	settingsSvc := services.NewSettingsService(db)
	joinSvc := services.NewJoinService(db, settingsSvc, outbox)
	postSvc := services.NewPostService(db)

	// HTTP.
	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Services{
		Join:          joinSvc,
		Posts:         postSvc,
		Notifications: notifSvc,
		Settings:      settingsSvc,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
