package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/storefront/internal/app"
	"github.com/phenrril/storefront/internal/config"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		zlog.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.IsDev() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	gormLog := logger.Default.LogMode(logger.Warn)
	if !cfg.IsDev() {
		gormLog = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true, Logger: gormLog})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, db, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	defer application.Close()
	if err := application.Migrate(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}
	if cfg.IsDev() && os.Getenv("SEED") == "true" {
		if err := application.Seed(); err != nil {
			zlog.Fatal().Err(err).Msg("failed to seed database")
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown")
	}
}
