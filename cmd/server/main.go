package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	webAdapter "invoicing/internal/adapters/web"
	"invoicing/internal/app"
	"invoicing/internal/config"
	"invoicing/internal/db"
	"invoicing/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	log := logger.WithComponent("server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	log = logger.WithComponent("server")

	if err := errors.Join(cfg.RequireDatabase(), cfg.RequireAuth()); err != nil {
		log.Fatal().Err(err).Msg("missing configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	svc, renderer, err := app.Bootstrap(pool, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap")
	}

	handler := webAdapter.NewHandler(svc, renderer, webAdapter.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		JWTSecret:       cfg.JWTSecret,
		RequestTimeout:  cfg.RequestTimeout,
		PublicRateLimit: cfg.PublicRateLimit,
		PublicRateBurst: cfg.PublicRateBurst,
		Context:         ctx,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_url", cfg.AppBaseURL).Msg("server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
