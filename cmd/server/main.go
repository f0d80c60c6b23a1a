package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yourusername/auth-starter/internal/config"
	"github.com/yourusername/auth-starter/internal/server"
	"github.com/yourusername/auth-starter/internal/storage"
	"github.com/yourusername/auth-starter/internal/storage/memory"
	"github.com/yourusername/auth-starter/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		fl := fallbackLogger()
		fl.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	store, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init store")
	}
	defer cleanup()

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.Environment).Msg("auth server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// newStore picks postgres when DATABASE_URL is set, otherwise the in-memory
// store. Memory is fine for local development; data is lost on restart.
func newStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.UserStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info().Msg("using in-memory storage; data will be lost on restart")
		return memory.NewUserStore(), func() {}, nil
	}
	store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func fallbackLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func loadLocalEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	// no .env file found; rely on the existing environment
}
