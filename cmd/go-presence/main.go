package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a-essam23/go-presence/internal/server"
	"github.com/a-essam23/go-presence/pkg/auth"
	"github.com/a-essam23/go-presence/pkg/config"
	"github.com/a-essam23/go-presence/pkg/logging"
	"github.com/a-essam23/go-presence/pkg/membership"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	logger := logging.New(logging.LevelInfo)
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, "config")
	if err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Error("Invalid log level", slog.Any("error", err))
		os.Exit(1)
	}
	logger = logging.NewWithWriter(os.Stdout, level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Leeway)
	if err != nil {
		logger.Error("Failed to create token verifier", slog.Any("error", err))
		os.Exit(1)
	}

	members, err := membership.NewMongoChecker(ctx, logger, membership.MongoConfig{
		URI:        cfg.Membership.MongoURI,
		Database:   cfg.Membership.Database,
		Collection: cfg.Membership.Collection,
		Timeout:    cfg.Membership.Timeout,
	})
	if err != nil {
		logger.Error("Failed to set up membership lookup", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := members.Close(closeCtx); err != nil {
			logger.Warn("Failed to disconnect from mongo", slog.Any("error", err))
		}
	}()

	app := server.NewApp(logger, ctx, cfg, verifier, members)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
