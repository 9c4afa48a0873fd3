package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agilewatch/agilewatch/pkg/analysis"
	"github.com/agilewatch/agilewatch/pkg/carbon"
	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/rates"
	"github.com/agilewatch/agilewatch/pkg/scheduler"
	"github.com/agilewatch/agilewatch/pkg/server"
	"github.com/agilewatch/agilewatch/pkg/tariff"
	"github.com/agilewatch/agilewatch/pkg/ws"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	provider := tariff.Configured()
	repo := rates.NewRepository()
	profiles := analysis.Configured()
	carbonClient := carbon.Configured()
	hub := ws.NewHub()
	sched := scheduler.Configured(provider, repo, hub)

	// init server
	srv := server.Configured(repo, sched, profiles, carbonClient, hub)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	log.SetDefaultLogLevel(level)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := provider.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid tariff configuration", "error", err)
		os.Exit(1)
	}
	if err := carbonClient.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid carbon configuration", "error", err)
		os.Exit(1)
	}

	// the scheduler keeps rates fresh in the background while the
	// server runs
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Ctx(ctx).ErrorContext(ctx, "scheduler failed", "error", err)
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
