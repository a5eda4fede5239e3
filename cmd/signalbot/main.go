package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vpasslabs/signalbot/core/buildinfo"
	"github.com/vpasslabs/signalbot/core/config"
	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("signalbot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info(ctx, "app", "app.starting",
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
		slog.String("config", cfgPath),
	)

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
