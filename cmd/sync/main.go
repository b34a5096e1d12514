package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/xaenox/memo-bridge/internal/app"
	"github.com/xaenox/memo-bridge/internal/syncer"
	"github.com/xaenox/memo-bridge/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.String("config", "config.yaml", "path to the config file")
	watch := pflag.Bool("watch", false, "keep running and sync on every file change in sync.watch_dir")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(config.OpenAIAPIKey, config.AssistantID, config.NotionToken, config.NotionDatabaseID, config.NotionPageID); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	orch, err := app.NewOrchestrator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create orchestrator", zap.Error(err))
	}
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Warn("Failed to close checkpoint", zap.Error(err))
		}
	}()

	if *watch {
		w := syncer.NewWatcher(cfg.Sync.WatchDir, orch, logger, cfg.Sync.CheckpointPath)
		if err := w.Run(ctx); err != nil {
			logger.Fatal("Watcher failed", zap.Error(err))
		}
		return
	}

	outcome, err := orch.RunOnce(ctx)
	if err != nil {
		logger.Fatal("Sync failed", zap.Error(err))
	}
	logger.Info("Sync finished", zap.Stringer("outcome", outcome))
}
