package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xaenox/memo-bridge/internal/app"
	"github.com/xaenox/memo-bridge/internal/bot"
	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/pkg/config"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		panic(err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(config.OpenAIAPIKey, config.AssistantID, config.NotionToken, config.NotionDatabaseID, config.TelegramToken); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	journal, err := app.OpenJournal(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer journal.Close()

	// the bot always tags with the scoring table
	cfg.Classifier.Strategy = classifier.StrategyScoring
	service, err := app.NewBridge(cfg, app.NewNotion(cfg, logger), journal, logger)
	if err != nil {
		logger.Fatal("Failed to create bridge", zap.Error(err))
	}

	b, err := bot.New(cfg.Telegram.Token, service, journal, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
