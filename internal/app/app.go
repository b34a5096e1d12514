// Package app wires configuration into the components shared by the
// binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"github.com/xaenox/memo-bridge/internal/assistant"
	"github.com/xaenox/memo-bridge/internal/bridge"
	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/internal/knowledge"
	"github.com/xaenox/memo-bridge/internal/notion"
	"github.com/xaenox/memo-bridge/internal/storage"
	"github.com/xaenox/memo-bridge/internal/syncer"
	"github.com/xaenox/memo-bridge/pkg/config"
	"go.uber.org/zap"
)

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OpenJournal returns the Postgres journal unless in-memory storage is
// configured.
func OpenJournal(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}

	logger.Info("Using PostgreSQL storage")
	store, err := storage.NewPostgresStorage(ctx, storage.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func NewNotion(cfg *config.Config, logger *zap.Logger) *notion.Client {
	return notion.NewClient(cfg.Notion.BaseURL, cfg.Notion.Token, cfg.Notion.Version, cfg.Notion.Timeout, logger)
}

func NewAssistant(cfg *config.Config, logger *zap.Logger) *assistant.Client {
	return assistant.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, assistant.Config{
		AssistantID:  cfg.OpenAI.AssistantID,
		PollInterval: cfg.OpenAI.PollInterval,
		RunTimeout:   cfg.OpenAI.RunTimeout,
	}, logger)
}

// NewBridge builds the ask-and-record service on top of a Notion client.
func NewBridge(cfg *config.Config, client *notion.Client, journal storage.Storage, logger *zap.Logger) (*bridge.Service, error) {
	cls, err := classifier.New(cfg.Classifier.Strategy)
	if err != nil {
		return nil, err
	}
	writer := knowledge.NewWriter(client, cfg.Notion.DatabaseID, logger)
	return bridge.NewService(NewAssistant(cfg, logger), writer, journal, cls, logger), nil
}

// NewCheckpoint prefers Redis when a URL is configured.
func NewCheckpoint(ctx context.Context, cfg *config.Config, logger *zap.Logger) (syncer.Checkpoint, error) {
	if cfg.Sync.RedisURL != "" {
		logger.Info("Using Redis checkpoint", zap.String("key", cfg.Sync.RedisKey))
		return syncer.NewRedisCheckpoint(ctx, cfg.Sync.RedisURL, cfg.Sync.RedisKey)
	}
	logger.Info("Using file checkpoint", zap.String("path", cfg.Sync.CheckpointPath))
	return syncer.NewFileCheckpoint(cfg.Sync.CheckpointPath), nil
}

// NewOrchestrator builds a sync orchestrator for the configured page.
func NewOrchestrator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*syncer.Orchestrator, error) {
	cls, err := classifier.New(cfg.Classifier.Strategy)
	if err != nil {
		return nil, err
	}
	checkpoint, err := NewCheckpoint(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client := NewNotion(cfg, logger)
	return syncer.NewOrchestrator(
		cfg.Notion.PageID,
		knowledge.NewReader(client, cfg.Notion.DatabaseID, logger),
		cls,
		NewAssistant(cfg, logger),
		knowledge.NewWriter(client, cfg.Notion.DatabaseID, logger),
		checkpoint,
		logger,
	), nil
}
