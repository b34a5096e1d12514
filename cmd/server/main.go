package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/memo-bridge/internal/app"
	"github.com/xaenox/memo-bridge/internal/knowledge"
	"github.com/xaenox/memo-bridge/internal/server"
	"github.com/xaenox/memo-bridge/pkg/config"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		panic(err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(config.OpenAIAPIKey, config.AssistantID, config.NotionToken, config.NotionDatabaseID); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	journal, err := app.OpenJournal(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer journal.Close()

	client := app.NewNotion(cfg, logger)
	service, err := app.NewBridge(cfg, client, journal, logger)
	if err != nil {
		logger.Fatal("Failed to create bridge", zap.Error(err))
	}

	srv := server.New(server.Deps{
		Asker:    service,
		Memory:   knowledge.NewReader(client, cfg.Notion.DatabaseID, logger),
		Appender: knowledge.NewWriter(client, cfg.Notion.DatabaseID, logger),
		Editor:   knowledge.NewEditor(client, logger),
		Journal:  journal,
	}, cfg.Server.StaticDir, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
