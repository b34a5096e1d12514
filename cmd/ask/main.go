package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/xaenox/memo-bridge/internal/app"
	"github.com/xaenox/memo-bridge/internal/bridge"
	"github.com/xaenox/memo-bridge/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.String("config", "config.yaml", "path to the config file")
	category := pflag.String("category", "", "category for the stored record")
	tags := pflag.StringSlice("tags", nil, "comma separated tags for the stored record")
	classify := pflag.Bool("classify", true, "classify the prompt when no category is given")
	pflag.Parse()

	prompt := strings.TrimSpace(strings.Join(pflag.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [flags] <prompt words...>")
		os.Exit(2)
	}

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

	if err := cfg.Validate(config.OpenAIAPIKey, config.AssistantID, config.NotionToken, config.NotionDatabaseID); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	journal, err := app.OpenJournal(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer journal.Close()

	service, err := app.NewBridge(cfg, app.NewNotion(cfg, logger), journal, logger)
	if err != nil {
		logger.Fatal("Failed to create bridge", zap.Error(err))
	}

	res, err := service.Ask(ctx, bridge.AskRequest{
		Prompt:   prompt,
		Category: *category,
		Tags:     *tags,
		Classify: *classify,
	})
	if err != nil {
		logger.Fatal("No reply from assistant", zap.Error(err))
	}

	fmt.Println(res.Exchange.Reply)
}
