package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// API is the part of the Assistants API used by Client. *openai.Client
// implements it.
type API interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

type Config struct {
	AssistantID  string
	PollInterval time.Duration
	// RunTimeout bounds the wait for a run; zero waits until ctx is done.
	RunTimeout time.Duration
}

type Client struct {
	api    API
	cfg    Config
	logger *zap.Logger
}

// NewClient talks to OpenAI (or a compatible endpoint when baseURL is set).
func NewClient(apiKey, baseURL string, cfg Config, logger *zap.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return NewWithAPI(openai.NewClientWithConfig(config), cfg, logger)
}

func NewWithAPI(api API, cfg Config, logger *zap.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Client{api: api, cfg: cfg, logger: logger}
}

// Ask runs prompt as the single user turn of a new thread and returns the
// assistant's trimmed reply. Every failure is a *ServiceError.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	c.logger.Info("Sending prompt to assistant",
		zap.String("assistant_id", c.cfg.AssistantID),
		zap.Int("prompt_length", len(prompt)))

	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", c.fail("create thread", err)
	}

	if _, err := c.api.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}); err != nil {
		return "", c.fail("create message", err)
	}

	run, err := c.api.CreateRun(ctx, thread.ID, openai.RunRequest{AssistantID: c.cfg.AssistantID})
	if err != nil {
		return "", c.fail("create run", err)
	}

	if err := c.wait(ctx, thread.ID, run.ID); err != nil {
		return "", err
	}

	reply, err := c.latestReply(ctx, thread.ID)
	if err != nil {
		return "", err
	}

	c.logger.Info("Assistant replied",
		zap.String("thread_id", thread.ID),
		zap.String("run_id", run.ID),
		zap.Int("reply_length", len(reply)))
	return reply, nil
}

// wait polls the run until it completes, fails, times out or ctx ends.
func (c *Client) wait(ctx context.Context, threadID, runID string) error {
	var timeout <-chan time.Time
	if c.cfg.RunTimeout > 0 {
		timer := time.NewTimer(c.cfg.RunTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		run, err := c.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return c.fail("poll run", err)
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired:
			reason := string(run.Status)
			if run.LastError != nil && run.LastError.Message != "" {
				reason += ": " + run.LastError.Message
			}
			return c.failKind("poll run", Permanent, fmt.Errorf("%w: %s", ErrRunFailed, reason))
		}

		select {
		case <-ctx.Done():
			return c.fail("poll run", ctx.Err())
		case <-timeout:
			return c.failKind("poll run", Transient, fmt.Errorf("%w after %s (status=%s)", ErrRunTimeout, c.cfg.RunTimeout, run.Status))
		case <-ticker.C:
		}
	}
}

func (c *Client) latestReply(ctx context.Context, threadID string) (string, error) {
	limit := 1
	order := "desc"
	messages, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", c.fail("list messages", err)
	}

	if len(messages.Messages) == 0 || len(messages.Messages[0].Content) == 0 || messages.Messages[0].Content[0].Text == nil {
		return "", c.failKind("read reply", Permanent, ErrNoReply)
	}
	return strings.TrimSpace(messages.Messages[0].Content[0].Text.Value), nil
}

func (c *Client) fail(op string, err error) error {
	se := newServiceError(op, err)
	c.log(se)
	return se
}

func (c *Client) failKind(op string, kind Kind, err error) error {
	se := &ServiceError{Op: op, Kind: kind, Err: err}
	c.log(se)
	return se
}

func (c *Client) log(se *ServiceError) {
	c.logger.Error("Assistant request failed",
		zap.Error(se.Err),
		zap.String("op", se.Op),
		zap.Stringer("kind", se.Kind))
}
