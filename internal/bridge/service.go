package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/internal/models"
	"github.com/xaenox/memo-bridge/internal/storage"
	"go.uber.org/zap"
)

var ErrMissingPrompt = errors.New("missing prompt")

// Asker is implemented by *assistant.Client.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Persister is implemented by *knowledge.Writer.
type Persister interface {
	Persist(ctx context.Context, ex models.Exchange) (string, error)
}

type AskRequest struct {
	Prompt   string
	Category string
	Tags     []string
	// Classify fills Category and Tags from the prompt when Category is blank.
	Classify bool
}

type AskResult struct {
	Exchange models.Exchange
	// StoreErr is set when the knowledge store did not accept the exchange.
	// The reply is still valid.
	StoreErr error
}

// Service asks the assistant and records every answered exchange in the
// knowledge store and the local journal.
type Service struct {
	asker      Asker
	persister  Persister
	journal    storage.Storage
	classifier classifier.Classifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(asker Asker, persister Persister, journal storage.Storage, cls classifier.Classifier, logger *zap.Logger) *Service {
	return &Service{
		asker:      asker,
		persister:  persister,
		journal:    journal,
		classifier: cls,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Ask(ctx context.Context, req AskRequest) (AskResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return AskResult{}, ErrMissingPrompt
	}

	category, tags := req.Category, req.Tags
	if req.Classify && strings.TrimSpace(category) == "" && s.classifier != nil {
		result := s.classifier.Classify(req.Prompt)
		category, tags = result.Category, result.Tags
	}
	if strings.TrimSpace(category) == "" {
		category = classifier.Uncategorized
	}
	if tags == nil {
		tags = []string{}
	}

	reply, err := s.asker.Ask(ctx, req.Prompt)
	if err != nil {
		return AskResult{}, fmt.Errorf("ask assistant: %w", err)
	}

	ex := models.Exchange{
		ID:        uuid.New().String(),
		Prompt:    req.Prompt,
		Reply:     reply,
		Category:  category,
		Tags:      tags,
		CreatedAt: s.now().UTC(),
	}

	result := AskResult{}
	recordID, err := s.persister.Persist(ctx, ex)
	ex.RecordID = recordID
	if err != nil {
		s.logger.Error("Failed to save exchange to knowledge store",
			zap.Error(err),
			zap.String("exchange_id", ex.ID),
			zap.String("record_id", recordID))
		result.StoreErr = err
	}

	if s.journal != nil {
		if err := s.journal.SaveExchange(ctx, &ex); err != nil {
			s.logger.Error("Failed to journal exchange", zap.Error(err), zap.String("exchange_id", ex.ID))
		}
	}

	s.logger.Info("Exchange recorded",
		zap.String("exchange_id", ex.ID),
		zap.String("record_id", ex.RecordID),
		zap.String("category", ex.Category))

	result.Exchange = ex
	return result, nil
}
