package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/internal/models"
	"go.uber.org/zap"
)

type Outcome int

const (
	// Idle means the watched page has not changed since the checkpoint.
	Idle Outcome = iota
	// Aborted means the page changed but its content could not be read.
	Aborted
	// Synced means the change was processed and the checkpoint advanced.
	Synced
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Aborted:
		return "aborted"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}

// Source reads the watched page. *knowledge.Reader implements it.
type Source interface {
	LastModified(ctx context.Context, id string) string
	ReadRecord(ctx context.Context, id string) (string, error)
}

// Asker is implemented by *assistant.Client.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Persister is implemented by *knowledge.Writer.
type Persister interface {
	Persist(ctx context.Context, ex models.Exchange) (string, error)
}

type Orchestrator struct {
	pageID     string
	source     Source
	classifier classifier.Classifier
	asker      Asker
	persister  Persister
	checkpoint Checkpoint
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(
	pageID string,
	source Source,
	cls classifier.Classifier,
	asker Asker,
	persister Persister,
	checkpoint Checkpoint,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		pageID:     pageID,
		source:     source,
		classifier: cls,
		asker:      asker,
		persister:  persister,
		checkpoint: checkpoint,
		logger:     logger,
		now:        time.Now,
	}
}

// RunOnce performs one sync cycle for the watched page.
//
// A cycle that read the content classifies it once and asks the assistant
// once. It persists once only when the assistant returned a reply: a failed
// ask writes no record, instead of a record with an empty reply.
//
// The checkpoint advances after every cycle that read the content, even
// when the assistant or the store failed, so a change is processed at most
// once. Only checkpoint errors are returned.
func (o *Orchestrator) RunOnce(ctx context.Context) (Outcome, error) {
	last, err := o.checkpoint.Load(ctx)
	if err != nil {
		return Idle, fmt.Errorf("load checkpoint: %w", err)
	}

	current := o.source.LastModified(ctx, o.pageID)
	if current == last {
		o.logger.Info("No new edits", zap.String("page_id", o.pageID), zap.String("last_edited_time", current))
		return Idle, nil
	}

	o.logger.Info("Change detected, syncing",
		zap.String("page_id", o.pageID),
		zap.String("checkpoint", last),
		zap.String("last_edited_time", current))

	content, err := o.source.ReadRecord(ctx, o.pageID)
	if err != nil {
		o.logger.Warn("Unable to read page content, skipping sync", zap.Error(err), zap.String("page_id", o.pageID))
		return Aborted, nil
	}

	result := o.classifier.Classify(content)
	o.logger.Info("Classified page content",
		zap.String("category", result.Category),
		zap.Strings("tags", result.Tags))

	reply, err := o.asker.Ask(ctx, content)
	if err != nil {
		o.logger.Error("Assistant produced no reply", zap.Error(err), zap.String("page_id", o.pageID))
	} else {
		recordID, err := o.persister.Persist(ctx, models.Exchange{
			Prompt:    content,
			Reply:     reply,
			Category:  result.Category,
			Tags:      result.Tags,
			CreatedAt: o.now().UTC(),
		})
		if err != nil {
			o.logger.Error("Failed to persist exchange", zap.Error(err), zap.String("record_id", recordID))
		}
	}

	if err := o.checkpoint.Save(ctx, current); err != nil {
		return Synced, fmt.Errorf("save checkpoint: %w", err)
	}
	return Synced, nil
}

// Close releases the checkpoint store.
func (o *Orchestrator) Close() error {
	return o.checkpoint.Close()
}
