package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/internal/models"
	"github.com/xaenox/memo-bridge/internal/notion"
	"go.uber.org/zap"
)

// Writer creates one database record per exchange.
type Writer struct {
	store      Store
	databaseID string
	logger     *zap.Logger
	now        func() time.Time
}

func NewWriter(store Store, databaseID string, logger *zap.Logger) *Writer {
	return &Writer{
		store:      store,
		databaseID: databaseID,
		logger:     logger,
		now:        time.Now,
	}
}

// Persist creates the record and then appends the full reply as paragraph
// blocks of at most ChunkSize characters, one call per chunk. The Response
// property only holds the first ResponseLimit characters.
//
// Nothing is rolled back: when a chunk fails the record id is returned
// together with the error and the earlier chunks stay in place.
func (w *Writer) Persist(ctx context.Context, ex models.Exchange) (string, error) {
	category := ex.Category
	if strings.TrimSpace(category) == "" {
		category = classifier.Uncategorized
	}
	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = w.now()
	}

	tags := make([]notionapi.Option, 0, len(ex.Tags))
	for _, tag := range ex.Tags {
		tags = append(tags, notionapi.Option{Name: tag})
	}

	page, err := w.store.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(w.databaseID)},
		Properties: notionapi.Properties{
			PropName:     notionapi.TitleProperty{Title: notion.RichText(Title(ex.Prompt))},
			PropPrompt:   notionapi.RichTextProperty{RichText: notion.RichText(ex.Prompt)},
			PropResponse: notionapi.RichTextProperty{RichText: notion.RichText(Truncate(ex.Reply, ResponseLimit))},
			PropCategory: notionapi.SelectProperty{Select: notionapi.Option{Name: category}},
			PropTags:     notionapi.MultiSelectProperty{MultiSelect: tags},
			PropDate:     notionapi.DateProperty{Date: notion.DateStart(createdAt.UTC())},
		},
	})
	if err != nil {
		w.logger.Error("Failed to create record", zap.Error(err), zap.String("category", category))
		return "", fmt.Errorf("create record: %w", err)
	}
	id := string(page.ID)
	w.logger.Info("Created record", zap.String("record_id", id), zap.String("url", page.URL))

	chunks := Chunk(ex.Reply, ChunkSize)
	for i, chunk := range chunks {
		if err := w.store.AppendChildren(ctx, id, notion.NewParagraph(chunk)); err != nil {
			w.logger.Error("Failed to append reply chunk",
				zap.Error(err),
				zap.String("record_id", id),
				zap.Int("chunk", i),
				zap.Int("chunks", len(chunks)))
			return id, fmt.Errorf("append chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	w.logger.Info("Saved full reply", zap.String("record_id", id), zap.Int("chunks", len(chunks)))
	return id, nil
}

// AppendParagraph adds one paragraph block to an existing record or block.
func (w *Writer) AppendParagraph(ctx context.Context, parentID, text string) error {
	if err := w.store.AppendChildren(ctx, parentID, notion.NewParagraph(text)); err != nil {
		w.logger.Error("Failed to append paragraph", zap.Error(err), zap.String("parent_id", parentID))
		return fmt.Errorf("append paragraph: %w", err)
	}
	return nil
}

// AppendToggle adds a toggle labelled with the prompt that expands to the
// reply.
func (w *Writer) AppendToggle(ctx context.Context, parentID, prompt, reply string) error {
	toggle := notion.NewToggle(prompt, notion.NewParagraph(reply))
	if err := w.store.AppendChildren(ctx, parentID, toggle); err != nil {
		w.logger.Error("Failed to append toggle", zap.Error(err), zap.String("parent_id", parentID))
		return fmt.Errorf("append toggle: %w", err)
	}
	return nil
}
