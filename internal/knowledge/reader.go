package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/internal/models"
	"github.com/xaenox/memo-bridge/internal/notion"
	"go.uber.org/zap"
)

const (
	fallbackPrompt  = "No prompt content found."
	fallbackTitle   = "Untitled"
	fallbackSummary = "No summary available."
)

// textBlockTypes are the block types whose text is merged by ReadRecord.
var textBlockTypes = map[string]bool{
	"paragraph":          true,
	"heading_1":          true,
	"heading_2":          true,
	"heading_3":          true,
	"quote":              true,
	"callout":            true,
	"bulleted_list_item": true,
	"numbered_list_item": true,
}

// listedTextTypes are the block types whose first span is shown by ListBlocks.
var listedTextTypes = map[string]bool{
	"paragraph": true,
	"heading_1": true,
	"heading_2": true,
	"heading_3": true,
}

type Reader struct {
	store      Store
	databaseID string
	logger     *zap.Logger
}

func NewReader(store Store, databaseID string, logger *zap.Logger) *Reader {
	return &Reader{store: store, databaseID: databaseID, logger: logger}
}

// Record decodes the properties of a stored exchange.
func (r *Reader) Record(ctx context.Context, id string) (models.Record, error) {
	page, err := r.store.RetrievePage(ctx, id)
	if err != nil {
		return models.Record{}, fmt.Errorf("retrieve record %s: %w", id, err)
	}
	return recordFromPage(page), nil
}

// ReadRecord returns the prompt property followed by a blank line and the
// text of the record's content blocks, or only the prompt when the blocks
// carry no text.
func (r *Reader) ReadRecord(ctx context.Context, id string) (string, error) {
	rec, err := r.Record(ctx, id)
	if err != nil {
		r.logger.Error("Failed to read record", zap.Error(err), zap.String("record_id", id))
		return "", err
	}
	r.logger.Info("Read record",
		zap.String("title", rec.Title),
		zap.String("category", rec.Category),
		zap.Strings("tags", rec.Tags))

	blocks, err := r.children(ctx, id)
	if err != nil {
		r.logger.Error("Failed to list record blocks", zap.Error(err), zap.String("record_id", id))
		return "", fmt.Errorf("list blocks of %s: %w", id, err)
	}

	texts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if !textBlockTypes[string(block.GetType())] {
			continue
		}
		if text := notion.BlockText(block); text != "" {
			texts = append(texts, text)
		}
	}

	full := strings.Join(texts, "\n")
	if full == "" {
		return rec.Prompt, nil
	}
	return rec.Prompt + "\n\n" + full, nil
}

// LastModified returns the record's last edit timestamp, or "" on any
// failure.
func (r *Reader) LastModified(ctx context.Context, id string) string {
	page, err := r.store.RetrievePage(ctx, id)
	if err != nil {
		r.logger.Error("Failed to retrieve last edited time", zap.Error(err), zap.String("record_id", id))
		return ""
	}
	return notion.LastEdited(page)
}

// ListBlocks returns every direct child of parentID.
func (r *Reader) ListBlocks(ctx context.Context, parentID string) ([]models.BlockSummary, error) {
	blocks, err := r.children(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list blocks of %s: %w", parentID, err)
	}

	out := make([]models.BlockSummary, 0, len(blocks))
	for _, block := range blocks {
		summary := models.BlockSummary{ID: string(block.GetID()), Type: string(block.GetType())}
		if spans := notion.BlockRichText(block); listedTextTypes[summary.Type] && len(spans) > 0 {
			summary.Text = notion.PlainText(spans[:1])
		}
		out = append(out, summary)
	}
	return out, nil
}

// MemoryEntries summarises every record of the database. Title and summary
// come from the first span of the Name and Response properties.
func (r *Reader) MemoryEntries(ctx context.Context) ([]models.MemoryEntry, error) {
	pages, err := notion.Collect(ctx, func(ctx context.Context, cursor string) (notion.List[notionapi.Page], error) {
		return r.store.QueryDatabase(ctx, r.databaseID, cursor)
	})
	if err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}

	entries := make([]models.MemoryEntry, 0, len(pages))
	for i := range pages {
		page := &pages[i]
		title, ok := notion.FirstText(page, PropName)
		if !ok {
			title = fallbackTitle
		}
		summary, ok := notion.FirstText(page, PropResponse)
		if !ok {
			summary = fallbackSummary
		}
		entries = append(entries, models.MemoryEntry{
			Title:   title,
			Summary: summary,
			Tags:    notion.MultiSelect(page, PropTags),
		})
	}
	return entries, nil
}

func (r *Reader) children(ctx context.Context, parentID string) ([]notionapi.Block, error) {
	return notion.Collect(ctx, func(ctx context.Context, cursor string) (notion.List[notionapi.Block], error) {
		return r.store.ListChildren(ctx, parentID, cursor)
	})
}

func recordFromPage(page *notionapi.Page) models.Record {
	rec := models.Record{
		ID:             string(page.ID),
		Title:          fallbackTitle,
		Prompt:         fallbackPrompt,
		Category:       classifier.Uncategorized,
		Tags:           notion.MultiSelect(page, PropTags),
		LastEditedTime: notion.LastEdited(page),
	}
	if title, ok := notion.Text(page, PropName); ok {
		rec.Title = title
	}
	if prompt, ok := notion.Text(page, PropPrompt); ok {
		rec.Prompt = prompt
	}
	if category, ok := notion.Select(page, PropCategory); ok {
		rec.Category = category
	}
	return rec
}
