package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/tidwall/gjson"
	"github.com/xaenox/memo-bridge/internal/notion"
	"go.uber.org/zap"
)

// Bulk edit operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Action is one entry of a bulk block edit. RichText and Children are
// Notion JSON arrays and are forwarded without being reinterpreted.
type Action struct {
	Op       string          `json:"op"`
	BlockID  string          `json:"block_id,omitempty"`
	ParentID string          `json:"parent_id,omitempty"`
	Type     string          `json:"type,omitempty"`
	Text     string          `json:"text,omitempty"`
	Checked  *bool           `json:"checked,omitempty"`
	Children json.RawMessage `json:"children,omitempty"`
	RichText json.RawMessage `json:"rich_text,omitempty"`
}

type ActionResult struct {
	Op       string `json:"op,omitempty"`
	BlockID  string `json:"block_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Type     string `json:"type,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// Editor changes existing blocks.
type Editor struct {
	store  Store
	logger *zap.Logger
}

func NewEditor(store Store, logger *zap.Logger) *Editor {
	return &Editor{store: store, logger: logger}
}

// UpdateText replaces the text of a paragraph block.
func (e *Editor) UpdateText(ctx context.Context, blockID, text string) error {
	req := &notionapi.BlockUpdateRequest{Paragraph: &notionapi.Paragraph{RichText: notion.RichText(text)}}
	if err := e.store.UpdateBlock(ctx, blockID, req); err != nil {
		return fmt.Errorf("update block %s: %w", blockID, err)
	}
	return nil
}

func (e *Editor) Delete(ctx context.Context, blockID string) error {
	if err := e.store.DeleteBlock(ctx, blockID); err != nil {
		return fmt.Errorf("delete block %s: %w", blockID, err)
	}
	return nil
}

// Apply runs every action in order, one store call each. A failed action is
// reported in its result and does not stop the batch.
func (e *Editor) Apply(ctx context.Context, actions []Action) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, action := range actions {
		results = append(results, e.apply(ctx, action))
	}
	return results
}

func (e *Editor) apply(ctx context.Context, a Action) ActionResult {
	if a.Type == "" {
		a.Type = string(notionapi.BlockTypeParagraph)
	}

	switch a.Op {
	case OpCreate:
		if a.ParentID == "" {
			return ActionResult{Status: "error", Reason: "Missing parent_id for create"}
		}
		if err := e.store.AppendChildren(ctx, a.ParentID, a.block()); err != nil {
			return e.failed(a, err)
		}
		return ActionResult{Op: a.Op, ParentID: a.ParentID, Type: a.Type, Status: "created"}

	case OpUpdate:
		if a.BlockID == "" {
			return ActionResult{Op: a.Op, Status: "error", Reason: "Missing block_id for update"}
		}
		req, err := a.updateRequest()
		if err != nil {
			return ActionResult{Op: a.Op, BlockID: a.BlockID, Status: "error", Reason: err.Error()}
		}
		if err := e.store.UpdateBlock(ctx, a.BlockID, req); err != nil {
			return e.failed(a, err)
		}
		return ActionResult{Op: a.Op, BlockID: a.BlockID, Status: "updated"}

	case OpDelete:
		if a.BlockID == "" {
			return ActionResult{Op: a.Op, Status: "error", Reason: "Missing block_id for delete"}
		}
		if err := e.store.DeleteBlock(ctx, a.BlockID); err != nil {
			return e.failed(a, err)
		}
		return ActionResult{Op: a.Op, BlockID: a.BlockID, Status: "deleted"}

	default:
		return ActionResult{Op: a.Op, BlockID: a.BlockID, Status: "skipped", Reason: "Unknown op"}
	}
}

// block builds the type body from rich_text when given, else from text.
// checked only applies to to_do blocks.
func (a Action) block() *notion.RawBlock {
	content := map[string]any{"rich_text": notion.RichText(a.Text)}
	if nonEmptyArray(a.RichText) {
		content["rich_text"] = a.RichText
	}
	if a.Checked != nil && a.Type == string(notionapi.BlockTypeToDo) {
		content["checked"] = *a.Checked
	}

	block := notion.NewRawBlock(a.Type, content)
	if nonEmptyArray(a.Children) {
		content["children"] = a.Children
		block.HasChildren = true
	}
	return block
}

// updateRequest decodes rich_text into typed spans, which carry text,
// mention and equation bodies.
func (a Action) updateRequest() (*notionapi.BlockUpdateRequest, error) {
	spans := notion.RichText(a.Text)
	if nonEmptyArray(a.RichText) {
		spans = nil
		if err := json.Unmarshal(a.RichText, &spans); err != nil {
			return nil, fmt.Errorf("decode rich_text: %w", err)
		}
	}

	switch notionapi.BlockType(a.Type) {
	case notionapi.BlockTypeParagraph:
		return &notionapi.BlockUpdateRequest{Paragraph: &notionapi.Paragraph{RichText: spans}}, nil
	case notionapi.BlockTypeHeading1:
		return &notionapi.BlockUpdateRequest{Heading1: &notionapi.Heading{RichText: spans}}, nil
	case notionapi.BlockTypeHeading2:
		return &notionapi.BlockUpdateRequest{Heading2: &notionapi.Heading{RichText: spans}}, nil
	case notionapi.BlockTypeHeading3:
		return &notionapi.BlockUpdateRequest{Heading3: &notionapi.Heading{RichText: spans}}, nil
	case notionapi.BlockTypeBulletedListItem:
		return &notionapi.BlockUpdateRequest{BulletedListItem: &notionapi.ListItem{RichText: spans}}, nil
	case notionapi.BlockTypeNumberedListItem:
		return &notionapi.BlockUpdateRequest{NumberedListItem: &notionapi.ListItem{RichText: spans}}, nil
	case notionapi.BlockTypeQuote:
		return &notionapi.BlockUpdateRequest{Quote: &notionapi.Quote{RichText: spans}}, nil
	case notionapi.BlockTypeToggle:
		return &notionapi.BlockUpdateRequest{Toggle: &notionapi.Toggle{RichText: spans}}, nil
	case notionapi.BlockTypeToDo:
		todo := &notionapi.ToDo{RichText: spans}
		if a.Checked != nil {
			todo.Checked = *a.Checked
		}
		return &notionapi.BlockUpdateRequest{ToDo: todo}, nil
	default:
		return nil, fmt.Errorf("unsupported block type %q for update", a.Type)
	}
}

func nonEmptyArray(raw json.RawMessage) bool {
	v := gjson.ParseBytes(raw)
	return v.IsArray() && len(v.Array()) > 0
}

func (e *Editor) failed(a Action, err error) ActionResult {
	e.logger.Warn("Bulk edit action failed",
		zap.Error(err),
		zap.String("op", a.Op),
		zap.String("block_id", a.BlockID),
		zap.String("parent_id", a.ParentID))
	return ActionResult{Op: a.Op, BlockID: a.BlockID, Status: "error", Reason: err.Error()}
}
