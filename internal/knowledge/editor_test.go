package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/memo-bridge/internal/notion"
)

func TestEditor_Apply(t *testing.T) {
	store := newFakeStore()
	e := NewEditor(store, zaptest.NewLogger(t))
	checked := true

	results := e.Apply(context.Background(), []Action{
		{Op: OpCreate, ParentID: "page", Type: "to_do", Text: "buy milk", Checked: &checked},
		{Op: OpCreate, Text: "orphan"},
		{Op: OpCreate, ParentID: "page", Type: "paragraph", Checked: &checked,
			RichText: json.RawMessage(`[{"type":"text","text":{"content":"rich"}}]`),
			Children: json.RawMessage(`[{"object":"block","type":"paragraph","paragraph":{"rich_text":[]}}]`)},
		{Op: OpUpdate, BlockID: "b1", Text: "changed"},
		{Op: OpDelete, BlockID: "b2"},
		{Op: OpDelete},
		{Op: "rename", BlockID: "b3"},
	})

	assert.Equal(t, []ActionResult{
		{Op: "create", ParentID: "page", Type: "to_do", Status: "created"},
		{Status: "error", Reason: "Missing parent_id for create"},
		{Op: "create", ParentID: "page", Type: "paragraph", Status: "created"},
		{Op: "update", BlockID: "b1", Status: "updated"},
		{Op: "delete", BlockID: "b2", Status: "deleted"},
		{Op: "delete", Status: "error", Reason: "Missing block_id for delete"},
		{Op: "rename", BlockID: "b3", Status: "skipped", Reason: "Unknown op"},
	}, results)

	created := store.children["page"]
	require.Len(t, created, 2)
	var todo struct {
		Type string `json:"type"`
		ToDo struct {
			RichText []notionapi.RichText `json:"rich_text"`
			Checked  *bool                `json:"checked"`
		} `json:"to_do"`
	}
	require.NoError(t, json.Unmarshal([]byte(marshal(t, created[0])), &todo))
	assert.Equal(t, "to_do", todo.Type)
	assert.Equal(t, "buy milk", notion.PlainText(todo.ToDo.RichText))
	require.NotNil(t, todo.ToDo.Checked)
	assert.True(t, *todo.ToDo.Checked)
	assert.JSONEq(t, `{
		"object": "block",
		"type": "paragraph",
		"has_children": true,
		"paragraph": {
			"rich_text": [{"type": "text", "text": {"content": "rich"}}],
			"children": [{"object": "block", "type": "paragraph", "paragraph": {"rich_text": []}}]
		}
	}`, marshal(t, created[1]))

	require.NotNil(t, store.updated["b1"].Paragraph)
	assert.Equal(t, "changed", notion.PlainText(store.updated["b1"].Paragraph.RichText))
	assert.Equal(t, []string{"b2"}, store.deleted)
}

func TestEditor_ApplyKeepsMentionAndEquationSpans(t *testing.T) {
	store := newFakeStore()
	e := NewEditor(store, zaptest.NewLogger(t))
	spans := json.RawMessage(`[
		{"type": "mention", "mention": {"type": "date", "date": {"start": "2024-05-01"}}, "plain_text": "May 1"},
		{"type": "equation", "equation": {"expression": "e=mc^2"}, "plain_text": "e=mc^2"}
	]`)

	results := e.Apply(context.Background(), []Action{
		{Op: OpCreate, ParentID: "page", RichText: spans},
		{Op: OpUpdate, BlockID: "b1", Type: "quote", RichText: spans},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "created", results[0].Status)
	assert.Equal(t, "updated", results[1].Status)

	require.Len(t, store.children["page"], 1)
	assert.JSONEq(t, `{
		"object": "block",
		"type": "paragraph",
		"paragraph": {"rich_text": [
			{"type": "mention", "mention": {"type": "date", "date": {"start": "2024-05-01"}}, "plain_text": "May 1"},
			{"type": "equation", "equation": {"expression": "e=mc^2"}, "plain_text": "e=mc^2"}
		]}
	}`, marshal(t, store.children["page"][0]))

	quote := store.updated["b1"].Quote
	require.NotNil(t, quote)
	require.Len(t, quote.RichText, 2)
	require.NotNil(t, quote.RichText[0].Mention)
	require.NotNil(t, quote.RichText[0].Mention.Date)
	require.NotNil(t, quote.RichText[1].Equation)
	assert.Equal(t, "e=mc^2", quote.RichText[1].Equation.Expression)
	assert.Equal(t, "May 1e=mc^2", notion.PlainText(quote.RichText))
}

func TestEditor_ApplyUpdateRejectsUnknownType(t *testing.T) {
	store := newFakeStore()
	e := NewEditor(store, zaptest.NewLogger(t))

	results := e.Apply(context.Background(), []Action{
		{Op: OpUpdate, BlockID: "b1", Type: "table", Text: "x"},
		{Op: OpUpdate, BlockID: "b2", RichText: json.RawMessage(`[{"type": 7}]`)},
	})

	require.Len(t, results, 2)
	assert.Equal(t, ActionResult{Op: "update", BlockID: "b1", Status: "error", Reason: `unsupported block type "table" for update`}, results[0])
	assert.Equal(t, "error", results[1].Status)
	assert.Contains(t, results[1].Reason, "decode rich_text")
	assert.Empty(t, store.updated)
}

func TestEditor_ApplyContinuesAfterFailure(t *testing.T) {
	store := newFakeStore()
	store.updateErr = errors.New("archived")
	e := NewEditor(store, zaptest.NewLogger(t))

	results := e.Apply(context.Background(), []Action{
		{Op: OpUpdate, BlockID: "b1", Text: "x"},
		{Op: OpDelete, BlockID: "b2"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, ActionResult{Op: "update", BlockID: "b1", Status: "error", Reason: "archived"}, results[0])
	assert.Equal(t, "deleted", results[1].Status)
}

func TestEditor_UpdateTextAndDelete(t *testing.T) {
	store := newFakeStore()
	e := NewEditor(store, zaptest.NewLogger(t))

	require.NoError(t, e.UpdateText(context.Background(), "b1", "new text"))
	require.NoError(t, e.Delete(context.Background(), "b2"))

	assert.Equal(t, "new text", notion.PlainText(store.updated["b1"].Paragraph.RichText))
	assert.Equal(t, []string{"b2"}, store.deleted)

	store.updateErr = errors.New("nope")
	assert.ErrorContains(t, e.UpdateText(context.Background(), "b1", "x"), "update block b1")
}

func marshal(t *testing.T, b notionapi.Block) string {
	t.Helper()
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	return string(raw)
}
