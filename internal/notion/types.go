package notion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// lastEditedLayout is the timestamp format Notion reports.
const lastEditedLayout = "2006-01-02T15:04:05.000Z07:00"

// RichText wraps content in a single text span.
func RichText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}}}
}

// PlainText concatenates the text of every span.
func PlainText(spans []notionapi.RichText) string {
	var sb strings.Builder
	for _, span := range spans {
		switch {
		case span.Text != nil:
			sb.WriteString(span.Text.Content)
		default:
			sb.WriteString(span.PlainText)
		}
	}
	return sb.String()
}

func NewParagraph(text string) *notionapi.ParagraphBlock {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
		Paragraph:  notionapi.Paragraph{RichText: RichText(text)},
	}
}

func NewToggle(label string, children ...notionapi.Block) *notionapi.ToggleBlock {
	return &notionapi.ToggleBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeToggle},
		Toggle:     notionapi.Toggle{RichText: RichText(label), Children: children},
	}
}

// BlockRichText returns the spans of text-bearing blocks and nil for every
// other block type.
func BlockRichText(b notionapi.Block) []notionapi.RichText {
	switch b := b.(type) {
	case *notionapi.ParagraphBlock:
		return b.Paragraph.RichText
	case *notionapi.Heading1Block:
		return b.Heading1.RichText
	case *notionapi.Heading2Block:
		return b.Heading2.RichText
	case *notionapi.Heading3Block:
		return b.Heading3.RichText
	case *notionapi.QuoteBlock:
		return b.Quote.RichText
	case *notionapi.CalloutBlock:
		return b.Callout.RichText
	case *notionapi.BulletedListItemBlock:
		return b.BulletedListItem.RichText
	case *notionapi.NumberedListItemBlock:
		return b.NumberedListItem.RichText
	case *notionapi.ToDoBlock:
		return b.ToDo.RichText
	case *notionapi.ToggleBlock:
		return b.Toggle.RichText
	default:
		return nil
	}
}

// BlockText is the plain text of a block's spans.
func BlockText(b notionapi.Block) string {
	return PlainText(BlockRichText(b))
}

// RawBlock is a block whose type body is sent exactly as given, so span
// kinds the typed blocks do not cover reach Notion untouched.
type RawBlock struct {
	notionapi.BasicBlock
	Content map[string]any
}

var _ notionapi.Block = (*RawBlock)(nil)

func NewRawBlock(blockType string, content map[string]any) *RawBlock {
	return &RawBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockType(blockType)},
		Content:    content,
	}
}

func (b RawBlock) GetRichTextString() string {
	raw, err := json.Marshal(b.Content["rich_text"])
	if err != nil {
		return ""
	}
	var spans []notionapi.RichText
	if err := json.Unmarshal(raw, &spans); err != nil {
		return ""
	}
	return PlainText(spans)
}

func (b RawBlock) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"object":       notionapi.ObjectTypeBlock,
		"type":         b.Type,
		string(b.Type): b.Content,
	}
	if b.HasChildren {
		m["has_children"] = true
	}
	return json.Marshal(m)
}

// LastEdited formats the page's last edit time the way Notion reports it,
// or returns "" when the page carries none.
func LastEdited(page *notionapi.Page) string {
	if page.LastEditedTime.IsZero() {
		return ""
	}
	return page.LastEditedTime.UTC().Format(lastEditedLayout)
}

// Spans returns the spans of a title or rich_text property.
func Spans(page *notionapi.Page, name string) []notionapi.RichText {
	switch p := page.Properties[name].(type) {
	case *notionapi.TitleProperty:
		return p.Title
	case notionapi.TitleProperty:
		return p.Title
	case *notionapi.RichTextProperty:
		return p.RichText
	case notionapi.RichTextProperty:
		return p.RichText
	default:
		return nil
	}
}

// Text returns the concatenated spans of a title or rich_text property.
// ok is false when the property is missing or has no spans.
func Text(page *notionapi.Page, name string) (string, bool) {
	spans := Spans(page, name)
	if len(spans) == 0 {
		return "", false
	}
	return PlainText(spans), true
}

// FirstText is Text limited to the property's first span.
func FirstText(page *notionapi.Page, name string) (string, bool) {
	spans := Spans(page, name)
	if len(spans) == 0 {
		return "", false
	}
	return PlainText(spans[:1]), true
}

// Select returns the name of a select property's value.
func Select(page *notionapi.Page, name string) (string, bool) {
	var option notionapi.Option
	switch p := page.Properties[name].(type) {
	case *notionapi.SelectProperty:
		option = p.Select
	case notionapi.SelectProperty:
		option = p.Select
	}
	if option.Name == "" {
		return "", false
	}
	return option.Name, true
}

// MultiSelect returns the option names of a multi_select property.
func MultiSelect(page *notionapi.Page, name string) []string {
	var options []notionapi.Option
	switch p := page.Properties[name].(type) {
	case *notionapi.MultiSelectProperty:
		options = p.MultiSelect
	case notionapi.MultiSelectProperty:
		options = p.MultiSelect
	}

	names := make([]string, 0, len(options))
	for _, option := range options {
		names = append(names, option.Name)
	}
	return names
}

// DateStart wraps t as the start of a date property.
func DateStart(t time.Time) *notionapi.DateObject {
	start := notionapi.Date(t)
	return &notionapi.DateObject{Start: &start}
}
