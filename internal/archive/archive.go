// Package archive searches a ChatGPT conversations.json export.
package archive

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SpeakerAll disables the speaker filter.
const SpeakerAll = "All"

const (
	timestampLayout = "2006-01-02 15:04:05"
	unknownTime     = "Unknown"
	previewLength   = 80
)

type Message struct {
	Role string
	Text string
	// Created is zero when the export has no usable timestamp.
	Created time.Time
}

type Conversation struct {
	ID       string
	Messages []Message
}

// Load reads an export file. See Parse.
func Load(path string) ([]Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Parse(data)
}

// Parse decodes an export, keeping document order. Nodes without a message
// and messages whose first content part is not text are skipped.
func Parse(data []byte) ([]Conversation, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("export is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("export must be a JSON array of conversations")
	}

	var convs []Conversation
	root.ForEach(func(_, convo gjson.Result) bool {
		conv := Conversation{ID: "unknown_id"}
		if id := convo.Get("id"); id.Exists() {
			conv.ID = id.String()
		}

		mapping := convo.Get("mapping")
		if !mapping.IsObject() {
			return true
		}
		mapping.ForEach(func(_, node gjson.Result) bool {
			if msg, ok := parseMessage(node.Get("message")); ok {
				conv.Messages = append(conv.Messages, msg)
			}
			return true
		})
		convs = append(convs, conv)
		return true
	})
	return convs, nil
}

func parseMessage(message gjson.Result) (Message, bool) {
	if !message.IsObject() {
		return Message{}, false
	}
	part := message.Get("content.parts.0")
	if part.Type != gjson.String {
		return Message{}, false
	}

	msg := Message{Role: "unknown", Text: part.String()}
	if role := message.Get("author.role"); role.Exists() {
		msg.Role = role.String()
	}
	if ts := message.Get("create_time"); ts.Type == gjson.Number && ts.Float() > 0 {
		sec := int64(ts.Float())
		nsec := int64((ts.Float() - float64(sec)) * float64(time.Second))
		msg.Created = time.Unix(sec, nsec)
	}
	return msg, true
}

// Filter selects messages. Zero Start or End leaves that side open.
type Filter struct {
	Keyword string
	Speaker string
	Start   time.Time
	End     time.Time
}

type Excerpt struct {
	Timestamp string
	Author    string
	Text      string
}

type Match struct {
	ConversationID string
	Excerpts       []Excerpt
}

// Preview is the first line of the match as shown in a result list.
func (m Match) Preview() string {
	if len(m.Excerpts) == 0 {
		return ""
	}
	r := []rune(m.Excerpts[0].Text)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return strings.ReplaceAll(string(r), "\n", " ") + "..."
}

// Search returns the conversations holding a matching message, in export
// order. The keyword match is case-insensitive. Messages without a
// timestamp always pass the date filter.
func Search(convs []Conversation, f Filter) []Match {
	keyword := strings.ToLower(f.Keyword)
	title := cases.Title(language.Und)

	var matches []Match
	index := make(map[string]int)
	for _, conv := range convs {
		for _, msg := range conv.Messages {
			if !strings.Contains(strings.ToLower(msg.Text), keyword) {
				continue
			}
			if f.Speaker != "" && f.Speaker != SpeakerAll && !strings.EqualFold(msg.Role, f.Speaker) {
				continue
			}
			if !msg.Created.IsZero() {
				if !f.Start.IsZero() && msg.Created.Before(f.Start) {
					continue
				}
				if !f.End.IsZero() && msg.Created.After(f.End) {
					continue
				}
			}

			excerpt := Excerpt{Timestamp: unknownTime, Author: title.String(msg.Role), Text: msg.Text}
			if !msg.Created.IsZero() {
				excerpt.Timestamp = msg.Created.Format(timestampLayout)
			}

			i, ok := index[conv.ID]
			if !ok {
				i = len(matches)
				index[conv.ID] = i
				matches = append(matches, Match{ConversationID: conv.ID})
			}
			matches[i].Excerpts = append(matches[i].Excerpts, excerpt)
		}
	}
	return matches
}

// Highlight upper-cases every case-insensitive occurrence of keyword and
// wraps it in brackets.
func Highlight(text, keyword string) string {
	if keyword == "" {
		return text
	}
	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(keyword))
	return pattern.ReplaceAllStringFunc(text, func(m string) string {
		return "[" + strings.ToUpper(m) + "]"
	})
}

// ExportMarkdown writes one conversation's excerpts with the keyword in
// bold. The bold replacement is case-sensitive.
func ExportMarkdown(w io.Writer, convID string, excerpts []Excerpt, keyword string) error {
	if _, err := fmt.Fprintf(w, "# Conversation ID: %s\n\n", convID); err != nil {
		return err
	}
	for _, ex := range excerpts {
		text := ex.Text
		if keyword != "" {
			text = strings.ReplaceAll(text, keyword, "**"+keyword+"**")
		}
		if _, err := fmt.Fprintf(w, "### %s — %s\n%s\n\n", ex.Author, ex.Timestamp, text); err != nil {
			return err
		}
	}
	return nil
}

// ExportFileName is the default file name for an exported conversation.
func ExportFileName(convID string) string {
	return "conversation_" + convID + ".md"
}
