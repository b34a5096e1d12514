package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `[
  {
    "id": "c1",
    "mapping": {
      "root": {"message": null},
      "m1": {"message": {"author": {"role": "user"}, "create_time": 1714557600, "content": {"parts": ["How does Resonance shape Skyfall?"]}}},
      "m2": {"message": {"author": {"role": "assistant"}, "create_time": 1714557660.5, "content": {"parts": ["resonance is a wave effect"]}}},
      "m3": {"message": {"author": {"role": "assistant"}, "content": {"parts": [{"asset": "image"}]}}}
    }
  },
  {
    "id": "c2",
    "mapping": {
      "m1": {"message": {"author": {"role": "user"}, "create_time": null, "content": {"parts": ["no timestamp but RESONANCE"]}}}
    }
  },
  {
    "id": "c3",
    "mapping": "broken"
  },
  {
    "mapping": {
      "m1": {"message": {"author": {"role": "user"}, "create_time": 1577872800, "content": {"parts": ["old resonance note"]}}}
    }
  }
]`

func parseExport(t *testing.T) []Conversation {
	convs, err := Parse([]byte(export))
	require.NoError(t, err)
	return convs
}

func TestParse(t *testing.T) {
	convs := parseExport(t)

	require.Len(t, convs, 3)
	assert.Equal(t, "c1", convs[0].ID)
	require.Len(t, convs[0].Messages, 2)
	assert.Equal(t, "user", convs[0].Messages[0].Role)
	assert.Equal(t, time.Unix(1714557600, 0), convs[0].Messages[0].Created)
	assert.True(t, convs[1].Messages[0].Created.IsZero())
	assert.Equal(t, "unknown_id", convs[2].ID)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"id": "not an array"}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`[{`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	convs, err := Load(path)

	require.NoError(t, err)
	assert.Len(t, convs, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSearch_KeywordIsCaseInsensitive(t *testing.T) {
	matches := Search(parseExport(t), Filter{Keyword: "resonance", Speaker: SpeakerAll})

	require.Len(t, matches, 3)
	assert.Equal(t, "c1", matches[0].ConversationID)
	assert.Len(t, matches[0].Excerpts, 2)
	assert.Equal(t, "User", matches[0].Excerpts[0].Author)
	assert.Equal(t, "Assistant", matches[0].Excerpts[1].Author)
	assert.Equal(t, time.Unix(1714557600, 0).Format(timestampLayout), matches[0].Excerpts[0].Timestamp)
	assert.Equal(t, "c2", matches[1].ConversationID)
	assert.Equal(t, "Unknown", matches[1].Excerpts[0].Timestamp)
	assert.Equal(t, "unknown_id", matches[2].ConversationID)
}

func TestSearch_Speaker(t *testing.T) {
	matches := Search(parseExport(t), Filter{Keyword: "resonance", Speaker: "Assistant"})

	require.Len(t, matches, 1)
	require.Len(t, matches[0].Excerpts, 1)
	assert.Equal(t, "resonance is a wave effect", matches[0].Excerpts[0].Text)
}

func TestSearch_DateRange(t *testing.T) {
	matches := Search(parseExport(t), Filter{
		Keyword: "resonance",
		Start:   time.Unix(1700000000, 0),
		End:     time.Unix(1714557630, 0),
	})

	require.Len(t, matches, 2)
	assert.Equal(t, "c1", matches[0].ConversationID)
	require.Len(t, matches[0].Excerpts, 1)
	assert.Equal(t, "User", matches[0].Excerpts[0].Author)
	// messages without a timestamp are never filtered by date
	assert.Equal(t, "c2", matches[1].ConversationID)
}

func TestSearch_NoMatch(t *testing.T) {
	assert.Empty(t, Search(parseExport(t), Filter{Keyword: "animology"}))
}

func TestMatchPreview(t *testing.T) {
	long := ""
	for i := 0; i < 10; i++ {
		long += "line one\nmore "
	}
	m := Match{Excerpts: []Excerpt{{Text: long}}}

	preview := m.Preview()

	assert.Equal(t, 83, len([]rune(preview)))
	assert.NotContains(t, preview, "\n")
	assert.Equal(t, "", Match{}.Preview())
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "How does [RESONANCE] shape [RESONANCE]?", Highlight("How does Resonance shape resonance?", "resonance"))
	assert.Equal(t, "cost [$1.00]", Highlight("cost $1.00", "$1.00"))
	assert.Equal(t, "unchanged", Highlight("unchanged", ""))
}

func TestExportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	excerpts := []Excerpt{
		{Timestamp: "2024-05-01 10:00:00", Author: "User", Text: "about resonance and Resonance"},
		{Timestamp: "Unknown", Author: "Assistant", Text: "ok"},
	}

	require.NoError(t, ExportMarkdown(&buf, "c1", excerpts, "resonance"))

	assert.Equal(t, "# Conversation ID: c1\n\n"+
		"### User — 2024-05-01 10:00:00\nabout **resonance** and Resonance\n\n"+
		"### Assistant — Unknown\nok\n\n", buf.String())
	assert.Equal(t, "conversation_c1.md", ExportFileName("c1"))
}
