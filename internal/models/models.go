package models

import "time"

// Exchange is one prompt/reply round trip with its classification.
type Exchange struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	RecordID  string    `json:"record_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryEntry is the summary view of one record in the knowledge store.
type MemoryEntry struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// BlockSummary is a flattened view of a content block.
type BlockSummary struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// Record is the decoded property set of a stored exchange.
type Record struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Prompt         string   `json:"prompt"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	LastEditedTime string   `json:"last_edited_time"`
}
