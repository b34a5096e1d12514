package classifier

import (
	"errors"
	"fmt"
	"strings"
)

// Uncategorized is the category used when nothing else applies.
const Uncategorized = "Uncategorized"

// Strategy names accepted by New.
const (
	StrategyKeyword = "keyword"
	StrategyScoring = "scoring"
)

var ErrUnknownStrategy = errors.New("unknown classifier strategy")

// Result is the category and tag set assigned to a piece of text.
type Result struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type Classifier interface {
	Classify(text string) Result
}

// New returns the classifier registered under strategy.
func New(strategy string) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyKeyword:
		return NewKeywordClassifier(), nil
	case StrategyScoring, "":
		return NewScoringClassifier(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

type keywordGroup struct {
	category string
	keywords []string
	tags     []string
}

// KeywordClassifier returns the first group with any keyword hit, or
// Uncategorized/misc when no group matches.
type KeywordClassifier struct {
	groups []keywordGroup
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		groups: []keywordGroup{
			{
				category: "Science & Spirit Dynamics",
				keywords: []string{"resonance", "skyfall", "animology", "animic field"},
				tags:     []string{"resonance", "skyfall", "animology"},
			},
			{
				category: "Drama & Emotional Beats",
				keywords: []string{"write a scene", "emotional", "avatar state", "confrontation"},
				tags:     []string{"scene", "emotion", "character"},
			},
			{
				category: "Notion Formatting",
				keywords: []string{"format", "notion", "table", "schema", "block"},
				tags:     []string{"notion", "format", "structure"},
			},
			{
				category: "Timeline & Canon Checker",
				keywords: []string{"timeline", "canon", "year", "date", "event"},
				tags:     []string{"timeline", "canon", "event"},
			},
			{
				category: "Scene Writing & Style",
				keywords: []string{"describe", "narrate", "poetic", "cinematic", "style"},
				tags:     []string{"poetry", "cinema", "description"},
			},
		},
	}
}

func (c *KeywordClassifier) Classify(text string) Result {
	content := strings.ToLower(text)
	for _, group := range c.groups {
		for _, keyword := range group.keywords {
			if strings.Contains(content, keyword) {
				return Result{
					Category: group.category,
					Tags:     append([]string(nil), group.tags...),
				}
			}
		}
	}

	return Result{Category: Uncategorized, Tags: []string{"misc"}}
}
