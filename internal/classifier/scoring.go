package classifier

import "strings"

type categoryKeywords struct {
	category string
	keywords []string
}

type tagSynonyms struct {
	tag      string
	synonyms []string
}

// ScoringClassifier counts keyword hits per category and picks the highest
// score. Ties, including the all-zero case, go to the earliest category in
// the table, so it never reports Uncategorized.
type ScoringClassifier struct {
	categories []categoryKeywords
	synonyms   []tagSynonyms
}

func NewScoringClassifier() *ScoringClassifier {
	return &ScoringClassifier{
		categories: []categoryKeywords{
			{"Science & Spirit Dynamics", []string{"resonance", "skyfall", "animology", "animusology", "bending", "spirit energy", "quantum", "field theory"}},
			{"Drama & Emotional Beats", []string{"avatar state", "confront", "emotion", "love", "hurt", "teacher", "villain", "sparring"}},
			{"Notion Formatting", []string{"notion", "table", "schema", "block", "paragraph", "quote", "structure", "format"}},
			{"Timeline & Canon Checker", []string{"timeline", "contradiction", "year", "canon", "conflict", "event", "map", "origin"}},
			{"Scene Writing & Style", []string{"write", "describe", "scene", "flashback", "narrate", "elemental", "poetic", "studio ghibli"}},
		},
		synonyms: []tagSynonyms{
			{"resonance", []string{"harmonic", "frequency", "wave"}},
			{"animology", []string{"spirit science", "energy field", "spiritual physics"}},
			{"skyfall", []string{"anomaly", "disaster", "surge"}},
			{"avatar state", []string{"rage mode", "divine form"}},
			{"timeline", []string{"date", "era", "year", "period"}},
			{"notion", []string{"database", "table", "page", "entry"}},
		},
	}
}

func (c *ScoringClassifier) Classify(text string) Result {
	content := strings.ToLower(text)
	tags := newTagSet()

	for _, entry := range c.synonyms {
		if containsAny(content, entry.tag, entry.synonyms...) {
			tags.add(entry.tag)
		}
	}

	best, bestScore := 0, -1
	for i, entry := range c.categories {
		score := 0
		for _, keyword := range entry.keywords {
			if strings.Contains(content, keyword) {
				score++
				tags.add(keyword)
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	return Result{Category: c.categories[best].category, Tags: tags.items}
}

func containsAny(content, first string, rest ...string) bool {
	if strings.Contains(content, first) {
		return true
	}
	for _, s := range rest {
		if strings.Contains(content, s) {
			return true
		}
	}
	return false
}

// tagSet keeps first-seen order.
type tagSet struct {
	seen  map[string]struct{}
	items []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *tagSet) add(tag string) {
	if _, ok := s.seen[tag]; ok {
		return
	}
	s.seen[tag] = struct{}{}
	s.items = append(s.items, tag)
}
