// Package engine implements the memory relevance and priority engine:
// query-time relevance scoring, query-independent retention ranking, and
// diversity-aware retrieval over a MemoryStore.
package engine

import (
	"regexp"
	"strings"
	"unicode"
)

// stopWords are tokens with no discriminative value, excluded from keyword
// extraction and overlap scoring.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "shall": true,
	"can": true, "about": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true,
	"between": true, "out": true, "off": true, "over": true, "under": true,
	"what": true, "how": true, "when": true, "where": true, "why": true,
	"who": true, "which": true, "this": true, "that": true, "these": true,
	"those": true, "you": true, "she": true, "they": true, "with": true,
	"from": true, "not": true, "but": true, "all": true, "any": true,
	"its": true, "his": true, "her": true, "their": true, "our": true,
	"your": true,
}

// minKeywordLen is the minimum token length considered a keyword.
const minKeywordLen = 3

var nonWordRe = regexp.MustCompile(`[^a-z0-9']+`)

// ExtractKeywords tokenizes text and returns the set of significant lowercase
// keywords: stop words removed, tokens shorter than three characters dropped.
func ExtractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	for _, tok := range nonWordRe.Split(strings.ToLower(text), -1) {
		tok = strings.Trim(tok, "'")
		if len(tok) < minKeywordLen || stopWords[tok] {
			continue
		}
		keywords[tok] = true
	}
	return keywords
}

// significantWords returns the significant tokens of text in order of first
// occurrence, filtered like ExtractKeywords.
func significantWords(text string) []string {
	var words []string
	seen := make(map[string]bool)
	for _, tok := range nonWordRe.Split(strings.ToLower(text), -1) {
		tok = strings.Trim(tok, "'")
		if len(tok) < minKeywordLen || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		words = append(words, tok)
	}
	return words
}

// keywordOverlap returns |a ∩ b| / |a|, the fraction of a's keywords that
// also appear in b. Returns 0 when a is empty.
func keywordOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	matched := 0
	for k := range a {
		if b[k] {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}

// ExtractEntities returns the capitalized tokens of text, the candidate proper
// nouns. Leading sentence words are included; the heuristic favors recall.
func ExtractEntities(text string) map[string]bool {
	entities := make(map[string]bool)
	for _, tok := range strings.Fields(text) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(tok) < 2 {
			continue
		}
		runes := []rune(tok)
		if unicode.IsUpper(runes[0]) && !unicode.IsUpper(runes[len(runes)-1]) {
			entities[tok] = true
		}
	}
	return entities
}

// Classifier derives descriptive tags from free text. It is a pluggable
// strategy: the default keyword implementation below can be swapped for a
// model-backed classifier without touching scoring or ranking.
type Classifier interface {
	Classify(text string) []string
}

// KeywordClassifier tags text by keyword patterns per category.
type KeywordClassifier struct{}

var classifierPatterns = []struct {
	tag      string
	patterns []string
}{
	{"food", []string{"eat", "food", "meal", "restaurant", "cook", "sushi", "pizza", "chocolate"}},
	{"work", []string{"work", "job", "project", "meeting", "deadline", "office"}},
	{"health", []string{"doctor", "medication", "allergy", "exercise", "sleep", "pain"}},
	{"travel", []string{"trip", "travel", "flight", "visit", "vacation"}},
	{"schedule", []string{"tomorrow", "appointment", "schedule", "calendar", "remind"}},
	{"people", []string{"friend", "family", "wife", "husband", "mother", "father", "brother", "sister"}},
}

// Classify returns the tags whose patterns appear in text, in pattern order.
func (KeywordClassifier) Classify(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, p := range classifierPatterns {
		for _, pat := range p.patterns {
			if strings.Contains(lower, pat) {
				tags = append(tags, p.tag)
				break
			}
		}
	}
	return tags
}
