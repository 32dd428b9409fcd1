package engine

import (
	"math"
	"strings"
	"time"

	"github.com/minerva-ai/minerva/pkg/types"
)

// ScorerConfig holds the boost caps and weights for query-time relevance
// scoring. The defaults are hand-tuned values, not physical constants, so
// they are exposed as configuration rather than hardcoded.
type ScorerConfig struct {
	// CategoryCaps bounds the category-query alignment boost per category.
	CategoryCaps map[string]float64 `yaml:"category_caps"`
	// CategoryPatternStep is added per matching category pattern, up to the cap.
	CategoryPatternStep float64 `yaml:"category_pattern_step"`

	KeywordOverlapMax float64 `yaml:"keyword_overlap_max"`
	ContextOverlapMax float64 `yaml:"context_overlap_max"`
	ConfidenceMax     float64 `yaml:"confidence_max"`

	// SourceBonuses maps source tags to flat reliability bonuses.
	SourceBonuses map[string]float64 `yaml:"source_bonuses"`
	// AutoSourceMinConfidence gates the conversation_auto bonus.
	AutoSourceMinConfidence float64 `yaml:"auto_source_min_confidence"`

	TagBonus float64 `yaml:"tag_bonus"`
	TagMax   float64 `yaml:"tag_max"`

	FrequencyScale float64 `yaml:"frequency_scale"`
	FrequencyMax   float64 `yaml:"frequency_max"`

	EntityBonus float64 `yaml:"entity_bonus"`
	EntityMax   float64 `yaml:"entity_max"`

	CreationRecencyMax  float64 `yaml:"creation_recency_max"`
	CreationRecencyDays float64 `yaml:"creation_recency_days"`

	// ScoreCeiling bounds the final score strictly below 1.0.
	ScoreCeiling float64 `yaml:"score_ceiling"`
}

// categoryQueryPatterns are the query words that signal alignment with a
// memory category (e.g. "prefer" in the query aligns with preference).
var categoryQueryPatterns = map[string][]string{
	types.CategoryPreference:   {"prefer", "like", "favorite", "favourite", "enjoy", "love", "hate"},
	types.CategoryFact:         {"fact", "true", "know", "remember"},
	types.CategoryPersonal:     {"my", "mine", "myself", "personal"},
	types.CategoryExperience:   {"did", "went", "happened", "experience", "yesterday"},
	types.CategoryInstruction:  {"should", "always", "never", "must", "instruction", "rule"},
	types.CategoryPlan:         {"plan", "going", "tomorrow", "next", "schedule", "upcoming"},
	types.CategoryRelationship: {"friend", "family", "wife", "husband", "partner", "relationship"},
	types.CategoryHealth:       {"health", "doctor", "allergy", "medication", "sick", "pain"},
}

// DefaultScorerConfig returns the default boost caps and weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		CategoryCaps: map[string]float64{
			types.CategoryPreference:   0.30,
			types.CategoryInstruction:  0.30,
			types.CategoryHealth:       0.30,
			types.CategoryFact:         0.20,
			types.CategoryPersonal:     0.25,
			types.CategoryExperience:   0.25,
			types.CategoryPlan:         0.25,
			types.CategoryRelationship: 0.25,
		},
		CategoryPatternStep:     0.15,
		KeywordOverlapMax:       0.30,
		ContextOverlapMax:       0.25,
		ConfidenceMax:           0.15,
		SourceBonuses:           defaultSourceBonuses(),
		AutoSourceMinConfidence: 0.8,
		TagBonus:                0.10,
		TagMax:                  0.25,
		FrequencyScale:          0.15,
		FrequencyMax:            0.20,
		EntityBonus:             0.20,
		EntityMax:               0.30,
		CreationRecencyMax:      0.10,
		CreationRecencyDays:     30,
		ScoreCeiling:            0.99,
	}
}

func defaultSourceBonuses() map[string]float64 {
	return map[string]float64{
		types.SourceUserExplicit:     0.25,
		types.SourceUserConfirmed:    0.20,
		types.SourceExplicit:         0.15,
		types.SourceConversationAuto: 0.10,
	}
}

// Breakdown key constants: the names under which each applied boost is
// recorded in the score breakdown.
const (
	BoostBase            = "base_similarity"
	BoostCategory        = "category_alignment"
	BoostKeywordOverlap  = "keyword_overlap"
	BoostContextOverlap  = "context_overlap"
	BoostConfidence      = "confidence"
	BoostSource          = "source_reliability"
	BoostTags            = "tag_match"
	BoostFrequency       = "usage_frequency"
	BoostAccessRecency   = "access_recency"
	BoostCreationRecency = "creation_recency"
	BoostEntities        = "entity_match"
)

// RelevanceScorer computes a composite relevance score for a (query, memory)
// pair. The base similarity is supplied externally (cosine similarity from an
// embedding, or a keyword-overlap ratio on the fallback path) and lies in
// [0,1]. The scorer adds independently-computed, capped, additive boosts and
// clamps the sum below 1.0.
type RelevanceScorer struct {
	cfg ScorerConfig
	now func() time.Time
}

// NewRelevanceScorer returns a scorer with the given configuration. A zero
// ScorerConfig is replaced by the defaults.
func NewRelevanceScorer(cfg ScorerConfig) *RelevanceScorer {
	if cfg.ScoreCeiling == 0 {
		cfg = DefaultScorerConfig()
	}
	return &RelevanceScorer{cfg: cfg, now: time.Now}
}

// Score combines baseSimilarity with the boost terms for memory against the
// query and context topics. The returned breakdown maps each applied boost's
// rounded contribution by name; it is a required output for explainability,
// not optional telemetry.
func (s *RelevanceScorer) Score(baseSimilarity float64, memory *types.MemoryRecord, query string, contextTopics map[string]bool) (float64, map[string]float64) {
	breakdown := make(map[string]float64)
	queryLower := strings.ToLower(query)
	queryKeywords := ExtractKeywords(query)
	memoryKeywords := ExtractKeywords(memory.Content)
	now := s.now()

	record := func(name string, boost float64) float64 {
		if boost > 0 {
			breakdown[name] = round4(boost)
		}
		return boost
	}

	breakdown[BoostBase] = round4(baseSimilarity)
	total := baseSimilarity

	total += record(BoostCategory, s.categoryAlignment(memory.Category, queryLower))
	total += record(BoostKeywordOverlap, s.cfg.KeywordOverlapMax*keywordOverlap(queryKeywords, memoryKeywords))
	total += record(BoostContextOverlap, s.contextOverlap(memoryKeywords, contextTopics))
	total += record(BoostConfidence, s.confidenceBoost(memory.Confidence))
	total += record(BoostSource, s.sourceBonus(memory))
	total += record(BoostTags, s.tagBoost(memory.Tags, queryKeywords))
	total += record(BoostFrequency, s.frequencyBoost(memory.AccessCount))
	total += record(BoostAccessRecency, s.accessRecencyBoost(memory.LastAccessed, now))
	total += record(BoostCreationRecency, s.creationRecencyBoost(memory.CreatedAt, now))
	total += record(BoostEntities, s.entityBoost(memory.Content, query))

	if total > s.cfg.ScoreCeiling {
		total = s.cfg.ScoreCeiling
	}
	if total < 0 {
		total = 0
	}
	return total, breakdown
}

// categoryAlignment adds CategoryPatternStep per category pattern found in
// the query, capped per category.
func (s *RelevanceScorer) categoryAlignment(category, queryLower string) float64 {
	limit, ok := s.cfg.CategoryCaps[category]
	if !ok {
		return 0
	}
	boost := 0.0
	for _, pat := range categoryQueryPatterns[category] {
		if containsWord(queryLower, pat) {
			boost += s.cfg.CategoryPatternStep
		}
	}
	return math.Min(boost, limit)
}

// contextOverlap scales by the fraction of supplied context topics that
// appear among the memory's keywords.
func (s *RelevanceScorer) contextOverlap(memoryKeywords, contextTopics map[string]bool) float64 {
	if len(contextTopics) == 0 {
		return 0
	}
	matched := 0
	for t := range contextTopics {
		if memoryKeywords[t] {
			matched++
		}
	}
	return s.cfg.ContextOverlapMax * float64(matched) / float64(len(contextTopics))
}

// confidenceBoost is linear in (confidence-0.5)/0.5 above the 0.5 midpoint.
func (s *RelevanceScorer) confidenceBoost(confidence float64) float64 {
	if confidence <= 0.5 {
		return 0
	}
	return s.cfg.ConfidenceMax * (confidence - 0.5) / 0.5
}

// sourceBonus applies the flat per-source reliability bonus. The
// conversation_auto bonus only applies above the confidence gate.
func (s *RelevanceScorer) sourceBonus(memory *types.MemoryRecord) float64 {
	bonus, ok := s.cfg.SourceBonuses[memory.Source]
	if !ok {
		return 0
	}
	if memory.Source == types.SourceConversationAuto && memory.Confidence <= s.cfg.AutoSourceMinConfidence {
		return 0
	}
	return bonus
}

// tagBoost adds TagBonus per tag found among the query keywords, capped.
func (s *RelevanceScorer) tagBoost(tags []string, queryKeywords map[string]bool) float64 {
	boost := 0.0
	for _, tag := range tags {
		tagLower := strings.ToLower(tag)
		for kw := range queryKeywords {
			if strings.Contains(kw, tagLower) || strings.Contains(tagLower, kw) {
				boost += s.cfg.TagBonus
				break
			}
		}
	}
	return math.Min(boost, s.cfg.TagMax)
}

// frequencyBoost grows logarithmically with access count.
func (s *RelevanceScorer) frequencyBoost(accessCount int) float64 {
	if accessCount <= 0 {
		return 0
	}
	return math.Min(s.cfg.FrequencyScale*math.Log(1+float64(accessCount)/2), s.cfg.FrequencyMax)
}

// accessRecencyBoost is tiered: <1h strong, <24h medium, then a linear
// decay to zero at one week.
func (s *RelevanceScorer) accessRecencyBoost(lastAccessed time.Time, now time.Time) float64 {
	if lastAccessed.IsZero() {
		return 0
	}
	hours := now.Sub(lastAccessed).Hours()
	switch {
	case hours < 0:
		return 0
	case hours < 1:
		return 0.20
	case hours < 24:
		return 0.15
	case hours < 168:
		return 0.10 * (1 - (hours-24)/144)
	default:
		return 0
	}
}

// creationRecencyBoost decays linearly over the first CreationRecencyDays
// days of a record's life.
func (s *RelevanceScorer) creationRecencyBoost(createdAt time.Time, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	days := now.Sub(createdAt).Hours() / 24
	if days < 0 || days >= s.cfg.CreationRecencyDays {
		return 0
	}
	return s.cfg.CreationRecencyMax * (s.cfg.CreationRecencyDays - days) / s.cfg.CreationRecencyDays
}

// entityBoost rewards capitalized-token overlap between query and content.
func (s *RelevanceScorer) entityBoost(content, query string) float64 {
	queryEntities := ExtractEntities(query)
	if len(queryEntities) == 0 {
		return 0
	}
	contentEntities := ExtractEntities(content)
	boost := 0.0
	for e := range queryEntities {
		if contentEntities[e] {
			boost += s.cfg.EntityBonus
		}
	}
	return math.Min(boost, s.cfg.EntityMax)
}

// containsWord reports whether word occurs as a whole token in text.
func containsWord(text, word string) bool {
	for _, tok := range nonWordRe.Split(text, -1) {
		if tok == word {
			return true
		}
	}
	return false
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
