package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/minerva-ai/minerva/pkg/types"
)

// RankerConfig holds the weights and multipliers for query-independent
// retention scoring. Like ScorerConfig, the defaults are tuned values
// exposed as configuration.
type RankerConfig struct {
	// RecencyHalfLifeDays is the half-life of the last-access decay.
	RecencyHalfLifeDays float64 `yaml:"recency_half_life_days"`

	// ContextFactorCap bounds the context factor.
	ContextFactorCap float64 `yaml:"context_factor_cap"`
	// ContextScale multiplies the best matching context relevance.
	ContextScale float64 `yaml:"context_scale"`
	// ContextNeutral is used when no context reference is supplied.
	ContextNeutral float64 `yaml:"context_neutral"`
	// ContextMiss is used when a reference is supplied but nothing matches.
	ContextMiss float64 `yaml:"context_miss"`

	// Component weights. Factors other than importance are scaled by 10 so
	// all components share the importance scale.
	ImportanceWeight float64 `yaml:"importance_weight"`
	RecencyWeight    float64 `yaml:"recency_weight"`
	FrequencyWeight  float64 `yaml:"frequency_weight"`
	AgeWeight        float64 `yaml:"age_weight"`
	ContextWeight    float64 `yaml:"context_weight"`

	CategoryMultipliers map[string]float64 `yaml:"category_multipliers"`
	SourceMultipliers   map[string]float64 `yaml:"source_multipliers"`

	// CleanupThreshold is the score below which a memory becomes a cleanup
	// candidate.
	CleanupThreshold float64 `yaml:"cleanup_threshold"`
}

// DefaultRankerConfig returns the default retention scoring parameters.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		RecencyHalfLifeDays: 30,
		ContextFactorCap:    1.5,
		ContextScale:        1.5,
		ContextNeutral:      0.5,
		ContextMiss:         0.3,
		ImportanceWeight:    0.35,
		RecencyWeight:       0.25,
		FrequencyWeight:     0.20,
		AgeWeight:           0.10,
		ContextWeight:       0.10,
		CategoryMultipliers: map[string]float64{
			types.CategoryPreference:  1.2,
			types.CategoryInstruction: 1.1,
			types.CategoryFact:        1.0,
			types.CategoryContext:     0.9,
			types.CategoryTemporary:   0.7,
		},
		SourceMultipliers: map[string]float64{
			"user":      1.2,
			"system":    1.0,
			"inference": 0.9,
			"external":  0.8,
		},
		CleanupThreshold: 2.0,
	}
}

// PriorityRanker scores memories independent of any query, for retention and
// cleanup decisions. It never deletes anything itself; cleanup candidates
// are handed to an external process.
type PriorityRanker struct {
	cfg RankerConfig
}

// NewPriorityRanker returns a ranker with the given configuration. A zero
// RankerConfig is replaced by the defaults.
func NewPriorityRanker(cfg RankerConfig) *PriorityRanker {
	if cfg.RecencyHalfLifeDays == 0 {
		cfg = DefaultRankerConfig()
	}
	return &PriorityRanker{cfg: cfg}
}

// RankedMemory pairs a memory with its retention score.
type RankedMemory struct {
	Memory *types.MemoryRecord
	Score  float64
}

// Score computes the retention score for memory at the given instant.
// contextRef may be empty (neutral context factor). Expired memories score
// exactly 0.0 regardless of other factors.
func (r *PriorityRanker) Score(memory *types.MemoryRecord, contextRef string, now time.Time) float64 {
	if memory.Expired(now) {
		return 0.0
	}

	recency := r.recencyFactor(memory, now)
	frequency := r.frequencyFactor(memory.AccessCount)
	age := ageFactor(memory.CreatedAt, now)
	contextF := r.contextFactor(memory.Contexts, contextRef)

	weighted := float64(memory.Importance)*r.cfg.ImportanceWeight +
		recency*r.cfg.RecencyWeight*10 +
		frequency*r.cfg.FrequencyWeight*10 +
		age*r.cfg.AgeWeight*10 +
		contextF*r.cfg.ContextWeight*10

	return weighted * r.categoryMultiplier(memory.Category) * r.sourceMultiplier(memory.Source)
}

// Rank scores and sorts memories descending. maxResults <= 0 returns all.
func (r *PriorityRanker) Rank(memories []*types.MemoryRecord, contextRef string, maxResults int, now time.Time) []RankedMemory {
	ranked := make([]RankedMemory, 0, len(memories))
	for _, m := range memories {
		ranked = append(ranked, RankedMemory{Memory: m, Score: r.Score(m, contextRef, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}

// IdentifyCleanupCandidates returns every memory scoring below the cleanup
// threshold, plus all expired memories.
func (r *PriorityRanker) IdentifyCleanupCandidates(memories []*types.MemoryRecord, now time.Time) []*types.MemoryRecord {
	var candidates []*types.MemoryRecord
	for _, m := range memories {
		if m.Expired(now) || r.Score(m, "", now) < r.cfg.CleanupThreshold {
			candidates = append(candidates, m)
		}
	}
	return candidates
}

// recencyFactor applies exponential decay on days since last access, with
// the configured half-life. Falls back to creation time when never accessed.
func (r *PriorityRanker) recencyFactor(memory *types.MemoryRecord, now time.Time) float64 {
	ref := memory.LastAccessed
	if ref.IsZero() {
		ref = memory.CreatedAt
	}
	days := now.Sub(ref).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-math.Ln2 / r.cfg.RecencyHalfLifeDays * days)
}

// frequencyFactor rewards repeat access logarithmically, capped at 2.0.
// Memories accessed at most once sit at 0.5.
func (r *PriorityRanker) frequencyFactor(accessCount int) float64 {
	if accessCount <= 1 {
		return 0.5
	}
	return math.Min(2.0, 1+math.Log(float64(accessCount))/10)
}

// ageFactor is a step function over days since creation.
func ageFactor(createdAt time.Time, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	switch {
	case days <= 1:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.8
	case days <= 90:
		return 0.7
	default:
		return 0.6
	}
}

// contextFactor is neutral when no reference is given; otherwise the best
// matching context relevance scaled and capped. A supplied reference with no
// matching context entry yields a mild penalty.
func (r *PriorityRanker) contextFactor(contexts map[string]float64, contextRef string) float64 {
	if contextRef == "" {
		return r.cfg.ContextNeutral
	}
	refLower := strings.ToLower(contextRef)
	best := -1.0
	for ref, rel := range contexts {
		if strings.Contains(strings.ToLower(ref), refLower) && rel > best {
			best = rel
		}
	}
	if best < 0 {
		return r.cfg.ContextMiss
	}
	return math.Min(best*r.cfg.ContextScale, r.cfg.ContextFactorCap)
}

func (r *PriorityRanker) categoryMultiplier(category string) float64 {
	if m, ok := r.cfg.CategoryMultipliers[category]; ok {
		return m
	}
	return 1.0
}

// sourceMultiplier matches the source tag against the multiplier table.
// Compound sources match by prefix, so user_explicit and user_confirmed both
// take the "user" multiplier.
func (r *PriorityRanker) sourceMultiplier(source string) float64 {
	if m, ok := r.cfg.SourceMultipliers[source]; ok {
		return m
	}
	for prefix, m := range r.cfg.SourceMultipliers {
		if strings.HasPrefix(source, prefix) {
			return m
		}
	}
	return 1.0
}

// Lexical markers used by the importance suggestion heuristic.
var (
	highImportanceMarkers = []string{
		"important", "critical", "urgent", "essential", "must", "remember",
		"password", "key", "never forget", "always",
	}
	hedgingMarkers = []string{
		"maybe", "not sure", "possibly", "might", "i think", "perhaps",
	}
)

// SuggestImportance proposes a default importance in [1,10] for new content
// when the caller does not supply one. It starts from the midpoint and
// adjusts for lexical markers, category, and source.
func (r *PriorityRanker) SuggestImportance(content, source, category string) int {
	importance := types.DefaultImportance
	lower := strings.ToLower(content)

	for _, marker := range highImportanceMarkers {
		if strings.Contains(lower, marker) {
			importance += 2
			break
		}
	}
	for _, marker := range hedgingMarkers {
		if strings.Contains(lower, marker) {
			importance--
			break
		}
	}

	switch category {
	case types.CategoryPreference, types.CategoryInstruction:
		importance++
	case types.CategoryContext:
		importance--
	case types.CategoryTemporary:
		importance -= 2
	}

	switch {
	case strings.HasPrefix(source, "user"):
		importance++
	case source == types.SourceInference, source == types.SourceExternal:
		importance--
	}

	if importance < types.MinImportance {
		importance = types.MinImportance
	}
	if importance > types.MaxImportance {
		importance = types.MaxImportance
	}
	return importance
}
