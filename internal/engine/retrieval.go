package engine

import (
	"context"
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/minerva-ai/minerva/internal/embedding"
	"github.com/minerva-ai/minerva/internal/storage"
	"github.com/minerva-ai/minerva/pkg/types"
)

// RetrievalConfig tunes the end-to-end search pipeline.
type RetrievalConfig struct {
	// MaxResults is the default result count when the caller gives none.
	MaxResults int `yaml:"max_results"`

	// CandidateLimit caps how many non-expired records are fetched from the
	// store for scoring.
	CandidateLimit int `yaml:"candidate_limit"`

	// EmbeddingCacheSize bounds the in-process LRU of memory embeddings.
	EmbeddingCacheSize int `yaml:"embedding_cache_size"`

	// MaxPerCategory is the diversity cap applied during selection.
	MaxPerCategory int `yaml:"max_per_category"`

	// HistoryTurns is how many recent user turns fold into the context.
	HistoryTurns int `yaml:"history_turns"`

	// HistoryDecay is how much weight each step of turn distance loses.
	// The most recent turn carries weight 1.0, the next 1.0-HistoryDecay,
	// and so on; turns whose weight reaches zero are dropped.
	HistoryDecay float64 `yaml:"history_decay"`

	// FreshCreationBoost is added for memories created within 24 hours.
	FreshCreationBoost float64 `yaml:"fresh_creation_boost"`

	// HighUsageBoostScale scales the log-of-access-count post boost.
	HighUsageBoostScale float64 `yaml:"high_usage_boost_scale"`
	HighUsageBoostMax   float64 `yaml:"high_usage_boost_max"`
}

// DefaultRetrievalConfig returns the default pipeline tuning.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxResults:          3,
		CandidateLimit:      200,
		EmbeddingCacheSize:  1024,
		MaxPerCategory:      2,
		HistoryTurns:        5,
		HistoryDecay:        0.175,
		FreshCreationBoost:  0.05,
		HighUsageBoostScale: 0.02,
		HighUsageBoostMax:   0.05,
	}
}

// SearchRequest carries the retrieval inputs beyond the raw query.
type SearchRequest struct {
	// Context is an optional free-text description of the current topic.
	Context string

	// History holds recent user conversation turns, most recent last.
	History []string

	// MaxResults overrides the configured default when > 0.
	MaxResults int
}

// SearchResult pairs a selected memory with its relevance score and the
// per-boost breakdown from the scorer.
type SearchResult struct {
	Memory    *types.MemoryRecord
	Score     float64
	Breakdown map[string]float64
}

// RetrievalEngine orchestrates query expansion, embedding or keyword search,
// relevance scoring, diversity-aware selection, and access accounting.
//
// Construct one engine per application context and inject it into callers;
// it owns a bounded embedding cache and holds no global state.
type RetrievalEngine struct {
	store    storage.MemoryStore
	scorer   *RelevanceScorer
	embedder embedding.Embedder // nil disables semantic search
	cfg      RetrievalConfig

	// cache is the L1 per-memory embedding cache. A persistent L2 cache is
	// used when the store implements storage.EmbeddingCache.
	cache   *lru.Cache[string, []float32]
	l2cache storage.EmbeddingCache

	now func() time.Time
}

// NewRetrievalEngine wires a retrieval engine. embedder may be nil, in which
// case every search uses the keyword-overlap fallback.
func NewRetrievalEngine(store storage.MemoryStore, scorer *RelevanceScorer, embedder embedding.Embedder, cfg RetrievalConfig) *RetrievalEngine {
	if cfg.MaxResults == 0 {
		cfg = DefaultRetrievalConfig()
	}
	def := DefaultRetrievalConfig()
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = def.HistoryTurns
	}
	if cfg.HistoryDecay <= 0 {
		cfg.HistoryDecay = def.HistoryDecay
	}
	cache, _ := lru.New[string, []float32](cfg.EmbeddingCacheSize)
	e := &RetrievalEngine{
		store:    store,
		scorer:   scorer,
		embedder: embedder,
		cfg:      cfg,
		cache:    cache,
		now:      time.Now,
	}
	if l2, ok := store.(storage.EmbeddingCache); ok {
		e.l2cache = l2
	}
	return e
}

// Search is the end-to-end retrieval entry point. An empty query still
// returns matches keyed off context and history alone; with no embedder and
// no keyword overlap it returns an empty list, never an error.
func (e *RetrievalEngine) Search(ctx context.Context, query string, req SearchRequest) ([]SearchResult, error) {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = e.cfg.MaxResults
	}

	expanded := e.expandQuery(query)
	contextText, contextTopics := e.assembleContext(req)
	keyTerms := extractKeyTerms(query)

	searchText := strings.TrimSpace(strings.Join([]string{contextText, expanded, strings.Join(keyTerms, " ")}, " "))
	if searchText == "" {
		return []SearchResult{}, nil
	}

	candidates, err := e.store.Search(ctx, storage.SearchFilter{
		Query:      query,
		MaxResults: e.cfg.CandidateLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}

	queryVec := e.embedSearchText(ctx, searchText)
	searchKeywords := ExtractKeywords(searchText)

	scored := make([]SearchResult, 0, len(candidates))
	for _, mem := range candidates {
		base := e.baseSimilarity(ctx, queryVec, searchKeywords, mem)
		score, breakdown := e.scorer.Score(base, mem, query, contextTopics)
		score = e.applyPostBoosts(score, breakdown, mem)
		if score <= 0 {
			continue
		}
		scored = append(scored, SearchResult{Memory: mem, Score: score, Breakdown: breakdown})
	}

	selected := e.selectDiverse(scored, maxResults)

	if len(selected) > 0 {
		ids := make([]string, len(selected))
		for i, r := range selected {
			ids[i] = r.Memory.ID
			r.Memory.AccessCount++
			r.Memory.LastAccessed = e.now()
		}
		// One transaction for the whole selection, not one write per memory.
		if err := e.store.UpdateAccessStats(ctx, ids); err != nil {
			return nil, err
		}
	}

	return selected, nil
}

// InvalidateEmbedding drops cached vectors for a memory whose content
// changed. Call after MemoryStore.Update with new content.
func (e *RetrievalEngine) InvalidateEmbedding(ctx context.Context, memoryID string) {
	e.cache.Remove(memoryID)
	if e.l2cache != nil {
		if err := e.l2cache.DeleteEmbedding(ctx, memoryID); err != nil {
			log.Printf("engine: failed to invalidate stored embedding for %s: %v", memoryID, err)
		}
	}
}

// synonymTable is a small static expansion table for common query verbs.
var synonymTable = map[string][]string{
	"like":     {"enjoy", "love", "prefer"},
	"enjoy":    {"like", "love"},
	"hate":     {"dislike", "avoid"},
	"want":     {"need", "wish"},
	"eat":      {"food", "meal"},
	"work":     {"job", "project"},
	"live":     {"home", "address"},
	"remember": {"recall", "know"},
}

// queryPatterns maps common question shapes to extra search terms.
var queryPatterns = []struct {
	re    *regexp.Regexp
	terms []string
}{
	{regexp.MustCompile(`(?i)what\s+do\s+i\s+(like|enjoy|love)`), []string{"preference", "like", "enjoy", "favorite"}},
	{regexp.MustCompile(`(?i)who\s+(is|am)\b`), []string{"person", "name", "relationship"}},
	{regexp.MustCompile(`(?i)where\s+do\s+i\b`), []string{"location", "place", "live"}},
	{regexp.MustCompile(`(?i)when\s+(is|do|did)\b`), []string{"date", "time", "schedule"}},
	{regexp.MustCompile(`(?i)how\s+do\s+i\b`), []string{"instruction", "method", "procedure"}},
}

// expandQuery augments the raw query with its significant words, a static
// synonym table, and pattern-triggered term sets for common question shapes.
func (e *RetrievalEngine) expandQuery(query string) string {
	parts := []string{query}
	seen := map[string]bool{}

	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?\"'")
		if len(word) <= 2 || seen[word] {
			continue
		}
		seen[word] = true
		parts = append(parts, word)
		for _, syn := range synonymTable[word] {
			if !seen[syn] {
				seen[syn] = true
				parts = append(parts, syn)
			}
		}
	}

	for _, p := range queryPatterns {
		if p.re.MatchString(query) {
			for _, term := range p.terms {
				if !seen[term] {
					seen[term] = true
					parts = append(parts, term)
				}
			}
		}
	}

	return strings.Join(parts, " ")
}

// assembleContext folds the explicit context string and weighted recent
// user turns into a context text plus the derived topic set. Turn weight
// decreases linearly with distance from the latest turn, and each turn
// contributes only a weight-proportional share of its significant words,
// so older turns carry fewer topics. Turns whose weight reaches zero are
// dropped entirely.
func (e *RetrievalEngine) assembleContext(req SearchRequest) (string, map[string]bool) {
	var parts []string
	if req.Context != "" {
		parts = append(parts, req.Context)
	}

	history := req.History
	if len(history) > e.cfg.HistoryTurns {
		history = history[len(history)-e.cfg.HistoryTurns:]
	}
	for i := len(history) - 1; i >= 0; i-- {
		distance := len(history) - 1 - i
		weight := 1.0 - e.cfg.HistoryDecay*float64(distance)
		if weight <= 0 {
			continue
		}
		words := significantWords(history[i])
		keep := int(math.Ceil(weight * float64(len(words))))
		if keep > len(words) {
			keep = len(words)
		}
		if keep > 0 {
			parts = append(parts, strings.Join(words[:keep], " "))
		}
	}

	contextText := strings.Join(parts, " ")
	return contextText, ExtractKeywords(contextText)
}

var (
	datePatternRe   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
	numberPatternRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
)

// extractKeyTerms pulls capitalized tokens (candidate names), date patterns,
// and bare numbers from the raw query for extra emphasis in the search text.
func extractKeyTerms(query string) []string {
	var terms []string
	for entity := range ExtractEntities(query) {
		terms = append(terms, entity)
	}
	terms = append(terms, datePatternRe.FindAllString(query, -1)...)
	terms = append(terms, numberPatternRe.FindAllString(query, -1)...)
	sort.Strings(terms)
	return terms
}

// embedSearchText embeds the assembled search text, treating any failure as
// "semantic search unavailable": logged, never propagated.
func (e *RetrievalEngine) embedSearchText(ctx context.Context, searchText string) []float32 {
	if e.embedder == nil {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, searchText)
	if err != nil {
		log.Printf("engine: query embedding unavailable, falling back to keyword search: %v", err)
		return nil
	}
	return vec
}

// baseSimilarity computes the externally supplied similarity input for the
// scorer: cosine similarity against a cached per-memory embedding when
// available, else keyword-overlap ratio.
func (e *RetrievalEngine) baseSimilarity(ctx context.Context, queryVec []float32, searchKeywords map[string]bool, mem *types.MemoryRecord) float64 {
	if queryVec != nil {
		if memVec := e.memoryEmbedding(ctx, mem); memVec != nil {
			return embedding.NormalizedSimilarity(queryVec, memVec)
		}
	}
	return keywordOverlap(searchKeywords, ExtractKeywords(mem.Content))
}

// memoryEmbedding returns the memory's embedding from L1 cache, the
// persistent L2 cache, or by invoking the embedder (populating both caches).
func (e *RetrievalEngine) memoryEmbedding(ctx context.Context, mem *types.MemoryRecord) []float32 {
	if vec, ok := e.cache.Get(mem.ID); ok {
		return vec
	}

	if e.l2cache != nil {
		if vec, err := e.l2cache.GetEmbedding(ctx, mem.ID); err == nil && len(vec) > 0 {
			e.cache.Add(mem.ID, vec)
			return vec
		}
	}

	vec, err := e.embedder.Embed(ctx, mem.Content)
	if err != nil {
		log.Printf("engine: memory embedding failed for %s: %v", mem.ID, err)
		return nil
	}

	e.cache.Add(mem.ID, vec)
	if e.l2cache != nil {
		if err := e.l2cache.PutEmbedding(ctx, mem.ID, vec); err != nil {
			log.Printf("engine: failed to persist embedding for %s: %v", mem.ID, err)
		}
	}
	return vec
}

// applyPostBoosts folds the retrieval-stage boosts into the relevance score:
// very recent creation and heavy access, both small and bounded.
func (e *RetrievalEngine) applyPostBoosts(score float64, breakdown map[string]float64, mem *types.MemoryRecord) float64 {
	now := e.now()

	if now.Sub(mem.CreatedAt) < 24*time.Hour {
		score += e.cfg.FreshCreationBoost
		breakdown["fresh_creation"] = e.cfg.FreshCreationBoost
	}

	if mem.AccessCount > 1 {
		usage := math.Min(e.cfg.HighUsageBoostScale*math.Log(1+float64(mem.AccessCount)), e.cfg.HighUsageBoostMax)
		score += usage
		breakdown["high_usage"] = round4(usage)
	}

	if score > e.scorer.cfg.ScoreCeiling {
		score = e.scorer.cfg.ScoreCeiling
	}
	return score
}

// selectDiverse greedily selects the highest-scored results while capping
// each category at MaxPerCategory. If the cap leaves slots unfilled, the
// remaining highest-scored results fill them regardless of category.
func (e *RetrievalEngine) selectDiverse(scored []SearchResult, maxResults int) []SearchResult {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	selected := make([]SearchResult, 0, maxResults)
	perCategory := make(map[string]int)
	taken := make(map[string]bool)

	for _, r := range scored {
		if len(selected) >= maxResults {
			break
		}
		if perCategory[r.Memory.Category] >= e.cfg.MaxPerCategory {
			continue
		}
		perCategory[r.Memory.Category]++
		taken[r.Memory.ID] = true
		selected = append(selected, r)
	}

	// Fallback fill: diversity alone couldn't reach the quota.
	for _, r := range scored {
		if len(selected) >= maxResults {
			break
		}
		if taken[r.Memory.ID] {
			continue
		}
		taken[r.Memory.ID] = true
		selected = append(selected, r)
	}

	return selected
}
