package engine

import (
	"testing"
	"time"

	"github.com/minerva-ai/minerva/pkg/types"
)

// fixedNow pins scorer time so recency boosts are deterministic.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestScorer() *RelevanceScorer {
	s := NewRelevanceScorer(DefaultScorerConfig())
	s.now = func() time.Time { return fixedNow }
	return s
}

// oldMemory returns a record old and stale enough that no recency boost
// applies unless a test opts in.
func oldMemory(content string) *types.MemoryRecord {
	return &types.MemoryRecord{
		ID:           "mem:test",
		Content:      content,
		Category:     types.CategoryGeneral,
		Source:       "unknown",
		Importance:   5,
		Confidence:   0.5,
		CreatedAt:    fixedNow.Add(-90 * 24 * time.Hour),
		LastAccessed: fixedNow.Add(-30 * 24 * time.Hour),
	}
}

func TestScoreBaseOnlyForNeutralMemory(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("completely unrelated text about gardening")

	score, breakdown := scorer.Score(0.4, mem, "zzz qqq", nil)
	if score != 0.4 {
		t.Errorf("score: got %v, want 0.4 (no boosts should apply)", score)
	}
	if len(breakdown) != 1 {
		t.Errorf("breakdown: got %v, want only base_similarity", breakdown)
	}
	if breakdown[BoostBase] != 0.4 {
		t.Errorf("base_similarity: got %v, want 0.4", breakdown[BoostBase])
	}
}

func TestScoreCategoryAlignment(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("gardening notes")
	mem.Category = types.CategoryPreference

	// Three preference patterns in the query, step 0.15, capped at 0.30.
	_, breakdown := scorer.Score(0, mem, "what would you prefer or like or enjoy", nil)
	if breakdown[BoostCategory] != 0.30 {
		t.Errorf("category_alignment: got %v, want cap 0.30", breakdown[BoostCategory])
	}

	// One pattern stays below the cap.
	_, breakdown = scorer.Score(0, mem, "things to like", nil)
	if breakdown[BoostCategory] != 0.15 {
		t.Errorf("category_alignment: got %v, want 0.15", breakdown[BoostCategory])
	}
}

func TestScoreKeywordOverlapBoost(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("drinks espresso every morning")

	// Both query keywords appear in the memory: full 0.30 boost.
	_, breakdown := scorer.Score(0, mem, "espresso morning", nil)
	if breakdown[BoostKeywordOverlap] != 0.30 {
		t.Errorf("keyword_overlap: got %v, want 0.30", breakdown[BoostKeywordOverlap])
	}
}

func TestScoreConfidenceBoost(t *testing.T) {
	scorer := newTestScorer()

	mem := oldMemory("confident memory")
	mem.Confidence = 1.0
	_, breakdown := scorer.Score(0, mem, "zzz", nil)
	if breakdown[BoostConfidence] != 0.15 {
		t.Errorf("confidence at 1.0: got %v, want 0.15", breakdown[BoostConfidence])
	}

	mem.Confidence = 0.75
	_, breakdown = scorer.Score(0, mem, "zzz", nil)
	if breakdown[BoostConfidence] != 0.075 {
		t.Errorf("confidence at 0.75: got %v, want 0.075", breakdown[BoostConfidence])
	}

	// At or below the 0.5 midpoint there is no boost.
	mem.Confidence = 0.5
	_, breakdown = scorer.Score(0, mem, "zzz", nil)
	if _, ok := breakdown[BoostConfidence]; ok {
		t.Errorf("confidence at 0.5: got %v, want absent", breakdown[BoostConfidence])
	}
}

func TestScoreSourceBonusGatesAutoCapture(t *testing.T) {
	scorer := newTestScorer()

	mem := oldMemory("explicitly stated memory")
	mem.Source = types.SourceUserExplicit
	_, breakdown := scorer.Score(0, mem, "zzz", nil)
	if breakdown[BoostSource] != 0.25 {
		t.Errorf("user_explicit bonus: got %v, want 0.25", breakdown[BoostSource])
	}

	// conversation_auto only earns its bonus above the confidence gate.
	mem.Source = types.SourceConversationAuto
	mem.Confidence = 0.5
	_, breakdown = scorer.Score(0, mem, "zzz", nil)
	if _, ok := breakdown[BoostSource]; ok {
		t.Errorf("low-confidence auto bonus: got %v, want absent", breakdown[BoostSource])
	}

	mem.Confidence = 0.9
	_, breakdown = scorer.Score(0, mem, "zzz", nil)
	if breakdown[BoostSource] != 0.10 {
		t.Errorf("high-confidence auto bonus: got %v, want 0.10", breakdown[BoostSource])
	}
}

func TestScoreAccessRecencyTiers(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("recently used memory")

	cases := []struct {
		age  time.Duration
		want float64
	}{
		{30 * time.Minute, 0.20},
		{12 * time.Hour, 0.15},
		{96 * time.Hour, 0.05}, // halfway through the 24h..168h decay
		{200 * time.Hour, 0},
	}
	for _, tc := range cases {
		mem.LastAccessed = fixedNow.Add(-tc.age)
		_, breakdown := scorer.Score(0, mem, "zzz", nil)
		if got := breakdown[BoostAccessRecency]; got != tc.want {
			t.Errorf("access_recency at age %v: got %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestScoreEntityBoost(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("Works with Alice and Bob on the compiler team")

	_, breakdown := scorer.Score(0, mem, "who is Alice", nil)
	if breakdown[BoostEntities] != 0.20 {
		t.Errorf("entity_match for one entity: got %v, want 0.20", breakdown[BoostEntities])
	}

	_, breakdown = scorer.Score(0, mem, "tell me about Alice and Bob", nil)
	if breakdown[BoostEntities] != 0.30 {
		t.Errorf("entity_match for two entities: got %v, want cap 0.30", breakdown[BoostEntities])
	}
}

func TestScoreContextOverlap(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("prefers window seats on long flights")

	topics := map[string]bool{"flights": true, "hotels": true}
	_, breakdown := scorer.Score(0, mem, "zzz", topics)
	if breakdown[BoostContextOverlap] != 0.125 {
		t.Errorf("context_overlap at half match: got %v, want 0.125", breakdown[BoostContextOverlap])
	}
}

func TestScoreClampedBelowOne(t *testing.T) {
	scorer := newTestScorer()

	// Stack every boost on top of a high base similarity.
	mem := &types.MemoryRecord{
		ID:           "mem:max",
		Content:      "User prefers dark roast coffee from Blue Bottle",
		Category:     types.CategoryPreference,
		Source:       types.SourceUserExplicit,
		Importance:   10,
		Confidence:   1.0,
		Tags:         []string{"coffee", "roast", "morning"},
		AccessCount:  50,
		CreatedAt:    fixedNow.Add(-time.Hour),
		LastAccessed: fixedNow.Add(-10 * time.Minute),
	}

	score, _ := scorer.Score(0.95, mem, "what coffee do I like and prefer from Blue Bottle", nil)
	if score != 0.99 {
		t.Errorf("stacked score: got %v, want ceiling 0.99", score)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	scorer := newTestScorer()
	mem := oldMemory("anything")

	score, _ := scorer.Score(-0.2, mem, "zzz", nil)
	if score != 0 {
		t.Errorf("negative base: got %v, want clamp to 0", score)
	}
}

func TestScoreBoostsAreMonotonic(t *testing.T) {
	scorer := newTestScorer()
	plain := oldMemory("user enjoys hiking in the mountains")
	boosted := oldMemory("user enjoys hiking in the mountains near Tahoe")
	boosted.Source = types.SourceUserExplicit
	boosted.Confidence = 0.95

	plainScore, _ := scorer.Score(0.5, plain, "does the user enjoy hiking", nil)
	boostedScore, _ := scorer.Score(0.5, boosted, "does the user enjoy hiking", nil)
	if boostedScore <= plainScore {
		t.Errorf("boosted memory scored %v, plain %v; want strictly higher", boostedScore, plainScore)
	}
}
