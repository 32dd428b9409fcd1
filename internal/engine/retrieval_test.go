package engine

import (
	"context"
	"testing"
	"time"

	"github.com/minerva-ai/minerva/internal/embedding"
	"github.com/minerva-ai/minerva/internal/storage"
	"github.com/minerva-ai/minerva/pkg/types"
)

// fakeStore serves a fixed candidate set and records access accounting calls.
type fakeStore struct {
	candidates  []*types.MemoryRecord
	bumpedIDs   []string
	bumpBatches int
}

func (f *fakeStore) Add(ctx context.Context, params storage.AddParams) (*types.MemoryRecord, error) {
	return nil, storage.ErrInvalidInput
}
func (f *fakeStore) GetByID(ctx context.Context, id string) (*types.MemoryRecord, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeStore) Search(ctx context.Context, filter storage.SearchFilter) ([]*types.MemoryRecord, error) {
	return f.candidates, nil
}
func (f *fakeStore) Update(ctx context.Context, id string, fields storage.UpdateFields) (*types.MemoryRecord, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeStore) Delete(ctx context.Context, id string) (bool, error) { return false, nil }
func (f *fakeStore) DeleteByQuery(ctx context.Context, query, category string, exactMatch bool) (int, error) {
	return 0, nil
}
func (f *fakeStore) UpdateAccessStats(ctx context.Context, ids []string) error {
	f.bumpedIDs = append(f.bumpedIDs, ids...)
	f.bumpBatches++
	return nil
}
func (f *fakeStore) ExportAll(ctx context.Context) ([]*types.MemoryRecord, error) {
	return f.candidates, nil
}
func (f *fakeStore) Import(ctx context.Context, records []*types.MemoryRecord) (int, error) {
	return 0, nil
}
func (f *fakeStore) Close() error { return nil }

// cachingStore additionally implements the persistent embedding cache.
type cachingStore struct {
	fakeStore
	vectors map[string][]float32
	puts    int
	gets    int
}

func (c *cachingStore) PutEmbedding(ctx context.Context, memoryID string, vector []float32) error {
	if c.vectors == nil {
		c.vectors = make(map[string][]float32)
	}
	c.vectors[memoryID] = vector
	c.puts++
	return nil
}
func (c *cachingStore) GetEmbedding(ctx context.Context, memoryID string) ([]float32, error) {
	c.gets++
	return c.vectors[memoryID], nil
}
func (c *cachingStore) DeleteEmbedding(ctx context.Context, memoryID string) error {
	delete(c.vectors, memoryID)
	return nil
}

func testMemory(id, content, category string) *types.MemoryRecord {
	return &types.MemoryRecord{
		ID:           id,
		Content:      content,
		Category:     category,
		Source:       types.SourceSystem,
		Importance:   5,
		Confidence:   0.5,
		CreatedAt:    fixedNow.Add(-90 * 24 * time.Hour),
		LastAccessed: fixedNow.Add(-30 * 24 * time.Hour),
	}
}

func newTestEngine(store storage.MemoryStore, embedder embedding.Embedder) *RetrievalEngine {
	scorer := NewRelevanceScorer(DefaultScorerConfig())
	scorer.now = func() time.Time { return fixedNow }
	e := NewRetrievalEngine(store, scorer, embedder, DefaultRetrievalConfig())
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestSearchKeywordFallbackWithoutEmbedder(t *testing.T) {
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:1", "user loves sushi and ramen", types.CategoryPreference),
		testMemory("mem:2", "the car needs an oil change", types.CategoryFact),
	}}
	e := newTestEngine(store, nil)

	results, err := e.Search(context.Background(), "What do I like for food?", SearchRequest{})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() returned nothing")
	}
	if results[0].Memory.ID != "mem:1" {
		t.Errorf("top result: got %s, want mem:1 (food preference)", results[0].Memory.ID)
	}
	if results[0].Breakdown == nil {
		t.Fatal("top result has no score breakdown")
	}
	if _, ok := results[0].Breakdown[BoostBase]; !ok {
		t.Error("breakdown missing base_similarity")
	}
}

func TestSearchEmptyInputsReturnEmpty(t *testing.T) {
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:1", "anything", types.CategoryGeneral),
	}}
	e := newTestEngine(store, nil)

	results, err := e.Search(context.Background(), "", SearchRequest{})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty search: got %d results, want 0", len(results))
	}
	if store.bumpBatches != 0 {
		t.Error("empty search still updated access stats")
	}
}

func TestSearchEmptyQueryUsesContext(t *testing.T) {
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:1", "prefers the window seat on flights", types.CategoryPreference),
	}}
	e := newTestEngine(store, nil)

	results, err := e.Search(context.Background(), "", SearchRequest{
		Context: "booking flights for the conference",
	})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("context-only search: got %d results, want 1", len(results))
	}
}

func TestSearchDiversityCapPerCategory(t *testing.T) {
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:p1", "likes sushi food", types.CategoryPreference),
		testMemory("mem:p2", "likes ramen food", types.CategoryPreference),
		testMemory("mem:p3", "likes pizza food", types.CategoryPreference),
		testMemory("mem:f1", "sushi food restaurant is on Main Street", types.CategoryFact),
	}}
	e := newTestEngine(store, nil)

	results, err := e.Search(context.Background(), "sushi ramen pizza food", SearchRequest{MaxResults: 3})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	perCategory := map[string]int{}
	for _, r := range results {
		perCategory[r.Memory.Category]++
	}
	if perCategory[types.CategoryPreference] != 2 {
		t.Errorf("preference count: got %d, want capped at 2", perCategory[types.CategoryPreference])
	}
	if perCategory[types.CategoryFact] != 1 {
		t.Errorf("fact count: got %d, want 1 (diversity slot)", perCategory[types.CategoryFact])
	}
}

func TestSearchDiversityFallbackFill(t *testing.T) {
	// Only one category exists: the cap would leave slots empty, so the
	// fallback fills them with same-category results.
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:p1", "likes sushi food", types.CategoryPreference),
		testMemory("mem:p2", "likes ramen food", types.CategoryPreference),
		testMemory("mem:p3", "likes pizza food", types.CategoryPreference),
	}}
	e := newTestEngine(store, nil)

	results, err := e.Search(context.Background(), "sushi ramen pizza food", SearchRequest{MaxResults: 3})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("fallback fill: got %d results, want 3", len(results))
	}
}

func TestSearchBatchesAccessAccounting(t *testing.T) {
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:1", "likes sushi food", types.CategoryPreference),
		testMemory("mem:2", "sushi restaurant downtown", types.CategoryFact),
	}}
	e := newTestEngine(store, nil)

	results, err := e.Search(context.Background(), "sushi", SearchRequest{})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if store.bumpBatches != 1 {
		t.Errorf("access stat batches: got %d, want exactly 1", store.bumpBatches)
	}
	if len(store.bumpedIDs) != 2 {
		t.Errorf("bumped IDs: got %v, want both results", store.bumpedIDs)
	}
	// The returned records reflect the bump without a re-read.
	for _, r := range results {
		if r.Memory.AccessCount != 1 {
			t.Errorf("%s AccessCount: got %d, want 1", r.Memory.ID, r.Memory.AccessCount)
		}
		if !r.Memory.LastAccessed.Equal(fixedNow) {
			t.Errorf("%s LastAccessed not refreshed", r.Memory.ID)
		}
	}
}

func TestSearchEmbedderFailureFallsBack(t *testing.T) {
	store := &fakeStore{candidates: []*types.MemoryRecord{
		testMemory("mem:1", "user loves sushi", types.CategoryPreference),
	}}
	e := newTestEngine(store, failingEmbedder{})

	results, err := e.Search(context.Background(), "sushi", SearchRequest{})
	if err != nil {
		t.Fatalf("Search() with failing embedder errored: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("fallback search: got %d results, want 1", len(results))
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, embedding.ErrUnavailable
}
func (failingEmbedder) Dims() int { return 0 }

func TestSearchPersistsEmbeddingsToStoreCache(t *testing.T) {
	store := &cachingStore{}
	store.candidates = []*types.MemoryRecord{
		testMemory("mem:1", "user loves sushi", types.CategoryPreference),
	}
	e := newTestEngine(store, embedding.NewLocalEmbedder())

	if _, err := e.Search(context.Background(), "sushi", SearchRequest{}); err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if store.puts != 1 {
		t.Errorf("embedding persisted %d times, want 1", store.puts)
	}

	// A fresh engine hits the persistent cache instead of re-embedding.
	e2 := newTestEngine(store, embedding.NewLocalEmbedder())
	if _, err := e2.Search(context.Background(), "sushi", SearchRequest{}); err != nil {
		t.Fatalf("second Search() failed: %v", err)
	}
	if store.puts != 1 {
		t.Errorf("embedding re-persisted; puts = %d, want still 1", store.puts)
	}
}

func TestInvalidateEmbeddingEvictsBothLevels(t *testing.T) {
	store := &cachingStore{}
	store.candidates = []*types.MemoryRecord{
		testMemory("mem:1", "user loves sushi", types.CategoryPreference),
	}
	e := newTestEngine(store, embedding.NewLocalEmbedder())

	if _, err := e.Search(context.Background(), "sushi", SearchRequest{}); err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(store.vectors) != 1 {
		t.Fatalf("expected one persisted vector, got %d", len(store.vectors))
	}

	e.InvalidateEmbedding(context.Background(), "mem:1")
	if _, ok := store.vectors["mem:1"]; ok {
		t.Error("persistent vector not evicted")
	}
	if _, ok := e.cache.Get("mem:1"); ok {
		t.Error("in-process vector not evicted")
	}
}

func TestExpandQuery(t *testing.T) {
	e := newTestEngine(&fakeStore{}, nil)

	expanded := e.expandQuery("What do I like to eat?")
	for _, want := range []string{"enjoy", "love", "prefer", "food", "meal", "favorite"} {
		if !containsWord(expanded, want) {
			t.Errorf("expansion missing %q: %q", want, expanded)
		}
	}
}

func TestExtractKeyTerms(t *testing.T) {
	terms := extractKeyTerms("Meet Alice on 2024-03-01 at gate 42")

	want := map[string]bool{"Alice": true, "Meet": true, "2024-03-01": true, "42": true}
	for _, term := range terms {
		delete(want, term)
	}
	if len(want) != 0 {
		t.Errorf("extractKeyTerms missing %v from %v", want, terms)
	}
}

func TestAssembleContextFoldsRecentHistory(t *testing.T) {
	e := newTestEngine(&fakeStore{}, nil)

	history := []string{"turn1 oldest", "turn2", "turn3", "turn4", "turn5", "turn6 newest"}
	text, topics := e.assembleContext(SearchRequest{History: history})

	if containsWord(text, "turn1") {
		t.Error("history older than the turn window was folded in")
	}
	if !topics["turn6"] || !topics["newest"] {
		t.Errorf("topics missing newest turn keywords: %v", topics)
	}
}

func TestAssembleContextWeightsOlderTurnsLess(t *testing.T) {
	e := newTestEngine(&fakeStore{}, nil)

	history := []string{
		"alpha bravo charlie delta",
		"filler2", "filler3", "filler4",
		"omega latest",
	}
	text, topics := e.assembleContext(SearchRequest{History: history})

	// The oldest in-window turn sits at distance 4, weight 0.3, so only
	// ceil(0.3*4) = 2 of its four significant words survive.
	if !containsWord(text, "alpha") || !containsWord(text, "bravo") {
		t.Errorf("oldest turn lost its weighted share: %q", text)
	}
	if containsWord(text, "charlie") || containsWord(text, "delta") {
		t.Errorf("oldest turn folded at full weight: %q", text)
	}
	if !topics["omega"] || !topics["latest"] {
		t.Errorf("latest turn missing from topics: %v", topics)
	}
}

func TestAssembleContextDropsZeroWeightTurns(t *testing.T) {
	cfg := DefaultRetrievalConfig()
	cfg.HistoryTurns = 8
	scorer := NewRelevanceScorer(DefaultScorerConfig())
	e := NewRetrievalEngine(&fakeStore{}, scorer, nil, cfg)

	// Distance 6 gives weight 1.0 - 0.175*6 < 0: the turn is dropped even
	// though it is inside the configured window.
	history := []string{
		"ancient forgotten",
		"filler2", "filler3", "filler4", "filler5", "filler6",
		"recent topic",
	}
	text, _ := e.assembleContext(SearchRequest{History: history})

	if containsWord(text, "ancient") {
		t.Errorf("zero-weight turn was folded in: %q", text)
	}
	if !containsWord(text, "recent") {
		t.Errorf("recent turn missing: %q", text)
	}
}
