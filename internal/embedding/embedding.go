// Package embedding provides a pluggable interface for text embedding
// providers. The retrieval engine treats embedding as an opaque, potentially
// slow external call: failures are soft and trigger a keyword fallback, never
// a fatal error.
package embedding

import (
	"context"
	"math"
)

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dims() int
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 0 if either vector has zero magnitude or lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizedSimilarity renormalizes cosine similarity from [-1,1] into
// [0,1], the range the relevance scorer expects for base similarity.
func NormalizedSimilarity(a, b []float32) float64 {
	return (CosineSimilarity(a, b) + 1) / 2
}
