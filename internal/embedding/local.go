package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// localDims is the dimension of locally hashed vectors.
const localDims = 128

// LocalEmbedder is a deterministic, dependency-free embedder that hashes
// token n-grams into a fixed-size vector. It is no substitute for a real
// embedding model, but it gives offline installs and tests a stable,
// order-insensitive text signature with meaningful cosine overlap.
type LocalEmbedder struct{}

// NewLocalEmbedder returns the hash-based local embedder.
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{}
}

// Embed maps each lowercase token (and token bigram) to vector buckets via
// SHA-256. Identical texts always produce identical vectors.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, localDims)
	tokens := strings.Fields(strings.ToLower(text))
	for i, tok := range tokens {
		addToken(vec, tok, 1.0)
		if i+1 < len(tokens) {
			addToken(vec, tok+" "+tokens[i+1], 0.5)
		}
	}
	return vec, nil
}

// Dims returns the local vector dimension.
func (e *LocalEmbedder) Dims() int { return localDims }

func addToken(vec []float32, token string, weight float32) {
	sum := sha256.Sum256([]byte(token))
	bucket := binary.LittleEndian.Uint32(sum[:4]) % localDims
	sign := float32(1)
	if sum[4]&1 == 1 {
		sign = -1
	}
	vec[bucket] += sign * weight
}
