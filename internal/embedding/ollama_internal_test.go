package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOllamaEmbedderOwnsItsLimiter(t *testing.T) {
	a := NewOllamaEmbedder("", "")
	b := NewOllamaEmbedder("", "")

	assert.NotSame(t, a.limiter, b.limiter)
}
