package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned when the embedding provider is failing and the
// circuit is open. Callers treat it as "semantic search unavailable" and
// fall back to keyword search; it is never surfaced to end callers.
var ErrUnavailable = errors.New("embedding provider unavailable")

// BreakerConfig holds the circuit breaker tuning for the embedder wrapper.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that trips the circuit.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing probes.
	Timeout time.Duration

	// HalfOpenMaxRequests is the number of probe requests allowed half-open.
	HalfOpenMaxRequests uint32
}

// DefaultBreakerConfig trips after 3 consecutive failures and retries after
// 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:         3,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}
}

// BreakerEmbedder wraps an Embedder with a circuit breaker so a failing
// embedding service degrades to ErrUnavailable quickly instead of stalling
// every retrieval on a slow external call.
type BreakerEmbedder struct {
	inner   Embedder
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerEmbedder wraps inner with the given breaker configuration. A
// zero config is replaced by DefaultBreakerConfig.
func NewBreakerEmbedder(inner Embedder, cfg BreakerConfig) *BreakerEmbedder {
	if cfg.MaxFailures == 0 {
		cfg = DefaultBreakerConfig()
	}
	settings := gobreaker.Settings{
		Name:        "EmbeddingCircuitBreaker",
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}
	return &BreakerEmbedder{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Embed runs the wrapped embedder through the circuit breaker. When the
// circuit is open the call fails fast with ErrUnavailable.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return b.inner.Embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return result.([]float32), nil
}

// Dims returns the wrapped embedder's dimension.
func (b *BreakerEmbedder) Dims() int { return b.inner.Dims() }

// State returns the breaker state: "closed", "open", or "half-open".
func (b *BreakerEmbedder) State() string {
	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
