package types

import (
	"fmt"
	"time"
)

// MemoryRecord is a single memory unit. Records are the atomic units of
// storage: free-text content plus provenance, scoring signals, and
// open-ended associations (tags, contexts, metadata).
//
// The JSON field names below are also the persisted snapshot format: a
// snapshot is one JSON object per record with exactly these fields, and
// must round-trip losslessly.
type MemoryRecord struct {
	// ID is an opaque unique identifier, assigned at creation, immutable.
	ID string `json:"id"`

	// Content is the free-text body of the memory.
	Content string `json:"content"`

	// ContentHash is derived from Content (lowercased, whitespace
	// collapsed, hashed) and carries a uniqueness constraint: two records
	// must never share a hash. It is the sole deduplication key.
	ContentHash string `json:"content_hash"`

	// Category classifies the memory (preference, fact, instruction, ...).
	Category string `json:"category"`

	// Source is the provenance tag (user_explicit, conversation_auto, ...).
	Source string `json:"source"`

	// Importance is an integer in [1,10], validated at write time.
	Importance int `json:"importance"`

	// Confidence is a float in [0.0,1.0] reflecting extraction certainty.
	Confidence float64 `json:"confidence"`

	// Tags are user- or extractor-supplied labels. Order is preserved for
	// display; matching ignores order.
	Tags []string `json:"tags,omitempty"`

	// Contexts maps a context reference (e.g. "conversation_about_ai") to
	// a relevance score in [0.0,1.0].
	Contexts map[string]float64 `json:"contexts,omitempty"`

	// Metadata is an open string-keyed bag for extension fields.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`

	// AccessCount is monotonically non-decreasing; creation counts as the
	// first access, and each retrieval returned to a caller adds one.
	AccessCount int `json:"access_count"`

	// ExpiresAt, when set and past, excludes the record from normal
	// retrieval. Expiry is a filter, not a deletion.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the record's expiry time has passed at now.
func (m *MemoryRecord) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.IsZero() && m.ExpiresAt.Before(now)
}

// ValidationError describes a rejected field write: which field and which
// constraint was violated. It is surfaced synchronously at add/update and
// aborts the operation with no partial write.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Constraint)
}

// ValidateImportance enforces the [1,10] importance invariant.
func ValidateImportance(importance int) error {
	if importance < MinImportance || importance > MaxImportance {
		return &ValidationError{
			Field:      "importance",
			Constraint: fmt.Sprintf("must be between %d and %d, got %d", MinImportance, MaxImportance, importance),
		}
	}
	return nil
}

// ValidateConfidence enforces the [0.0,1.0] confidence invariant.
func ValidateConfidence(confidence float64) error {
	if confidence < 0.0 || confidence > 1.0 {
		return &ValidationError{
			Field:      "confidence",
			Constraint: fmt.Sprintf("must be between 0.0 and 1.0, got %g", confidence),
		}
	}
	return nil
}

// ValidateContexts enforces the [0.0,1.0] bound on every context relevance.
func ValidateContexts(contexts map[string]float64) error {
	for ref, rel := range contexts {
		if rel < 0.0 || rel > 1.0 {
			return &ValidationError{
				Field:      "contexts",
				Constraint: fmt.Sprintf("relevance for %q must be between 0.0 and 1.0, got %g", ref, rel),
			}
		}
	}
	return nil
}

// Validate checks all write-time invariants on the record.
func (m *MemoryRecord) Validate() error {
	if m.Content == "" {
		return &ValidationError{Field: "content", Constraint: "must not be empty"}
	}
	if err := ValidateImportance(m.Importance); err != nil {
		return err
	}
	if err := ValidateConfidence(m.Confidence); err != nil {
		return err
	}
	return ValidateContexts(m.Contexts)
}
