package types

import (
	"errors"
	"testing"
	"time"
)

func TestValidateImportanceBounds(t *testing.T) {
	for _, v := range []int{1, 5, 10} {
		if err := ValidateImportance(v); err != nil {
			t.Errorf("ValidateImportance(%d): unexpected error %v", v, err)
		}
	}
	for _, v := range []int{0, -1, 11} {
		if err := ValidateImportance(v); err == nil {
			t.Errorf("ValidateImportance(%d): expected error", v)
		}
	}
}

func TestValidateConfidenceBounds(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if err := ValidateConfidence(v); err != nil {
			t.Errorf("ValidateConfidence(%v): unexpected error %v", v, err)
		}
	}
	for _, v := range []float64{-0.01, 1.01} {
		if err := ValidateConfidence(v); err == nil {
			t.Errorf("ValidateConfidence(%v): expected error", v)
		}
	}
}

func TestValidateContexts(t *testing.T) {
	if err := ValidateContexts(map[string]float64{"work": 0.5, "home": 1.0}); err != nil {
		t.Errorf("valid contexts rejected: %v", err)
	}
	if err := ValidateContexts(map[string]float64{"work": 1.5}); err == nil {
		t.Error("out-of-range context relevance accepted")
	}
	if err := ValidateContexts(nil); err != nil {
		t.Errorf("nil contexts rejected: %v", err)
	}
}

func TestMemoryValidate(t *testing.T) {
	m := &MemoryRecord{
		Content:    "something worth keeping",
		Category:   CategoryFact,
		Source:     SourceSystem,
		Importance: 5,
		Confidence: 0.5,
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	m.Importance = 11
	err := m.Validate()
	if err == nil {
		t.Fatal("invalid importance accepted")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type: got %T, want *ValidationError", err)
	}
	if verr.Field != "importance" {
		t.Errorf("ValidationError.Field: got %q, want importance", verr.Field)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()

	m := &MemoryRecord{}
	if m.Expired(now) {
		t.Error("record without expiry reported expired")
	}

	past := now.Add(-time.Second)
	m.ExpiresAt = &past
	if !m.Expired(now) {
		t.Error("past expiry not reported expired")
	}

	future := now.Add(time.Hour)
	m.ExpiresAt = &future
	if m.Expired(now) {
		t.Error("future expiry reported expired")
	}
}
