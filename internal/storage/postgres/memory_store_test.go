package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueHashViolation(t *testing.T) {
	base := &pq.Error{Code: "23505", Constraint: "memories_content_hash_key"}

	if !isUniqueHashViolation(base) {
		t.Error("bare unique violation not detected")
	}
	// insertRecord wraps driver errors, so detection must unwrap.
	if !isUniqueHashViolation(fmt.Errorf("postgres: insert failed: %w", base)) {
		t.Error("wrapped unique violation not detected")
	}
	if isUniqueHashViolation(&pq.Error{Code: "23505", Constraint: "memory_tags_pkey"}) {
		t.Error("unrelated constraint reported as a content hash violation")
	}
	if isUniqueHashViolation(errors.New("pq: duplicate key value")) {
		t.Error("plain error reported as a unique violation")
	}
}
