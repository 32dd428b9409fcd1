// Package hasher normalizes and hashes memory content for deduplication.
// The hash is the sole dedup key: two contents differing only by case or
// extra whitespace are considered identical.
package hasher

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize canonicalizes content: whitespace runs collapse to single spaces
// and the result is lowercased.
func Normalize(content string) string {
	return strings.ToLower(strings.Join(strings.Fields(content), " "))
}

// Hash returns the deduplication key for content: the SHA-256 hex digest of
// its normalized form. The same normalized text always
// yields the same hash.
func Hash(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(Normalize(content))))
}
