// Package storage provides composable storage interfaces for the Minerva
// memory engine.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed, so backends (SQLite,
// PostgreSQL) stay interchangeable behind the same contracts.
package storage

import (
	"context"

	"github.com/minerva-ai/minerva/pkg/types"
)

// MemoryStore is the durable table of memory records with hash-based
// deduplication, structural search, and access accounting.
type MemoryStore interface {
	// Add creates a memory or, when content with the same normalized hash
	// already exists, increments the existing record's access count,
	// refreshes its last-accessed time, and returns it. Duplicate content
	// is never an error and never overwrites the canonical record.
	Add(ctx context.Context, params AddParams) (*types.MemoryRecord, error)

	// GetByID retrieves a memory by ID. A successful read counts as an
	// access: it increments access_count and refreshes last_accessed.
	// Returns ErrNotFound if the memory doesn't exist.
	GetByID(ctx context.Context, id string) (*types.MemoryRecord, error)

	// Search filters memories by structural predicates only. Textual
	// relevance of filter.Query is the caller's concern; this method does
	// not rank. Expired records are excluded unless IncludeExpired is set.
	Search(ctx context.Context, filter SearchFilter) ([]*types.MemoryRecord, error)

	// Update modifies only the provided fields. A content change recomputes
	// and stores a new hash. last_accessed is always refreshed.
	// Returns ErrNotFound if the memory doesn't exist.
	Update(ctx context.Context, id string, fields UpdateFields) (*types.MemoryRecord, error)

	// Delete removes a memory by ID, cascading its tag, metadata, and
	// context associations atomically. Returns true if a record existed.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteByQuery deletes memories whose content matches query, optionally
	// restricted to a category. With exactMatch, only normalized-content
	// equality counts; otherwise normalized substring containment.
	// Returns the number of deleted records.
	DeleteByQuery(ctx context.Context, query, category string, exactMatch bool) (int, error)

	// UpdateAccessStats increments access_count and refreshes last_accessed
	// for every given ID in a single transaction.
	UpdateAccessStats(ctx context.Context, ids []string) error

	// ExportAll returns every record, expired included, for snapshots.
	ExportAll(ctx context.Context) ([]*types.MemoryRecord, error)

	// Import inserts records from a snapshot, preserving their IDs and
	// stats. Records whose content hash already exists are skipped.
	// Returns the number of imported records.
	Import(ctx context.Context, records []*types.MemoryRecord) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// EmbeddingCache is an optional persistent cache of per-memory embedding
// vectors. Stores that support it are discovered by type assertion; the
// retrieval engine works without it.
type EmbeddingCache interface {
	// PutEmbedding stores the embedding vector for a memory ID.
	PutEmbedding(ctx context.Context, memoryID string, vector []float32) error

	// GetEmbedding returns the cached vector, or (nil, nil) on a miss.
	GetEmbedding(ctx context.Context, memoryID string) ([]float32, error)

	// DeleteEmbedding drops the cached vector for a memory ID. Deleting a
	// missing entry is not an error.
	DeleteEmbedding(ctx context.Context, memoryID string) error
}

// ImportanceSuggester proposes a default importance for new memories when
// the caller omits one. Implemented by the engine's PriorityRanker.
type ImportanceSuggester interface {
	SuggestImportance(content, source, category string) int
}
