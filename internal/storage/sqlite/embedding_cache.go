package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// PutEmbedding persists a vector for the memory. An existing vector is
// overwritten.
func (s *MemoryStore) PutEmbedding(ctx context.Context, memoryID string, vector []float32) error {
	if memoryID == "" || len(vector) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_embeddings (memory_id, embedding, dimension, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(memory_id) DO UPDATE SET
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			updated_at = excluded.updated_at`,
		memoryID, encodeVector(vector), len(vector), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to store embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the cached vector, or (nil, nil) on a miss.
func (s *MemoryStore) GetEmbedding(ctx context.Context, memoryID string) ([]float32, error) {
	var dims int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT dimension, embedding FROM memory_embeddings WHERE memory_id = ?", memoryID,
	).Scan(&dims, &blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load embedding: %w", err)
	}
	vector, err := decodeVector(blob, dims)
	if err != nil {
		return nil, fmt.Errorf("sqlite: corrupt embedding for %s: %w", memoryID, err)
	}
	return vector, nil
}

// DeleteEmbedding drops the cached vector for the memory, if any.
func (s *MemoryStore) DeleteEmbedding(ctx context.Context, memoryID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM memory_embeddings WHERE memory_id = ?", memoryID,
	); err != nil {
		return fmt.Errorf("sqlite: failed to delete embedding: %w", err)
	}
	return nil
}

// encodeVector packs float32 values little-endian.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dims int) ([]float32, error) {
	if len(blob) != 4*dims {
		return nil, fmt.Errorf("expected %d bytes, got %d", 4*dims, len(blob))
	}
	vector := make([]float32, dims)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
