package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/minerva-ai/minerva/pkg/types"
)

// WriteSnapshot exports every record in the store to path as a JSON array,
// one object per memory with exactly the MemoryRecord fields. The file is
// written atomically via a temp file rename.
func WriteSnapshot(ctx context.Context, store MemoryStore, path string) (int, error) {
	records, err := store.ExportAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot: export failed: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("snapshot: marshal failed: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return 0, fmt.Errorf("snapshot: write failed: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("snapshot: rename failed: %w", err)
	}
	return len(records), nil
}

// ReadSnapshot loads records from a snapshot file. It does not touch any
// store; pair with MemoryStore.Import.
func ReadSnapshot(path string) ([]*types.MemoryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read failed: %w", err)
	}
	var records []*types.MemoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal failed: %w", err)
	}
	return records, nil
}

// RestoreSnapshot reads the snapshot at path and imports it into store.
// Returns the number of imported records (duplicates are skipped by Import).
func RestoreSnapshot(ctx context.Context, store MemoryStore, path string) (int, error) {
	records, err := ReadSnapshot(path)
	if err != nil {
		return 0, err
	}
	return store.Import(ctx, records)
}
