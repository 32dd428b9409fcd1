package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/minerva-ai/minerva/internal/storage"
	"github.com/minerva-ai/minerva/internal/storage/sqlite"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()

	src, err := sqlite.NewMemoryStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create source store: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	for _, content := range []string{
		"drinks tea in the afternoon",
		"team standup is at 9:30",
	} {
		if _, err := src.Add(ctx, storage.AddParams{Content: content}); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	written, err := storage.WriteSnapshot(ctx, src, path)
	if err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	if written != 2 {
		t.Fatalf("WriteSnapshot(): got %d, want 2", written)
	}

	records, err := storage.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ReadSnapshot(): got %d records, want 2", len(records))
	}

	dst, err := sqlite.NewMemoryStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create destination store: %v", err)
	}
	t.Cleanup(func() { _ = dst.Close() })

	restored, err := storage.RestoreSnapshot(ctx, dst, path)
	if err != nil {
		t.Fatalf("RestoreSnapshot() failed: %v", err)
	}
	if restored != 2 {
		t.Errorf("RestoreSnapshot(): got %d, want 2", restored)
	}

	// A second restore is a no-op thanks to hash deduplication.
	restored, err = storage.RestoreSnapshot(ctx, dst, path)
	if err != nil {
		t.Fatalf("second RestoreSnapshot() failed: %v", err)
	}
	if restored != 0 {
		t.Errorf("second RestoreSnapshot(): got %d, want 0", restored)
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	if _, err := storage.ReadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("ReadSnapshot() of missing file succeeded")
	}
}
