package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/minerva-ai/minerva/internal/hasher"
	"github.com/minerva-ai/minerva/internal/storage"
	"github.com/minerva-ai/minerva/pkg/types"
)

// MemoryStore implements storage.MemoryStore using SQLite.
type MemoryStore struct {
	db        *sql.DB
	suggester storage.ImportanceSuggester
	now       func() time.Time
}

// Ensure interface conformance at compile time.
var (
	_ storage.MemoryStore    = (*MemoryStore)(nil)
	_ storage.EmbeddingCache = (*MemoryStore)(nil)
)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithImportanceSuggester wires the heuristic used to default importance
// when Add is called without one.
func WithImportanceSuggester(s storage.ImportanceSuggester) Option {
	return func(ms *MemoryStore) { ms.suggester = s }
}

// NewMemoryStore opens a SQLite database, configures WAL mode, and creates
// the schema.
func NewMemoryStore(dsn string, opts ...Option) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	ms := &MemoryStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(ms)
	}
	return ms, nil
}

// Add creates a memory or resolves duplicate content to the canonical
// existing record. Duplicate content is never an error: the existing record
// gets an access bump and is returned unchanged.
func (s *MemoryStore) Add(ctx context.Context, params storage.AddParams) (*types.MemoryRecord, error) {
	if strings.TrimSpace(params.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}

	record := &types.MemoryRecord{
		ID:          "mem:" + uuid.NewString(),
		Content:     params.Content,
		ContentHash: hasher.Hash(params.Content),
		Category:    params.Category,
		Source:      params.Source,
		Tags:        params.Tags,
		Contexts:    params.Contexts,
		Metadata:    params.Metadata,
		ExpiresAt:   params.ExpiresAt,
	}
	if record.Category == "" {
		record.Category = types.CategoryGeneral
	}
	if record.Source == "" {
		record.Source = types.SourceSystem
	}

	if params.Importance != nil {
		record.Importance = *params.Importance
	} else if s.suggester != nil {
		record.Importance = s.suggester.SuggestImportance(record.Content, record.Source, record.Category)
	} else {
		record.Importance = types.DefaultImportance
	}

	if params.Confidence != nil {
		record.Confidence = *params.Confidence
	} else {
		record.Confidence = 0.5
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record.CreatedAt = now
	record.LastAccessed = now
	if params.CreatedAt != nil && !params.CreatedAt.IsZero() {
		record.CreatedAt = params.CreatedAt.UTC()
	}
	// Returning the created record to the caller is its first access.
	record.AccessCount = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin add: %w", err)
	}
	defer tx.Rollback()

	// Upsert-by-hash: an existing hash means duplicate content, so bump the
	// canonical record instead of inserting.
	if existing, err := s.touchByHash(ctx, tx, record.ContentHash, now); err == nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("sqlite: commit add: %w", err)
		}
		return existing, nil
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	if err := s.insertRecord(ctx, tx, record); err != nil {
		// Loser of a concurrent same-content race retries as an access bump.
		if isUniqueHashViolation(err) {
			existing, terr := s.touchByHash(ctx, tx, record.ContentHash, now)
			if terr != nil {
				return nil, terr
			}
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("sqlite: commit add: %w", err)
			}
			return existing, nil
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit add: %w", err)
	}
	return record, nil
}

// GetByID retrieves a memory by ID. The read counts as an access.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*types.MemoryRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin get: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?",
		s.now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to bump access stats: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	} else if n == 0 {
		return nil, storage.ErrNotFound
	}

	record, err := s.loadRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit get: %w", err)
	}
	return record, nil
}

// Search filters memories by structural predicates. filter.Query is not
// ranked here; textual relevance belongs to the retrieval engine.
func (s *MemoryStore) Search(ctx context.Context, filter storage.SearchFilter) ([]*types.MemoryRecord, error) {
	filter.Normalize()

	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.MinImportance > 0 {
		conditions = append(conditions, "importance >= ?")
		args = append(args, filter.MinImportance)
	}
	for _, tag := range filter.Tags {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM memory_tags t WHERE t.memory_id = memories.id AND t.tag = ?)")
		args = append(args, tag)
	}
	if filter.ContextRef != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM memory_contexts c WHERE c.memory_id = memories.id AND c.context_ref LIKE ?)")
		args = append(args, "%"+filter.ContextRef+"%")
	}
	if !filter.IncludeExpired {
		conditions = append(conditions, "(expires_at IS NULL OR expires_at > ?)")
		args = append(args, s.now().UTC())
	}

	query := "SELECT id FROM memories"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, filter.MaxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: search scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: search rows: %w", err)
	}

	records := make([]*types.MemoryRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.loadRecord(ctx, s.db, id)
		if err != nil {
			if err == storage.ErrNotFound {
				continue // deleted between queries
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Update modifies only the provided fields. A content change recomputes the
// hash; last_accessed is always refreshed.
func (s *MemoryStore) Update(ctx context.Context, id string, fields storage.UpdateFields) (*types.MemoryRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	if fields.Importance != nil {
		if err := types.ValidateImportance(*fields.Importance); err != nil {
			return nil, err
		}
	}
	if fields.Confidence != nil {
		if err := types.ValidateConfidence(*fields.Confidence); err != nil {
			return nil, err
		}
	}
	if err := types.ValidateContexts(fields.Contexts); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin update: %w", err)
	}
	defer tx.Rollback()

	sets := []string{"last_accessed = ?"}
	args := []interface{}{s.now().UTC()}

	if fields.Content != nil {
		if strings.TrimSpace(*fields.Content) == "" {
			return nil, &types.ValidationError{Field: "content", Constraint: "must not be empty"}
		}
		sets = append(sets, "content = ?", "content_hash = ?")
		args = append(args, *fields.Content, hasher.Hash(*fields.Content))
	}
	if fields.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *fields.Category)
	}
	if fields.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *fields.Importance)
	}
	if fields.Confidence != nil {
		sets = append(sets, "confidence = ?")
		args = append(args, *fields.Confidence)
	}
	if fields.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, fields.ExpiresAt.UTC())
	} else if fields.ClearExpiry {
		sets = append(sets, "expires_at = NULL")
	}

	args = append(args, id)
	result, err := tx.ExecContext(ctx, "UPDATE memories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueHashViolation(err) {
			return nil, fmt.Errorf("%w: content duplicates an existing memory", storage.ErrInvalidInput)
		}
		return nil, fmt.Errorf("sqlite: update failed: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	} else if n == 0 {
		return nil, storage.ErrNotFound
	}

	if fields.Tags != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM memory_tags WHERE memory_id = ?", id); err != nil {
			return nil, fmt.Errorf("sqlite: failed to clear tags: %w", err)
		}
		if err := insertTags(ctx, tx, id, *fields.Tags); err != nil {
			return nil, err
		}
	}
	for ref, rel := range fields.Contexts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memory_contexts (memory_id, context_ref, relevance) VALUES (?, ?, ?)
			ON CONFLICT(memory_id, context_ref) DO UPDATE SET relevance = excluded.relevance`,
			id, ref, rel,
		); err != nil {
			return nil, fmt.Errorf("sqlite: failed to set context: %w", err)
		}
	}
	for key, value := range fields.Metadata {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memory_metadata (memory_id, key, value) VALUES (?, ?, ?)
			ON CONFLICT(memory_id, key) DO UPDATE SET value = excluded.value`,
			id, key, value,
		); err != nil {
			return nil, fmt.Errorf("sqlite: failed to set metadata: %w", err)
		}
	}

	// Content changed: drop the stale embedding row so the cache cannot
	// serve a vector for text that no longer exists.
	if fields.Content != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM memory_embeddings WHERE memory_id = ?", id); err != nil {
			return nil, fmt.Errorf("sqlite: failed to drop stale embedding: %w", err)
		}
	}

	record, err := s.loadRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit update: %w", err)
	}
	return record, nil
}

// Delete removes a memory by ID. Tag, context, metadata, and embedding rows
// cascade via foreign keys in the same statement.
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByQuery deletes memories whose normalized content matches query:
// equality with exactMatch, substring containment otherwise.
func (s *MemoryStore) DeleteByQuery(ctx context.Context, query, category string, exactMatch bool) (int, error) {
	normalized := hasher.Normalize(query)
	if normalized == "" {
		return 0, fmt.Errorf("%w: query is required", storage.ErrInvalidInput)
	}

	candidates, err := s.Search(ctx, storage.SearchFilter{
		Category:       category,
		MaxResults:     1 << 20,
		IncludeExpired: true,
	})
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin delete-by-query: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, c := range candidates {
		contentNorm := hasher.Normalize(c.Content)
		if exactMatch && contentNorm != normalized {
			continue
		}
		if !exactMatch && !strings.Contains(contentNorm, normalized) {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", c.ID); err != nil {
			return 0, fmt.Errorf("sqlite: delete-by-query failed: %w", err)
		}
		deleted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit delete-by-query: %w", err)
	}
	return deleted, nil
}

// UpdateAccessStats bumps access_count and last_accessed for every given ID
// in one transaction, bounding write amplification under load.
func (s *MemoryStore) UpdateAccessStats(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, s.now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin access update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id IN ("+placeholders+")",
		args...,
	); err != nil {
		return fmt.Errorf("sqlite: access update failed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit access update: %w", err)
	}
	return nil
}

// ExportAll returns every record, expired included, for snapshots.
func (s *MemoryStore) ExportAll(ctx context.Context) ([]*types.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM memories ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: export failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: export scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: export rows: %w", err)
	}

	records := make([]*types.MemoryRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.loadRecord(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Import inserts snapshot records preserving IDs, timestamps, and stats.
// Records whose content hash already exists are skipped.
func (s *MemoryStore) Import(ctx context.Context, records []*types.MemoryRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin import: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, record := range records {
		if record.ContentHash == "" {
			record.ContentHash = hasher.Hash(record.Content)
		}
		var existing string
		err := tx.QueryRowContext(ctx, "SELECT id FROM memories WHERE content_hash = ?", record.ContentHash).Scan(&existing)
		if err == nil {
			continue // duplicate content, keep the canonical record
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("sqlite: import hash lookup: %w", err)
		}
		if err := record.Validate(); err != nil {
			return 0, err
		}
		if err := s.insertRecord(ctx, tx, record); err != nil {
			return 0, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit import: %w", err)
	}
	return imported, nil
}

// Close flushes the WAL into the main database file and releases resources.
func (s *MemoryStore) Close() error {
	if s.db == nil {
		return nil
	}
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// querier abstracts *sql.DB and *sql.Tx for shared read helpers.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// touchByHash finds the record with the given content hash, bumps its access
// stats, and returns it. Returns storage.ErrNotFound when no record exists.
func (s *MemoryStore) touchByHash(ctx context.Context, q querier, hash string, now time.Time) (*types.MemoryRecord, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT id FROM memories WHERE content_hash = ?", hash).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: hash lookup failed: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?",
		now, id,
	); err != nil {
		return nil, fmt.Errorf("sqlite: failed to bump access stats: %w", err)
	}
	return s.loadRecord(ctx, q, id)
}

// insertRecord writes the memory row and its associations.
func (s *MemoryStore) insertRecord(ctx context.Context, q querier, record *types.MemoryRecord) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO memories (id, content, content_hash, category, source, importance,
			confidence, created_at, last_accessed, access_count, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Content,
		record.ContentHash,
		record.Category,
		record.Source,
		record.Importance,
		record.Confidence,
		record.CreatedAt.UTC(),
		record.LastAccessed.UTC(),
		record.AccessCount,
		nullableTime(record.ExpiresAt),
	); err != nil {
		if isUniqueHashViolation(err) {
			return err
		}
		return fmt.Errorf("sqlite: insert failed: %w", err)
	}

	if err := insertTags(ctx, q, record.ID, record.Tags); err != nil {
		return err
	}
	for ref, rel := range record.Contexts {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO memory_contexts (memory_id, context_ref, relevance) VALUES (?, ?, ?)",
			record.ID, ref, rel,
		); err != nil {
			return fmt.Errorf("sqlite: failed to insert context: %w", err)
		}
	}
	for key, value := range record.Metadata {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO memory_metadata (memory_id, key, value) VALUES (?, ?, ?)",
			record.ID, key, value,
		); err != nil {
			return fmt.Errorf("sqlite: failed to insert metadata: %w", err)
		}
	}
	return nil
}

// insertTags writes the tag list preserving insertion order for display.
func insertTags(ctx context.Context, q querier, memoryID string, tags []string) error {
	for i, tag := range tags {
		if _, err := q.ExecContext(ctx,
			"INSERT OR IGNORE INTO memory_tags (memory_id, position, tag) VALUES (?, ?, ?)",
			memoryID, i, tag,
		); err != nil {
			return fmt.Errorf("sqlite: failed to insert tag: %w", err)
		}
	}
	return nil
}

// loadRecord reads a memory row plus its tag, context, and metadata
// associations.
func (s *MemoryStore) loadRecord(ctx context.Context, q querier, id string) (*types.MemoryRecord, error) {
	var record types.MemoryRecord
	var expiresAt sql.NullTime

	err := q.QueryRowContext(ctx, `
		SELECT id, content, content_hash, category, source, importance,
			confidence, created_at, last_accessed, access_count, expires_at
		FROM memories WHERE id = ?`, id,
	).Scan(
		&record.ID,
		&record.Content,
		&record.ContentHash,
		&record.Category,
		&record.Source,
		&record.Importance,
		&record.Confidence,
		&record.CreatedAt,
		&record.LastAccessed,
		&record.AccessCount,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load memory: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		record.ExpiresAt = &t
	}

	rows, err := q.QueryContext(ctx, "SELECT tag FROM memory_tags WHERE memory_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load tags: %w", err)
	}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: tag scan: %w", err)
		}
		record.Tags = append(record.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: tag rows: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, "SELECT context_ref, relevance FROM memory_contexts WHERE memory_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load contexts: %w", err)
	}
	for rows.Next() {
		var ref string
		var rel float64
		if err := rows.Scan(&ref, &rel); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: context scan: %w", err)
		}
		if record.Contexts == nil {
			record.Contexts = make(map[string]float64)
		}
		record.Contexts[ref] = rel
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: context rows: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, "SELECT key, value FROM memory_metadata WHERE memory_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load metadata: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: metadata scan: %w", err)
		}
		if record.Metadata == nil {
			record.Metadata = make(map[string]string)
		}
		record.Metadata[key] = value
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: metadata rows: %w", err)
	}
	rows.Close()

	return &record, nil
}

// isUniqueHashViolation reports whether err is the content_hash uniqueness
// constraint firing.
func isUniqueHashViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "content_hash")
}

// nullableTime converts a time pointer to sql.NullTime.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
