// Package postgres implements the memory store on PostgreSQL, for
// deployments that outgrow a single SQLite file. Embedding vectors are
// persisted through the pgvector extension.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/minerva-ai/minerva/internal/hasher"
	"github.com/minerva-ai/minerva/internal/storage"
	"github.com/minerva-ai/minerva/pkg/types"
)

// MemoryStore implements storage.MemoryStore backed by PostgreSQL.
type MemoryStore struct {
	db        *sql.DB
	suggester storage.ImportanceSuggester
	now       func() time.Time
}

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

// NewMemoryStore connects to PostgreSQL and creates the schema.
func NewMemoryStore(dsn string, opts ...Option) (*MemoryStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to reach database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}

	ms := &MemoryStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(ms)
	}
	return ms, nil
}

// Add creates a memory or resolves duplicate content to the canonical
// existing record.
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
		return nil, fmt.Errorf("postgres: begin add: %w", err)
	}
	defer tx.Rollback()

	if existing, err := s.touchByHash(ctx, tx, record.ContentHash, now); err == nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("postgres: commit add: %w", err)
		}
		return existing, nil
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	if err := s.insertRecord(ctx, tx, record); err != nil {
		// Loser of a concurrent same-content race retries as an access
		// bump. The violation aborts the transaction, so the retry needs
		// a fresh one.
		if isUniqueHashViolation(err) {
			tx.Rollback()
			return s.retryAsTouch(ctx, record.ContentHash, now)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("postgres: commit add: %w", err)
	}
	return record, nil
}

func (s *MemoryStore) retryAsTouch(ctx context.Context, hash string, now time.Time) (*types.MemoryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin add retry: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.touchByHash(ctx, tx, hash, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("postgres: commit add retry: %w", err)
	}
	return existing, nil
}

// GetByID retrieves a memory by ID. The read counts as an access.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*types.MemoryRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin get: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed = $1 WHERE id = $2",
		s.now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to bump access stats: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("postgres: failed to check rows affected: %w", err)
	} else if n == 0 {
		return nil, storage.ErrNotFound
	}

	record, err := s.loadRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("postgres: commit get: %w", err)
	}
	return record, nil
}

// Search filters memories by structural predicates.
func (s *MemoryStore) Search(ctx context.Context, filter storage.SearchFilter) ([]*types.MemoryRecord, error) {
	filter.Normalize()

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(filter.Category))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = "+arg(filter.Source))
	}
	if filter.MinImportance > 0 {
		conditions = append(conditions, "importance >= "+arg(filter.MinImportance))
	}
	for _, tag := range filter.Tags {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM memory_tags t WHERE t.memory_id = memories.id AND t.tag = "+arg(tag)+")")
	}
	if filter.ContextRef != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM memory_contexts c WHERE c.memory_id = memories.id AND c.context_ref LIKE "+arg("%"+filter.ContextRef+"%")+")")
	}
	if !filter.IncludeExpired {
		conditions = append(conditions, "(expires_at IS NULL OR expires_at > "+arg(s.now().UTC())+")")
	}

	query := "SELECT id FROM memories"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(filter.MaxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: search failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: search scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: search rows: %w", err)
	}

	records := make([]*types.MemoryRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.loadRecord(ctx, s.db, id)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Update modifies only the provided fields.
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
		return nil, fmt.Errorf("postgres: begin update: %w", err)
	}
	defer tx.Rollback()

	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sets := []string{"last_accessed = " + arg(s.now().UTC())}
	if fields.Content != nil {
		if strings.TrimSpace(*fields.Content) == "" {
			return nil, &types.ValidationError{Field: "content", Constraint: "must not be empty"}
		}
		sets = append(sets,
			"content = "+arg(*fields.Content),
			"content_hash = "+arg(hasher.Hash(*fields.Content)))
	}
	if fields.Category != nil {
		sets = append(sets, "category = "+arg(*fields.Category))
	}
	if fields.Importance != nil {
		sets = append(sets, "importance = "+arg(*fields.Importance))
	}
	if fields.Confidence != nil {
		sets = append(sets, "confidence = "+arg(*fields.Confidence))
	}
	if fields.ExpiresAt != nil {
		sets = append(sets, "expires_at = "+arg(fields.ExpiresAt.UTC()))
	} else if fields.ClearExpiry {
		sets = append(sets, "expires_at = NULL")
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE memories SET "+strings.Join(sets, ", ")+" WHERE id = "+arg(id),
		args...,
	)
	if err != nil {
		if isUniqueHashViolation(err) {
			return nil, fmt.Errorf("%w: content duplicates an existing memory", storage.ErrInvalidInput)
		}
		return nil, fmt.Errorf("postgres: update failed: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("postgres: failed to check rows affected: %w", err)
	} else if n == 0 {
		return nil, storage.ErrNotFound
	}

	if fields.Tags != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM memory_tags WHERE memory_id = $1", id); err != nil {
			return nil, fmt.Errorf("postgres: failed to clear tags: %w", err)
		}
		if err := insertTags(ctx, tx, id, *fields.Tags); err != nil {
			return nil, err
		}
	}
	for ref, rel := range fields.Contexts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memory_contexts (memory_id, context_ref, relevance) VALUES ($1, $2, $3)
			ON CONFLICT (memory_id, context_ref) DO UPDATE SET relevance = EXCLUDED.relevance`,
			id, ref, rel,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to set context: %w", err)
		}
	}
	for key, value := range fields.Metadata {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memory_metadata (memory_id, key, value) VALUES ($1, $2, $3)
			ON CONFLICT (memory_id, key) DO UPDATE SET value = EXCLUDED.value`,
			id, key, value,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to set metadata: %w", err)
		}
	}

	if fields.Content != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM memory_embeddings WHERE memory_id = $1", id); err != nil {
			return nil, fmt.Errorf("postgres: failed to drop stale embedding: %w", err)
		}
	}

	record, err := s.loadRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("postgres: commit update: %w", err)
	}
	return record, nil
}

// Delete removes a memory by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("postgres: delete failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: failed to check rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByQuery deletes memories whose normalized content matches query.
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

	var ids []string
	for _, c := range candidates {
		contentNorm := hasher.Normalize(c.Content)
		if exactMatch && contentNorm != normalized {
			continue
		}
		if !exactMatch && !strings.Contains(contentNorm, normalized) {
			continue
		}
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("postgres: delete-by-query failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to check rows affected: %w", err)
	}
	return int(n), nil
}

// UpdateAccessStats bumps access_count and last_accessed for every given ID
// in one statement.
func (s *MemoryStore) UpdateAccessStats(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed = $1 WHERE id = ANY($2)",
		s.now().UTC(), pq.Array(ids),
	); err != nil {
		return fmt.Errorf("postgres: access update failed: %w", err)
	}
	return nil
}

// ExportAll returns every record, expired included, for snapshots.
func (s *MemoryStore) ExportAll(ctx context.Context) ([]*types.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM memories ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("postgres: export failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: export scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: export rows: %w", err)
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

// Import inserts snapshot records, skipping duplicate content hashes.
func (s *MemoryStore) Import(ctx context.Context, records []*types.MemoryRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin import: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, record := range records {
		if record.ContentHash == "" {
			record.ContentHash = hasher.Hash(record.Content)
		}
		var existing string
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM memories WHERE content_hash = $1", record.ContentHash,
		).Scan(&existing)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("postgres: import hash lookup: %w", err)
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
		return 0, fmt.Errorf("postgres: commit import: %w", err)
	}
	return imported, nil
}

// Close releases the connection pool.
func (s *MemoryStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutEmbedding persists a vector through pgvector.
func (s *MemoryStore) PutEmbedding(ctx context.Context, memoryID string, vector []float32) error {
	if memoryID == "" || len(vector) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_embeddings (memory_id, embedding, dimension, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (memory_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dimension = EXCLUDED.dimension,
			updated_at = EXCLUDED.updated_at`,
		memoryID, pgvector.NewVector(vector), len(vector), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to store embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the cached vector, or (nil, nil) on a miss.
func (s *MemoryStore) GetEmbedding(ctx context.Context, memoryID string) ([]float32, error) {
	var vec pgvector.Vector
	err := s.db.QueryRowContext(ctx,
		"SELECT embedding FROM memory_embeddings WHERE memory_id = $1", memoryID,
	).Scan(&vec)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load embedding: %w", err)
	}
	return vec.Slice(), nil
}

// DeleteEmbedding drops the cached vector for the memory, if any.
func (s *MemoryStore) DeleteEmbedding(ctx context.Context, memoryID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM memory_embeddings WHERE memory_id = $1", memoryID,
	); err != nil {
		return fmt.Errorf("postgres: failed to delete embedding: %w", err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *MemoryStore) touchByHash(ctx context.Context, q querier, hash string, now time.Time) (*types.MemoryRecord, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT id FROM memories WHERE content_hash = $1", hash).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: hash lookup failed: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE memories SET access_count = access_count + 1, last_accessed = $1 WHERE id = $2",
		now, id,
	); err != nil {
		return nil, fmt.Errorf("postgres: failed to bump access stats: %w", err)
	}
	return s.loadRecord(ctx, q, id)
}

func (s *MemoryStore) insertRecord(ctx context.Context, q querier, record *types.MemoryRecord) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO memories (id, content, content_hash, category, source, importance,
			confidence, created_at, last_accessed, access_count, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
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
		return fmt.Errorf("postgres: insert failed: %w", err)
	}

	if err := insertTags(ctx, q, record.ID, record.Tags); err != nil {
		return err
	}
	for ref, rel := range record.Contexts {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO memory_contexts (memory_id, context_ref, relevance) VALUES ($1, $2, $3)",
			record.ID, ref, rel,
		); err != nil {
			return fmt.Errorf("postgres: failed to insert context: %w", err)
		}
	}
	for key, value := range record.Metadata {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO memory_metadata (memory_id, key, value) VALUES ($1, $2, $3)",
			record.ID, key, value,
		); err != nil {
			return fmt.Errorf("postgres: failed to insert metadata: %w", err)
		}
	}
	return nil
}

func insertTags(ctx context.Context, q querier, memoryID string, tags []string) error {
	for i, tag := range tags {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO memory_tags (memory_id, position, tag) VALUES ($1, $2, $3)
			ON CONFLICT (memory_id, tag) DO NOTHING`,
			memoryID, i, tag,
		); err != nil {
			return fmt.Errorf("postgres: failed to insert tag: %w", err)
		}
	}
	return nil
}

func (s *MemoryStore) loadRecord(ctx context.Context, q querier, id string) (*types.MemoryRecord, error) {
	var record types.MemoryRecord
	var expiresAt sql.NullTime

	err := q.QueryRowContext(ctx, `
		SELECT id, content, content_hash, category, source, importance,
			confidence, created_at, last_accessed, access_count, expires_at
		FROM memories WHERE id = $1`, id,
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
		return nil, fmt.Errorf("postgres: failed to load memory: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		record.ExpiresAt = &t
	}

	rows, err := q.QueryContext(ctx, "SELECT tag FROM memory_tags WHERE memory_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load tags: %w", err)
	}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: tag scan: %w", err)
		}
		record.Tags = append(record.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("postgres: tag rows: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, "SELECT context_ref, relevance FROM memory_contexts WHERE memory_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load contexts: %w", err)
	}
	for rows.Next() {
		var ref string
		var rel float64
		if err := rows.Scan(&ref, &rel); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: context scan: %w", err)
		}
		if record.Contexts == nil {
			record.Contexts = make(map[string]float64)
		}
		record.Contexts[ref] = rel
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("postgres: context rows: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, "SELECT key, value FROM memory_metadata WHERE memory_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load metadata: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: metadata scan: %w", err)
		}
		if record.Metadata == nil {
			record.Metadata = make(map[string]string)
		}
		record.Metadata[key] = value
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("postgres: metadata rows: %w", err)
	}
	rows.Close()

	return &record, nil
}

// isUniqueHashViolation reports whether err is the content_hash uniqueness
// constraint firing. lib/pq surfaces it as SQLSTATE 23505.
func isUniqueHashViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "content_hash")
	}
	return false
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
