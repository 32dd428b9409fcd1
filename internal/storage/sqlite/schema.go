package sqlite

// Schema is the complete SQLite schema for the memory store. Tag, context,
// and metadata associations live in auxiliary tables keyed by memory id with
// cascade delete, so removing a record leaves no orphans. The unique index
// on content_hash enforces the deduplication contract at the storage layer:
// a concurrent add of the same normalized content cannot produce two rows.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id            TEXT PRIMARY KEY,
	content       TEXT NOT NULL,
	content_hash  TEXT NOT NULL UNIQUE,
	category      TEXT NOT NULL DEFAULT 'general',
	source        TEXT NOT NULL DEFAULT 'system',
	importance    INTEGER NOT NULL DEFAULT 5 CHECK (importance BETWEEN 1 AND 10),
	confidence    REAL NOT NULL DEFAULT 0.5 CHECK (confidence BETWEEN 0.0 AND 1.0),
	created_at    TIMESTAMP NOT NULL,
	last_accessed TIMESTAMP NOT NULL,
	access_count  INTEGER NOT NULL DEFAULT 0,
	expires_at    TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_memories_category   ON memories(category);
CREATE INDEX IF NOT EXISTS idx_memories_source     ON memories(source);
CREATE INDEX IF NOT EXISTS idx_memories_expires_at ON memories(expires_at);

CREATE TABLE IF NOT EXISTS memory_tags (
	memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	tag       TEXT NOT NULL,
	PRIMARY KEY (memory_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_memory_tags_tag ON memory_tags(tag);

CREATE TABLE IF NOT EXISTS memory_contexts (
	memory_id   TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	context_ref TEXT NOT NULL,
	relevance   REAL NOT NULL,
	PRIMARY KEY (memory_id, context_ref)
);

CREATE TABLE IF NOT EXISTS memory_metadata (
	memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (memory_id, key)
);

CREATE TABLE IF NOT EXISTS memory_embeddings (
	memory_id  TEXT PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
	embedding  BLOB NOT NULL,
	dimension  INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`
