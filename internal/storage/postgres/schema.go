package postgres

// Schema creates the memory tables. The vector extension backs the
// persistent embedding cache; installation requires sufficient privileges
// on the target database.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS memories (
	id            TEXT PRIMARY KEY,
	content       TEXT NOT NULL,
	content_hash  TEXT NOT NULL UNIQUE,
	category      TEXT NOT NULL,
	source        TEXT NOT NULL,
	importance    INTEGER NOT NULL CHECK (importance BETWEEN 1 AND 10),
	confidence    DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
	created_at    TIMESTAMPTZ NOT NULL,
	last_accessed TIMESTAMPTZ NOT NULL,
	access_count  INTEGER NOT NULL DEFAULT 0,
	expires_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_memories_category   ON memories(category);
CREATE INDEX IF NOT EXISTS idx_memories_source     ON memories(source);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
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
	relevance   DOUBLE PRECISION NOT NULL,
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
	embedding  vector NOT NULL,
	dimension  INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
