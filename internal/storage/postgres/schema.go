// Package postgres provides the PostgreSQL implementation of
// storage.RecordStore, plus an optional pgvector-backed embedding provider
// used for related-note lookup.
package postgres

// Schema contains the SQL statements to create the database schema.
// All statements are idempotent (IF NOT EXISTS) so the schema can be applied
// on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    raw_text TEXT NOT NULL,

    clean_text TEXT,
    intent TEXT,
    entities TEXT,
    summary_3lines TEXT,
    ideas TEXT,
    next_action TEXT,
    confidence DOUBLE PRECISION,
    context TEXT,

    feedback TEXT,
    feedback_detail TEXT,

    status TEXT NOT NULL DEFAULT 'processing',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
`

// MigrationPgvector adds the embeddings table. Applied only when the pgvector
// extension is available on the server.
const MigrationPgvector = `
CREATE TABLE IF NOT EXISTS embeddings (
    record_id TEXT PRIMARY KEY REFERENCES records(id) ON DELETE CASCADE,
    embedding vector(768),
    model TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
