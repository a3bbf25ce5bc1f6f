package sqlite

// Schema contains the SQL statements to create the database schema.
// Structured derived fields (intent, entities, ideas) are stored as JSON text
// columns; that is a storage encoding detail only, the domain model exposes
// them as typed fields and they are marshalled at this layer.
const Schema = `
-- Records table: one row per captured tubuyaki
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    raw_text TEXT NOT NULL,

    -- Derived fields, NULL until the first successful transform
    clean_text TEXT,
    intent TEXT,          -- JSON array of intent tags
    entities TEXT,        -- JSON object with the six extraction buckets
    summary_3lines TEXT,
    ideas TEXT,           -- JSON array, 0-3 items
    next_action TEXT,
    confidence REAL,
    context TEXT,

    -- User evaluation
    feedback TEXT,
    feedback_detail TEXT,

    -- Lifecycle
    status TEXT NOT NULL DEFAULT 'processing',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
`
