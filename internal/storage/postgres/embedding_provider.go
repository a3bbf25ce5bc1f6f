package postgres

import (
	"context"
	"database/sql"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/snagasawa/tubuyaki/internal/storage"
)

// EmbeddingProvider implements storage.EmbeddingProvider on top of the
// embeddings table. It requires the pgvector extension; construct it only
// when RecordStore.PgvectorAvailable() reports true.
type EmbeddingProvider struct {
	db *sql.DB
}

// NewEmbeddingProvider creates a pgvector-backed embedding provider.
func NewEmbeddingProvider(db *sql.DB) *EmbeddingProvider {
	return &EmbeddingProvider{db: db}
}

// StoreEmbedding stores or replaces the embedding for a record.
func (p *EmbeddingProvider) StoreEmbedding(ctx context.Context, recordID string, embedding []float32, model string) error {
	if recordID == "" {
		return fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("%w: embedding vector cannot be empty", storage.ErrInvalidInput)
	}
	if model == "" {
		return fmt.Errorf("%w: model is required", storage.ErrInvalidInput)
	}

	vec := pgvector.NewVector(embedding)

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO embeddings (record_id, embedding, model, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(record_id) DO UPDATE SET
			embedding = excluded.embedding,
			model = excluded.model,
			updated_at = CURRENT_TIMESTAMP
	`, recordID, vec, model)
	if err != nil {
		return fmt.Errorf("postgres: failed to store embedding: %w", err)
	}

	return nil
}

// FindSimilar returns up to limit record IDs nearest to the stored embedding
// of recordID by cosine distance, excluding recordID itself. Records without
// an embedding (pending/error, or stored before embeddings were enabled) are
// simply not candidates.
func (p *EmbeddingProvider) FindSimilar(ctx context.Context, recordID string, limit int) ([]string, error) {
	if recordID == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}
	if limit < 1 {
		limit = 5
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT e.record_id
		FROM embeddings e, (SELECT embedding FROM embeddings WHERE record_id = $1) ref
		WHERE e.record_id <> $1
		ORDER BY e.embedding <=> ref.embedding
		LIMIT $2
	`, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query similar records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan similar record: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: row iteration failed: %w", err)
	}

	return ids, nil
}
