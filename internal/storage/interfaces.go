// Package storage defines the record store contract consumed by the engine
// and HTTP layers, plus the shared filter/option types used by both the
// SQLite and PostgreSQL implementations.
package storage

import (
	"context"

	"github.com/snagasawa/tubuyaki/pkg/types"
)

// RecordStore is the persistence boundary for tubuyaki records.
//
// The store is the sole authority for record IDs: Create allocates one and no
// caller ever invents or mutates an ID afterwards. Update applies a partial
// merge and bumps UpdatedAt; interleaved Update calls on the same ID resolve
// last-write-wins (callers are not serialized per record).
type RecordStore interface {
	// Create persists a new record holding only rawText and status, allocating
	// the ID and both timestamps. Returns the full stored record.
	Create(ctx context.Context, rawText string, status types.RecordStatus) (*types.Record, error)

	// Get retrieves a record by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*types.Record, error)

	// Update merges the set fields of upd into the record and bumps UpdatedAt.
	// Returns the updated record, or ErrNotFound.
	Update(ctx context.Context, id string, upd RecordUpdate) (*types.Record, error)

	// Delete removes a record permanently. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns records matching opts, ordered by createdAt descending.
	List(ctx context.Context, opts ListOptions) ([]*types.Record, error)

	// Close releases the underlying database connection.
	Close() error
}

// RecordUpdate describes a partial update. Nil pointer fields are left
// untouched; non-nil fields overwrite the stored value. Slices follow the
// same rule: a nil slice means "no change", an empty slice overwrites.
//
// The ClearFeedback flag forces feedback fields back to NULL, which a
// pointer-to-value cannot express (clearing feedback on reprocess).
type RecordUpdate struct {
	RawText       *string
	CleanText     *string
	Intent        []string
	Entities      *types.Entities
	Summary3Lines *string
	Ideas         []string
	NextAction    *string
	Confidence    *float64
	Context       *string
	Status        *types.RecordStatus

	Feedback       *types.Feedback
	FeedbackDetail *types.FeedbackDetail

	// ClearFeedback resets feedback and feedbackDetail to NULL. Takes
	// precedence over the Feedback/FeedbackDetail fields above.
	ClearFeedback bool

	// ClearFeedbackDetail resets only feedbackDetail to NULL, used when a
	// down-vote is replaced by an up-vote. Ignored when FeedbackDetail is set.
	ClearFeedbackDetail bool
}

// EmbeddingProvider stores and queries vector embeddings for records. Only
// the PostgreSQL backend implements this (pgvector); the engine treats the
// capability as optional.
type EmbeddingProvider interface {
	// StoreEmbedding stores or replaces the embedding for a record.
	StoreEmbedding(ctx context.Context, recordID string, embedding []float32, model string) error

	// FindSimilar returns up to limit record IDs nearest to the stored
	// embedding of recordID by cosine distance, excluding recordID itself.
	FindSimilar(ctx context.Context, recordID string, limit int) ([]string, error)
}
