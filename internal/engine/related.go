package engine

import (
	"context"
	"errors"
	"log"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// ErrRelatedUnavailable indicates that related-note lookup is not configured
// (no embedding-capable store or no embedding model).
var ErrRelatedUnavailable = errors.New("related-note lookup is not available")

// defaultRelatedLimit is the number of related records returned when the
// caller does not specify one.
const defaultRelatedLimit = 5

// RelatedService finds records similar to a given record by embedding
// distance. Requires a store backend with vector support.
type RelatedService struct {
	store   storage.RecordStore
	vectors storage.EmbeddingProvider
}

// NewRelatedService creates a related-note service. The vectors provider may
// be nil; Related then returns ErrRelatedUnavailable.
func NewRelatedService(store storage.RecordStore, vectors storage.EmbeddingProvider) *RelatedService {
	return &RelatedService{store: store, vectors: vectors}
}

// Available reports whether related-note lookup can serve requests.
func (s *RelatedService) Available() bool {
	return s.vectors != nil
}

// Related returns up to limit records nearest to the given record by cosine
// distance, nearest first. The target record must exist; records whose
// embedding points at a since-deleted record are skipped.
func (s *RelatedService) Related(ctx context.Context, id string, limit int) ([]*types.Record, error) {
	if s.vectors == nil {
		return nil, ErrRelatedUnavailable
	}
	if limit < 1 {
		limit = defaultRelatedLimit
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}

	ids, err := s.vectors.FindSimilar(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	records := make([]*types.Record, 0, len(ids))
	for _, relatedID := range ids {
		record, err := s.store.Get(ctx, relatedID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("Related: skipping vanished record %s", relatedID)
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
