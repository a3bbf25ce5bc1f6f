package engine

import (
	"context"
	"time"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// searchLimit caps search results regardless of the requested filters.
const searchLimit = 50

// QueryService is the read side: today's records, all records, and filtered
// search. It never mutates the store.
type QueryService struct {
	store storage.RecordStore
}

// NewQueryService creates a query service over the given store.
func NewQueryService(store storage.RecordStore) *QueryService {
	return &QueryService{store: store}
}

// Get retrieves a single record. Returns storage.ErrNotFound if absent.
func (q *QueryService) Get(ctx context.Context, id string) (*types.Record, error) {
	return q.store.Get(ctx, id)
}

// ListToday returns records created since the start of the current local
// day, newest first.
func (q *QueryService) ListToday(ctx context.Context) ([]*types.Record, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return q.store.List(ctx, storage.ListOptions{CreatedFrom: startOfDay, Limit: storage.ListUnlimited})
}

// ListAll returns every record, newest first.
func (q *QueryService) ListAll(ctx context.Context) ([]*types.Record, error) {
	return q.store.List(ctx, storage.ListOptions{Limit: storage.ListUnlimited})
}

// SearchParams are the supported search filters. All supplied filters must
// match (conjunction); the text query is a substring OR-match across the
// text-bearing fields. To is a date: matching extends through its end of day.
type SearchParams struct {
	Query  string
	Intent string
	From   time.Time
	To     time.Time
}

// Search returns up to 50 matching records, newest first.
func (q *QueryService) Search(ctx context.Context, params SearchParams) ([]*types.Record, error) {
	opts := storage.ListOptions{
		Query:       params.Query,
		Intent:      params.Intent,
		CreatedFrom: params.From,
		Limit:       searchLimit,
	}
	if !params.To.IsZero() {
		t := params.To
		opts.CreatedTo = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
	}
	return q.store.List(ctx, opts)
}
