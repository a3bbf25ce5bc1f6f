package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// fakeStore is an in-memory RecordStore mirroring the merge semantics of the
// SQL implementations, with status history tracking for transition asserts.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*types.Record
	nextID  int

	// statusHistory records every status written per ID, in order.
	statusHistory map[string][]types.RecordStatus

	// lastListOpts captures the options of the most recent List call.
	lastListOpts storage.ListOptions

	failCreate error
	failUpdate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:       make(map[string]*types.Record),
		statusHistory: make(map[string][]types.RecordStatus),
	}
}

func (s *fakeStore) Create(ctx context.Context, rawText string, status types.RecordStatus) (*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, storage.ErrInvalidInput
	}

	s.nextID++
	now := time.Now().UTC()
	rec := &types.Record{
		ID:        fmt.Sprintf("rec-%d", s.nextID),
		RawText:   rawText,
		Intent:    []string{},
		Ideas:     []string{},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[rec.ID] = rec
	s.statusHistory[rec.ID] = append(s.statusHistory[rec.ID], status)
	copied := *rec
	return &copied, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, upd storage.RecordUpdate) (*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return nil, s.failUpdate
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	if upd.RawText != nil {
		rec.RawText = *upd.RawText
	}
	if upd.CleanText != nil {
		rec.CleanText = upd.CleanText
	}
	if upd.Intent != nil {
		rec.Intent = upd.Intent
	}
	if upd.Entities != nil {
		rec.Entities = upd.Entities
	}
	if upd.Summary3Lines != nil {
		rec.Summary3Lines = upd.Summary3Lines
	}
	if upd.Ideas != nil {
		rec.Ideas = upd.Ideas
	}
	if upd.NextAction != nil {
		rec.NextAction = upd.NextAction
	}
	if upd.Confidence != nil {
		rec.Confidence = upd.Confidence
	}
	if upd.Context != nil {
		rec.Context = upd.Context
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
		s.statusHistory[id] = append(s.statusHistory[id], *upd.Status)
	}

	if upd.ClearFeedback {
		rec.Feedback = nil
		rec.FeedbackDetail = nil
	} else {
		if upd.Feedback != nil {
			rec.Feedback = upd.Feedback
		}
		switch {
		case upd.FeedbackDetail != nil:
			rec.FeedbackDetail = upd.FeedbackDetail
		case upd.ClearFeedbackDetail:
			rec.FeedbackDetail = nil
		}
	}

	rec.UpdatedAt = time.Now().UTC()
	copied := *rec
	return &copied, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *fakeStore) List(ctx context.Context, opts storage.ListOptions) ([]*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts.Normalize()
	s.lastListOpts = opts

	var matched []*types.Record
	for _, rec := range s.records {
		if !s.matches(rec, opts) {
			continue
		}
		copied := *rec
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if opts.Limit != storage.ListUnlimited && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *fakeStore) matches(rec *types.Record, opts storage.ListOptions) bool {
	if !opts.CreatedFrom.IsZero() && rec.CreatedAt.Before(opts.CreatedFrom) {
		return false
	}
	if !opts.CreatedTo.IsZero() && rec.CreatedAt.After(opts.CreatedTo) {
		return false
	}
	if opts.Intent != "" {
		found := false
		for _, tag := range rec.Intent {
			if tag == opts.Intent {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if opts.Query != "" {
		haystack := rec.RawText
		if rec.CleanText != nil {
			haystack += " " + *rec.CleanText
		}
		if rec.Summary3Lines != nil {
			haystack += " " + *rec.Summary3Lines
		}
		haystack += " " + strings.Join(rec.Ideas, " ")
		if rec.NextAction != nil {
			haystack += " " + *rec.NextAction
		}
		if !strings.Contains(haystack, opts.Query) {
			return false
		}
	}
	return true
}

func (s *fakeStore) Close() error { return nil }

// seed inserts a record directly, bypassing lifecycle transitions.
func (s *fakeStore) seed(rec *types.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *rec
	s.records[rec.ID] = &copied
}

// fakeGenerator is a canned TextGenerator capturing the prompts it receives.
type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *fakeGenerator) GetModel() string { return "fake-model" }

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// fakeEmbedder is a canned EmbeddingGenerator.
type fakeEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.texts = append(e.texts, text)
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *fakeEmbedder) GetModel() string { return "fake-embedding-model" }

// fakeVectors is an in-memory EmbeddingProvider.
type fakeVectors struct {
	stored  map[string][]float32
	similar []string
	err     error
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{stored: make(map[string][]float32)}
}

func (v *fakeVectors) StoreEmbedding(ctx context.Context, recordID string, embedding []float32, model string) error {
	if v.err != nil {
		return v.err
	}
	v.stored[recordID] = embedding
	return nil
}

func (v *fakeVectors) FindSimilar(ctx context.Context, recordID string, limit int) ([]string, error) {
	if v.err != nil {
		return nil, v.err
	}
	if len(v.similar) > limit {
		return v.similar[:limit], nil
	}
	return v.similar, nil
}
