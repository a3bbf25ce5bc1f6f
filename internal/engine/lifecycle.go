package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/snagasawa/tubuyaki/internal/llm"
	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// Warning strings surfaced alongside a successful create/reprocess whose
// transform did not complete. The record write itself still succeeded.
const (
	WarningNoCredentials   = "LLM credentials are not configured; the note was saved unprocessed"
	WarningTransformFailed = "processing failed; the note was saved and can be reprocessed"
)

// ProcessOutcome is the result of a create or reprocess operation. Warning is
// non-empty when the record was stored but not fully processed.
// ConfirmQuestion is a transient clarifying question from a low-confidence
// transform; it is never persisted on the record.
type ProcessOutcome struct {
	Record          *types.Record
	Warning         string
	ConfirmQuestion string
}

// Manager orchestrates the record lifecycle: it writes a provisional
// processing record, invokes the transform engine, and writes the final
// state. Engine failure is absorbed into a stored error status so user input
// is never lost; only store failures propagate as errors.
type Manager struct {
	store     storage.RecordStore
	transform *TransformEngine

	// Optional embedding support for related-note lookup. Both must be set
	// for embeddings to be written; failures are logged and never affect the
	// record outcome.
	embedder llm.EmbeddingGenerator
	vectors  storage.EmbeddingProvider
}

// NewManager creates a lifecycle manager. The store is required; the
// transform engine may have no credentials (pending path).
func NewManager(store storage.RecordStore, transform *TransformEngine) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if transform == nil {
		transform = NewTransformEngine(nil, llm.PolicyAdaptive)
	}
	return &Manager{
		store:     store,
		transform: transform,
	}, nil
}

// WithEmbeddings enables embedding writes on successful transforms.
func (m *Manager) WithEmbeddings(embedder llm.EmbeddingGenerator, vectors storage.EmbeddingProvider) *Manager {
	m.embedder = embedder
	m.vectors = vectors
	return m
}

// Create captures a new note. The provisional processing record is written
// before the engine call, so a crash mid-call leaves a durable record rather
// than silently losing the input. The returned record is never left at
// processing status.
func (m *Manager) Create(ctx context.Context, rawText string) (*ProcessOutcome, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: rawText must not be empty", storage.ErrInvalidInput)
	}

	record, err := m.store.Create(ctx, rawText, types.StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	if !m.transform.HasCredentials() {
		return m.finishPending(ctx, record.ID)
	}

	result, err := m.transform.Transform(ctx, rawText)
	if err != nil {
		log.Printf("Lifecycle: transform failed for record %s: %v", record.ID, err)
		return m.finishError(ctx, record.ID)
	}

	return m.finishDone(ctx, record.ID, result, false)
}

// Reprocess re-runs the transform against new raw text for an existing
// record. On success the derived fields are overwritten and feedback is
// cleared; on failure the prior derived fields survive and only rawText and
// status change. Returns storage.ErrNotFound if the record does not exist.
func (m *Manager) Reprocess(ctx context.Context, id, rawText string) (*ProcessOutcome, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: rawText must not be empty", storage.ErrInvalidInput)
	}

	if _, err := m.store.Get(ctx, id); err != nil {
		return nil, err
	}

	processing := types.StatusProcessing
	if _, err := m.store.Update(ctx, id, storage.RecordUpdate{
		RawText: &rawText,
		Status:  &processing,
	}); err != nil {
		return nil, fmt.Errorf("failed to mark record processing: %w", err)
	}

	if !m.transform.HasCredentials() {
		return m.finishPending(ctx, id)
	}

	result, err := m.transform.Transform(ctx, rawText)
	if err != nil {
		log.Printf("Lifecycle: reprocess transform failed for record %s: %v", id, err)
		return m.finishError(ctx, id)
	}

	return m.finishDone(ctx, id, result, true)
}

// Delete removes a record permanently. Valid from any state.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

func (m *Manager) finishPending(ctx context.Context, id string) (*ProcessOutcome, error) {
	pending := types.StatusPending
	record, err := m.store.Update(ctx, id, storage.RecordUpdate{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to mark record pending: %w", err)
	}
	return &ProcessOutcome{Record: record, Warning: WarningNoCredentials}, nil
}

func (m *Manager) finishError(ctx context.Context, id string) (*ProcessOutcome, error) {
	errored := types.StatusError
	record, err := m.store.Update(ctx, id, storage.RecordUpdate{Status: &errored})
	if err != nil {
		return nil, fmt.Errorf("failed to mark record errored: %w", err)
	}
	return &ProcessOutcome{Record: record, Warning: WarningTransformFailed}, nil
}

func (m *Manager) finishDone(ctx context.Context, id string, result *llm.TransformResult, clearFeedback bool) (*ProcessOutcome, error) {
	done := types.StatusDone
	entities := result.Entities
	record, err := m.store.Update(ctx, id, storage.RecordUpdate{
		CleanText:     &result.CleanText,
		Intent:        result.Intent,
		Entities:      &entities,
		Summary3Lines: &result.Summary3Lines,
		Ideas:         result.Ideas,
		NextAction:    &result.NextAction,
		Confidence:    &result.Confidence,
		Context:       &result.Context,
		Status:        &done,
		ClearFeedback: clearFeedback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store transform result: %w", err)
	}

	m.storeEmbedding(ctx, record)

	return &ProcessOutcome{
		Record:          record,
		ConfirmQuestion: result.ConfirmQuestion,
	}, nil
}

// storeEmbedding writes an embedding for the record's clean text when
// embedding support is configured. Best effort only: failures are logged and
// never change the record outcome.
func (m *Manager) storeEmbedding(ctx context.Context, record *types.Record) {
	if m.embedder == nil || m.vectors == nil || record.CleanText == nil {
		return
	}

	vector, err := m.embedder.Embed(ctx, *record.CleanText)
	if err != nil {
		log.Printf("Lifecycle: embedding failed for record %s: %v", record.ID, err)
		return
	}
	if err := m.vectors.StoreEmbedding(ctx, record.ID, vector, m.embedder.GetModel()); err != nil {
		log.Printf("Lifecycle: storing embedding failed for record %s: %v", record.ID, err)
	}
}
