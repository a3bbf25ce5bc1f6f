package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

func TestSetFeedback_ThumbsUp(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "r1", "note", nil, time.Now())

	rec, err := NewFeedbackService(store).SetFeedback(context.Background(), "r1", types.FeedbackThumbsUp, nil)
	if err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	if rec.Feedback == nil || *rec.Feedback != types.FeedbackThumbsUp {
		t.Errorf("unexpected feedback: %v", rec.Feedback)
	}
	if rec.FeedbackDetail != nil {
		t.Errorf("unexpected feedbackDetail: %v", *rec.FeedbackDetail)
	}
}

func TestSetFeedback_ThumbsDownWithDetail(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "r1", "note", nil, time.Now())

	detail := types.FeedbackDetailSummary
	rec, err := NewFeedbackService(store).SetFeedback(context.Background(), "r1", types.FeedbackThumbsDown, &detail)
	if err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	if rec.FeedbackDetail == nil || *rec.FeedbackDetail != types.FeedbackDetailSummary {
		t.Errorf("unexpected feedbackDetail: %v", rec.FeedbackDetail)
	}
}

func TestSetFeedback_UpVoteClearsStaleDetail(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "r1", "note", nil, time.Now())
	svc := NewFeedbackService(store)

	detail := types.FeedbackDetailIntent
	if _, err := svc.SetFeedback(context.Background(), "r1", types.FeedbackThumbsDown, &detail); err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}

	rec, err := svc.SetFeedback(context.Background(), "r1", types.FeedbackThumbsUp, nil)
	if err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	if rec.FeedbackDetail != nil {
		t.Errorf("detail from the earlier down-vote should be cleared, got %q", *rec.FeedbackDetail)
	}
}

func TestSetFeedback_InvalidValueRejectedBeforeWrite(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "r1", "note", nil, time.Now())
	before, _ := store.Get(context.Background(), "r1")

	_, err := NewFeedbackService(store).SetFeedback(context.Background(), "r1", types.Feedback("thumbs_sideways"), nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	after, _ := store.Get(context.Background(), "r1")
	if after.Feedback != nil || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("invalid feedback must not mutate the record")
	}
}

func TestSetFeedback_InvalidDetail(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "r1", "note", nil, time.Now())

	bad := types.FeedbackDetail("vibes")
	_, err := NewFeedbackService(store).SetFeedback(context.Background(), "r1", types.FeedbackThumbsDown, &bad)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSetFeedback_DetailRequiresDownVote(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "r1", "note", nil, time.Now())

	detail := types.FeedbackDetailIdea
	_, err := NewFeedbackService(store).SetFeedback(context.Background(), "r1", types.FeedbackThumbsUp, &detail)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSetFeedback_NotFound(t *testing.T) {
	store := newFakeStore()

	_, err := NewFeedbackService(store).SetFeedback(context.Background(), "missing", types.FeedbackThumbsUp, nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
