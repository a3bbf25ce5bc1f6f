package engine

import (
	"context"
	"fmt"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// FeedbackService records user approval or disapproval on an existing
// record. All validation happens before any store write.
type FeedbackService struct {
	store storage.RecordStore
}

// NewFeedbackService creates a feedback service over the given store.
func NewFeedbackService(store storage.RecordStore) *FeedbackService {
	return &FeedbackService{store: store}
}

// SetFeedback sets feedback on a record. The detail tag is only meaningful
// for a down-vote, so it is rejected unless feedback is thumbs_down.
// Returns the updated record, storage.ErrInvalidInput on bad enum values, or
// storage.ErrNotFound.
func (s *FeedbackService) SetFeedback(ctx context.Context, id string, feedback types.Feedback, detail *types.FeedbackDetail) (*types.Record, error) {
	if !types.IsValidFeedback(feedback) {
		return nil, fmt.Errorf("%w: invalid feedback value %q", storage.ErrInvalidInput, feedback)
	}
	if detail != nil {
		if !types.IsValidFeedbackDetail(*detail) {
			return nil, fmt.Errorf("%w: invalid feedbackDetail value %q", storage.ErrInvalidInput, *detail)
		}
		if feedback != types.FeedbackThumbsDown {
			return nil, fmt.Errorf("%w: feedbackDetail requires feedback to be thumbs_down", storage.ErrInvalidInput)
		}
	}

	return s.store.Update(ctx, id, storage.RecordUpdate{
		Feedback:       &feedback,
		FeedbackDetail: detail,
		// A stale detail from an earlier down-vote must not survive a new
		// vote without one.
		ClearFeedbackDetail: detail == nil,
	})
}
