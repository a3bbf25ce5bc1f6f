// Package types defines the core data structures for the tubuyaki capture
// system: the captured record, its derived structure, and the fixed
// vocabularies used for intent classification and feedback.
package types

import "time"

// RecordStatus represents the lifecycle state of a tubuyaki record.
type RecordStatus string

const (
	// StatusProcessing indicates the transform call is in flight. A record is
	// never left in this state once a create or reprocess call has returned.
	StatusProcessing RecordStatus = "processing"

	// StatusDone indicates the transform succeeded and derived fields are set.
	StatusDone RecordStatus = "done"

	// StatusPending indicates no LLM credentials were configured; the raw
	// text is stored without derived structure.
	StatusPending RecordStatus = "pending"

	// StatusError indicates the transform call failed. Raw text is preserved;
	// derived fields from an earlier successful run (if any) are kept.
	StatusError RecordStatus = "error"
)

// Feedback values a user can attach to a processed record.
type Feedback string

const (
	FeedbackThumbsUp   Feedback = "thumbs_up"
	FeedbackThumbsDown Feedback = "thumbs_down"
)

// FeedbackDetail categorizes what was wrong when feedback is thumbs_down.
type FeedbackDetail string

const (
	FeedbackDetailIntent     FeedbackDetail = "intent"
	FeedbackDetailSummary    FeedbackDetail = "summary"
	FeedbackDetailSuggestion FeedbackDetail = "suggestion"
	FeedbackDetailIdea       FeedbackDetail = "idea"
)

// Intent tag vocabulary. The transform prompt classifies every utterance into
// one or more of these; unrecognized tags coming back from the model are kept
// as-is so newer prompt revisions don't break older binaries.
const (
	IntentProblem  = "Problem"
	IntentDesire   = "Desire"
	IntentInsight  = "Insight"
	IntentDecision = "Decision"
	IntentNote     = "Note"
)

// IntentTags returns the fixed intent vocabulary in canonical order.
func IntentTags() []string {
	return []string{IntentProblem, IntentDesire, IntentInsight, IntentDecision, IntentNote}
}

// Entities holds the six fixed extraction buckets. Buckets are never nil on a
// processed record; absent categories are empty slices.
type Entities struct {
	People        []string `json:"people"`
	Places        []string `json:"places"`
	Deadlines     []string `json:"deadlines"`
	Amounts       []string `json:"amounts"`
	Tools         []string `json:"tools"`
	Organizations []string `json:"organizations"`
}

// Record represents a single captured utterance (tubuyaki) and the structure
// derived from it. Pointer fields are nil until the record has been processed
// successfully at least once.
type Record struct {
	ID      string `json:"id"`      // Opaque unique identifier, allocated by the store
	RawText string `json:"rawText"` // Original captured text, verbatim

	// Derived fields, populated when Status is "done"
	CleanText     *string   `json:"cleanText"`     // Filler-stripped text
	Intent        []string  `json:"intent"`        // One or more intent tags; empty before processing
	Entities      *Entities `json:"entities"`      // Six-bucket extraction
	Summary3Lines *string   `json:"summary3lines"` // Newline-joined summary, up to three lines
	Ideas         []string  `json:"ideas"`         // 0-3 suggested ideas
	NextAction    *string   `json:"nextAction"`    // Single recommended next step
	Confidence    *float64  `json:"confidence"`    // Model self-assessed certainty in [0,1]
	Context       *string   `json:"context"`       // Situational tag (walk/drive/unknown)

	// User evaluation of the derived output. Cleared on successful reprocess.
	Feedback       *Feedback       `json:"feedback"`
	FeedbackDetail *FeedbackDetail `json:"feedbackDetail"`

	Status    RecordStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// IsValidStatus checks if the given status is a known lifecycle state.
func IsValidStatus(s RecordStatus) bool {
	switch s {
	case StatusProcessing, StatusDone, StatusPending, StatusError:
		return true
	}
	return false
}

// IsValidFeedback checks if the given feedback value is in the allowed set.
func IsValidFeedback(f Feedback) bool {
	return f == FeedbackThumbsUp || f == FeedbackThumbsDown
}

// IsValidFeedbackDetail checks if the given detail value is in the allowed set.
func IsValidFeedbackDetail(d FeedbackDetail) bool {
	switch d {
	case FeedbackDetailIntent, FeedbackDetailSummary, FeedbackDetailSuggestion, FeedbackDetailIdea:
		return true
	}
	return false
}

// IsKnownIntentTag checks whether the tag belongs to the fixed vocabulary.
// Unknown tags are tolerated on records (forward compatibility with newer
// prompt revisions) but this is useful for validating search filters.
func IsKnownIntentTag(tag string) bool {
	switch tag {
	case IntentProblem, IntentDesire, IntentInsight, IntentDecision, IntentNote:
		return true
	}
	return false
}

// EmptyEntities returns an Entities value with all six buckets initialized to
// empty slices, which is the canonical "nothing extracted" shape.
func EmptyEntities() *Entities {
	return &Entities{
		People:        []string{},
		Places:        []string{},
		Deadlines:     []string{},
		Amounts:       []string{},
		Tools:         []string{},
		Organizations: []string{},
	}
}
