package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ListOptions provides filtering and limiting for list operations. The zero
// value means "everything, newest first, default limit".
type ListOptions struct {
	// Query is a substring matched (OR semantics) against rawText, cleanText,
	// summary3lines, ideas serialized as text, and nextAction.
	// Empty string means no text filter.
	Query string

	// Intent restricts results to records whose intent list contains this tag.
	// Empty string means no intent filter.
	Intent string

	// CreatedFrom filters to records created at or after this time.
	// Zero value means no lower bound.
	CreatedFrom time.Time

	// CreatedTo filters to records created at or before this time. Callers
	// supplying a date-only bound are expected to extend it to end-of-day.
	// Zero value means no upper bound.
	CreatedTo time.Time

	// Limit is the maximum number of records to return (default: 100,
	// max: 500). ListUnlimited disables the cap entirely.
	Limit int
}

// ListUnlimited as a Limit asks the store for every matching record.
const ListUnlimited = -1

// Normalize applies defaults and caps to the ListOptions. Negative limits
// are coalesced to ListUnlimited and left uncapped.
func (o *ListOptions) Normalize() {
	if o.Limit < 0 {
		o.Limit = ListUnlimited
		return
	}
	if o.Limit == 0 {
		o.Limit = 100
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
}
