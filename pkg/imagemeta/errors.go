package imagemeta

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrMalformedEvent indicates a transport envelope that could not be
	// decoded at either layer
	ErrMalformedEvent = errors.New("malformed event envelope")

	// ErrInvalidFileType indicates an object key whose extension is outside
	// the allowed set
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrFetchFailed indicates the object body could not be read from the
	// content store
	ErrFetchFailed = errors.New("object fetch failed")

	// ErrRecordNotFound indicates a conditional mutation against a record
	// that does not exist
	ErrRecordNotFound = errors.New("record not found")

	// ErrDispatchFailed indicates the notification transport rejected a send
	ErrDispatchFailed = errors.New("notification dispatch failed")
)

// EventError wraps a failure tied to one object key during event processing.
type EventError struct {
	Key string
	Op  string
	Err error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event operation %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failure from the record store or the object store.
type StoreError struct {
	Store string
	Key   string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation %s failed for key %q: %v", e.Store, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err should be re-raised out of the per-message
// handler so the transport's redelivery and dead-letter budget applies.
//
// ErrRecordNotFound is the one terminal-local failure: the field updater
// absorbs it after logging, so a redelivery would change nothing. Everything
// else, including errors the pipeline does not recognize, counts toward the
// retry budget.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrRecordNotFound)
}
