package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record id is absent from the store.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by a fresh insert when the id is already stored.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrValidation is returned for an annotation write with the wrong shape or range.
	ErrValidation = errors.New("invalid annotation value")
)

// ErrMalformedMetadata indicates a metadata document that failed to parse.
// Digest aborts without touching any table when it sees one.
//
// The underlying parse error can be accessed via errors.Unwrap.
type ErrMalformedMetadata struct {
	ID    string
	cause error
}

func (e *ErrMalformedMetadata) Error() string {
	return fmt.Sprintf("malformed metadata for record %s: %v", e.ID, e.cause)
}

func (e *ErrMalformedMetadata) Unwrap() error { return e.cause }
