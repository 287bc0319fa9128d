package database

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrIntegrity indicates a uniqueness or constraint violation. A
	// duplicate content identifier is a defect, never expected operation.
	ErrIntegrity = errors.New("integrity violation")

	// ErrPersistence indicates the store could not be read or written.
	// Callers must not confuse it with an empty store.
	ErrPersistence = errors.New("persistence unavailable")

	// ErrValidation indicates a rejected value before any write happened.
	ErrValidation = errors.New("validation failed")
)

// The vendor's "no such table" condition never crosses the package
// boundary: isSchemaMissing classifies it and operations bootstrap the
// schema and retry before reporting anything to callers.
