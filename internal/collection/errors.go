package collection

import "errors"

// Loader errors.
var (
	// ErrNotFound is returned when the collection file does not exist.
	ErrNotFound = errors.New("collection not found")

	// ErrFetch is returned when a remote collection cannot be retrieved.
	ErrFetch = errors.New("fetch collection")

	// ErrMalformed is returned when the document is not a valid collection.
	ErrMalformed = errors.New("malformed collection")
)
