package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown MIME type or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTransition indicates a document status change that would move backwards.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Processing Errors.

	// ErrProviderNotConfigured indicates the selected embedding provider has no credential.
	ErrProviderNotConfigured = errors.New("embedding provider not configured")

	// ErrExtraction indicates the uploaded file could not be turned into text.
	ErrExtraction = errors.New("text extraction failed")

	// ErrProvider indicates the embedding provider rejected or failed a request.
	ErrProvider = errors.New("embedding provider error")

	// ErrPersistence indicates the durable store rejected a write.
	ErrPersistence = errors.New("persistence error")
)
