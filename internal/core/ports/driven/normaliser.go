package driven

import "context"

// Normaliser extracts plain text from an uploaded file.
// Each normaliser handles specific MIME types (e.g., PDF, JSON).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise converts raw file bytes into text.
	Normalise(ctx context.Context, content []byte, mimeType string) (string, error)
}
