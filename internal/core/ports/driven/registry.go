package driven

import "context"

// NormaliserRegistry selects the appropriate normaliser for a file.
// Unknown MIME types fall back to the lowest-priority text normaliser.
type NormaliserRegistry interface {
	// Normalise extracts text using the best matching normaliser.
	Normalise(ctx context.Context, content []byte, mimeType string) (string, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns the MIME types accepted for upload.
	SupportedMIMETypes() []string
}
