// Package plaintext reads text uploads as-is.
package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text, Markdown and CSV documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/csv",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the content unchanged. Content that is not valid
// UTF-8 cannot be read as text.
func (n *Normaliser) Normalise(_ context.Context, content []byte, mimeType string) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s content is not valid UTF-8", domain.ErrExtraction, mimeType)
	}
	return string(content), nil
}
