// Package jsontext pretty-prints JSON uploads so keys and values chunk
// on readable boundaries.
package jsontext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

const indent = "  "

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles JSON documents.
type Normaliser struct{}

// New creates a new JSON normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/json"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise re-indents the document with two spaces.
func (n *Normaliser) Normalise(_ context.Context, content []byte, _ string) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(content), "", indent); err != nil {
		return "", fmt.Errorf("%w: parsing json: %v", domain.ErrExtraction, err)
	}
	return buf.String(), nil
}
