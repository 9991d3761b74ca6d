// Package postprocessors builds the text post-processing stages applied
// after extraction.
package postprocessors

import (
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/postprocessors/chunker"
)

// Verify the factory signature.
var _ driven.ChunkerFactory = NewChunker

// Ensure the chunker implements the port.
var _ driven.PassageChunker = (*chunker.Processor)(nil)

// NewChunker returns the sentence-aware chunker configured for a pipeline.
// Zero size or negative overlap keep the chunker defaults.
func NewChunker(cfg domain.PipelineConfig) driven.PassageChunker {
	return chunker.New(chunker.ForConfig(cfg)...)
}
