package driven

import "github.com/custodia-labs/ragpipe/internal/core/domain"

// PassageChunker splits extracted document text into passage drafts.
// Drafts carry content, chunk index and metadata but no embedding.
type PassageChunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Process returns the passages of doc in chunk order.
	Process(doc *domain.Document, text string) []domain.Passage
}

// ChunkerFactory builds the chunker for a pipeline configuration.
type ChunkerFactory func(cfg domain.PipelineConfig) PassageChunker
