// Package chunker splits document text into overlapping, sentence-aware passages.
package chunker

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Metadata keys written on every passage.
const (
	MetaChunkIndex   = "chunkIndex"
	MetaStartChar    = "startChar"
	MetaEndChar      = "endChar"
	MetaDocumentName = "documentName"
)

// Processor turns document text into passage drafts without embeddings.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// ForConfig returns the options matching a pipeline configuration.
func ForConfig(cfg domain.PipelineConfig) []Option {
	return []Option{WithChunkSize(cfg.ChunkSize), WithOverlap(cfg.ChunkOverlap)}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process chunks text into passages of doc, in chunk order.
// Passage metadata records the chunk offsets and the document name.
func (p *Processor) Process(doc *domain.Document, text string) []domain.Passage {
	segments := Chunk(text, p.chunkSize, p.overlap)
	passages := make([]domain.Passage, 0, len(segments))

	for _, seg := range segments {
		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			PipelineID: doc.PipelineID,
			Content:    seg.Content,
			ChunkIndex: seg.ChunkIndex,
			Metadata: map[string]any{
				MetaChunkIndex:   seg.ChunkIndex,
				MetaStartChar:    seg.StartChar,
				MetaEndChar:      seg.EndChar,
				MetaDocumentName: doc.Name,
			},
		})
	}

	return passages
}
