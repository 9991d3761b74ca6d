package domain

import (
	"fmt"
	"time"
)

// PipelineStatus is the lifecycle state of a pipeline.
type PipelineStatus string

// Available pipeline statuses.
const (
	// PipelineActive processes uploaded documents immediately.
	PipelineActive PipelineStatus = "active"

	// PipelinePaused accepts uploads but leaves them pending.
	PipelinePaused PipelineStatus = "paused"

	// PipelineError marks a pipeline an operator must inspect.
	PipelineError PipelineStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s PipelineStatus) IsValid() bool {
	switch s {
	case PipelineActive, PipelinePaused, PipelineError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s PipelineStatus) String() string {
	return string(s)
}

// SourceType identifies where a pipeline's documents come from.
type SourceType string

// Available source types.
const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
	SourceS3   SourceType = "s3"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceFile, SourceURL, SourceS3:
		return true
	default:
		return false
	}
}

// Chunking and embedding bounds accepted for a pipeline.
const (
	MinChunkSize    = 100
	MaxChunkSize    = 4000
	MaxChunkOverlap = 500
)

// PipelineConfig holds the chunking and embedding settings shared by a pipeline's documents.
type PipelineConfig struct {
	// ChunkSize is the maximum passage length in characters.
	ChunkSize int `json:"chunkSize"`

	// ChunkOverlap is the number of characters shared by consecutive passages.
	ChunkOverlap int `json:"chunkOverlap"`

	// EmbeddingModel is the provider model used for passages and scoped queries.
	EmbeddingModel string `json:"embeddingModel"`

	// SourceType records where documents originate.
	SourceType SourceType `json:"sourceType"`

	// S3Bucket is the bucket name when SourceType is s3.
	S3Bucket string `json:"s3Bucket,omitempty"`

	// S3Prefix is the key prefix when SourceType is s3.
	S3Prefix string `json:"s3Prefix,omitempty"`
}

// DefaultPipelineConfig returns the configuration used when none is given.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:      512,
		ChunkOverlap:   50,
		EmbeddingModel: "text-embedding-3-small",
		SourceType:     SourceFile,
	}
}

// Validate checks the configuration bounds.
// The chunking engine assumes a validated configuration.
func (c PipelineConfig) Validate() error {
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk size must be between %d and %d", ErrInvalidInput, MinChunkSize, MaxChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap > MaxChunkOverlap {
		return fmt.Errorf("%w: chunk overlap must be between 0 and %d", ErrInvalidInput, MaxChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be smaller than chunk size", ErrInvalidInput)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding model is required", ErrInvalidInput)
	}
	if !c.SourceType.IsValid() {
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, c.SourceType)
	}
	return nil
}

// PipelineConfigPatch carries a partial configuration update.
// Nil fields are left unchanged.
type PipelineConfigPatch struct {
	ChunkSize      *int
	ChunkOverlap   *int
	EmbeddingModel *string
	SourceType     *SourceType
	S3Bucket       *string
	S3Prefix       *string
}

// Apply merges the patch into cfg and returns the result.
func (p PipelineConfigPatch) Apply(cfg PipelineConfig) PipelineConfig {
	if p.ChunkSize != nil {
		cfg.ChunkSize = *p.ChunkSize
	}
	if p.ChunkOverlap != nil {
		cfg.ChunkOverlap = *p.ChunkOverlap
	}
	if p.EmbeddingModel != nil {
		cfg.EmbeddingModel = *p.EmbeddingModel
	}
	if p.SourceType != nil {
		cfg.SourceType = *p.SourceType
	}
	if p.S3Bucket != nil {
		cfg.S3Bucket = *p.S3Bucket
	}
	if p.S3Prefix != nil {
		cfg.S3Prefix = *p.S3Prefix
	}
	return cfg
}

// Pipeline is a named group of documents with shared processing settings.
type Pipeline struct {
	// ID is the unique identifier for the pipeline.
	ID string `json:"id"`

	// Name is the human-readable name.
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Status gates whether uploads are processed immediately.
	Status PipelineStatus `json:"status"`

	// Config holds chunking and embedding settings.
	Config PipelineConfig `json:"config"`

	// DocumentCount is derived from the documents table on read.
	DocumentCount int `json:"documentCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive reports whether uploads should be processed immediately.
func (p *Pipeline) IsActive() bool {
	return p.Status == PipelineActive
}

// PipelineUpdate carries a partial pipeline update.
type PipelineUpdate struct {
	Name        *string
	Description *string
	Config      *PipelineConfigPatch
}

// IsEmpty reports whether the update changes nothing.
func (u PipelineUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Config == nil
}
