package domain

import "time"

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

// Document statuses. A document only ever moves forward:
// pending -> processing -> completed | failed.
const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentCompleted || s == DocumentFailed
}

// CanTransitionTo reports whether moving from s to next is a forward step.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case DocumentPending:
		return next == DocumentProcessing
	case DocumentProcessing:
		return next == DocumentCompleted || next == DocumentFailed
	default:
		return false
	}
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents an uploaded file and its processing state.
// It is created on upload and mutated only by the document processor.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// PipelineID links to the owning Pipeline. Immutable.
	PipelineID string `json:"pipelineId"`

	// Name is the original file name shown to operators.
	Name string `json:"name"`

	// MimeType is the declared media type of the upload.
	MimeType string `json:"mimeType"`

	// Size is the upload size in bytes.
	Size int64 `json:"size"`

	// Status is the current processing state.
	Status DocumentStatus `json:"status"`

	// ChunkCount is set only on completion.
	ChunkCount *int `json:"chunkCount,omitempty"`

	// ErrorMessage is set only on failure.
	ErrorMessage string `json:"errorMessage,omitempty"`

	// FilePath is the file store key of the uploaded bytes.
	FilePath string `json:"-"`

	// UploadedAt is when the document was created.
	UploadedAt time.Time `json:"uploadedAt"`

	// ProcessedAt is stamped on completion or failure.
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// Passage is a bounded segment of a document's text stored with its embedding.
// Passages are immutable and are deleted only alongside their document.
type Passage struct {
	// ID is the unique identifier for the passage.
	ID string `json:"id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"documentId"`

	// PipelineID is denormalised for scoped search.
	PipelineID string `json:"pipelineId"`

	// Content is the passage text.
	Content string `json:"content"`

	// Embedding is the vector representation for similarity search.
	Embedding []float32 `json:"-"`

	// Metadata holds chunkIndex, startChar, endChar and documentName.
	Metadata map[string]any `json:"metadata"`

	// ChunkIndex is the 0-based position within the document.
	ChunkIndex int `json:"chunkIndex"`

	CreatedAt time.Time `json:"createdAt"`
}
