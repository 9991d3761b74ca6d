package domain

import "math"

// Search limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxQueryLength     = 1000
)

// SearchRequest configures a similarity search.
type SearchRequest struct {
	// Query is the natural-language query text.
	Query string

	// PipelineID restricts results to one pipeline when set.
	PipelineID string

	// Limit is the maximum number of results (default 20, max 100).
	Limit int

	// Model overrides the embedding model used for the query.
	Model string
}

// SearchResult represents a single ranked passage.
type SearchResult struct {
	// PassageID is the matched passage.
	PassageID string `json:"id"`

	// DocumentID is the passage's document.
	DocumentID string `json:"documentId"`

	// DocumentName is the display name of the document.
	DocumentName string `json:"documentName"`

	// Content is the passage text.
	Content string `json:"content"`

	// Score is 1 - cosine distance. Higher is more similar.
	Score float64 `json:"score"`

	// Metadata is the passage metadata.
	Metadata map[string]any `json:"metadata"`
}

// CosineSimilarity returns 1 - cosine distance between a and b.
// Vectors of different length, or with zero magnitude, score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
