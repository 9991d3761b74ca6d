package domain

import "time"

// MetricType names a per-pipeline time series.
type MetricType string

// Recorded metric types.
const (
	MetricDocumentsProcessed MetricType = "documents_processed"
	MetricAvgLatency         MetricType = "avg_latency"
	MetricErrorRate          MetricType = "error_rate"
)

// MetricPoint is one append-only sample of a pipeline metric.
type MetricPoint struct {
	PipelineID string     `json:"pipelineId"`
	Type       MetricType `json:"type"`
	Value      float64    `json:"value"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PipelineMetrics groups a pipeline's metric series over a time window.
type PipelineMetrics struct {
	DocumentsProcessed []MetricPoint `json:"documentsProcessed"`
	AvgLatency         []MetricPoint `json:"avgLatency"`
	ErrorRate          []MetricPoint `json:"errorRate"`
}

// ActivityType classifies an audit feed entry.
type ActivityType string

// Activity types shown on the dashboard feed.
const (
	ActivityDocumentUploaded  ActivityType = "document_uploaded"
	ActivityDocumentProcessed ActivityType = "document_processed"
	ActivityPipelineStarted   ActivityType = "pipeline_started"
	ActivityPipelineStopped   ActivityType = "pipeline_stopped"
	ActivityError             ActivityType = "error"
)

// Activity is an entry in the audit feed derived from state transitions.
type Activity struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	Message    string       `json:"message"`
	PipelineID string       `json:"pipelineId,omitempty"`
	DocumentID string       `json:"documentId,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// DashboardStats summarises the whole installation.
type DashboardStats struct {
	TotalPipelines          int     `json:"totalPipelines"`
	ActivePipelines         int     `json:"activePipelines"`
	TotalDocuments          int     `json:"totalDocuments"`
	TotalPassages           int     `json:"totalChunks"`
	DocumentsProcessedToday int     `json:"documentsProcessedToday"`
	AvgProcessingTime       float64 `json:"avgProcessingTime"`
}

// EventType names a live-update notification.
type EventType string

// Document lifecycle events.
const (
	EventDocumentCreated    EventType = "document:created"
	EventDocumentProcessing EventType = "document:processing"
	EventDocumentCompleted  EventType = "document:completed"
	EventDocumentFailed     EventType = "document:failed"
	EventDocumentDeleted    EventType = "document:deleted"
)

// DashboardTopic is the global event topic.
const DashboardTopic = "dashboard"

// PipelineTopic returns the event topic scoped to one pipeline.
func PipelineTopic(pipelineID string) string {
	return "pipeline:" + pipelineID
}

// Event is a best-effort live-update notification.
type Event struct {
	Type       EventType `json:"type"`
	PipelineID string    `json:"pipelineId"`
	DocumentID string    `json:"documentId"`
	Document   *Document `json:"document,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsTerminal reports whether the event ends a document's processing run.
func (e Event) IsTerminal() bool {
	return e.Type == EventDocumentCompleted || e.Type == EventDocumentFailed
}
