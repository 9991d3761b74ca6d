// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingProvider: Turns text into fixed-dimension vectors
//   - PipelineStore, DocumentStore: Entity persistence
//   - PassageSearcher: Similarity ranking over stored passages
//   - MetricStore, ActivityStore: Append-only observability records
//   - FileStore: Temporary storage for uploaded bytes
//   - EventBus: Best-effort live-update fan-out
//   - Normaliser, NormaliserRegistry: Text extraction by MIME type
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
