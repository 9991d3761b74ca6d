// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - PipelineStore: Pipeline configuration persistence
//   - DocumentStore: Document lifecycle and passage persistence
//   - PassageSearcher: Cosine similarity ranking over stored embeddings
//   - MetricStore: Append-only pipeline metric points
//   - ActivityStore: Dashboard audit feed
//   - StatsStore: Installation-wide dashboard figures
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each applied version is recorded in schema_migrations.
// Timestamps are stored as Unix milliseconds (UTC) so that window queries
// compare integers.
//
// # Data Location
//
// By default, the database is stored at ~/.ragpipe/data/ragpipe.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Every document state change is a single transaction.
package sqlite
