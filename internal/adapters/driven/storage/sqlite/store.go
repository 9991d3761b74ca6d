package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// databaseFile is the database file name inside the data directory.
const databaseFile = "ragpipe.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragpipe/data/ragpipe.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragpipe", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, databaseFile)

	// WAL for concurrent readers, busy_timeout for concurrent document writers.
	// foreign_keys is set per connection so cascades hold across the pool.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PipelineStore returns a PipelineStore interface backed by this store.
func (s *Store) PipelineStore() driven.PipelineStore {
	return &pipelineStore{store: s}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// PassageSearcher returns a PassageSearcher interface backed by this store.
func (s *Store) PassageSearcher() driven.PassageSearcher {
	return &passageSearcher{store: s}
}

// MetricStore returns a MetricStore interface backed by this store.
func (s *Store) MetricStore() driven.MetricStore {
	return &metricStore{store: s}
}

// ActivityStore returns an ActivityStore interface backed by this store.
func (s *Store) ActivityStore() driven.ActivityStore {
	return &activityStore{store: s}
}

// StatsStore returns a StatsStore interface backed by this store.
func (s *Store) StatsStore() driven.StatsStore {
	return &statsStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// applyMigration executes one migration and records its version atomically.
func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	return tx.Commit()
}

// ==================== Pipeline Store ====================

// pipelineStore implements driven.PipelineStore.
type pipelineStore struct {
	store *Store
}

var _ driven.PipelineStore = (*pipelineStore)(nil)

const pipelineColumns = `
	p.id, p.name, p.description, p.status, p.config, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM documents d WHERE d.pipeline_id = p.id)`

// SavePipeline stores or updates a pipeline.
func (s *pipelineStore) SavePipeline(ctx context.Context, pipeline *domain.Pipeline) error {
	configJSON, err := json.Marshal(pipeline.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	if pipeline.CreatedAt.IsZero() {
		pipeline.CreatedAt = now
	}
	if pipeline.UpdatedAt.IsZero() {
		pipeline.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO pipelines (id, name, description, status, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			config = excluded.config,
			updated_at = excluded.updated_at
	`, pipeline.ID, pipeline.Name, pipeline.Description, string(pipeline.Status), string(configJSON),
		toMillis(pipeline.CreatedAt), toMillis(pipeline.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving pipeline: %w", err)
	}
	return nil
}

// GetPipeline retrieves a pipeline by ID.
func (s *pipelineStore) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+pipelineColumns+` FROM pipelines p WHERE p.id = ?`, id)
	return scanPipeline(row)
}

// ListPipelines returns all pipelines, newest first.
func (s *pipelineStore) ListPipelines(ctx context.Context) ([]domain.Pipeline, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+pipelineColumns+` FROM pipelines p ORDER BY p.created_at DESC, p.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := []domain.Pipeline{}
	for rows.Next() {
		pipeline, err := scanPipeline(rows)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, *pipeline)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pipelines: %w", err)
	}

	return pipelines, nil
}

// DeletePipeline removes a pipeline. Documents, passages and metrics cascade.
func (s *pipelineStore) DeletePipeline(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM pipelines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting pipeline: %w", err)
	}
	return requireAffected(result)
}

// SetPipelineStatus changes a pipeline's status.
func (s *pipelineStore) SetPipelineStatus(
	ctx context.Context, id string, status domain.PipelineStatus,
) (*domain.Pipeline, error) {
	result, err := s.store.db.ExecContext(ctx,
		"UPDATE pipelines SET status = ?, updated_at = ? WHERE id = ?",
		string(status), toMillis(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("updating pipeline status: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return s.GetPipeline(ctx, id)
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `
	id, pipeline_id, name, mime_type, size, status, chunk_count,
	error_message, file_path, uploaded_at, processed_at`

// CreateDocument stores a new document.
func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.Status == "" {
		doc.Status = domain.DocumentPending
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.PipelineID, doc.Name, doc.MimeType, doc.Size, string(doc.Status),
		nullInt(doc.ChunkCount), nullString(doc.ErrorMessage), doc.FilePath,
		toMillis(doc.UploadedAt), nullMillis(doc.ProcessedAt))

	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// ListDocuments returns documents, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, pipelineID string) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if pipelineID != "" {
		query += ` WHERE pipeline_id = ?`
		args = append(args, pipelineID)
	}
	query += ` ORDER BY uploaded_at DESC, rowid DESC`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// ClaimDocument moves a pending document to processing.
func (s *documentStore) ClaimDocument(ctx context.Context, id string) (bool, error) {
	result, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET status = ? WHERE id = ? AND status = ?",
		string(domain.DocumentProcessing), id, string(domain.DocumentPending))
	if err != nil {
		return false, fmt.Errorf("claiming document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking claim: %w", err)
	}
	return affected == 1, nil
}

// CompleteDocument inserts passages and marks the document completed in one transaction.
func (s *documentStore) CompleteDocument(
	ctx context.Context, id string, passages []domain.Passage, processedAt time.Time,
) (*domain.Document, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, `
		UPDATE documents SET status = ?, chunk_count = ?, error_message = NULL, processed_at = ?
		WHERE id = ? AND status = ?
	`, string(domain.DocumentCompleted), len(passages), toMillis(processedAt),
		id, string(domain.DocumentProcessing))
	if err != nil {
		return nil, fmt.Errorf("completing document: %w", err)
	}
	if err := s.checkTransition(ctx, tx, result, id); err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passages (id, document_id, pipeline_id, content, embedding, metadata, chunk_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	createdAt := toMillis(processedAt)
	for _, passage := range passages {
		metadataJSON, err := json.Marshal(passage.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling passage metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, passage.ID, id, passage.PipelineID, passage.Content,
			float32SliceToBytes(passage.Embedding), string(metadataJSON), passage.ChunkIndex,
			createdAt); err != nil {
			return nil, fmt.Errorf("saving passage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return s.GetDocument(ctx, id)
}

// FailDocument marks a processing document failed.
func (s *documentStore) FailDocument(
	ctx context.Context, id, message string, processedAt time.Time,
) (*domain.Document, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, `
		UPDATE documents SET status = ?, error_message = ?, processed_at = ?
		WHERE id = ? AND status = ?
	`, string(domain.DocumentFailed), message, toMillis(processedAt),
		id, string(domain.DocumentProcessing))
	if err != nil {
		return nil, fmt.Errorf("failing document: %w", err)
	}
	if err := s.checkTransition(ctx, tx, result, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return s.GetDocument(ctx, id)
}

// checkTransition distinguishes a missing document from one in the wrong state
// when a guarded status update touched no rows.
func (s *documentStore) checkTransition(ctx context.Context, tx *sql.Tx, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var status string
	err = tx.QueryRowContext(ctx, "SELECT status FROM documents WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading document status: %w", err)
	}
	return fmt.Errorf("%w: document %s is %s", domain.ErrInvalidTransition, id, status)
}

// DeleteDocument removes a document. Passages cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(result)
}

// GetPassages returns a document's passages ordered by chunk index.
func (s *documentStore) GetPassages(ctx context.Context, documentID string) ([]domain.Passage, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, pipeline_id, content, embedding, metadata, chunk_index, created_at
		FROM passages WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	passages := []domain.Passage{}
	for rows.Next() {
		var passage domain.Passage
		var embedding []byte
		var metadataJSON string
		var createdAt int64
		if err := rows.Scan(&passage.ID, &passage.DocumentID, &passage.PipelineID, &passage.Content,
			&embedding, &metadataJSON, &passage.ChunkIndex, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}

		passage.Embedding = bytesToFloat32Slice(embedding)
		passage.CreatedAt = fromMillis(createdAt)
		if err := unmarshalMetadata(metadataJSON, &passage.Metadata); err != nil {
			return nil, err
		}
		passages = append(passages, passage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	return passages, nil
}

// PendingDocuments returns pending documents of active pipelines, oldest first.
func (s *documentStore) PendingDocuments(ctx context.Context, pipelineID string, limit int) ([]domain.Document, error) {
	query := `
		SELECT ` + prefixColumns("d", documentColumns) + `
		FROM documents d
		JOIN pipelines p ON p.id = d.pipeline_id
		WHERE d.status = ? AND p.status = ?`
	args := []any{string(domain.DocumentPending), string(domain.PipelineActive)}
	if pipelineID != "" {
		query += ` AND d.pipeline_id = ?`
		args = append(args, pipelineID)
	}
	query += ` ORDER BY d.uploaded_at ASC, d.rowid ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// toMillis converts a time to Unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// fromMillis converts Unix milliseconds to a UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nullMillis converts an optional time to a nullable column value.
func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

// nullInt converts an optional int to a nullable column value.
func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// nullString converts an empty string to a NULL column value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// requireAffected maps an update or delete that touched no rows to ErrNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// unmarshalMetadata decodes a JSON metadata column.
func unmarshalMetadata(data string, out *map[string]any) error {
	if data == "" || data == "null" {
		*out = map[string]any{}
		return nil
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return nil
}

// scanPipeline scans a pipeline row including its document count.
func scanPipeline(row rowScanner) (*domain.Pipeline, error) {
	var pipeline domain.Pipeline
	var status, configJSON string
	var createdAt, updatedAt int64

	if err := row.Scan(&pipeline.ID, &pipeline.Name, &pipeline.Description, &status, &configJSON,
		&createdAt, &updatedAt, &pipeline.DocumentCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning pipeline: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &pipeline.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	pipeline.Status = domain.PipelineStatus(status)
	pipeline.CreatedAt = fromMillis(createdAt)
	pipeline.UpdatedAt = fromMillis(updatedAt)
	return &pipeline, nil
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var chunkCount, processedAt sql.NullInt64
	var errorMessage sql.NullString
	var uploadedAt int64

	if err := row.Scan(&doc.ID, &doc.PipelineID, &doc.Name, &doc.MimeType, &doc.Size, &status,
		&chunkCount, &errorMessage, &doc.FilePath, &uploadedAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	doc.ErrorMessage = errorMessage.String
	doc.UploadedAt = fromMillis(uploadedAt)
	if chunkCount.Valid {
		n := int(chunkCount.Int64)
		doc.ChunkCount = &n
	}
	if processedAt.Valid {
		t := fromMillis(processedAt.Int64)
		doc.ProcessedAt = &t
	}

	return &doc, nil
}

// scanDocuments scans all document rows.
func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}
