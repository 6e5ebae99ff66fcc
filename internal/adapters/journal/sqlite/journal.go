// Package sqlite provides a SQLite-backed journal writer for sessions
// that want pass history to survive a restart.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/pkg/serialization"
)

// Writer implements journal.Writer on SQLite.
type Writer struct {
	db         *sql.DB
	serializer *serialization.Serializer
	tableName  string
}

// NewWriter creates a SQLite journal writer over an open database.
func NewWriter(db *sql.DB, serializer *serialization.Serializer) *Writer {
	if serializer == nil {
		serializer = serialization.DefaultSerializer()
	}
	return &Writer{
		db:         db,
		serializer: serializer,
		tableName:  "pass_records",
	}
}

// Open opens (or creates) a SQLite database at path and initializes the
// schema.
func Open(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	w := NewWriter(db, nil)
	if err := w.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

// WithTableName allows overriding the default table name with validation.
// Only alphanumeric and underscore are permitted to prevent SQL injection
// via identifiers.
func (w *Writer) WithTableName(name string) *Writer {
	if isSafeIdent(name) {
		w.tableName = name
	}
	return w
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// Initialize creates the schema if it does not exist.
func (w *Writer) Initialize(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL,
			pass_trigger TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			cancelled INTEGER NOT NULL DEFAULT 0,
			payload BLOB NOT NULL
		)`, w.tableName)
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create journal table: %w", err)
	}
	index := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_graph ON %s (graph_id, start_time)`,
		w.tableName, w.tableName)
	if _, err := w.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create journal index: %w", err)
	}
	return nil
}

// Append persists a pass record
func (w *Writer) Append(ctx context.Context, record *journal.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("record validation failed: %w", err)
	}
	payload, err := w.serializer.Serialize(record)
	if err != nil {
		return fmt.Errorf("%w: %v", journal.ErrAppendFailed, err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, graph_id, pass_trigger, start_time, cancelled, payload)
		VALUES (?, ?, ?, ?, ?, ?)`, w.tableName)
	_, err = w.db.ExecContext(ctx, query,
		record.ID.String(),
		record.GraphID.String(),
		string(record.Trigger),
		record.StartTime.UnixNano(),
		boolToInt(record.Cancelled),
		payload,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", journal.ErrAppendFailed, err)
	}
	return nil
}

// Load retrieves a record by ID
func (w *Writer) Load(ctx context.Context, id uuid.UUID) (*journal.Record, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, w.tableName)
	var payload []byte
	err := w.db.QueryRowContext(ctx, query, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", journal.ErrLoadFailed, err)
	}
	var record journal.Record
	if err := w.serializer.Deserialize(payload, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", journal.ErrLoadFailed, err)
	}
	return &record, nil
}

// List returns records matching the filter, newest first
func (w *Writer) List(ctx context.Context, filter journal.Filter) ([]*journal.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	var conditions []string
	var args []interface{}
	if filter.GraphID != uuid.Nil {
		conditions = append(conditions, "graph_id = ?")
		args = append(args, filter.GraphID.String())
	}
	if filter.Trigger != "" {
		conditions = append(conditions, "pass_trigger = ?")
		args = append(args, string(filter.Trigger))
	}
	if filter.Since != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := fmt.Sprintf(`SELECT payload FROM %s`, w.tableName)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", journal.ErrLoadFailed, err)
	}
	defer rows.Close()

	var out []*journal.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", journal.ErrLoadFailed, err)
		}
		var record journal.Record
		if err := w.serializer.Deserialize(payload, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", journal.ErrLoadFailed, err)
		}
		out = append(out, &record)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (w *Writer) Close() error {
	return w.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ensure interface compliance at compile time
var _ journal.Writer = (*Writer)(nil)
