// Package postgres provides a PostgreSQL-backed journal writer for
// deployments that centralize pass history.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/pkg/serialization"
)

// Writer implements journal.Writer for PostgreSQL
type Writer struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
	tableName  string
}

// NewWriter creates a PostgreSQL journal writer over an existing pool.
func NewWriter(pool *pgxpool.Pool, serializer *serialization.Serializer) *Writer {
	if serializer == nil {
		serializer = serialization.DefaultSerializer()
	}
	return &Writer{
		pool:       pool,
		serializer: serializer,
		tableName:  "pass_records",
	}
}

// CreateTables creates the necessary database tables
func (w *Writer) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			graph_id UUID NOT NULL,
			pass_trigger VARCHAR(32) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			cancelled BOOLEAN NOT NULL DEFAULT FALSE,
			payload BYTEA NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id, start_time);
	`, w.tableName, w.tableName, w.tableName)

	if _, err := w.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
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
		INSERT INTO %s (id, graph_id, pass_trigger, start_time, cancelled, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			cancelled = EXCLUDED.cancelled,
			payload = EXCLUDED.payload
	`, w.tableName)

	_, err = w.pool.Exec(ctx, query,
		record.ID, record.GraphID, string(record.Trigger),
		record.StartTime, record.Cancelled, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", journal.ErrAppendFailed, err)
	}
	return nil
}

// Load retrieves a record by ID
func (w *Writer) Load(ctx context.Context, id uuid.UUID) (*journal.Record, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = $1`, w.tableName)

	var payload []byte
	err := w.pool.QueryRow(ctx, query, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
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

	query, args := w.buildListQuery(filter)
	rows, err := w.pool.Query(ctx, query, args...)
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

// buildListQuery constructs the SQL query for listing records
func (w *Writer) buildListQuery(filter journal.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT payload FROM %s WHERE 1=1", w.tableName)
	args := make([]interface{}, 0)
	argCount := 0

	if filter.GraphID != uuid.Nil {
		argCount++
		query += fmt.Sprintf(" AND graph_id = $%d", argCount)
		args = append(args, filter.GraphID)
	}
	if filter.Trigger != "" {
		argCount++
		query += fmt.Sprintf(" AND pass_trigger = $%d", argCount)
		args = append(args, string(filter.Trigger))
	}
	if filter.Since != nil {
		argCount++
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, *filter.Since)
	}

	query += " ORDER BY start_time DESC"
	if filter.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}
	return query, args
}

// Close releases the connection pool.
func (w *Writer) Close() error {
	w.pool.Close()
	return nil
}

var _ journal.Writer = (*Writer)(nil)
