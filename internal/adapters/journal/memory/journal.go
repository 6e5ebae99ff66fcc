// Package memory provides an in-memory journal writer, the default for
// interactive sessions and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/pkg/serialization"
)

// Writer implements journal.Writer with bounded in-memory storage
// PRINCIPLES:
// - KISS: Slice plus index map under one mutex
// - SRP: Storage only; record semantics live in the journal package
type Writer struct {
	mu         sync.RWMutex
	records    []uuid.UUID
	payloads   map[uuid.UUID][]byte
	maxRecords int
	serializer *serialization.Serializer
}

// Config holds configuration for the in-memory writer.
type Config struct {
	MaxRecords int                       // Oldest records drop past this bound
	Serializer *serialization.Serializer // Custom serializer (optional)
}

// NewWriter creates a bounded in-memory journal writer.
func NewWriter(config Config) *Writer {
	if config.MaxRecords <= 0 {
		config.MaxRecords = 256
	}
	if config.Serializer == nil {
		config.Serializer = serialization.DefaultSerializer()
	}
	return &Writer{
		payloads:   make(map[uuid.UUID][]byte),
		maxRecords: config.MaxRecords,
		serializer: config.Serializer,
	}
}

// Append persists a pass record
func (w *Writer) Append(_ context.Context, record *journal.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("record validation failed: %w", err)
	}
	data, err := w.serializer.Serialize(record)
	if err != nil {
		return fmt.Errorf("%w: %v", journal.ErrAppendFailed, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.payloads[record.ID]; !exists {
		w.records = append(w.records, record.ID)
	}
	w.payloads[record.ID] = data

	for len(w.records) > w.maxRecords {
		oldest := w.records[0]
		w.records = w.records[1:]
		delete(w.payloads, oldest)
	}
	return nil
}

// Load retrieves a record by ID
func (w *Writer) Load(_ context.Context, id uuid.UUID) (*journal.Record, error) {
	w.mu.RLock()
	data, ok := w.payloads[id]
	w.mu.RUnlock()
	if !ok {
		return nil, journal.ErrRecordNotFound
	}
	var record journal.Record
	if err := w.serializer.Deserialize(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", journal.ErrLoadFailed, err)
	}
	return &record, nil
}

// List returns records matching the filter, newest first
func (w *Writer) List(ctx context.Context, filter journal.Filter) ([]*journal.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	w.mu.RLock()
	ids := make([]uuid.UUID, len(w.records))
	copy(ids, w.records)
	w.mu.RUnlock()

	var out []*journal.Record
	for i := len(ids) - 1; i >= 0; i-- {
		record, err := w.Load(ctx, ids[i])
		if err != nil {
			continue
		}
		if !matches(record, filter) {
			continue
		}
		out = append(out, record)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Close releases writer resources
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = nil
	w.payloads = make(map[uuid.UUID][]byte)
	return nil
}

func matches(r *journal.Record, f journal.Filter) bool {
	if f.GraphID != uuid.Nil && r.GraphID != f.GraphID {
		return false
	}
	if f.Trigger != "" && r.Trigger != f.Trigger {
		return false
	}
	if f.Since != nil && r.StartTime.Before(*f.Since) {
		return false
	}
	return true
}
