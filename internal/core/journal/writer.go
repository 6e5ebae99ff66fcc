// Package journal provides evaluation history persistence interfaces
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Writer interface for pass history persistence (DIP - Dependency Inversion)
// PRINCIPLES:
// - ISP: Interface segregation with ≤5 methods
// - DIP: Core domain depends on interface, not implementations
type Writer interface {
	// Append persists a pass record
	Append(ctx context.Context, record *Record) error

	// Load retrieves a record by ID
	Load(ctx context.Context, id uuid.UUID) (*Record, error)

	// List returns records matching the filter, newest first
	List(ctx context.Context, filter Filter) ([]*Record, error)

	// Close releases writer resources
	Close() error
}

// Filter for journal queries
type Filter struct {
	GraphID uuid.UUID  `json:"graph_id,omitempty"`
	Trigger Trigger    `json:"trigger,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
}

// Validate ensures filter parameters are valid
func (f *Filter) Validate() error {
	if f.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}
