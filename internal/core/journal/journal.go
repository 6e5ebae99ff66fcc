// Package journal provides the evaluation history domain entities and
// interfaces following Clean Architecture principles with zero external
// dependencies beyond identifiers.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// Record captures one evaluation pass over a graph
// PRINCIPLES:
// - KISS: Simple struct with clear fields
// - SRP: Only responsible for pass history data structure
type Record struct {
	ID        uuid.UUID    `json:"id" msgpack:"id"`
	GraphID   uuid.UUID    `json:"graph_id" msgpack:"graph_id"`
	Trigger   Trigger      `json:"trigger" msgpack:"trigger"`
	Nodes     []NodeRecord `json:"nodes" msgpack:"nodes"`
	StartTime time.Time    `json:"start_time" msgpack:"start_time"`
	EndTime   time.Time    `json:"end_time" msgpack:"end_time"`
	Cancelled bool         `json:"cancelled,omitempty" msgpack:"cancelled,omitempty"`
}

// Trigger says what started the pass.
type Trigger string

const (
	// TriggerEdit is a full pass after a structural or parameter edit
	TriggerEdit Trigger = "edit"
	// TriggerSourceChange is a targeted propagation pass
	TriggerSourceChange Trigger = "source_change"
	// TriggerManual is an explicit evaluation request
	TriggerManual Trigger = "manual"
)

// NodeRecord captures one node's outcome within a pass.
type NodeRecord struct {
	NodeID   uuid.UUID     `json:"node_id" msgpack:"node_id"`
	Cached   bool          `json:"cached" msgpack:"cached"`
	Absent   bool          `json:"absent" msgpack:"absent"`
	Duration time.Duration `json:"duration" msgpack:"duration"`
	Error    string        `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Validate ensures record integrity
func (r *Record) Validate() error {
	if r.ID == uuid.Nil {
		return ErrInvalidRecordID
	}
	if r.GraphID == uuid.Nil {
		return ErrInvalidGraphID
	}
	if r.Trigger == "" {
		return ErrInvalidTrigger
	}
	return nil
}
