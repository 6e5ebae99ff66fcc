package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/core/journal"
)

// PassReport is the outcome of one evaluation pass over a graph.
// Node failures are collected here as diagnostics instead of aborting
// the pass; nothing in a pass is fatal to the process.
type PassReport struct {
	PassID      uuid.UUID       `json:"pass_id"`
	GraphID     uuid.UUID       `json:"graph_id"`
	Trigger     journal.Trigger `json:"trigger"`
	Nodes       []NodeResult    `json:"nodes"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Duration    time.Duration   `json:"duration"`
	Cancelled   bool            `json:"cancelled,omitempty"`
}

// NodeResult records how one node fared in the pass.
type NodeResult struct {
	NodeID   uuid.UUID     `json:"node_id"`
	Cached   bool          `json:"cached"`
	Absent   bool          `json:"absent"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Diagnostic is a per-node evaluation error surfaced to the UI.
type Diagnostic struct {
	NodeID  uuid.UUID `json:"node_id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Failed reports whether any node in the pass produced a diagnostic.
func (r *PassReport) Failed() bool {
	return len(r.Diagnostics) > 0
}

// Record converts the report into a journal record for persistence.
func (r *PassReport) Record() *journal.Record {
	rec := &journal.Record{
		ID:        r.PassID,
		GraphID:   r.GraphID,
		Trigger:   r.Trigger,
		Nodes:     make([]journal.NodeRecord, 0, len(r.Nodes)),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Cancelled: r.Cancelled,
	}
	for _, n := range r.Nodes {
		rec.Nodes = append(rec.Nodes, journal.NodeRecord{
			NodeID:   n.NodeID,
			Cached:   n.Cached,
			Absent:   n.Absent,
			Duration: n.Duration,
			Error:    n.Error,
		})
	}
	return rec
}
