package validation

import (
	"fmt"

	coregraph "github.com/framegraph/framegraph/internal/core/graph"
	"github.com/google/uuid"
)

// GraphValidationOptions controls optional validation checks.
type GraphValidationOptions struct {
	// CheckCycles enables detection of directed cycles.
	CheckCycles bool
}

// ValidateCoreGraph performs structural validation on a live graph
// entity. The Connect and AddNode guards enforce these rules during
// editing; this pass is for graphs assembled from external sources
// where those guards may have been bypassed.
func ValidateCoreGraph(g *coregraph.Graph, opts ...GraphValidationOptions) error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}

	ports := make(map[uuid.UUID]*coregraph.Port)
	for _, n := range g.Nodes() {
		if n == nil {
			return fmt.Errorf("nil node encountered")
		}
		if err := n.Validate(); err != nil {
			return err
		}
		for _, p := range n.Inputs {
			ports[p.ID] = p
		}
		for _, p := range n.Outputs {
			ports[p.ID] = p
		}
	}

	inputSeen := make(map[uuid.UUID]int)
	for _, c := range g.Connections() {
		if c == nil {
			return fmt.Errorf("nil connection encountered")
		}
		if c.FromNode == c.ToNode {
			return coregraph.ErrSelfConnection
		}
		if _, ok := g.Node(c.FromNode); !ok {
			return coregraph.ErrNodeNotFound
		}
		if _, ok := g.Node(c.ToNode); !ok {
			return coregraph.ErrNodeNotFound
		}

		from, ok := ports[c.FromPort]
		if !ok || from.NodeID != c.FromNode {
			return coregraph.ErrInvalidPort
		}
		to, ok := ports[c.ToPort]
		if !ok || to.NodeID != c.ToNode {
			return coregraph.ErrInvalidPort
		}
		if !from.IsOutput() || !to.IsInput() {
			return coregraph.ErrInvalidPortType
		}
		if from.Type != to.Type {
			return coregraph.ErrTypeMismatch
		}

		inputSeen[to.ID]++
		if !to.Multi && inputSeen[to.ID] > 1 {
			return coregraph.ErrInputAlreadyConnected
		}
	}

	var cfg GraphValidationOptions
	if len(opts) > 0 {
		cfg = opts[0]
	}
	if cfg.CheckCycles && g.HasCycles() {
		return coregraph.ErrCyclicGraph
	}

	return nil
}
