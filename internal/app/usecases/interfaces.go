package usecases

import (
	"context"

	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/core/graph"
)

// FrameProcessor is the opaque per-kind processing capability each node
// delegates to. Inputs arrive in port order; absent inputs are nil and
// are not an error. Returning a nil frame means "no output" and is also
// not an error. From the scheduler's point of view Process is blocking
// with respect to the pass, even if it suspends internally.
// PRINCIPLES:
// - ISP: Single-method interface
// - DIP: The engine depends on this abstraction, never on pixel code
type FrameProcessor interface {
	Process(ctx context.Context, node *graph.Node, inputs []*frame.Frame) (*frame.Frame, error)
}

// ProcessorFunc adapts a plain function to FrameProcessor.
type ProcessorFunc func(ctx context.Context, node *graph.Node, inputs []*frame.Frame) (*frame.Frame, error)

// Process implements FrameProcessor
func (f ProcessorFunc) Process(ctx context.Context, node *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
	return f(ctx, node, inputs)
}

// NodeFactory constructs concrete nodes from kinds. It is passed
// explicitly to whoever owns the graph; there is no process-wide
// singleton registry.
type NodeFactory interface {
	// NewNode creates a node of the kind with its default parameters
	NewNode(kind graph.NodeKind, name string, pos graph.Position) (*graph.Node, error)

	// Kinds lists the registered node kinds
	Kinds() []graph.NodeKind
}

// ProcessorResolver looks up the processing capability for a node kind.
type ProcessorResolver interface {
	// ProcessorFor returns the processor registered for the kind
	ProcessorFor(kind graph.NodeKind) (FrameProcessor, bool)
}
