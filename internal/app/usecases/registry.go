package usecases

import (
	"fmt"

	"github.com/framegraph/framegraph/internal/core/graph"
)

// KindSpec describes everything the factory needs to build a node of a
// kind: its fixed port definitions, parameter schema, and defaults.
type KindSpec struct {
	Ports    []graph.PortDef
	Schema   graph.ParamSchema
	Defaults map[string]graph.ParamValue
}

// Registry implements NodeFactory and ProcessorResolver over a plain
// table of kind specs and processors
// PRINCIPLES:
// - KISS: A map, not a DI container
// - OCP: New kinds register without touching the evaluator
type Registry struct {
	specs map[graph.NodeKind]KindSpec
	procs map[graph.NodeKind]FrameProcessor
	order []graph.NodeKind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[graph.NodeKind]KindSpec),
		procs: make(map[graph.NodeKind]FrameProcessor),
	}
}

// Register binds a kind to its spec and processor. Re-registering a kind
// replaces the previous binding.
func (r *Registry) Register(kind graph.NodeKind, spec KindSpec, proc FrameProcessor) {
	if _, exists := r.specs[kind]; !exists {
		r.order = append(r.order, kind)
	}
	r.specs[kind] = spec
	r.procs[kind] = proc
}

// NewNode creates a node of the kind with its default parameters
func (r *Registry) NewNode(kind graph.NodeKind, name string, pos graph.Position) (*graph.Node, error) {
	spec, ok := r.specs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrInvalidNodeKind, kind)
	}
	if name == "" {
		name = string(kind)
	}
	return graph.NewNode(kind, name, pos, spec.Ports, spec.Schema, spec.Defaults)
}

// Kinds lists the registered node kinds in registration order
func (r *Registry) Kinds() []graph.NodeKind {
	out := make([]graph.NodeKind, len(r.order))
	copy(out, r.order)
	return out
}

// ProcessorFor returns the processor registered for the kind
func (r *Registry) ProcessorFor(kind graph.NodeKind) (FrameProcessor, bool) {
	p, ok := r.procs[kind]
	return p, ok
}
