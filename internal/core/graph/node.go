// Package graph provides node definitions
package graph

import (
	"github.com/google/uuid"
)

// NodeKind represents the kind of node
type NodeKind string

const (
	// KindSource represents a media source node (file, video stream)
	KindSource NodeKind = "source"
	// KindColorCorrect represents a color correction node
	KindColorCorrect NodeKind = "colorcorrect"
	// KindBlur represents a blur filter node
	KindBlur NodeKind = "blur"
	// KindMerge represents a multi-input merge node
	KindMerge NodeKind = "merge"
	// KindViewer represents a display sink node
	KindViewer NodeKind = "viewer"
)

// Position is a 2D layout coordinate. It is UI metadata only and has no
// effect on evaluation; moving a node never invalidates its cached output.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a unit of computation in the graph
// PRINCIPLES:
// - KISS: Simple node representation
// - SRP: Only responsible for node identity, ports and parameters
type Node struct {
	ID       uuid.UUID `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name"`
	Position Position  `json:"position"`
	Inputs   []*Port   `json:"inputs"`
	Outputs  []*Port   `json:"outputs"`

	params map[string]ParamValue
	schema ParamSchema
	// paramRev increments on every accepted parameter change so cache
	// fingerprints derived from parameters never collide across edits.
	paramRev uint64
}

// NewNode constructs a node from its kind-level port definitions, schema
// and default parameters. The port set is fixed for the node's lifetime.
func NewNode(kind NodeKind, name string, pos Position, defs []PortDef, schema ParamSchema, defaults map[string]ParamValue) (*Node, error) {
	if kind == "" {
		return nil, ErrInvalidNodeKind
	}
	if name == "" {
		return nil, ErrInvalidNodeName
	}
	n := &Node{
		ID:       uuid.New(),
		Kind:     kind,
		Name:     name,
		Position: pos,
		params:   make(map[string]ParamValue, len(defaults)),
		schema:   schema,
	}
	for _, def := range defs {
		p := newPort(n.ID, def)
		if def.Direction == DirectionInput {
			n.Inputs = append(n.Inputs, p)
		} else {
			n.Outputs = append(n.Outputs, p)
		}
	}
	for key, val := range defaults {
		if err := n.SetParam(key, val); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Port returns the port with the given id, regardless of direction.
func (n *Node) Port(id uuid.UUID) (*Port, bool) {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range n.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// InputByName returns the input port with the given name.
func (n *Node) InputByName(name string) (*Port, bool) {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// OutputByName returns the output port with the given name.
func (n *Node) OutputByName(name string) (*Port, bool) {
	for _, p := range n.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Param returns the current value for key.
func (n *Node) Param(key string) (ParamValue, bool) {
	v, ok := n.params[key]
	return v, ok
}

// SetParam updates a parameter after checking it against the node kind's
// schema. Unknown keys and kind mismatches are rejected explicitly.
func (n *Node) SetParam(key string, value ParamValue) error {
	kind, ok := n.schema[key]
	if !ok {
		return ErrUnknownParam
	}
	if kind != value.Kind {
		return ErrParamKindMismatch
	}
	if old, exists := n.params[key]; exists && old.Equal(value) {
		return nil
	}
	n.params[key] = value
	n.paramRev++
	return nil
}

// Params returns a copy of the node's parameter map.
func (n *Node) Params() map[string]ParamValue {
	out := make(map[string]ParamValue, len(n.params))
	for k, v := range n.params {
		out[k] = v
	}
	return out
}

// ParamRevision returns the node's parameter edit counter.
func (n *Node) ParamRevision() uint64 {
	return n.paramRev
}

// IsSource checks if the node feeds the graph from external media
func (n *Node) IsSource() bool {
	return n.Kind == KindSource
}

// IsViewer checks if the node is a display sink
func (n *Node) IsViewer() bool {
	return n.Kind == KindViewer
}

// Validate ensures node integrity
func (n *Node) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNilNode
	}
	if n.Kind == "" {
		return ErrInvalidNodeKind
	}
	if n.Name == "" {
		return ErrInvalidNodeName
	}
	return nil
}
