package dto

import (
	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/core/graph"
)

// AddNodeCommand asks the graph owner to create a node of a kind at a
// position. The kind determines the node's ports and parameter schema.
type AddNodeCommand struct {
	Kind     graph.NodeKind `json:"kind"`
	Name     string         `json:"name,omitempty"`
	Position graph.Position `json:"position"`
}

// Validate validates the command
func (c *AddNodeCommand) Validate() error {
	if c.Kind == "" {
		return ErrMissingNodeKind
	}
	return nil
}

// ConnectCommand asks for a connection between two resolved ports.
type ConnectCommand struct {
	FromNode uuid.UUID `json:"from_node"`
	FromPort uuid.UUID `json:"from_port"`
	ToNode   uuid.UUID `json:"to_node"`
	ToPort   uuid.UUID `json:"to_port"`
}

// Validate validates the command
func (c *ConnectCommand) Validate() error {
	if c.FromNode == uuid.Nil || c.ToNode == uuid.Nil {
		return ErrMissingNodeID
	}
	return nil
}

// NodeView is the UI-facing projection of a node.
type NodeView struct {
	ID       uuid.UUID                   `json:"id"`
	Kind     graph.NodeKind              `json:"kind"`
	Name     string                      `json:"name"`
	Position graph.Position              `json:"position"`
	Inputs   []*graph.Port               `json:"inputs"`
	Outputs  []*graph.Port               `json:"outputs"`
	Params   map[string]graph.ParamValue `json:"params"`
}

// ViewNode projects a node for display.
func ViewNode(n *graph.Node) NodeView {
	return NodeView{
		ID:       n.ID,
		Kind:     n.Kind,
		Name:     n.Name,
		Position: n.Position,
		Inputs:   n.Inputs,
		Outputs:  n.Outputs,
		Params:   n.Params(),
	}
}
