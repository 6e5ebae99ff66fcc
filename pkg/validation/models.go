// Package validation provides model definitions with validation tags
package validation

// NodeDoc represents a node as declared in an external graph document
// PRINCIPLES:
// - SRP: Node document shape only
// - Validation: Comprehensive validation tags
type NodeDoc struct {
	ID     string             `json:"id" validate:"required,uuid4" yaml:"id"`
	Kind   string             `json:"kind" validate:"required,node_kind" yaml:"kind"`
	Name   string             `json:"name" validate:"required,min=1,max=100" yaml:"name"`
	X      float64            `json:"x" yaml:"x"`
	Y      float64            `json:"y" yaml:"y"`
	Params map[string]ParamDoc `json:"params,omitempty" validate:"omitempty,dive" yaml:"params,omitempty"`
}

// ParamDoc carries one parameter value with its declared kind.
type ParamDoc struct {
	Kind   string  `json:"kind" validate:"required,param_kind" yaml:"kind"`
	Number float64 `json:"number,omitempty" yaml:"number,omitempty"`
	Bool   bool    `json:"bool,omitempty" yaml:"bool,omitempty"`
	Text   string  `json:"text,omitempty" yaml:"text,omitempty"`
}

// ConnectionDoc represents a connection between two ports in a document.
type ConnectionDoc struct {
	ID       string `json:"id" validate:"required,uuid4" yaml:"id"`
	FromNode string `json:"from_node" validate:"required,uuid4" yaml:"from_node"`
	FromPort string `json:"from_port" validate:"required,uuid4" yaml:"from_port"`
	ToNode   string `json:"to_node" validate:"required,uuid4" yaml:"to_node"`
	ToPort   string `json:"to_port" validate:"required,uuid4" yaml:"to_port"`
}

// GraphDoc represents a complete graph document
type GraphDoc struct {
	ID          string          `json:"id" validate:"required,uuid4" yaml:"id"`
	Name        string          `json:"name" validate:"required,min=1,max=200" yaml:"name"`
	Nodes       []NodeDoc       `json:"nodes" validate:"dive,required" yaml:"nodes"`
	Connections []ConnectionDoc `json:"connections" validate:"dive,required" yaml:"connections"`
}

// Validate implements custom validation for GraphDoc beyond tags:
// node ID uniqueness, connection endpoint existence, and self-loops.
func (gd *GraphDoc) Validate() error {
	var errors ValidationErrors

	nodeIDs := make(map[string]bool)
	for _, node := range gd.Nodes {
		if nodeIDs[node.ID] {
			errors = append(errors, ValidationError{
				Field:   "nodes",
				Value:   node.ID,
				Message: "duplicate node ID",
			})
		}
		nodeIDs[node.ID] = true
	}

	for _, conn := range gd.Connections {
		if !nodeIDs[conn.FromNode] {
			errors = append(errors, ValidationError{
				Field:   "connections.from_node",
				Value:   conn.FromNode,
				Message: "source node does not exist",
			})
		}
		if !nodeIDs[conn.ToNode] {
			errors = append(errors, ValidationError{
				Field:   "connections.to_node",
				Value:   conn.ToNode,
				Message: "target node does not exist",
			})
		}
		if conn.FromNode == conn.ToNode {
			errors = append(errors, ValidationError{
				Field:   "connections",
				Value:   conn.ID,
				Message: "connection cannot join a node to itself",
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
