// Package graph provides port definitions
package graph

import "github.com/google/uuid"

// Direction indicates which way data flows through a port.
type Direction string

const (
	// DirectionInput marks a port that receives data
	DirectionInput Direction = "input"
	// DirectionOutput marks a port that produces data
	DirectionOutput Direction = "output"
)

// DataType is the closed set of payload types a port can carry.
// Connections are only valid between ports of equal data type.
type DataType string

const (
	// DataTypeImage carries full-color frames
	DataTypeImage DataType = "image"
	// DataTypeMask carries single-channel mattes
	DataTypeMask DataType = "mask"
	// DataTypeScalar carries single numeric values
	DataTypeScalar DataType = "scalar"
)

// PortDef describes a port as declared by a node kind. Kind definitions
// are fixed at construction time and never mutated afterwards.
type PortDef struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Type      DataType  `json:"type"`
	// Multi allows an input port to accept more than one incoming
	// connection. Ignored for outputs.
	Multi bool `json:"multi,omitempty"`
}

// Port is a typed, directional attachment point on a node
// PRINCIPLES:
// - KISS: Simple port representation
// - SRP: Only responsible for port identity and typing
type Port struct {
	ID        uuid.UUID `json:"id"`
	NodeID    uuid.UUID `json:"node_id"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Type      DataType  `json:"type"`
	Multi     bool      `json:"multi,omitempty"`
}

// newPort instantiates a port from its kind-level definition.
func newPort(nodeID uuid.UUID, def PortDef) *Port {
	return &Port{
		ID:        uuid.New(),
		NodeID:    nodeID,
		Name:      def.Name,
		Direction: def.Direction,
		Type:      def.Type,
		Multi:     def.Multi && def.Direction == DirectionInput,
	}
}

// IsInput checks if the port receives data
func (p *Port) IsInput() bool {
	return p.Direction == DirectionInput
}

// IsOutput checks if the port produces data
func (p *Port) IsOutput() bool {
	return p.Direction == DirectionOutput
}
