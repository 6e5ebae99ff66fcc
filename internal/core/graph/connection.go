// Package graph provides connection definitions
package graph

import "github.com/google/uuid"

// Connection is a directed edge from an output port to an input port.
// All four endpoint identifiers are mandatory; a connection without
// resolved port identity is not a valid first-class connection.
type Connection struct {
	ID       uuid.UUID `json:"id"`
	FromNode uuid.UUID `json:"from_node"`
	FromPort uuid.UUID `json:"from_port"`
	ToNode   uuid.UUID `json:"to_node"`
	ToPort   uuid.UUID `json:"to_port"`
}

// Touches reports whether the connection has the node as either endpoint.
func (c *Connection) Touches(nodeID uuid.UUID) bool {
	return c.FromNode == nodeID || c.ToNode == nodeID
}
