// Package graph provides the core compositor graph entities
// following Clean Architecture principles with zero external dependencies
// beyond identifiers.
package graph

import (
	"time"

	"github.com/google/uuid"
)

// ConnectPolicy decides what happens when a new connection targets an
// already-occupied non-multi port.
type ConnectPolicy string

const (
	// PolicyReplace removes the occupying connection so rewiring in the
	// UI works without a separate disconnect step. This is the default.
	PolicyReplace ConnectPolicy = "replace"
	// PolicyReject refuses the new connection with ErrInputAlreadyConnected.
	PolicyReject ConnectPolicy = "reject"
)

// Graph represents the core compositor graph entity
// PRINCIPLES:
// - KISS: Simple struct, no complex hierarchies
// - SRP: Only responsible for graph structure, not evaluation
// - Invariant: the connection set is acyclic at all times
type Graph struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Policy ConnectPolicy `json:"policy"`

	// nodes are indexed by id; order preserves insertion order so
	// iteration and topological tie-breaking stay deterministic.
	nodes map[uuid.UUID]*Node
	order []uuid.UUID

	// connections store ids, never direct node references. incoming and
	// outgoing are derived indices maintained alongside every mutation.
	connections map[uuid.UUID]*Connection
	connOrder   []uuid.UUID
	incoming    map[uuid.UUID][]uuid.UUID
	outgoing    map[uuid.UUID][]uuid.UUID

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGraph creates an empty graph with the replace-on-connect policy.
func NewGraph(name string) *Graph {
	now := time.Now()
	return &Graph{
		ID:          uuid.New(),
		Name:        name,
		Policy:      PolicyReplace,
		nodes:       make(map[uuid.UUID]*Node),
		connections: make(map[uuid.UUID]*Connection),
		incoming:    make(map[uuid.UUID][]uuid.UUID),
		outgoing:    make(map[uuid.UUID][]uuid.UUID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *Node) error {
	if node == nil {
		return ErrNilNode
	}
	if err := node.Validate(); err != nil {
		return err
	}
	if _, exists := g.nodes[node.ID]; exists {
		return ErrDuplicateNode
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	g.UpdatedAt = time.Now()
	return nil
}

// RemoveNode removes a node and cascades removal of every connection
// where the node is either endpoint. Removing an absent node is a no-op.
// It returns true if the node existed.
func (g *Graph) RemoveNode(id uuid.UUID) bool {
	if _, exists := g.nodes[id]; !exists {
		return false
	}
	for _, c := range g.ConnectionsFor(id) {
		g.removeConnection(c.ID)
	}
	delete(g.nodes, id)
	g.order = removeID(g.order, id)
	delete(g.incoming, id)
	delete(g.outgoing, id)
	g.UpdatedAt = time.Now()
	return true
}

// Node returns the node with the given id.
func (g *Graph) Node(id uuid.UUID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Connection returns the connection with the given id.
func (g *Graph) Connection(id uuid.UUID) (*Connection, bool) {
	c, ok := g.connections[id]
	return c, ok
}

// Connections returns all connections in creation order.
func (g *Graph) Connections() []*Connection {
	out := make([]*Connection, 0, len(g.connOrder))
	for _, id := range g.connOrder {
		out = append(out, g.connections[id])
	}
	return out
}

// ConnectionCount returns the number of connections.
func (g *Graph) ConnectionCount() int {
	return len(g.connections)
}

// Incoming returns the connections targeting the node, in creation order.
func (g *Graph) Incoming(nodeID uuid.UUID) []*Connection {
	return g.resolve(g.incoming[nodeID])
}

// Outgoing returns the connections leaving the node, in creation order.
func (g *Graph) Outgoing(nodeID uuid.UUID) []*Connection {
	return g.resolve(g.outgoing[nodeID])
}

// ConnectionsFor returns every connection touching the node.
func (g *Graph) ConnectionsFor(nodeID uuid.UUID) []*Connection {
	out := g.Incoming(nodeID)
	return append(out, g.Outgoing(nodeID)...)
}

// ConnectionsTargeting returns the connections arriving at an input port,
// in creation order. Non-multi ports hold at most one.
func (g *Graph) ConnectionsTargeting(portID uuid.UUID) []*Connection {
	var out []*Connection
	for _, id := range g.connOrder {
		if c := g.connections[id]; c.ToPort == portID {
			out = append(out, c)
		}
	}
	return out
}

// Connect validates and creates a connection between two ports. The check
// runs against the prospective graph and mutates nothing on failure. On
// success under PolicyReplace, connections occupying either endpoint port
// are removed first so exactly one connection per non-multi port remains.
func (g *Graph) Connect(fromNode, fromPort, toNode, toPort uuid.UUID) (*Connection, error) {
	from, to, err := g.validateConnection(fromNode, fromPort, toNode, toPort)
	if err != nil {
		return nil, err
	}

	// Replace-on-connect: clear the occupied output port and, for
	// non-multi inputs, the occupied input port.
	for _, c := range g.connectionsFromPort(from.ID) {
		g.removeConnection(c.ID)
	}
	if !to.Multi {
		for _, c := range g.ConnectionsTargeting(to.ID) {
			g.removeConnection(c.ID)
		}
	}

	conn := &Connection{
		ID:       uuid.New(),
		FromNode: fromNode,
		FromPort: fromPort,
		ToNode:   toNode,
		ToPort:   toPort,
	}
	g.connections[conn.ID] = conn
	g.connOrder = append(g.connOrder, conn.ID)
	g.outgoing[fromNode] = append(g.outgoing[fromNode], conn.ID)
	g.incoming[toNode] = append(g.incoming[toNode], conn.ID)
	g.UpdatedAt = time.Now()
	return conn, nil
}

// RemoveConnection removes a connection from the graph and both endpoint
// indices. Removing an absent connection is a no-op. It returns true if
// the connection existed.
func (g *Graph) RemoveConnection(id uuid.UUID) bool {
	if _, exists := g.connections[id]; !exists {
		return false
	}
	g.removeConnection(id)
	g.UpdatedAt = time.Now()
	return true
}

// HasCycles reports whether any directed cycle is reachable between two
// nodes. It should never return true given the Connect invariant.
func (g *Graph) HasCycles() bool {
	const (
		white = 0 // unvisited
		gray  = 1 // visiting
		black = 2 // visited
	)
	color := make(map[uuid.UUID]int, len(g.nodes))
	var dfs func(uuid.UUID) bool
	dfs = func(u uuid.UUID) bool {
		color[u] = gray
		for _, cid := range g.outgoing[u] {
			v := g.connections[cid].ToNode
			if color[v] == gray {
				return true // back-edge
			}
			if color[v] == white {
				if dfs(v) {
					return true
				}
			}
		}
		color[u] = black
		return false
	}
	for _, id := range g.order {
		if color[id] == white {
			if dfs(id) {
				return true
			}
		}
	}
	return false
}

// validateConnection runs the full connection validator and resolves both
// ports. It performs no mutation.
func (g *Graph) validateConnection(fromNode, fromPort, toNode, toPort uuid.UUID) (*Port, *Port, error) {
	if fromNode == toNode {
		return nil, nil, ErrSelfConnection
	}
	src, ok := g.nodes[fromNode]
	if !ok {
		return nil, nil, ErrNodeNotFound
	}
	dst, ok := g.nodes[toNode]
	if !ok {
		return nil, nil, ErrNodeNotFound
	}
	from, ok := src.Port(fromPort)
	if !ok {
		return nil, nil, ErrInvalidPort
	}
	to, ok := dst.Port(toPort)
	if !ok {
		return nil, nil, ErrInvalidPort
	}
	if !from.IsOutput() || !to.IsInput() {
		return nil, nil, ErrInvalidPortType
	}
	if from.Type != to.Type {
		return nil, nil, ErrTypeMismatch
	}
	if g.Policy == PolicyReject && !to.Multi && len(g.ConnectionsTargeting(to.ID)) > 0 {
		return nil, nil, ErrInputAlreadyConnected
	}
	// Cycle check against the prospective graph: the new edge closes a
	// loop exactly when the target can already reach the source.
	if g.reaches(toNode, fromNode) {
		return nil, nil, ErrWouldCreateCycle
	}
	return from, to, nil
}

// reaches reports whether start can reach goal following connections.
func (g *Graph) reaches(start, goal uuid.UUID) bool {
	visited := make(map[uuid.UUID]bool)
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if u == goal {
			return true
		}
		if visited[u] {
			continue
		}
		visited[u] = true
		for _, cid := range g.outgoing[u] {
			stack = append(stack, g.connections[cid].ToNode)
		}
	}
	return false
}

// connectionsFromPort returns the connections leaving an output port.
func (g *Graph) connectionsFromPort(portID uuid.UUID) []*Connection {
	var out []*Connection
	for _, id := range g.connOrder {
		if c := g.connections[id]; c.FromPort == portID {
			out = append(out, c)
		}
	}
	return out
}

// removeConnection deletes a connection from the set and both indices.
func (g *Graph) removeConnection(id uuid.UUID) {
	c, ok := g.connections[id]
	if !ok {
		return
	}
	delete(g.connections, id)
	g.connOrder = removeID(g.connOrder, id)
	g.outgoing[c.FromNode] = removeID(g.outgoing[c.FromNode], id)
	g.incoming[c.ToNode] = removeID(g.incoming[c.ToNode], id)
}

// resolve maps connection ids to connection values, skipping stale ids.
func (g *Graph) resolve(ids []uuid.UUID) []*Connection {
	out := make([]*Connection, 0, len(ids))
	for _, id := range ids {
		if c, ok := g.connections[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// removeID removes the first occurrence of id, preserving order.
func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
