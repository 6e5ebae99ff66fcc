package graph

import (
	"log/slog"

	"github.com/google/uuid"
)

// TopologicalOrder returns the nodes ordered so that every node appears
// after all nodes feeding one of its input ports. Ties between independent
// nodes are broken by insertion order, which keeps repeated evaluation
// passes deterministic.
//
// A cycle should be impossible given the Connect invariant. If one is
// encountered anyway, the offending back-edge is skipped instead of
// recursing forever, and the condition is logged as an invariant
// violation so the validation bug upstream can be found.
func (g *Graph) TopologicalOrder() []*Node {
	visited := make(map[uuid.UUID]bool, len(g.nodes))
	visiting := make(map[uuid.UUID]bool)
	out := make([]*Node, 0, len(g.nodes))

	var visit func(uuid.UUID)
	visit = func(id uuid.UUID) {
		if visited[id] {
			return
		}
		if visiting[id] {
			slog.Warn("topological order found a cycle, skipping back-edge",
				"graph", g.ID, "node", id)
			return
		}
		visiting[id] = true
		for _, cid := range g.incoming[id] {
			visit(g.connections[cid].FromNode)
		}
		delete(visiting, id)
		visited[id] = true
		out = append(out, g.nodes[id])
	}

	for _, id := range g.order {
		visit(id)
	}
	return out
}
