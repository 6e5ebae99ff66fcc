package usecases

import (
	"context"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/app/dto"
	"github.com/framegraph/framegraph/internal/core/cache"
	"github.com/framegraph/framegraph/internal/core/graph"
	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/internal/infrastructure/metrics"
)

// Propagator re-evaluates exactly the nodes affected by an asynchronous
// source data change (a newly decoded frame, a reloaded file) instead of
// re-walking the whole graph on every tick.
type Propagator struct {
	graph     *graph.Graph
	cache     *cache.ResultCache
	evaluator *Evaluator
}

// NewPropagator wires a propagator to the graph/cache/evaluator trio it
// shares with the owner.
func NewPropagator(g *graph.Graph, rc *cache.ResultCache, ev *Evaluator) *Propagator {
	return &Propagator{graph: g, cache: rc, evaluator: ev}
}

// OnSourceChanged invalidates the changed source's cache entry, walks
// forward along connections collecting every reachable node, and re-runs
// the per-node evaluation step for the collected set in discovery order.
func (p *Propagator) OnSourceChanged(ctx context.Context, sourceID uuid.UUID) (*dto.PassReport, error) {
	if _, ok := p.graph.Node(sourceID); !ok {
		return nil, graph.ErrNodeNotFound
	}
	metrics.IncPropagations()
	p.cache.Invalidate(sourceID)

	affected := p.reachableFrom(sourceID)
	return p.evaluator.EvaluateNodes(ctx, affected, journal.TriggerSourceChange)
}

// reachableFrom collects the source and everything downstream of it via
// breadth-first search, in discovery order.
func (p *Propagator) reachableFrom(sourceID uuid.UUID) []*graph.Node {
	visited := map[uuid.UUID]bool{sourceID: true}
	queue := []uuid.UUID{sourceID}
	var out []*graph.Node

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if n, ok := p.graph.Node(id); ok {
			out = append(out, n)
		}
		for _, c := range p.graph.Outgoing(id) {
			if !visited[c.ToNode] {
				visited[c.ToNode] = true
				queue = append(queue, c.ToNode)
			}
		}
	}
	return out
}
