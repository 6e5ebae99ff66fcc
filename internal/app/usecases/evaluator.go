package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/app/dto"
	"github.com/framegraph/framegraph/internal/core/cache"
	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/core/graph"
	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/internal/infrastructure/metrics"
)

// DefaultHotWindow bounds the same-pass fast path: an upstream value
// computed inside the current pass is reused directly when it is younger
// than this, without re-deriving a fingerprint. This bridges rapid
// re-entrancy (one node feeding two downstream nodes in one pass) and is
// deliberately separate from the cross-pass result cache.
const DefaultHotWindow = 100 * time.Millisecond

// Evaluator drives a graph's nodes in dependency order, resolving each
// node's inputs from its upstream connections
// PRINCIPLES:
// - SRP: Evaluation orchestration only; structure lives in graph,
//   memoization in cache
// - Failure in one branch never blocks unrelated branches
type Evaluator struct {
	graph *graph.Graph
	cache *cache.ResultCache
	procs ProcessorResolver

	// HotWindow overrides DefaultHotWindow when positive.
	HotWindow time.Duration

	now func() time.Time
}

// NewEvaluator wires an evaluator to the graph and cache it owns.
func NewEvaluator(g *graph.Graph, rc *cache.ResultCache, procs ProcessorResolver) *Evaluator {
	return &Evaluator{
		graph:     g,
		cache:     rc,
		procs:     procs,
		HotWindow: DefaultHotWindow,
		now:       time.Now,
	}
}

// passState carries pass-local results for the same-pass fast path and
// the reporting bookkeeping for the nodes the pass was asked to cover.
type passState struct {
	results  map[uuid.UUID]passEntry
	scope    map[uuid.UUID]bool
	reported map[uuid.UUID]bool
}

type passEntry struct {
	out *frame.Frame
	at  time.Time
}

func newPassState(nodes []*graph.Node) *passState {
	p := &passState{
		results:  make(map[uuid.UUID]passEntry, len(nodes)),
		scope:    make(map[uuid.UUID]bool, len(nodes)),
		reported: make(map[uuid.UUID]bool, len(nodes)),
	}
	for _, n := range nodes {
		p.scope[n.ID] = true
	}
	return p
}

// report appends one result per node, and only for nodes in the pass's
// requested set. Upstream nodes resolved on demand stay out of the
// report: a targeted pass covers its cone, nothing more. Diagnostics are
// not scoped this way; an out-of-cone upstream failure still surfaces.
func (p *passState) report(r *dto.PassReport, result dto.NodeResult) {
	if !p.scope[result.NodeID] || p.reported[result.NodeID] {
		return
	}
	p.reported[result.NodeID] = true
	r.Nodes = append(r.Nodes, result)
}

// EvaluatePass runs a full evaluation over the topological order. It is
// cancellable between node evaluations; outputs already cached when a
// cancellation lands remain valid.
func (e *Evaluator) EvaluatePass(ctx context.Context, trigger journal.Trigger) (*dto.PassReport, error) {
	return e.run(ctx, e.graph.TopologicalOrder(), trigger)
}

// EvaluateNodes re-runs the per-node evaluation step over an explicit
// node list in the order given. Change propagation uses this with its
// forward-reachability set; each node still pulls fresh upstream values
// on demand, so strict topological order is not required.
func (e *Evaluator) EvaluateNodes(ctx context.Context, nodes []*graph.Node, trigger journal.Trigger) (*dto.PassReport, error) {
	return e.run(ctx, nodes, trigger)
}

func (e *Evaluator) run(ctx context.Context, nodes []*graph.Node, trigger journal.Trigger) (*dto.PassReport, error) {
	metrics.IncPasses()
	e.cache.Sweep()
	e.cache.RemoveOrphans(func(id uuid.UUID) bool {
		_, ok := e.graph.Node(id)
		return ok
	})

	report := &dto.PassReport{
		PassID:    uuid.New(),
		GraphID:   e.graph.ID,
		Trigger:   trigger,
		StartTime: e.now(),
	}
	pass := newPassState(nodes)

	var err error
	for _, node := range nodes {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			err = fmt.Errorf("%w: %w", dto.ErrPassCancelled, ctx.Err())
		default:
			e.evaluateNode(ctx, node, pass, report)
			continue
		}
		break
	}

	report.EndTime = e.now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	return report, err
}

// evaluateNode produces one node's output, preferring the cross-pass
// cache when the input fingerprint still matches. A hard failure inside
// the node's processor is recovered here: the node's output becomes
// absent, a diagnostic is recorded, and the pass continues.
func (e *Evaluator) evaluateNode(ctx context.Context, node *graph.Node, pass *passState, report *dto.PassReport) *frame.Frame {
	inputs := e.resolveInputs(ctx, node, pass, report)

	fp, err := frame.Compute(inputs, node.ParamRevision())
	if err != nil {
		e.recordFailure(node, err, 0, pass, report)
		return nil
	}

	if out, hit := e.cache.Get(node.ID, fp); hit {
		// Cache hits do not refresh the pass-local timestamp; only a
		// full recompute does.
		if _, seen := pass.results[node.ID]; !seen {
			pass.results[node.ID] = passEntry{out: out, at: e.now()}
		}
		pass.report(report, dto.NodeResult{
			NodeID: node.ID,
			Cached: true,
			Absent: out == nil,
		})
		return out
	}

	proc, ok := e.procs.ProcessorFor(node.Kind)
	if !ok {
		err := fmt.Errorf("no processor registered for node kind %q", node.Kind)
		e.cache.Put(node.ID, nil, fp)
		e.recordFailure(node, err, 0, pass, report)
		return nil
	}

	start := e.now()
	out, err := safeProcess(ctx, proc, node, inputs)
	elapsed := e.now().Sub(start)
	metrics.IncNodeEvals()

	if err != nil {
		e.cache.Put(node.ID, nil, fp)
		e.recordFailure(node, err, elapsed, pass, report)
		return nil
	}

	e.cache.Put(node.ID, out, fp)
	pass.results[node.ID] = passEntry{out: out, at: e.now()}
	pass.report(report, dto.NodeResult{
		NodeID:   node.ID,
		Absent:   out == nil,
		Duration: elapsed,
	})
	return out
}

// resolveInputs collects the node's inputs in port order. A port with no
// connection yields an explicit absent slot; a multi port yields one
// value per connection in connection creation order.
func (e *Evaluator) resolveInputs(ctx context.Context, node *graph.Node, pass *passState, report *dto.PassReport) []*frame.Frame {
	var inputs []*frame.Frame
	for _, port := range node.Inputs {
		conns := e.graph.ConnectionsTargeting(port.ID)
		if port.Multi {
			for _, c := range conns {
				inputs = append(inputs, e.resolveUpstream(ctx, c.FromNode, pass, report))
			}
			continue
		}
		if len(conns) == 0 {
			inputs = append(inputs, nil)
			continue
		}
		inputs = append(inputs, e.resolveUpstream(ctx, conns[0].FromNode, pass, report))
	}
	return inputs
}

// resolveUpstream returns an upstream node's output, reusing the
// pass-local value when it is still inside the hot window and falling
// back to cache-or-recompute otherwise.
func (e *Evaluator) resolveUpstream(ctx context.Context, id uuid.UUID, pass *passState, report *dto.PassReport) *frame.Frame {
	hot := e.HotWindow
	if hot <= 0 {
		hot = DefaultHotWindow
	}
	if entry, ok := pass.results[id]; ok && e.now().Sub(entry.at) < hot {
		return entry.out
	}
	upstream, ok := e.graph.Node(id)
	if !ok {
		return nil
	}
	return e.evaluateNode(ctx, upstream, pass, report)
}

func (e *Evaluator) recordFailure(node *graph.Node, err error, elapsed time.Duration, pass *passState, report *dto.PassReport) {
	metrics.IncNodeFailures()
	slog.Warn("node evaluation failed",
		"graph", e.graph.ID, "node", node.ID, "kind", node.Kind, "error", err)
	pass.results[node.ID] = passEntry{out: nil, at: e.now()}
	pass.report(report, dto.NodeResult{
		NodeID:   node.ID,
		Absent:   true,
		Duration: elapsed,
		Error:    err.Error(),
	})
	report.Diagnostics = append(report.Diagnostics, dto.Diagnostic{
		NodeID:  node.ID,
		Message: err.Error(),
		At:      e.now(),
	})
}

// safeProcess invokes the processor, converting a panic into an error so
// one misbehaving node cannot take down the pass.
func safeProcess(ctx context.Context, proc FrameProcessor, node *graph.Node, inputs []*frame.Frame) (out *frame.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return proc.Process(ctx, node, inputs)
}
