// Package services hosts the graph owner: the single logical actor that
// serializes structural mutations against evaluation passes.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/app/dto"
	"github.com/framegraph/framegraph/internal/app/usecases"
	"github.com/framegraph/framegraph/internal/core/cache"
	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/core/graph"
	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/internal/core/notify"
)

// Config tunes a graph owner.
type Config struct {
	Cache     cache.Config
	Journal   journal.Writer // optional pass history sink
	HotWindow time.Duration  // 0 keeps the evaluator default
}

// PassOutcome pairs a report with the error that ended the pass, for the
// asynchronous evaluation form.
type PassOutcome struct {
	Report *dto.PassReport
	Err    error
}

// GraphOwner owns one graph, its cache, and its evaluator. All
// structural edits and all passes run serialized on it: a pending edit
// waits for an in-flight pass to finish (the wait policy, applied
// consistently). The cache is owned exclusively by this pairing and is
// never shared with another graph.
type GraphOwner struct {
	mu sync.Mutex

	graph      *graph.Graph
	cache      *cache.ResultCache
	evaluator  *usecases.Evaluator
	propagator *usecases.Propagator
	registry   *usecases.Registry
	journal    journal.Writer
	bus        *notify.Bus

	lastValidation error

	// passMu guards the in-flight pass cancel function so CancelPass
	// does not contend with the main mutex.
	passMu     sync.Mutex
	passCancel context.CancelFunc
}

// NewGraphOwner builds an owner around a fresh graph.
func NewGraphOwner(name string, registry *usecases.Registry, cfg Config) *GraphOwner {
	g := graph.NewGraph(name)
	rc := cache.New(cfg.Cache)
	ev := usecases.NewEvaluator(g, rc, registry)
	if cfg.HotWindow > 0 {
		ev.HotWindow = cfg.HotWindow
	}
	return &GraphOwner{
		graph:      g,
		cache:      rc,
		evaluator:  ev,
		propagator: usecases.NewPropagator(g, rc, ev),
		registry:   registry,
		journal:    cfg.Journal,
		bus:        notify.NewBus(),
	}
}

// AddNode creates a node of the requested kind. A structural edit clears
// the whole cache because topology changes alter which fingerprints are
// meaningful.
func (o *GraphOwner) AddNode(cmd dto.AddNodeCommand) (*graph.Node, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	node, err := o.registry.NewNode(cmd.Kind, cmd.Name, cmd.Position)
	if err != nil {
		return nil, err
	}
	if err := o.graph.AddNode(node); err != nil {
		return nil, err
	}
	o.cache.InvalidateAll()
	return node, nil
}

// RemoveNode removes a node and every connection touching it. Removing
// an absent node is a no-op. Returns true if the node existed.
func (o *GraphOwner) RemoveNode(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	removed := o.graph.RemoveNode(id)
	if removed {
		o.cache.InvalidateAll()
	}
	return removed
}

// Connect validates and creates a connection. The validation error of
// the last attempt is retained for UI feedback either way.
func (o *GraphOwner) Connect(cmd dto.ConnectCommand) (*graph.Connection, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	conn, err := o.graph.Connect(cmd.FromNode, cmd.FromPort, cmd.ToNode, cmd.ToPort)
	o.lastValidation = err
	if err != nil {
		return nil, err
	}
	o.cache.InvalidateAll()
	return conn, nil
}

// Disconnect removes a connection by id. Idempotent.
func (o *GraphOwner) Disconnect(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	removed := o.graph.RemoveConnection(id)
	if removed {
		o.cache.InvalidateAll()
	}
	return removed
}

// MoveNode updates a node's layout position. Pure metadata: it never
// invalidates the cache and never triggers re-evaluation.
func (o *GraphOwner) MoveNode(id uuid.UUID, pos graph.Position) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	node, ok := o.graph.Node(id)
	if !ok {
		return graph.ErrNodeNotFound
	}
	node.Position = pos
	return nil
}

// SetParam updates a node parameter and invalidates exactly that node's
// cache entry; downstream nodes recompute through fingerprint mismatch.
func (o *GraphOwner) SetParam(nodeID uuid.UUID, key string, value graph.ParamValue) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	node, ok := o.graph.Node(nodeID)
	if !ok {
		return graph.ErrNodeNotFound
	}
	if err := node.SetParam(key, value); err != nil {
		return err
	}
	o.cache.Invalidate(nodeID)
	return nil
}

// Nodes returns UI projections of all nodes in insertion order.
func (o *GraphOwner) Nodes() []dto.NodeView {
	o.mu.Lock()
	defer o.mu.Unlock()
	nodes := o.graph.Nodes()
	out := make([]dto.NodeView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dto.ViewNode(n))
	}
	return out
}

// Connections returns all connections in creation order.
func (o *GraphOwner) Connections() []*graph.Connection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.graph.Connections()
}

// LastOutput returns a node's last cached output for display. The bool
// distinguishes "never computed" from a cached absent output.
func (o *GraphOwner) LastOutput(nodeID uuid.UUID) (*frame.Frame, bool) {
	entry, ok := o.cache.Peek(nodeID)
	if !ok {
		return nil, false
	}
	return entry.Output, true
}

// LastValidationError returns the validation error of the most recent
// Connect attempt, or nil if it succeeded.
func (o *GraphOwner) LastValidationError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastValidation
}

// Graph exposes the owned graph for read-mostly callers. Mutations must
// go through owner commands.
func (o *GraphOwner) Graph() *graph.Graph {
	return o.graph
}

// Evaluate runs a full pass. Structural edits arriving while the pass is
// in flight wait for it to finish.
func (o *GraphOwner) Evaluate(ctx context.Context) (*dto.PassReport, error) {
	return o.evaluate(ctx, journal.TriggerManual)
}

// TryEvaluate runs a full pass only when no edit or pass currently
// holds the owner. It returns ErrPassInFlight instead of queueing, for
// callers that would rather skip a tick than pile up passes.
func (o *GraphOwner) TryEvaluate(ctx context.Context) (*dto.PassReport, error) {
	if !o.mu.TryLock() {
		return nil, dto.ErrPassInFlight
	}
	defer o.mu.Unlock()
	report, err := o.evaluator.EvaluatePass(o.passContext(ctx), journal.TriggerManual)
	o.clearPassCancel()
	o.appendJournal(ctx, report)
	return report, err
}

// EvaluateAsync runs a full pass on its own goroutine and delivers the
// outcome on the returned channel. The pass suspends only itself; edits
// queue behind it and apply once it completes.
func (o *GraphOwner) EvaluateAsync(ctx context.Context) <-chan PassOutcome {
	out := make(chan PassOutcome, 1)
	go func() {
		report, err := o.evaluate(ctx, journal.TriggerManual)
		out <- PassOutcome{Report: report, Err: err}
		close(out)
	}()
	return out
}

// CancelPass cancels the in-flight pass, if any, between node
// evaluations. Cache entries already produced stay valid.
func (o *GraphOwner) CancelPass() {
	o.passMu.Lock()
	defer o.passMu.Unlock()
	if o.passCancel != nil {
		o.passCancel()
	}
}

// NotifySourceChanged is the change-propagation entry point for external
// media components: it re-evaluates only what is reachable downstream of
// the changed source.
func (o *GraphOwner) NotifySourceChanged(ctx context.Context, sourceID uuid.UUID) (*dto.PassReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	report, err := o.propagator.OnSourceChanged(o.passContext(ctx), sourceID)
	o.clearPassCancel()
	o.appendJournal(ctx, report)
	return report, err
}

// Bus returns the source-change bus decoders publish into.
func (o *GraphOwner) Bus() *notify.Bus {
	return o.bus
}

// Run drains the notify bus until the context ends, propagating each
// source change. Intended to run on its own goroutine.
func (o *GraphOwner) Run(ctx context.Context) {
	ch := o.bus.Subscribe("owner", 16)
	defer o.bus.Unsubscribe("owner")
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			if _, err := o.NotifySourceChanged(ctx, change.NodeID); err != nil {
				slog.Warn("source change propagation failed",
					"graph", o.graph.ID, "source", change.NodeID, "error", err)
			}
		}
	}
}

// Close releases the bus and the journal writer.
func (o *GraphOwner) Close() error {
	o.bus.Close()
	if o.journal != nil {
		return o.journal.Close()
	}
	return nil
}

func (o *GraphOwner) evaluate(ctx context.Context, trigger journal.Trigger) (*dto.PassReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	report, err := o.evaluator.EvaluatePass(o.passContext(ctx), trigger)
	o.clearPassCancel()
	o.appendJournal(ctx, report)
	return report, err
}

// passContext derives a cancellable context for one pass and parks its
// cancel function where CancelPass can reach it.
func (o *GraphOwner) passContext(ctx context.Context) context.Context {
	passCtx, cancel := context.WithCancel(ctx)
	o.passMu.Lock()
	o.passCancel = cancel
	o.passMu.Unlock()
	return passCtx
}

func (o *GraphOwner) clearPassCancel() {
	o.passMu.Lock()
	if o.passCancel != nil {
		o.passCancel()
		o.passCancel = nil
	}
	o.passMu.Unlock()
}

// appendJournal persists the pass record best-effort; history must never
// fail an evaluation.
func (o *GraphOwner) appendJournal(ctx context.Context, report *dto.PassReport) {
	if o.journal == nil || report == nil {
		return
	}
	if err := o.journal.Append(ctx, report.Record()); err != nil {
		slog.Warn("journal append failed", "graph", o.graph.ID, "pass", report.PassID, "error", err)
	}
}
