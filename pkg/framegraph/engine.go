package framegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	journalmem "github.com/framegraph/framegraph/internal/adapters/journal/memory"
	journalpg "github.com/framegraph/framegraph/internal/adapters/journal/postgres"
	journalsqlite "github.com/framegraph/framegraph/internal/adapters/journal/sqlite"
	"github.com/framegraph/framegraph/internal/adapters/processor"
	"github.com/framegraph/framegraph/internal/app/dto"
	"github.com/framegraph/framegraph/internal/app/services"
	"github.com/framegraph/framegraph/internal/core/cache"
	coreframe "github.com/framegraph/framegraph/internal/core/frame"
	coregraph "github.com/framegraph/framegraph/internal/core/graph"
	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/internal/core/notify"
	"github.com/framegraph/framegraph/internal/infrastructure/config"
)

// Re-export core types for convenience
type (
	Graph      = coregraph.Graph
	Node       = coregraph.Node
	Port       = coregraph.Port
	Connection = coregraph.Connection
	NodeKind   = coregraph.NodeKind
	Position   = coregraph.Position
	ParamValue = coregraph.ParamValue
	Frame      = coreframe.Frame
	Descriptor = coreframe.Descriptor
	PassReport = dto.PassReport
	NodeView   = dto.NodeView
)

// Node kinds available from the default registry.
const (
	KindSource       = coregraph.KindSource
	KindColorCorrect = coregraph.KindColorCorrect
	KindBlur         = coregraph.KindBlur
	KindMerge        = coregraph.KindMerge
	KindViewer       = coregraph.KindViewer
)

// Parameter value constructors.
var (
	NumberParam = coregraph.NumberParam
	BoolParam   = coregraph.BoolParam
	TextParam   = coregraph.TextParam
)

// Engine owns one graph and its evaluation machinery. The default
// engine uses the built-in node kinds, an in-memory journal, and is
// suitable for local usage and tests.
type Engine struct {
	owner    *services.GraphOwner
	builtins *processor.Builtins
	journal  journal.Writer
}

// Options tunes a new engine. The zero value picks sensible defaults.
type Options struct {
	Name            string
	CacheTTL        time.Duration
	CacheMaxEntries int
	HotWindow       time.Duration
	Journal         journal.Writer
}

// NewEngine constructs a default engine with in-memory components.
func NewEngine() *Engine {
	return NewEngineWithOptions(Options{})
}

// NewEngineWithOptions constructs an engine with explicit tuning.
func NewEngineWithOptions(opts Options) *Engine {
	builtins := processor.DefaultRegistry()
	name := opts.Name
	if name == "" {
		name = "composition"
	}
	jw := opts.Journal
	if jw == nil {
		jw = journalmem.NewWriter(journalmem.Config{})
	}
	owner := services.NewGraphOwner(name, builtins.Registry, services.Config{
		Cache: cache.Config{
			TTL:        opts.CacheTTL,
			MaxEntries: opts.CacheMaxEntries,
		},
		Journal:   jw,
		HotWindow: opts.HotWindow,
	})
	return &Engine{owner: owner, builtins: builtins, journal: jw}
}

// NewEngineFromConfig constructs an engine from loaded configuration,
// wiring the journal backend the configuration names.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var jw journal.Writer
	switch cfg.Journal.Backend {
	case "", "memory":
		jw = journalmem.NewWriter(journalmem.Config{MaxRecords: cfg.Journal.MaxRecords})
	case "sqlite":
		w, err := journalsqlite.Open(cfg.Journal.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
		}
		jw = w
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Journal.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres journal: %w", err)
		}
		w := journalpg.NewWriter(pool, nil)
		if err := w.CreateTables(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		jw = w
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}

	return NewEngineWithOptions(Options{
		CacheTTL:        cfg.Engine.CacheTTL,
		CacheMaxEntries: cfg.Engine.CacheMaxEntries,
		HotWindow:       cfg.Engine.HotWindow,
		Journal:         jw,
	}), nil
}

// AddNode creates a node of the given kind at a canvas position.
func (e *Engine) AddNode(kind NodeKind, name string, x, y float64) (*Node, error) {
	return e.owner.AddNode(dto.AddNodeCommand{
		Kind:     kind,
		Name:     name,
		Position: Position{X: x, Y: y},
	})
}

// RemoveNode deletes a node and every connection touching it. It
// reports whether the node existed.
func (e *Engine) RemoveNode(id uuid.UUID) bool {
	return e.owner.RemoveNode(id)
}

// Connect joins an output port to an input port, replacing any prior
// connection on either end per the replace-on-connect rule.
func (e *Engine) Connect(fromNode, fromPort, toNode, toPort uuid.UUID) (*Connection, error) {
	return e.owner.Connect(dto.ConnectCommand{
		FromNode: fromNode,
		FromPort: fromPort,
		ToNode:   toNode,
		ToPort:   toPort,
	})
}

// Disconnect removes a connection by ID.
func (e *Engine) Disconnect(id uuid.UUID) bool {
	return e.owner.Disconnect(id)
}

// MoveNode repositions a node on the canvas. Moves never invalidate
// cached results.
func (e *Engine) MoveNode(id uuid.UUID, x, y float64) error {
	return e.owner.MoveNode(id, Position{X: x, Y: y})
}

// SetParam updates a node parameter, invalidating that node's cached
// result when the value actually changes.
func (e *Engine) SetParam(nodeID uuid.UUID, key string, value ParamValue) error {
	return e.owner.SetParam(nodeID, key, value)
}

// SetSourceFrame feeds a frame into a source node for subsequent passes.
func (e *Engine) SetSourceFrame(nodeID uuid.UUID, f *Frame) {
	e.builtins.Sources.SetFrame(nodeID, f)
}

// Evaluate runs a full pass over the graph in dependency order.
func (e *Engine) Evaluate(ctx context.Context) (*PassReport, error) {
	return e.owner.Evaluate(ctx)
}

// EvaluateAsync starts a pass and returns a channel that yields its
// outcome.
func (e *Engine) EvaluateAsync(ctx context.Context) <-chan services.PassOutcome {
	return e.owner.EvaluateAsync(ctx)
}

// CancelPass interrupts an in-flight pass at the next node boundary.
func (e *Engine) CancelPass() {
	e.owner.CancelPass()
}

// NotifySourceChanged invalidates a source node and re-evaluates its
// downstream cone.
func (e *Engine) NotifySourceChanged(ctx context.Context, sourceID uuid.UUID) (*PassReport, error) {
	return e.owner.NotifySourceChanged(ctx, sourceID)
}

// LastValidationError returns the validation error of the most recent
// Connect attempt, nil if it succeeded. UIs poll this for inline
// connection feedback.
func (e *Engine) LastValidationError() error {
	return e.owner.LastValidationError()
}

// LastOutput returns the most recent cached output for a node, if any.
func (e *Engine) LastOutput(nodeID uuid.UUID) (*Frame, bool) {
	return e.owner.LastOutput(nodeID)
}

// Nodes lists display projections of every node in insertion order.
func (e *Engine) Nodes() []NodeView {
	return e.owner.Nodes()
}

// Connections lists every live connection in insertion order.
func (e *Engine) Connections() []*Connection {
	return e.owner.Connections()
}

// Graph exposes the underlying graph for read-only inspection.
func (e *Engine) Graph() *Graph {
	return e.owner.Graph()
}

// Bus exposes the source change bus for media pipelines to publish on.
func (e *Engine) Bus() *notify.Bus {
	return e.owner.Bus()
}

// History lists recent pass records, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]*journal.Record, error) {
	return e.journal.List(ctx, journal.Filter{Limit: limit})
}

// Run drains the source change bus until the context ends, triggering
// targeted propagation passes.
func (e *Engine) Run(ctx context.Context) {
	e.owner.Run(ctx)
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	return e.owner.Close()
}
