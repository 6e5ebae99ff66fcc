package prebuilt

import (
	"context"
	"fmt"

	"github.com/framegraph/framegraph/pkg/framegraph"
)

// Pipeline holds handles to the nodes a prebuilt created, keyed by the
// role names the prebuilt documents.
type Pipeline struct {
	Nodes map[string]*framegraph.Node
}

// Node returns the node filling a role, or nil when the prebuilt did
// not create one.
func (p *Pipeline) Node(role string) *framegraph.Node {
	return p.Nodes[role]
}

// Builder assembles a composition template on an engine.
// Implementations should leave the engine untouched on error.
type Builder interface {
	Name() string
	Build(ctx context.Context, e *framegraph.Engine) (*Pipeline, error)
}

// BuildFunc is a convenience adapter to implement Builder via functions.
type BuildFunc struct {
	NameStr string
	Fn      func(ctx context.Context, e *framegraph.Engine) (*Pipeline, error)
}

func (b BuildFunc) Name() string { return b.NameStr }
func (b BuildFunc) Build(ctx context.Context, e *framegraph.Engine) (*Pipeline, error) {
	return b.Fn(ctx, e)
}

// Registry holds named prebuilts.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces a prebuilt builder.
func (r *Registry) Register(b Builder) {
	r.builders[b.Name()] = b
}

// MustRegister panics on duplicate names; useful during init() setup.
func (r *Registry) MustRegister(b Builder) {
	if _, exists := r.builders[b.Name()]; exists {
		panic(fmt.Sprintf("prebuilt already registered: %s", b.Name()))
	}
	r.builders[b.Name()] = b
}

// Get retrieves a named prebuilt.
func (r *Registry) Get(name string) (Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// DefaultRegistry is a singleton for convenience. Projects can also
// construct their own Registry if they want isolation.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.MustRegister(BuildFunc{NameStr: "viewer-chain", Fn: BuildViewerChain})
	DefaultRegistry.MustRegister(BuildFunc{NameStr: "merge-composite", Fn: BuildMergeComposite})
}
