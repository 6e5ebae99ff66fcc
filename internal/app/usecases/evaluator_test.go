package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegraph/framegraph/internal/app/dto"
	"github.com/framegraph/framegraph/internal/core/cache"
	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/core/graph"
	"github.com/framegraph/framegraph/internal/core/journal"
)

const (
	kindFeed  graph.NodeKind = "feed"
	kindXform graph.NodeKind = "xform"
	kindMix   graph.NodeKind = "mix"
	kindSink  graph.NodeKind = "sink"
	kindBomb  graph.NodeKind = "bomb"
	kindPanic graph.NodeKind = "panic"
)

// harness wires a registry of small test kinds around an evaluator and
// counts every real (non-cached) processor invocation per node.
type harness struct {
	graph     *graph.Graph
	cache     *cache.ResultCache
	registry  *Registry
	evaluator *Evaluator

	mu    sync.Mutex
	feeds map[uuid.UUID]*frame.Frame
	evals map[uuid.UUID]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		graph:    graph.NewGraph("test"),
		cache:    cache.New(cache.Config{}),
		registry: NewRegistry(),
		feeds:    make(map[uuid.UUID]*frame.Frame),
		evals:    make(map[uuid.UUID]int),
	}

	imageOut := []graph.PortDef{
		{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
	}
	imageThrough := []graph.PortDef{
		{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage},
		{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
	}
	imageIn := []graph.PortDef{
		{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage},
	}

	h.registry.Register(kindFeed, KindSpec{Ports: imageOut},
		ProcessorFunc(func(_ context.Context, n *graph.Node, _ []*frame.Frame) (*frame.Frame, error) {
			h.record(n.ID)
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.feeds[n.ID], nil
		}))

	h.registry.Register(kindXform, KindSpec{
		Ports:    imageThrough,
		Schema:   graph.ParamSchema{"gain": graph.ParamKindNumber},
		Defaults: map[string]graph.ParamValue{"gain": graph.NumberParam(1)},
	}, ProcessorFunc(func(_ context.Context, n *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
		h.record(n.ID)
		if len(inputs) == 0 || inputs[0] == nil {
			return nil, nil
		}
		// Stamp a derived id that shifts with the parameter revision so
		// downstream fingerprints change when this node changes.
		id := fmt.Sprintf("%s#%d", n.Name, n.ParamRevision())
		return inputs[0].Derive(id, inputs[0].Data), nil
	}))

	h.registry.Register(kindMix, KindSpec{Ports: []graph.PortDef{
		{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage, Multi: true},
		{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
	}}, ProcessorFunc(func(_ context.Context, n *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
		h.record(n.ID)
		for _, in := range inputs {
			if in != nil {
				return in.Derive(n.Name, in.Data), nil
			}
		}
		return nil, nil
	}))

	h.registry.Register(kindSink, KindSpec{Ports: imageIn},
		ProcessorFunc(func(_ context.Context, _ *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
			if len(inputs) == 0 {
				return nil, nil
			}
			return inputs[0], nil
		}))

	h.registry.Register(kindBomb, KindSpec{Ports: imageThrough},
		ProcessorFunc(func(_ context.Context, _ *graph.Node, _ []*frame.Frame) (*frame.Frame, error) {
			return nil, errors.New("decode failed")
		}))

	h.registry.Register(kindPanic, KindSpec{Ports: imageThrough},
		ProcessorFunc(func(_ context.Context, _ *graph.Node, _ []*frame.Frame) (*frame.Frame, error) {
			panic("pixel buffer overrun")
		}))

	h.evaluator = NewEvaluator(h.graph, h.cache, h.registry)
	return h
}

func (h *harness) record(id uuid.UUID) {
	h.mu.Lock()
	h.evals[id]++
	h.mu.Unlock()
}

func (h *harness) count(id uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.evals[id]
}

func (h *harness) addNode(t *testing.T, kind graph.NodeKind, name string) *graph.Node {
	t.Helper()
	n, err := h.registry.NewNode(kind, name, graph.Position{})
	require.NoError(t, err)
	require.NoError(t, h.graph.AddNode(n))
	return n
}

func (h *harness) connect(t *testing.T, from, to *graph.Node) {
	t.Helper()
	out, ok := from.OutputByName("out")
	require.True(t, ok)
	in, ok := to.InputByName("in")
	require.True(t, ok)
	_, err := h.graph.Connect(from.ID, out.ID, to.ID, in.ID)
	require.NoError(t, err)
}

func (h *harness) feed(id uuid.UUID, frameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feeds[id] = frame.New(frame.Descriptor{
		ID: frameID, Width: 64, Height: 64, Format: "rgba8",
	}, nil)
}

// chain builds feed -> xform -> sink and returns the three nodes.
func (h *harness) chain(t *testing.T, prefix string) (feed, xform, sink *graph.Node) {
	t.Helper()
	feed = h.addNode(t, kindFeed, prefix+"-feed")
	xform = h.addNode(t, kindXform, prefix+"-xform")
	sink = h.addNode(t, kindSink, prefix+"-sink")
	h.connect(t, feed, xform)
	h.connect(t, xform, sink)
	h.feed(feed.ID, prefix+"-frame")
	return feed, xform, sink
}

func TestEvaluator_BasicPass(t *testing.T) {
	h := newHarness(t)
	feed, xform, sink := h.chain(t, "a")

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	assert.Len(t, report.Nodes, 3)
	assert.Empty(t, report.Diagnostics)
	assert.False(t, report.Cancelled)
	assert.Equal(t, 1, h.count(feed.ID))
	assert.Equal(t, 1, h.count(xform.ID))

	entry, ok := h.cache.Peek(sink.ID)
	require.True(t, ok)
	require.NotNil(t, entry.Output)
	assert.Equal(t, "a-xform#0", entry.Output.Descriptor.ID)
}

func TestEvaluator_SecondPassHitsCache(t *testing.T) {
	h := newHarness(t)
	feed, xform, _ := h.chain(t, "a")

	_, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	for _, n := range report.Nodes {
		assert.True(t, n.Cached, "unchanged node must come from cache")
	}
	assert.Equal(t, 1, h.count(feed.ID))
	assert.Equal(t, 1, h.count(xform.ID))
}

func TestEvaluator_ParamEditRecomputesDownstream(t *testing.T) {
	h := newHarness(t)
	feed, xform, sink := h.chain(t, "a")

	_, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	require.NoError(t, xform.SetParam("gain", graph.NumberParam(2)))
	h.cache.Invalidate(xform.ID)

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerEdit)
	require.NoError(t, err)

	cached := make(map[uuid.UUID]bool)
	for _, n := range report.Nodes {
		cached[n.NodeID] = n.Cached
	}
	assert.True(t, cached[feed.ID], "untouched upstream stays cached")
	assert.False(t, cached[xform.ID])
	assert.False(t, cached[sink.ID], "new derived id must reach the sink")
	assert.Equal(t, 2, h.count(xform.ID))

	entry, ok := h.cache.Peek(sink.ID)
	require.True(t, ok)
	assert.Equal(t, "a-xform#1", entry.Output.Descriptor.ID)
}

func TestEvaluator_SourceDataChange(t *testing.T) {
	h := newHarness(t)
	feed, xform, sink := h.chain(t, "a")
	bFeed, bXform, _ := h.chain(t, "b")

	_, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	h.feed(feed.ID, "a-frame-2")
	prop := NewPropagator(h.graph, h.cache, h.evaluator)
	report, err := prop.OnSourceChanged(context.Background(), feed.ID)
	require.NoError(t, err)

	assert.Equal(t, journal.TriggerSourceChange, report.Trigger)
	touched := make(map[uuid.UUID]bool)
	for _, n := range report.Nodes {
		touched[n.NodeID] = true
	}
	assert.True(t, touched[feed.ID])
	assert.True(t, touched[xform.ID])
	assert.True(t, touched[sink.ID])
	assert.False(t, touched[bFeed.ID], "unrelated branch stays out of the pass")

	assert.Equal(t, 2, h.count(feed.ID))
	assert.Equal(t, 2, h.count(xform.ID))
	assert.Equal(t, 1, h.count(bFeed.ID))
	assert.Equal(t, 1, h.count(bXform.ID))
}

func TestEvaluator_PropagationReportsOnlyCone(t *testing.T) {
	h := newHarness(t)
	fg := h.addNode(t, kindFeed, "fg")
	bg := h.addNode(t, kindFeed, "bg")
	mix := h.addNode(t, kindMix, "mix")
	h.connect(t, fg, mix)
	h.connect(t, bg, mix)
	h.feed(fg.ID, "fg-frame")
	h.feed(bg.ID, "bg-frame")

	_, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	h.feed(fg.ID, "fg-frame-2")
	prop := NewPropagator(h.graph, h.cache, h.evaluator)
	report, err := prop.OnSourceChanged(context.Background(), fg.ID)
	require.NoError(t, err)

	// The mix node pulls bg on demand for its fingerprint, but a targeted
	// pass reports only the changed cone.
	require.Len(t, report.Nodes, 2)
	ids := make(map[uuid.UUID]bool)
	for _, n := range report.Nodes {
		ids[n.NodeID] = true
	}
	assert.True(t, ids[fg.ID])
	assert.True(t, ids[mix.ID])
	assert.False(t, ids[bg.ID], "untouched upstream stays out of the report")
	assert.Equal(t, 1, h.count(bg.ID), "bg answers from cache")
}

func TestEvaluator_UpstreamRevisitReportedOnce(t *testing.T) {
	h := newHarness(t)
	h.chain(t, "a")

	// Advance the clock past the hot window on every read so each
	// on-demand upstream resolution falls back to a full evaluate.
	base := time.Now()
	h.evaluator.now = func() time.Time {
		base = base.Add(2 * DefaultHotWindow)
		return base
	}

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	require.Len(t, report.Nodes, 3)
	seen := make(map[uuid.UUID]int)
	for _, n := range report.Nodes {
		seen[n.NodeID]++
	}
	for id, c := range seen {
		assert.Equal(t, 1, c, "node %s reported more than once", id)
	}
}

func TestPropagator_UnknownSource(t *testing.T) {
	h := newHarness(t)
	prop := NewPropagator(h.graph, h.cache, h.evaluator)
	_, err := prop.OnSourceChanged(context.Background(), uuid.New())
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestEvaluator_FailureIsolation(t *testing.T) {
	h := newHarness(t)
	feed := h.addNode(t, kindFeed, "feed")
	bomb := h.addNode(t, kindBomb, "bomb")
	sink := h.addNode(t, kindSink, "sink")
	h.connect(t, feed, bomb)
	h.connect(t, bomb, sink)
	h.feed(feed.ID, "frame")

	okFeed, okXform, okSink := h.chain(t, "ok")

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err, "a node failure must not fail the pass")

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, bomb.ID, report.Diagnostics[0].NodeID)
	assert.Contains(t, report.Diagnostics[0].Message, "decode failed")

	results := make(map[uuid.UUID]bool)
	for _, n := range report.Nodes {
		results[n.NodeID] = n.Absent
	}
	assert.True(t, results[bomb.ID], "failed node output is absent")
	assert.True(t, results[sink.ID], "downstream of a failure sees absent input")
	assert.False(t, results[okSink.ID], "unrelated branch keeps its output")
	_ = okFeed
	_ = okXform
}

func TestEvaluator_PanicRecovery(t *testing.T) {
	h := newHarness(t)
	feed := h.addNode(t, kindFeed, "feed")
	boom := h.addNode(t, kindPanic, "boom")
	h.connect(t, feed, boom)
	h.feed(feed.ID, "frame")

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0].Message, "processor panic")
}

func TestEvaluator_AbsentInputIsNotAnError(t *testing.T) {
	h := newHarness(t)
	xform := h.addNode(t, kindXform, "loner")

	report, err := h.evaluator.EvaluatePass(context.Background(), journal.TriggerManual)
	require.NoError(t, err)

	require.Len(t, report.Nodes, 1)
	assert.True(t, report.Nodes[0].Absent)
	assert.Empty(t, report.Diagnostics)

	// "Computed with no output" is a cache entry, not a gap.
	entry, ok := h.cache.Peek(xform.ID)
	require.True(t, ok)
	assert.Nil(t, entry.Output)
}

func TestEvaluator_Cancellation(t *testing.T) {
	h := newHarness(t)
	h.chain(t, "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.evaluator.EvaluatePass(ctx, journal.TriggerManual)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, dto.ErrPassCancelled)
	assert.True(t, report.Cancelled)
	assert.Empty(t, report.Nodes, "cancellation lands before the first node")
}
