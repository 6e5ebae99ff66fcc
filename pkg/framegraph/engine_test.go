package framegraph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegraph/framegraph/internal/core/journal"
	"github.com/framegraph/framegraph/internal/infrastructure/config"
)

func mustOutput(t *testing.T, n *Node, name string) *Port {
	t.Helper()
	p, ok := n.OutputByName(name)
	require.True(t, ok, "node %s has no output %q", n.Name, name)
	return p
}

func mustInput(t *testing.T, n *Node, name string) *Port {
	t.Helper()
	p, ok := n.InputByName(name)
	require.True(t, ok, "node %s has no input %q", n.Name, name)
	return p
}

// buildChain assembles source -> colorcorrect -> viewer and feeds the
// source a frame.
func buildChain(t *testing.T, e *Engine) (source, grade, viewer *Node) {
	t.Helper()

	source, err := e.AddNode(KindSource, "clip", 0, 0)
	require.NoError(t, err)
	grade, err = e.AddNode(KindColorCorrect, "grade", 200, 0)
	require.NoError(t, err)
	viewer, err = e.AddNode(KindViewer, "out", 400, 0)
	require.NoError(t, err)

	_, err = e.Connect(source.ID, mustOutput(t, source, "out").ID, grade.ID, mustInput(t, grade, "in").ID)
	require.NoError(t, err)
	_, err = e.Connect(grade.ID, mustOutput(t, grade, "out").ID, viewer.ID, mustInput(t, viewer, "in").ID)
	require.NoError(t, err)

	e.SetSourceFrame(source.ID, &Frame{
		Descriptor: Descriptor{ID: "clip-001", Width: 1920, Height: 1080, Format: "rgba8"},
	})
	return source, grade, viewer
}

func TestEngine_EvaluateChain(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	source, grade, _ := buildChain(t, e)

	report, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, journal.TriggerManual, report.Trigger)
	assert.Len(t, report.Nodes, 3)
	assert.Empty(t, report.Diagnostics)
	assert.False(t, report.Failed())

	out, ok := e.LastOutput(grade.ID)
	require.True(t, ok)
	require.NotNil(t, out)
	assert.Equal(t, 1920, out.Descriptor.Width)
	assert.NotEqual(t, "clip-001", out.Descriptor.ID, "grade must stamp a derived descriptor")

	// Second pass is served entirely from cache.
	report, err = e.Evaluate(context.Background())
	require.NoError(t, err)
	for _, nr := range report.Nodes {
		assert.True(t, nr.Cached, "node %s should be cached", nr.NodeID)
	}

	// A parameter edit recomputes the edited node and its downstream.
	require.NoError(t, e.SetParam(grade.ID, "exposure", NumberParam(1.5)))
	report, err = e.Evaluate(context.Background())
	require.NoError(t, err)
	recomputed := 0
	for _, nr := range report.Nodes {
		if !nr.Cached {
			recomputed++
		}
	}
	assert.Equal(t, 2, recomputed, "grade and viewer recompute, source stays cached")
	_ = source
}

func TestEngine_ConnectFeedback(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	grade, err := e.AddNode(KindColorCorrect, "grade", 0, 0)
	require.NoError(t, err)
	viewer, err := e.AddNode(KindViewer, "out", 200, 0)
	require.NoError(t, err)

	// A self connection is rejected and retained for UI feedback.
	_, err = e.Connect(grade.ID, mustOutput(t, grade, "out").ID, grade.ID, mustInput(t, grade, "in").ID)
	require.Error(t, err)
	assert.ErrorIs(t, e.LastValidationError(), err)

	// A successful connect clears the feedback.
	_, err = e.Connect(grade.ID, mustOutput(t, grade, "out").ID, viewer.ID, mustInput(t, viewer, "in").ID)
	require.NoError(t, err)
	assert.NoError(t, e.LastValidationError())
}

func TestEngine_SourceWithoutFrame(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	source, err := e.AddNode(KindSource, "clip", 0, 0)
	require.NoError(t, err)

	report, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Nodes, 1)
	assert.True(t, report.Nodes[0].Absent)
	assert.Empty(t, report.Diagnostics, "absent media is not a failure")

	out, ok := e.LastOutput(source.ID)
	assert.True(t, ok, "absence is still a recorded result")
	assert.Nil(t, out)
}

func TestEngine_NotifySourceChanged(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	source, grade, _ := buildChain(t, e)
	_, err := e.Evaluate(context.Background())
	require.NoError(t, err)

	e.SetSourceFrame(source.ID, &Frame{
		Descriptor: Descriptor{ID: "clip-002", Width: 1920, Height: 1080, Format: "rgba8", Seq: 2},
	})
	report, err := e.NotifySourceChanged(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.TriggerSourceChange, report.Trigger)

	out, ok := e.LastOutput(grade.ID)
	require.True(t, ok)
	require.NotNil(t, out)
	assert.Contains(t, out.Descriptor.ID, "#")
	assert.Equal(t, uint64(2), out.Descriptor.Seq)
}

func TestEngine_HistoryAndViews(t *testing.T) {
	e := NewEngineWithOptions(Options{Name: "session"})
	defer e.Close()

	buildChain(t, e)
	_, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background())
	require.NoError(t, err)

	records, err := e.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	views := e.Nodes()
	require.Len(t, views, 3)
	assert.Equal(t, "clip", views[0].Name)
	assert.Len(t, e.Connections(), 2)
	assert.Equal(t, 3, e.Graph().NodeCount())
}

func TestEngine_EvaluateAsync(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	buildChain(t, e)

	select {
	case outcome := <-e.EvaluateAsync(context.Background()):
		require.NoError(t, outcome.Err)
		require.NotNil(t, outcome.Report)
		assert.Len(t, outcome.Report.Nodes, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("async pass did not complete")
	}
}

func TestNewEngineFromConfig(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		e, err := NewEngineFromConfig(context.Background(), config.Default())
		require.NoError(t, err)
		defer e.Close()

		buildChain(t, e)
		_, err = e.Evaluate(context.Background())
		assert.NoError(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Journal.Backend = "tape"
		_, err := NewEngineFromConfig(context.Background(), cfg)
		assert.Error(t, err)
	})
}
