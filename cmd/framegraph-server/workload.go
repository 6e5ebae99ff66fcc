package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/framegraph/framegraph/pkg/framegraph"
	"github.com/framegraph/framegraph/pkg/prebuilt"
)

type workloadManager struct {
	mu           sync.Mutex
	passCancel   context.CancelFunc
	sourceCancel context.CancelFunc
}

var wm workloadManager

// stopAll cancels any running workload loops during server shutdown.
func (m *workloadManager) stopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passCancel != nil {
		m.passCancel()
		m.passCancel = nil
	}
	if m.sourceCancel != nil {
		m.sourceCancel()
		m.sourceCancel = nil
	}
}

func (m *workloadManager) startPasses(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passCancel != nil {
		http.Error(w, "pass workload already running", http.StatusConflict)
		return
	}
	rate := 200 * time.Millisecond
	if v := r.URL.Query().Get("rate_ms"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			rate = ms
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.passCancel = cancel
	go func() { runPassLoop(ctx, rate) }()
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "pass workload started at %v\n", rate)
}

func (m *workloadManager) stopPasses(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passCancel != nil {
		m.passCancel()
		m.passCancel = nil
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "pass workload stopped\n")
}

func (m *workloadManager) startSources(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sourceCancel != nil {
		http.Error(w, "source workload already running", http.StatusConflict)
		return
	}
	rate := 50 * time.Millisecond
	if v := r.URL.Query().Get("rate_ms"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			rate = ms
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.sourceCancel = cancel
	go func() { runSourceLoop(ctx, rate) }()
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "source workload started at %v\n", rate)
}

func (m *workloadManager) stopSources(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sourceCancel != nil {
		m.sourceCancel()
		m.sourceCancel = nil
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "source workload stopped\n")
}

// runPassLoop evaluates a merge composite on a timer, nudging one
// parameter every few passes so the cache sees both hits and misses.
func runPassLoop(ctx context.Context, rate time.Duration) {
	engine := framegraph.NewEngine()
	defer engine.Close()

	pipe, err := prebuilt.BuildMergeComposite(ctx, engine)
	if err != nil {
		slog.Error("failed to build workload pipeline", "error", err)
		return
	}
	feedSources(engine, pipe, 0)

	grade := pipe.Node("grade")
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	pass := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pass++
			if pass%5 == 0 {
				_ = engine.SetParam(grade.ID, "exposure",
					framegraph.NumberParam(rand.Float64()))
			}
			if _, err := engine.Evaluate(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("workload pass failed", "error", err)
			}
		}
	}
}

// runSourceLoop drives targeted propagation by publishing fresh frames
// into the pipeline's foreground source.
func runSourceLoop(ctx context.Context, rate time.Duration) {
	engine := framegraph.NewEngine()
	defer engine.Close()

	pipe, err := prebuilt.BuildViewerChain(ctx, engine)
	if err != nil {
		slog.Error("failed to build workload pipeline", "error", err)
		return
	}
	source := pipe.Node("source")

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			engine.SetSourceFrame(source.ID, &framegraph.Frame{
				Descriptor: framegraph.Descriptor{
					ID:     fmt.Sprintf("live-%d", seq),
					Width:  1280,
					Height: 720,
					Format: "rgba8",
					Seq:    seq,
				},
			})
			if _, err := engine.NotifySourceChanged(ctx, source.ID); err != nil && ctx.Err() == nil {
				slog.Warn("workload propagation failed", "error", err)
			}
		}
	}
}

func feedSources(engine *framegraph.Engine, pipe *prebuilt.Pipeline, seq uint64) {
	for _, role := range []string{"foreground", "background"} {
		if n := pipe.Node(role); n != nil {
			engine.SetSourceFrame(n.ID, &framegraph.Frame{
				Descriptor: framegraph.Descriptor{
					ID:     fmt.Sprintf("%s-%d", role, seq),
					Width:  1280,
					Height: 720,
					Format: "rgba8",
					Seq:    seq,
				},
			})
		}
	}
}
