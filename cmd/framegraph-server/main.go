// Package main provides a long-running server exposing health, metrics,
// and debug endpoints plus workload loops that exercise the engine.
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"
)

func main() {
	addr := ":8080"
	if v := os.Getenv("FRAMEGRAPH_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           buildMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("starting framegraph server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	wm.stopAll()
	slog.Info("framegraph server stopped")
}

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "framegraph server is running. See /healthz, /metrics, /debug/vars, /debug/pprof/")
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "ok")
	})

	// Prometheus text exposition over expvar, no client library needed.
	mux.HandleFunc("/metrics", renderMetrics)

	// Workload loops for soak testing and dashboard development.
	mux.HandleFunc("/workload/passes/start", wm.startPasses)
	mux.HandleFunc("/workload/passes/stop", wm.stopPasses)
	mux.HandleFunc("/workload/sources/start", wm.startSources)
	mux.HandleFunc("/workload/sources/stop", wm.stopSources)
	return mux
}

// promMeta describes how one expvar variable renders as a Prometheus
// metric. Map-valued vars emit one labeled sample per key.
type promMeta struct {
	name  string
	help  string
	label string // non-empty means expvar.Map with this label name
}

var promMetas = []promMeta{
	{name: "framegraph_passes_total", help: "Evaluation passes run"},
	{name: "framegraph_node_evaluations_total", help: "Node processors invoked"},
	{name: "framegraph_node_failures_total", help: "Node evaluations that errored or panicked"},
	{name: "framegraph_propagations_total", help: "Source change propagation passes"},
	{name: "framegraph_cache_hits_total", help: "Result cache hits"},
	{name: "framegraph_cache_misses_total", help: "Result cache misses"},
	{name: "framegraph_cache_evicted_total", help: "Result cache entries evicted"},
	{name: "framegraph_notify_published_total", help: "Source change events delivered", label: "topic"},
	{name: "framegraph_notify_dropped_total", help: "Source change events dropped on full buffers", label: "topic"},
}

// renderMetrics writes the known engine counters in Prometheus text
// exposition format. Unknown numeric expvars render as untyped gauges so
// runtime vars still show up on dashboards.
func renderMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	known := make(map[string]bool, len(promMetas))
	for _, m := range promMetas {
		known[m.name] = true
		v := expvar.Get(m.name)
		if v == nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n",
			m.name, strings.ReplaceAll(m.help, "\n", " "), m.name)
		if m.label == "" {
			_, _ = fmt.Fprintf(w, "%s %s\n", m.name, v.String())
			continue
		}
		if mp, ok := v.(*expvar.Map); ok {
			writeLabeled(w, m, mp)
		}
	}

	// Fallback for everything else published via expvar.
	var rest []string
	expvar.Do(func(kv expvar.KeyValue) {
		if !known[kv.Key] {
			if _, ok := kv.Value.(*expvar.Int); ok {
				rest = append(rest, kv.Key)
			}
		}
	})
	sort.Strings(rest)
	for _, name := range rest {
		_, _ = fmt.Fprintf(w, "# TYPE %s gauge\n%s %s\n", name, name, expvar.Get(name).String())
	}
}

func writeLabeled(w http.ResponseWriter, m promMeta, mp *expvar.Map) {
	var keys []string
	mp.Do(func(kv expvar.KeyValue) { keys = append(keys, kv.Key) })
	sort.Strings(keys)
	for _, key := range keys {
		_, _ = fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", m.name, m.label, escapeLabel(key), mp.Get(key).String())
	}
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", "\\n")
}
