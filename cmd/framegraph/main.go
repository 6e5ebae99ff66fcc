// Package main provides the framegraph CLI application
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/framegraph/framegraph/internal/infrastructure/config"
	"github.com/framegraph/framegraph/pkg/framegraph"
	"github.com/framegraph/framegraph/pkg/prebuilt"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("framegraph %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		return
	}

	configPath := flag.String("config", "", "path to YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

// run builds the prebuilt viewer chain, feeds it one frame, and walks
// through an evaluation, a cached re-evaluation, and a parameter edit.
func run(ctx context.Context, cfg *config.Config) error {
	engine, err := framegraph.NewEngineFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipe, err := prebuilt.BuildViewerChain(ctx, engine)
	if err != nil {
		return err
	}
	source := pipe.Node("source")
	viewer := pipe.Node("viewer")

	engine.SetSourceFrame(source.ID, &framegraph.Frame{
		Descriptor: framegraph.Descriptor{
			ID: "demo-frame", Width: 1920, Height: 1080, Format: "rgba8",
		},
	})

	report, err := engine.Evaluate(ctx)
	if err != nil {
		return err
	}
	printReport("initial pass", report)

	// Nothing changed, so every node should come back from cache.
	report, err = engine.Evaluate(ctx)
	if err != nil {
		return err
	}
	printReport("cached pass", report)

	// A parameter edit invalidates the blur and everything downstream.
	blur := pipe.Node("blur")
	if err := engine.SetParam(blur.ID, "radius", framegraph.NumberParam(5)); err != nil {
		return err
	}
	report, err = engine.Evaluate(ctx)
	if err != nil {
		return err
	}
	printReport("after edit", report)

	if out, ok := engine.LastOutput(viewer.ID); ok && out != nil {
		d := out.Descriptor
		fmt.Printf("viewer shows %s (%dx%d)\n", d.ID, d.Width, d.Height)
	}
	return nil
}

func printReport(label string, report *framegraph.PassReport) {
	cached := 0
	for _, n := range report.Nodes {
		if n.Cached {
			cached++
		}
	}
	fmt.Printf("%s: %d nodes, %d cached, %s\n",
		label, len(report.Nodes), cached, report.Duration)
	for _, d := range report.Diagnostics {
		fmt.Printf("  diagnostic: node %s: %s\n", d.NodeID, d.Message)
	}
}

func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
