// Package processor provides the built-in FrameProcessors for the
// standard node kinds. Pixel work is delegated to the opaque payloads;
// these processors only route handles and stamp derived descriptors.
package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/framegraph/framegraph/internal/app/usecases"
	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/core/graph"
)

// Builtins bundles the default registry with the source store the media
// pipeline feeds.
type Builtins struct {
	Registry *usecases.Registry
	Sources  *SourceStore
}

// DefaultRegistry registers the standard node kinds with their port
// definitions, parameter schemas, defaults, and processors.
func DefaultRegistry() *Builtins {
	sources := NewSourceStore()
	r := usecases.NewRegistry()

	r.Register(graph.KindSource, KindSpec(graph.KindSource), sources)
	r.Register(graph.KindColorCorrect, KindSpec(graph.KindColorCorrect),
		usecases.ProcessorFunc(processColorCorrect))
	r.Register(graph.KindBlur, KindSpec(graph.KindBlur),
		usecases.ProcessorFunc(processBlur))
	r.Register(graph.KindMerge, KindSpec(graph.KindMerge),
		usecases.ProcessorFunc(processMerge))
	r.Register(graph.KindViewer, KindSpec(graph.KindViewer),
		usecases.ProcessorFunc(processViewer))

	return &Builtins{Registry: r, Sources: sources}
}

// KindSpec returns the fixed port definitions, schema and defaults for a
// built-in kind. Unknown kinds yield an empty spec.
func KindSpec(kind graph.NodeKind) usecases.KindSpec {
	switch kind {
	case graph.KindSource:
		return usecases.KindSpec{
			Ports: []graph.PortDef{
				{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
			},
			Schema: graph.ParamSchema{
				"path": graph.ParamKindText,
				"loop": graph.ParamKindBool,
			},
			Defaults: map[string]graph.ParamValue{
				"path": graph.TextParam(""),
				"loop": graph.BoolParam(false),
			},
		}
	case graph.KindColorCorrect:
		return usecases.KindSpec{
			Ports: []graph.PortDef{
				{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage},
				{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
			},
			Schema: graph.ParamSchema{
				"exposure":   graph.ParamKindNumber,
				"saturation": graph.ParamKindNumber,
				"enabled":    graph.ParamKindBool,
			},
			Defaults: map[string]graph.ParamValue{
				"exposure":   graph.NumberParam(0),
				"saturation": graph.NumberParam(1),
				"enabled":    graph.BoolParam(true),
			},
		}
	case graph.KindBlur:
		return usecases.KindSpec{
			Ports: []graph.PortDef{
				{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage},
				{Name: "mask", Direction: graph.DirectionInput, Type: graph.DataTypeMask},
				{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
			},
			Schema: graph.ParamSchema{
				"radius":     graph.ParamKindNumber,
				"iterations": graph.ParamKindNumber,
			},
			Defaults: map[string]graph.ParamValue{
				"radius":     graph.NumberParam(2),
				"iterations": graph.NumberParam(1),
			},
		}
	case graph.KindMerge:
		return usecases.KindSpec{
			Ports: []graph.PortDef{
				{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage, Multi: true},
				{Name: "out", Direction: graph.DirectionOutput, Type: graph.DataTypeImage},
			},
			Schema: graph.ParamSchema{
				"operation": graph.ParamKindText,
			},
			Defaults: map[string]graph.ParamValue{
				"operation": graph.TextParam("over"),
			},
		}
	case graph.KindViewer:
		return usecases.KindSpec{
			Ports: []graph.PortDef{
				{Name: "in", Direction: graph.DirectionInput, Type: graph.DataTypeImage},
			},
			Schema: graph.ParamSchema{
				"channel": graph.ParamKindText,
			},
			Defaults: map[string]graph.ParamValue{
				"channel": graph.TextParam("rgba"),
			},
		}
	}
	return usecases.KindSpec{}
}

// deriveID stamps a deterministic output descriptor id so unchanged
// recomputations fingerprint identically downstream.
func deriveID(node *graph.Node, inputs []*frame.Frame) string {
	parts := make([]string, 0, len(inputs)+1)
	parts = append(parts, fmt.Sprintf("%s#%d", node.ID, node.ParamRevision()))
	for _, in := range inputs {
		if in == nil {
			parts = append(parts, "-")
			continue
		}
		parts = append(parts, in.Descriptor.ID)
	}
	return strings.Join(parts, "|")
}

func processColorCorrect(_ context.Context, node *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
	in := first(inputs)
	if in == nil {
		return nil, nil
	}
	if enabled, ok := node.Param("enabled"); ok && !enabled.Bool {
		return in, nil
	}
	// Pixel math happens in the opaque payload pipeline; the engine
	// only forwards the handle under a derived descriptor.
	return in.Derive(deriveID(node, inputs), in.Data), nil
}

func processBlur(_ context.Context, node *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
	in := first(inputs)
	if in == nil {
		return nil, nil
	}
	if radius, ok := node.Param("radius"); ok && radius.Number <= 0 {
		return in, nil
	}
	return in.Derive(deriveID(node, inputs), in.Data), nil
}

func processMerge(_ context.Context, node *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
	base := first(inputs)
	if base == nil {
		return nil, nil
	}
	return base.Derive(deriveID(node, inputs), base.Data), nil
}

func processViewer(_ context.Context, _ *graph.Node, inputs []*frame.Frame) (*frame.Frame, error) {
	// Viewers display their input as-is; caching the passthrough gives
	// the UI a per-node last output to show.
	return first(inputs), nil
}

// first returns the first non-nil input.
func first(inputs []*frame.Frame) *frame.Frame {
	for _, in := range inputs {
		if in != nil {
			return in
		}
	}
	return nil
}
