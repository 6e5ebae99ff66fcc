package prebuilt

import (
	"context"
	"fmt"

	"github.com/framegraph/framegraph/pkg/framegraph"
)

// BuildViewerChain assembles the smallest useful composition: a source
// feeding a blur feeding a viewer. Roles: "source", "blur", "viewer".
func BuildViewerChain(_ context.Context, e *framegraph.Engine) (*Pipeline, error) {
	source, err := e.AddNode(framegraph.KindSource, "clip", 0, 0)
	if err != nil {
		return nil, err
	}
	blur, err := e.AddNode(framegraph.KindBlur, "soften", 200, 0)
	if err != nil {
		return nil, err
	}
	viewer, err := e.AddNode(framegraph.KindViewer, "monitor", 400, 0)
	if err != nil {
		return nil, err
	}

	if err := connectByName(e, source, "out", blur, "in"); err != nil {
		return nil, err
	}
	if err := connectByName(e, blur, "out", viewer, "in"); err != nil {
		return nil, err
	}

	return &Pipeline{Nodes: map[string]*framegraph.Node{
		"source": source,
		"blur":   blur,
		"viewer": viewer,
	}}, nil
}

// BuildMergeComposite assembles a two-source over composite with a
// color grade before the viewer. Roles: "foreground", "background",
// "merge", "grade", "viewer".
func BuildMergeComposite(_ context.Context, e *framegraph.Engine) (*Pipeline, error) {
	fg, err := e.AddNode(framegraph.KindSource, "foreground", 0, 0)
	if err != nil {
		return nil, err
	}
	bg, err := e.AddNode(framegraph.KindSource, "background", 0, 150)
	if err != nil {
		return nil, err
	}
	merge, err := e.AddNode(framegraph.KindMerge, "comp", 200, 75)
	if err != nil {
		return nil, err
	}
	grade, err := e.AddNode(framegraph.KindColorCorrect, "grade", 400, 75)
	if err != nil {
		return nil, err
	}
	viewer, err := e.AddNode(framegraph.KindViewer, "monitor", 600, 75)
	if err != nil {
		return nil, err
	}

	// The merge input is multi, so both sources land on the same port.
	if err := connectByName(e, bg, "out", merge, "in"); err != nil {
		return nil, err
	}
	if err := connectByName(e, fg, "out", merge, "in"); err != nil {
		return nil, err
	}
	if err := connectByName(e, merge, "out", grade, "in"); err != nil {
		return nil, err
	}
	if err := connectByName(e, grade, "out", viewer, "in"); err != nil {
		return nil, err
	}

	return &Pipeline{Nodes: map[string]*framegraph.Node{
		"foreground": fg,
		"background": bg,
		"merge":      merge,
		"grade":      grade,
		"viewer":     viewer,
	}}, nil
}

func connectByName(e *framegraph.Engine, from *framegraph.Node, outName string, to *framegraph.Node, inName string) error {
	out, ok := from.OutputByName(outName)
	if !ok {
		return fmt.Errorf("node %s has no output %q", from.Name, outName)
	}
	in, ok := to.InputByName(inName)
	if !ok {
		return fmt.Errorf("node %s has no input %q", to.Name, inName)
	}
	_, err := e.Connect(from.ID, out.ID, to.ID, in.ID)
	return err
}
