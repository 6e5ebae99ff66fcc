package processor

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/core/graph"
)

// SourceStore holds the current frame for each source node. External
// media components (decoders, file loaders) publish into it and then
// notify the owner's propagation entry point.
type SourceStore struct {
	mu     sync.RWMutex
	frames map[uuid.UUID]*frame.Frame
}

// NewSourceStore creates an empty store.
func NewSourceStore() *SourceStore {
	return &SourceStore{frames: make(map[uuid.UUID]*frame.Frame)}
}

// SetFrame installs the current frame for a source node.
func (s *SourceStore) SetFrame(nodeID uuid.UUID, f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[nodeID] = f
}

// FrameFor returns the current frame for a source node, nil if none.
func (s *SourceStore) FrameFor(nodeID uuid.UUID) *frame.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames[nodeID]
}

// Drop forgets a removed source node's frame.
func (s *SourceStore) Drop(nodeID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frames, nodeID)
}

// Process implements usecases.FrameProcessor for source nodes: it emits
// the externally supplied frame, or absent when nothing is loaded yet.
func (s *SourceStore) Process(_ context.Context, node *graph.Node, _ []*frame.Frame) (*frame.Frame, error) {
	return s.FrameFor(node.ID), nil
}
