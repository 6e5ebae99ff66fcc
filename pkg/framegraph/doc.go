// Package framegraph provides a minimal public façade for building and
// evaluating compositing graphs without importing internal packages. It
// re-exports the core graph types for convenience and exposes an Engine
// with simple methods to edit a graph, feed source frames, and run
// evaluation passes.
package framegraph
