// Package metrics exposes expvar-published counters used by the
// FrameGraph engine (evaluator, cache, notify bus). It intentionally
// avoids external dependencies and is consumed via /debug/vars by
// whatever shell embeds the engine.
package metrics
