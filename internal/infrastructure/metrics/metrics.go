package metrics

import (
	"expvar"
)

// Notify bus metrics (counters) using expvar maps keyed by topic.
var (
	notifyPublished = expvar.NewMap("framegraph_notify_published_total")
	notifyDropped   = expvar.NewMap("framegraph_notify_dropped_total")
)

// Evaluator / cache metrics.
var (
	passesTotal       = new(expvar.Int)
	nodeEvalsTotal    = new(expvar.Int)
	nodeFailuresTotal = new(expvar.Int)
	propagationsTotal = new(expvar.Int)
	cacheHitsTotal    = new(expvar.Int)
	cacheMissesTotal  = new(expvar.Int)
	cacheEvictedTotal = new(expvar.Int)
)

func init() {
	expvar.Publish("framegraph_passes_total", passesTotal)
	expvar.Publish("framegraph_node_evaluations_total", nodeEvalsTotal)
	expvar.Publish("framegraph_node_failures_total", nodeFailuresTotal)
	expvar.Publish("framegraph_propagations_total", propagationsTotal)
	expvar.Publish("framegraph_cache_hits_total", cacheHitsTotal)
	expvar.Publish("framegraph_cache_misses_total", cacheMissesTotal)
	expvar.Publish("framegraph_cache_evicted_total", cacheEvictedTotal)
}

// Notify helpers
func NotifyPublished(topic string, n int64) { notifyPublished.Add(topic, n) }
func NotifyDropped(topic string, n int64)   { notifyDropped.Add(topic, n) }

// Evaluator/cache helpers
func IncPasses()            { passesTotal.Add(1) }
func IncNodeEvals()         { nodeEvalsTotal.Add(1) }
func IncNodeFailures()      { nodeFailuresTotal.Add(1) }
func IncPropagations()      { propagationsTotal.Add(1) }
func IncCacheHits()         { cacheHitsTotal.Add(1) }
func IncCacheMisses()       { cacheMissesTotal.Add(1) }
func AddCacheEvicted(n int) { cacheEvictedTotal.Add(int64(n)) }
