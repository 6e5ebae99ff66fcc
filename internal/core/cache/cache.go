// Package cache memoizes node outputs between evaluation passes so an
// unchanged node is not recomputed. Entries pair a node's last output
// with the input fingerprint it was computed from.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/core/frame"
	"github.com/framegraph/framegraph/internal/infrastructure/metrics"
)

// Config holds cache tuning knobs.
type Config struct {
	// TTL drops entries older than this, checked lazily during Sweep
	// rather than by a background timer.
	TTL time.Duration
	// MaxEntries bounds the cache; oldest entries go first once the
	// bound is exceeded.
	MaxEntries int
}

// DefaultConfig returns the tuning used when the caller passes zeroes.
func DefaultConfig() Config {
	return Config{
		TTL:        30 * time.Second,
		MaxEntries: 128,
	}
}

// Entry holds one node's last computed output. A nil Output means the
// last computation explicitly produced no output, which is distinct from
// the node never having been computed (no entry at all).
type Entry struct {
	NodeID      uuid.UUID         `json:"node_id"`
	Output      *frame.Frame      `json:"output"`
	Fingerprint frame.Fingerprint `json:"fingerprint"`
	ComputedAt  time.Time         `json:"computed_at"`
}

// ResultCache is a per-graph memo of node outputs
// PRINCIPLES:
// - KISS: Plain map with lazy expiry, no background goroutines
// - SRP: Storage and eviction only; staleness policy lives in the caller
// - Owned exclusively by one graph/scheduler pairing, never shared
type ResultCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
	cfg     Config

	// now is swappable for tests
	now func() time.Time
}

// New creates a cache, filling zero config fields with defaults.
func New(cfg Config) *ResultCache {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &ResultCache{
		entries: make(map[uuid.UUID]*Entry),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Get returns the cached output for a node, hitting only when an entry
// exists, its stored fingerprint equals the current one, and it has not
// expired. The entry timestamp is not refreshed on a hit.
func (c *ResultCache) Get(nodeID uuid.UUID, fp frame.Fingerprint) (*frame.Frame, bool) {
	c.mu.RLock()
	entry, ok := c.entries[nodeID]
	c.mu.RUnlock()

	if !ok || entry.Fingerprint != fp || c.expired(entry) {
		metrics.IncCacheMisses()
		return nil, false
	}
	metrics.IncCacheHits()
	return entry.Output, true
}

// Peek returns the entry for a node regardless of fingerprint, for UI
// display of the last known output. Expired entries are not returned.
func (c *ResultCache) Peek(nodeID uuid.UUID) (*Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[nodeID]
	c.mu.RUnlock()
	if !ok || c.expired(entry) {
		return nil, false
	}
	return entry, true
}

// Put stores or overwrites the entry for a node, stamping it with the
// current time, then enforces the capacity bound.
func (c *ResultCache) Put(nodeID uuid.UUID, output *frame.Frame, fp frame.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[nodeID] = &Entry{
		NodeID:      nodeID,
		Output:      output,
		Fingerprint: fp,
		ComputedAt:  c.now(),
	}
	c.evictOverCapacity()
}

// Invalidate removes a node's entry, used on parameter or upstream
// changes. It returns true if an entry existed.
func (c *ResultCache) Invalidate(nodeID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[nodeID]; !ok {
		return false
	}
	delete(c.entries, nodeID)
	return true
}

// InvalidateAll clears the cache. Structural graph edits call this
// because topology changes alter which fingerprints are meaningful.
func (c *ResultCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]*Entry)
}

// Sweep drops expired entries and returns how many were removed. The
// scheduler calls it at the start of each pass.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.AddCacheEvicted(removed)
	}
	return removed
}

// RemoveOrphans drops entries whose node no longer exists in the graph.
// Called proactively on node removal; orphans must not wait for TTL.
func (c *ResultCache) RemoveOrphans(exists func(uuid.UUID) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id := range c.entries {
		if !exists(id) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) expired(e *Entry) bool {
	return c.now().Sub(e.ComputedAt) > c.cfg.TTL
}

// evictOverCapacity removes oldest-first until at or under the bound.
// Caller holds the write lock.
func (c *ResultCache) evictOverCapacity() {
	over := len(c.entries) - c.cfg.MaxEntries
	if over <= 0 {
		return
	}
	oldest := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		oldest = append(oldest, e)
	}
	sort.Slice(oldest, func(i, j int) bool {
		return oldest[i].ComputedAt.Before(oldest[j].ComputedAt)
	})
	for i := 0; i < over; i++ {
		delete(c.entries, oldest[i].NodeID)
	}
	metrics.AddCacheEvicted(over)
}
