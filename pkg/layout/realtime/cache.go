// Package realtime implements the incremental layout stabilizer.
//
// The stabilizer consumes one frame at a time plus a persistent
// [SmoothingCache] and returns an updated [flow.LayoutState] and cache.
// Geometry is blended toward each frame's targets with exponential
// smoothing, so magnitude jitter in the stream damps out instead of making
// nodes jump. Cache entries are evicted once their node or link has been
// absent longer than the staleness window.
package realtime

import "maps"

// nodeEntry is the remembered state for one node in a real-time session.
type nodeEntry struct {
	y      float64 // last smoothed top y
	height float64 // last smoothed height
	seeded bool    // whether y/height hold a real prior value

	// layer is assigned on first sight and never changes for the life of
	// the session.
	layer    int
	lastSeen int64 // tick the node last appeared
}

// SmoothingCache is the caller-owned state carried between stabilizer
// calls. It is scoped to one real-time session: create it empty (or pass
// nil to [Stabilizer.Step]), thread it through every call in arrival
// order, and discard it when the session ends.
//
// A cache must never be shared between concurrent sessions - smoothing and
// staleness tracking are order-dependent.
type SmoothingCache struct {
	nodes    map[string]*nodeEntry
	links    map[string]float64 // "source->target" -> smoothed value
	maxLayer int                // deepest layer observed so far
	tick     int64              // tick of the most recent processed frame
}

// NewCache returns an empty cache for a fresh real-time session.
func NewCache() *SmoothingCache {
	return &SmoothingCache{
		nodes: make(map[string]*nodeEntry),
		links: make(map[string]float64),
	}
}

// NodeCount returns the number of remembered nodes.
func (c *SmoothingCache) NodeCount() int { return len(c.nodes) }

// HasNode reports whether the named node is remembered.
func (c *SmoothingCache) HasNode(name string) bool {
	_, ok := c.nodes[name]
	return ok
}

// Layer returns the permanently assigned layer for a remembered node.
func (c *SmoothingCache) Layer(name string) (int, bool) {
	e, ok := c.nodes[name]
	if !ok {
		return 0, false
	}
	return e.layer, true
}

// LinkValue returns the smoothed value for a link key ("source->target").
func (c *SmoothingCache) LinkValue(key string) (float64, bool) {
	v, ok := c.links[key]
	return v, ok
}

// Tick returns the tick of the most recently processed frame.
func (c *SmoothingCache) Tick() int64 { return c.tick }

// evict removes node entries stale beyond the window and not currently
// visible, and link entries absent from the current frame. Eviction only
// begins once the running tick counter exceeds the window, so short
// dropouts early in a stream do not churn the cache.
func (c *SmoothingCache) evict(window int64, visible map[string]bool, liveLinks map[string]bool) {
	if c.tick <= window {
		return
	}
	maps.DeleteFunc(c.nodes, func(name string, e *nodeEntry) bool {
		return !visible[name] && c.tick-e.lastSeen > window
	})
	maps.DeleteFunc(c.links, func(key string, _ float64) bool {
		return !liveLinks[key]
	})
}
