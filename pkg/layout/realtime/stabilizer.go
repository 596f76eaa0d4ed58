package realtime

import (
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout"
)

// Stabilizer computes incrementally stable layouts for streamed frames.
// The zero value is not usable - use New.
//
// A Stabilizer itself holds no per-session state; the [SmoothingCache]
// does. One Stabilizer may serve many independent sessions as long as each
// session keeps its own cache and calls Step in arrival order.
type Stabilizer struct {
	tunables layout.Tunables
	logger   *log.Logger
}

// Option configures a Stabilizer.
type Option func(*Stabilizer)

// WithTunables overrides the default engine constants.
func WithTunables(t layout.Tunables) Option {
	return func(s *Stabilizer) { s.tunables = t }
}

// WithLogger sets the logger used for per-frame diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Stabilizer) { s.logger = l }
}

// New creates a stabilizer with default tunables and a discard logger.
func New(opts ...Option) *Stabilizer {
	s := &Stabilizer{
		tunables: layout.DefaultTunables(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Step processes one streamed frame and returns the new layout plus the
// updated cache. Passing a nil cache starts a new session. prev is the
// layout returned by the previous call (nil on the first call); it seeds
// smoothing for nodes the cache has not learned yet.
//
// Step must be invoked strictly in arrival order for a given cache.
func (s *Stabilizer) Step(frame flow.Frame, prev *flow.LayoutState, cache *SmoothingCache, width, height float64, overrides flow.Overrides) (flow.LayoutState, *SmoothingCache) {
	if cache == nil {
		cache = NewCache()
	}

	frame.Normalize()
	tick := frame.TickValue()
	cache.tick = tick

	state := flow.NewLayoutState(&frame)
	present := frame.NodeSet()

	if len(frame.Nodes) == 0 {
		s.logger.Warn("frame has no nodes; emitting empty layout", "timestamp", frame.Timestamp, "tick", tick)
		cache.evict(s.tunables.StalenessWindow, present, map[string]bool{})
		return state, cache
	}

	links := s.validLinks(&frame, present)
	s.inferLayers(&frame, links, cache, tick)
	seedFromPrevious(&frame, prev, cache)

	nodeValues, liveLinks := s.smoothLinkValues(links, cache)
	s.placeNodes(&frame, cache, nodeValues, height)
	s.materialize(&frame, links, cache, overrides, width, &state)

	cache.evict(s.tunables.StalenessWindow, present, liveLinks)
	return state, cache
}

// validLinks drops links with a dangling endpoint, warning per link.
func (s *Stabilizer) validLinks(frame *flow.Frame, present map[string]bool) []flow.Link {
	valid := make([]flow.Link, 0, len(frame.Links))
	for _, l := range frame.Links {
		if !present[l.Source] || !present[l.Target] {
			s.logger.Warn("dropping link with dangling endpoint",
				"source", l.Source, "target", l.Target, "timestamp", frame.Timestamp)
			continue
		}
		valid = append(valid, l)
	}
	return valid
}

// inferLayers assigns a permanent layer to any node the cache has not seen
// before, using the current frame's immediate topology: no incoming links
// makes a source (layer 0); no outgoing links makes a sink (one past the
// deepest layer observed so far); otherwise one past the deepest cached
// incoming neighbor, defaulting to layer 1 while neighbors are unresolved.
func (s *Stabilizer) inferLayers(frame *flow.Frame, links []flow.Link, cache *SmoothingCache, tick int64) {
	incoming := make(map[string][]string)
	outgoing := make(map[string][]string)
	for _, l := range links {
		incoming[l.Target] = append(incoming[l.Target], l.Source)
		outgoing[l.Source] = append(outgoing[l.Source], l.Target)
	}

	// Sorted for deterministic resolution when several new nodes arrive in
	// one frame.
	names := make([]string, 0, len(frame.Nodes))
	for _, n := range frame.Nodes {
		names = append(names, n.Key())
	}
	sort.Strings(names)

	for _, name := range names {
		if e, ok := cache.nodes[name]; ok {
			e.lastSeen = tick
			continue
		}

		layer := 1
		switch {
		case len(incoming[name]) == 0:
			layer = 0
		case len(outgoing[name]) == 0:
			layer = cache.maxLayer + 1
		default:
			best := -1
			for _, pred := range incoming[name] {
				if e, ok := cache.nodes[pred]; ok && e.layer > best {
					best = e.layer
				}
			}
			if best >= 0 {
				layer = best + 1
			}
		}

		cache.nodes[name] = &nodeEntry{layer: layer, lastSeen: tick}
		if layer > cache.maxLayer {
			cache.maxLayer = layer
		}
	}
}

// smoothLinkValues accumulates this frame's per-node value totals and
// updates the cache's smoothed value for every live link:
// new = old*(1-alpha) + current*alpha. A link's first observation seeds the
// estimate directly.
func (s *Stabilizer) smoothLinkValues(links []flow.Link, cache *SmoothingCache) (map[string]float64, map[string]bool) {
	alpha := s.tunables.SmoothingAlpha
	nodeValues := make(map[string]float64)
	liveLinks := make(map[string]bool, len(links))

	for _, l := range links {
		nodeValues[l.Source] += l.Value
		nodeValues[l.Target] += l.Value

		key := l.Key()
		liveLinks[key] = true
		if old, ok := cache.links[key]; ok {
			cache.links[key] = old*(1-alpha) + l.Value*alpha
		} else {
			cache.links[key] = l.Value
		}
	}
	return nodeValues, liveLinks
}

// seedFromPrevious primes cache geometry for nodes that appeared in the
// previously returned layout but have no remembered geometry yet - a cache
// handed over mid-session, or a node resurfacing right after eviction.
func seedFromPrevious(frame *flow.Frame, prev *flow.LayoutState, cache *SmoothingCache) {
	if prev == nil {
		return
	}
	for _, n := range frame.Nodes {
		name := n.Key()
		e := cache.nodes[name]
		if e == nil || e.seeded {
			continue
		}
		if pos, ok := prev.NodePositions[name]; ok && !pos.Overridden {
			e.y = pos.Y
			e.height = pos.Height
			e.seeded = true
		}
	}
}

// placeNodes groups the visible nodes by cached layer, orders each layer by
// previous smoothed y (new nodes after remembered ones), computes
// proportional target geometry, and blends it into the cache.
func (s *Stabilizer) placeNodes(frame *flow.Frame, cache *SmoothingCache, nodeValues map[string]float64, height float64) {
	t := s.tunables
	alpha := t.SmoothingAlpha

	byLayer := make(map[int][]string)
	for _, n := range frame.Nodes {
		name := n.Key()
		byLayer[cache.nodes[name].layer] = append(byLayer[cache.nodes[name].layer], name)
	}

	for _, names := range byLayer {
		sort.SliceStable(names, func(i, j int) bool {
			a, b := cache.nodes[names[i]], cache.nodes[names[j]]
			if a.seeded != b.seeded {
				return a.seeded // remembered nodes keep their positions first
			}
			if a.seeded {
				return a.y < b.y
			}
			return names[i] < names[j]
		})

		values := make([]float64, len(names))
		for i, name := range names {
			values[i] = nodeValues[name]
		}
		heights, top := t.LayerHeights(values, height)

		y := top
		for i, name := range names {
			e := cache.nodes[name]
			targetY, targetH := y, heights[i]
			if e.seeded {
				e.y = e.y*(1-alpha) + targetY*alpha
				e.height = e.height*(1-alpha) + targetH*alpha
			} else {
				e.y = targetY
				e.height = targetH
				e.seeded = true
			}
			y += heights[i] + t.NodePadding
		}
	}
}

// materialize builds the frame's LayoutState from the updated cache
// entries. Layer x positions are recomputed every call - cheap, and robust
// to late-discovered layers. Link paths use the smoothed link values for
// their weight; the raw values already drove this frame's accumulation.
func (s *Stabilizer) materialize(frame *flow.Frame, links []flow.Link, cache *SmoothingCache, overrides flow.Overrides, width float64, state *flow.LayoutState) {
	t := s.tunables
	layerX := t.LayerX(cache.maxLayer+1, width)
	effective := flow.FrameOverrides(frame, overrides)

	for _, n := range frame.Nodes {
		name := n.Key()
		e := cache.nodes[name]
		pos := flow.NodePosition{
			X:      layerX[min(e.layer, len(layerX)-1)],
			Y:      e.y,
			Width:  t.NodeWidth,
			Height: e.height,
			Layer:  e.layer,
		}
		if ov, ok := effective[name]; ok {
			pos.X, pos.Y = ov.X, ov.Y
			pos.Overridden = true
		}
		state.NodePositions[name] = pos
	}

	claimed := layout.NewClaimedPorts()
	for _, l := range links {
		src := state.NodePositions[l.Source]
		dst := state.NodePositions[l.Target]
		smoothed := cache.links[l.Key()]
		state.LinkPaths = append(state.LinkPaths, flow.LinkPath{
			Source: l.Source,
			Target: l.Target,
			Value:  smoothed,
			Path:   layout.ConnectorPath(claimed, l.Source, l.Target, src, dst),
		})
	}
}
