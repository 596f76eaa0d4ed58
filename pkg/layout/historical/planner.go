// Package historical implements the batch layout planner.
//
// The planner consumes an entire frame sequence at once, computes one
// global node layering and vertical ordering from the structurally richest
// frame, then materializes a [flow.LayoutState] for every frame using that
// fixed plan. Because the plan never changes between frames, node order,
// layer, and size stay visually stable across the whole animation.
package historical

import (
	"io"
	"math"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/ThatOrJohn/flowturi/pkg/dag"
	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout"
)

// Planner computes stable batch layouts for complete frame sequences.
// The zero value is not usable - use New.
type Planner struct {
	tunables layout.Tunables
	logger   *log.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithTunables overrides the default engine constants.
func WithTunables(t layout.Tunables) Option {
	return func(p *Planner) { p.tunables = t }
}

// WithLogger sets the logger used for per-frame diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// New creates a planner with default tunables and a discard logger.
func New(opts ...Option) *Planner {
	p := &Planner{
		tunables: layout.DefaultTunables(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan computes a LayoutState for every valid input frame.
//
// Frames are processed in timestamp order. Frames with zero nodes are
// skipped with a diagnostic, never fatal; links with a dangling endpoint
// are dropped per frame with a warning. Overrides (frame-embedded custom
// positions plus the explicit map, which wins) substitute the computed
// position for their node without disturbing the rest of the layout.
func (p *Planner) Plan(frames []flow.Frame, width, height float64, overrides flow.Overrides) []flow.LayoutState {
	ordered := sortedByTime(frames)
	plan := p.buildPlan(ordered, width, height)
	if plan == nil {
		return nil
	}

	layouts := make([]flow.LayoutState, 0, len(ordered))
	for i := range ordered {
		f := &ordered[i]
		if len(f.Nodes) == 0 {
			p.logger.Warn("skipping frame with no nodes", "timestamp", f.Timestamp, "index", i)
			continue
		}
		layouts = append(layouts, p.materialize(f, plan, overrides))
	}
	return layouts
}

// Plan computes a batch layout with default tunables and no diagnostics.
// It is shorthand for New().Plan(frames, width, height, overrides).
func Plan(frames []flow.Frame, width, height float64, overrides flow.Overrides) []flow.LayoutState {
	return New().Plan(frames, width, height, overrides)
}

// framePlan is the fixed global geometry derived once from the whole
// sequence and reused by every frame.
type framePlan struct {
	layers  map[string]int     // node -> layer (permanent)
	ys      map[string]float64 // node -> top y in its layer
	heights map[string]float64 // node -> allocated height
	layerX  []float64          // layer -> x
	width   float64            // fixed node width
}

func (p *Planner) buildPlan(frames []flow.Frame, width, height float64) *framePlan {
	aggregate, connections := accumulate(frames)
	if len(aggregate) == 0 && !anyNodes(frames) {
		return nil
	}

	layers := p.assignLayers(frames, aggregate)
	orders := p.orderLayers(layers, aggregate, connections)

	maxLayer := 0
	for _, l := range layers {
		if l > maxLayer {
			maxLayer = l
		}
	}

	t := p.tunables
	plan := &framePlan{
		layers:  layers,
		ys:      make(map[string]float64, len(layers)),
		heights: make(map[string]float64, len(layers)),
		layerX:  t.LayerX(maxLayer+1, width),
		width:   t.NodeWidth,
	}

	for _, names := range orders {
		values := make([]float64, len(names))
		for i, name := range names {
			values[i] = aggregate[name]
		}
		heights, top := t.LayerHeights(values, height)
		y := top
		for i, name := range names {
			plan.ys[name] = y
			plan.heights[name] = heights[i]
			y += heights[i] + t.NodePadding
		}
	}
	return plan
}

// accumulate sums link values onto both endpoints and counts the links
// touching each node, across every frame. These totals drive proportional
// sizing and the ordering score. Nodes that never touch a link still get a
// zero entry so they participate in ordering.
func accumulate(frames []flow.Frame) (aggregate map[string]float64, connections map[string]int) {
	aggregate = make(map[string]float64)
	connections = make(map[string]int)
	for i := range frames {
		f := &frames[i]
		present := f.NodeSet()
		for name := range present {
			if _, ok := aggregate[name]; !ok {
				aggregate[name] = 0
			}
		}
		for _, l := range f.Links {
			if !present[l.Source] || !present[l.Target] || l.Value < 0 {
				continue
			}
			aggregate[l.Source] += l.Value
			aggregate[l.Target] += l.Value
			connections[l.Source]++
			connections[l.Target]++
		}
	}
	return aggregate, connections
}

// assignLayers derives permanent layers from the structurally richest frame
// (greatest nodes+links), then resolves nodes absent from that frame using
// the topology of the frames they do appear in.
func (p *Planner) assignLayers(frames []flow.Frame, aggregate map[string]float64) map[string]int {
	ref := referenceFrame(frames)
	layers := make(map[string]int, len(aggregate))
	if ref != nil {
		g := dag.New()
		present := ref.NodeSet()
		for name := range present {
			_ = g.AddNode(name)
		}
		for _, l := range ref.Links {
			if present[l.Source] && present[l.Target] {
				_ = g.AddEdge(l.Source, l.Target)
			}
		}
		if err := g.Validate(); err != nil {
			p.logger.Warn("reference frame topology is cyclic; layering may be degenerate",
				"timestamp", ref.Timestamp, "err", err)
		}
		for name, layer := range g.AssignLayers() {
			layers[name] = layer
		}
	}

	// Nodes never seen in the reference frame: infer from their local
	// topology, the same way the real-time stabilizer discovers nodes.
	// Resolved layers land in the map immediately, so a chain of new
	// nodes resolves against its own earlier members.
	for i := range frames {
		f := &frames[i]
		present := f.NodeSet()
		for _, n := range f.Nodes {
			name := n.Key()
			if _, done := layers[name]; done {
				continue
			}
			layers[name] = inferLayer(name, f, present, layers)
		}
	}
	for name := range aggregate {
		if _, ok := layers[name]; !ok {
			layers[name] = 0
		}
	}
	return layers
}

// inferLayer places an unresolved node from a single frame's immediate
// topology: no incoming links means layer 0; no outgoing means one past the
// deepest known layer; otherwise one past the deepest resolved predecessor,
// defaulting to layer 1.
func inferLayer(name string, f *flow.Frame, present map[string]bool, layers map[string]int) int {
	var incoming, outgoing []string
	for _, l := range f.Links {
		if !present[l.Source] || !present[l.Target] {
			continue
		}
		if l.Target == name {
			incoming = append(incoming, l.Source)
		}
		if l.Source == name {
			outgoing = append(outgoing, l.Target)
		}
	}

	if len(incoming) == 0 && len(outgoing) > 0 {
		return 0
	}
	maxKnown := 0
	for _, l := range layers {
		if l > maxKnown {
			maxKnown = l
		}
	}
	if len(outgoing) == 0 && len(incoming) > 0 {
		return maxKnown + 1
	}

	best := -1
	for _, pred := range incoming {
		if l, ok := layers[pred]; ok && l > best {
			best = l
		}
	}
	if best >= 0 {
		return best + 1
	}
	if len(incoming) == 0 && len(outgoing) == 0 {
		return 0
	}
	return 1
}

// orderLayers computes the fixed vertical order for each layer: nodes
// sorted by composite score (descending), grouped into bands of
// near-equal scores that each order alphabetically, then dealt
// middle-out so the heaviest nodes sit toward the interior of the layer.
func (p *Planner) orderLayers(layers map[string]int, aggregate map[string]float64, connections map[string]int) map[int][]string {
	t := p.tunables
	byLayer := make(map[int][]string)
	for name, layer := range layers {
		byLayer[layer] = append(byLayer[layer], name)
	}

	score := func(name string) float64 {
		return t.ValueWeight*aggregate[name] + t.ConnectionWeight*float64(connections[name])
	}

	for layer, names := range byLayer {
		slices.Sort(names)
		sort.SliceStable(names, func(i, j int) bool {
			return score(names[i]) > score(names[j])
		})
		// A band runs from its first (highest-scoring) member through
		// every following node whose score is within the interior
		// threshold of that member. Measuring against the band head
		// keeps membership transitive, so the order never depends on
		// which permutation the sort started from.
		for start := 0; start < len(names); {
			end := start + 1
			for end < len(names) && scoresClose(score(names[start]), score(names[end]), t.InteriorThreshold) {
				end++
			}
			slices.Sort(names[start:end])
			start = end
		}
		byLayer[layer] = dealMiddleOut(names)
	}
	return byLayer
}

// scoresClose reports whether two scores are within the given relative
// threshold of each other.
func scoresClose(a, b, threshold float64) bool {
	hi := math.Max(math.Abs(a), math.Abs(b))
	if hi < 1e-9 {
		return true
	}
	return math.Abs(a-b) <= threshold*hi
}

// dealMiddleOut rearranges a descending-score list so the first (heaviest)
// element lands in the middle position and subsequent elements alternate
// below and above it.
func dealMiddleOut(sorted []string) []string {
	n := len(sorted)
	if n <= 2 {
		return slices.Clone(sorted)
	}
	out := make([]string, n)
	mid := n / 2
	lo, hi := mid, mid
	for i, name := range sorted {
		switch {
		case i == 0:
			out[mid] = name
		case i%2 == 1 && hi+1 < n:
			hi++
			out[hi] = name
		case lo > 0:
			lo--
			out[lo] = name
		default:
			hi++
			out[hi] = name
		}
	}
	return out
}

// materialize builds one frame's LayoutState from the fixed plan.
func (p *Planner) materialize(f *flow.Frame, plan *framePlan, overrides flow.Overrides) flow.LayoutState {
	state := flow.NewLayoutState(f)
	present := f.NodeSet()
	effective := flow.FrameOverrides(f, overrides)

	for _, n := range f.Nodes {
		name := n.Key()
		layer := plan.layers[name]
		pos := flow.NodePosition{
			X:      plan.layerX[min(layer, len(plan.layerX)-1)],
			Y:      plan.ys[name],
			Width:  plan.width,
			Height: plan.heights[name],
			Layer:  layer,
		}
		if ov, ok := effective[name]; ok {
			pos.X, pos.Y = ov.X, ov.Y
			pos.Overridden = true
		}
		state.NodePositions[name] = pos
	}

	claimed := layout.NewClaimedPorts()
	for _, l := range f.Links {
		if !present[l.Source] || !present[l.Target] {
			p.logger.Warn("dropping link with dangling endpoint",
				"source", l.Source, "target", l.Target, "timestamp", f.Timestamp)
			continue
		}
		src := state.NodePositions[l.Source]
		dst := state.NodePositions[l.Target]
		state.LinkPaths = append(state.LinkPaths, flow.LinkPath{
			Source: l.Source,
			Target: l.Target,
			Value:  l.Value,
			Path:   layout.ConnectorPath(claimed, l.Source, l.Target, src, dst),
		})
	}
	return state
}

// referenceFrame picks the structurally richest frame: the one with the
// greatest nodes+links count. The earliest such frame wins ties. This
// avoids degenerate layering when the first frame happens to contain too
// few edges.
func referenceFrame(frames []flow.Frame) *flow.Frame {
	var best *flow.Frame
	bestSize := -1
	for i := range frames {
		size := len(frames[i].Nodes) + len(frames[i].Links)
		if size > bestSize {
			best = &frames[i]
			bestSize = size
		}
	}
	return best
}

// sortedByTime returns a copy of frames ordered by timestamp, preserving
// input order for equal timestamps.
func sortedByTime(frames []flow.Frame) []flow.Frame {
	out := slices.Clone(frames)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().Before(out[j].Time())
	})
	return out
}

func anyNodes(frames []flow.Frame) bool {
	for i := range frames {
		if len(frames[i].Nodes) > 0 {
			return true
		}
	}
	return false
}
