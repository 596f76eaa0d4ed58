package flow

// Overrides maps node names to caller-supplied positions. An override takes
// precedence over computed geometry for that node in every subsequent
// layout until it is removed.
type Overrides map[string]Position

// ApplyPositionOverride returns a copy of frames with the named node's
// custom position set wherever the node appears. Frames that do not
// contain the node are returned unchanged. The input slice is not
// modified.
func ApplyPositionOverride(frames []Frame, name string, x, y float64) []Frame {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		nodes := make([]Node, len(f.Nodes))
		copy(nodes, f.Nodes)
		for j, n := range nodes {
			if n.Key() == name {
				nodes[j].CustomPosition = &Position{X: x, Y: y}
			}
		}
		f.Nodes = nodes
		out[i] = f
	}
	return out
}

// ResetOverrides returns a copy of frames with every custom position
// cleared. The input slice is not modified.
func ResetOverrides(frames []Frame) []Frame {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		nodes := make([]Node, len(f.Nodes))
		copy(nodes, f.Nodes)
		for j := range nodes {
			nodes[j].CustomPosition = nil
		}
		f.Nodes = nodes
		out[i] = f
	}
	return out
}

// CollectOverrides extracts the nodes that currently carry an override from
// a sequence of layouts, for persistence by the host. Later layouts win
// when the same node is overridden more than once.
func CollectOverrides(layouts []LayoutState) Overrides {
	found := Overrides{}
	for _, l := range layouts {
		for name, pos := range l.NodePositions {
			if pos.Overridden {
				found[name] = Position{X: pos.X, Y: pos.Y}
			}
		}
	}
	return found
}

// FrameOverrides gathers the custom positions embedded in a frame's nodes.
// Entries in extra take precedence over frame-embedded positions.
func FrameOverrides(f *Frame, extra Overrides) Overrides {
	merged := Overrides{}
	for _, n := range f.Nodes {
		if n.CustomPosition != nil {
			merged[n.Key()] = *n.CustomPosition
		}
	}
	for name, pos := range extra {
		merged[name] = pos
	}
	return merged
}
