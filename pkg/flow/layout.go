package flow

// NodePosition is the computed geometry for one node in one frame.
// X and Y are the top-left corner of the node rectangle.
type NodePosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Layer  int     `json:"layer"`

	// Overridden reports whether the position came from a caller-supplied
	// override rather than the layout computation.
	Overridden bool `json:"overridden,omitempty"`
}

// LinkPath is the connector geometry for one link in one frame.
type LinkPath struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`

	// Path is the serialized cubic connector curve in SVG path syntax
	// ("M x y C c1x c1y c2x c2y x y"). Empty when either endpoint is
	// degenerate.
	Path string `json:"path,omitempty"`
}

// LayoutState is an engine's output for one frame: geometry for every node
// present in the frame plus connector paths for every valid link.
type LayoutState struct {
	Timestamp string `json:"timestamp"`
	Tick      int64  `json:"tick,omitempty"`

	NodePositions map[string]NodePosition `json:"nodes"`
	LinkPaths     []LinkPath              `json:"links"`
}

// NewLayoutState returns an empty layout for the given frame.
func NewLayoutState(f *Frame) LayoutState {
	return LayoutState{
		Timestamp:     f.Timestamp,
		Tick:          f.TickValue(),
		NodePositions: make(map[string]NodePosition, len(f.Nodes)),
	}
}

// Empty reports whether the layout contains no node geometry.
func (s LayoutState) Empty() bool { return len(s.NodePositions) == 0 }
