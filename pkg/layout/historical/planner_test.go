package historical

import (
	"math"
	"testing"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout"
)

func chainFrames() []flow.Frame {
	// a -> b -> c across three frames with shifting values.
	return []flow.Frame{
		{
			Timestamp: "2025-04-01T10:00:00Z",
			Nodes:     []flow.Node{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Links: []flow.Link{
				{Source: "a", Target: "b", Value: 10},
				{Source: "b", Target: "c", Value: 10},
			},
		},
		{
			Timestamp: "2025-04-01T10:00:01Z",
			Nodes:     []flow.Node{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Links: []flow.Link{
				{Source: "a", Target: "b", Value: 20},
				{Source: "b", Target: "c", Value: 5},
			},
		},
		{
			Timestamp: "2025-04-01T10:00:02Z",
			Nodes:     []flow.Node{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Links: []flow.Link{
				{Source: "a", Target: "b", Value: 15},
				{Source: "b", Target: "c", Value: 15},
			},
		},
	}
}

func TestPlanChainLayers(t *testing.T) {
	layouts := Plan(chainFrames(), 800, 600, nil)
	if len(layouts) != 3 {
		t.Fatalf("layouts = %d, want 3", len(layouts))
	}

	first := layouts[0]
	wantLayers := map[string]int{"a": 0, "b": 1, "c": 2}
	for name, want := range wantLayers {
		pos, ok := first.NodePositions[name]
		if !ok {
			t.Fatalf("node %s missing from layout", name)
		}
		if pos.Layer != want {
			t.Errorf("%s layer = %d, want %d", name, pos.Layer, want)
		}
	}

	// Layers progress strictly left to right.
	if !(first.NodePositions["a"].X < first.NodePositions["b"].X &&
		first.NodePositions["b"].X < first.NodePositions["c"].X) {
		t.Errorf("x positions not increasing: a=%g b=%g c=%g",
			first.NodePositions["a"].X, first.NodePositions["b"].X, first.NodePositions["c"].X)
	}
}

func TestPlanGeometryIsStableAcrossFrames(t *testing.T) {
	// The whole point of batch planning: a node's position and size never
	// change between frames, no matter how the per-frame values move.
	layouts := Plan(chainFrames(), 800, 600, nil)

	base := layouts[0]
	for i, l := range layouts[1:] {
		for name, pos := range l.NodePositions {
			want := base.NodePositions[name]
			if pos != want {
				t.Errorf("frame %d: %s = %+v, want %+v", i+1, name, pos, want)
			}
		}
	}
}

func TestPlanLinkValuesFollowFrames(t *testing.T) {
	// Geometry is frozen but link weights still reflect each frame's data.
	layouts := Plan(chainFrames(), 800, 600, nil)

	if got := layouts[1].LinkPaths[0].Value; got != 20 {
		t.Errorf("frame 1 link value = %g, want 20", got)
	}
	if got := layouts[2].LinkPaths[1].Value; got != 15 {
		t.Errorf("frame 2 link value = %g, want 15", got)
	}
}

func TestPlanSkipsEmptyFrames(t *testing.T) {
	frames := chainFrames()
	frames = append(frames, flow.Frame{Timestamp: "2025-04-01T10:00:03Z"})

	layouts := Plan(frames, 800, 600, nil)
	if len(layouts) != 3 {
		t.Errorf("layouts = %d, want 3 (empty frame skipped)", len(layouts))
	}
}

func TestPlanDropsDanglingLinks(t *testing.T) {
	frames := []flow.Frame{
		{
			Timestamp: "2025-04-01T10:00:00Z",
			Nodes:     []flow.Node{{Name: "a"}, {Name: "b"}},
			Links: []flow.Link{
				{Source: "a", Target: "b", Value: 5},
				{Source: "a", Target: "ghost", Value: 3},
			},
		},
	}

	layouts := Plan(frames, 800, 600, nil)
	if len(layouts) != 1 {
		t.Fatalf("layouts = %d, want 1", len(layouts))
	}
	if got := len(layouts[0].LinkPaths); got != 1 {
		t.Errorf("link paths = %d, want 1 (dangling dropped)", got)
	}
	if _, ok := layouts[0].NodePositions["ghost"]; ok {
		t.Error("ghost node got a position")
	}
}

func TestPlanHeaviestNodeSitsInTheMiddle(t *testing.T) {
	// Three sources with sharply different weights feeding one sink: the
	// heaviest source lands between the lighter two.
	frames := []flow.Frame{
		{
			Timestamp: "2025-04-01T10:00:00Z",
			Nodes:     []flow.Node{{Name: "s1"}, {Name: "s2"}, {Name: "s3"}, {Name: "sink"}},
			Links: []flow.Link{
				{Source: "s1", Target: "sink", Value: 100},
				{Source: "s2", Target: "sink", Value: 10},
				{Source: "s3", Target: "sink", Value: 1},
			},
		},
	}

	layouts := Plan(frames, 800, 600, nil)
	if len(layouts) != 1 {
		t.Fatalf("layouts = %d, want 1", len(layouts))
	}

	pos := layouts[0].NodePositions
	y1, y2, y3 := pos["s1"].Y, pos["s2"].Y, pos["s3"].Y
	if !(y1 > y3 && y1 < y2) && !(y1 > y2 && y1 < y3) {
		t.Errorf("s1 (heaviest) not between siblings: s1=%g s2=%g s3=%g", y1, y2, y3)
	}
}

func TestPlanCloseScoresOrderDeterministically(t *testing.T) {
	// Three sources whose pairwise score closeness is cyclic at the
	// default threshold: z~b and b~a are close, z~a is not. Banding from
	// the highest score down must still give one fixed order, so repeated
	// runs never disagree.
	frame := flow.Frame{
		Timestamp: "2025-04-01T10:00:00Z",
		Nodes:     []flow.Node{{Name: "z"}, {Name: "b"}, {Name: "a"}, {Name: "t"}},
		Links: []flow.Link{
			{Source: "z", Target: "t", Value: 130},
			{Source: "b", Target: "t", Value: 115},
			{Source: "a", Target: "t", Value: 100},
		},
	}

	for run := 0; run < 50; run++ {
		layouts := Plan([]flow.Frame{frame}, 800, 600, nil)
		if len(layouts) != 1 {
			t.Fatalf("run %d: layouts = %d, want 1", run, len(layouts))
		}
		pos := layouts[0].NodePositions
		ya, yb, yz := pos["a"].Y, pos["b"].Y, pos["z"].Y
		if !(ya < yb && yb < yz) {
			t.Fatalf("run %d: order changed: a=%g b=%g z=%g", run, ya, yb, yz)
		}
	}
}

func TestPlanLateChainResolvesInOrder(t *testing.T) {
	// A two-node chain hanging off c that only exists in a later, sparser
	// frame: each member resolves one layer past the previous one.
	frames := chainFrames()
	frames = append(frames, flow.Frame{
		Timestamp: "2025-04-01T10:00:03Z",
		Nodes:     []flow.Node{{Name: "c"}, {Name: "x"}, {Name: "y"}},
		Links: []flow.Link{
			{Source: "c", Target: "x", Value: 3},
			{Source: "x", Target: "y", Value: 3},
		},
	})

	layouts := Plan(frames, 800, 600, nil)
	if len(layouts) != 4 {
		t.Fatalf("layouts = %d, want 4", len(layouts))
	}
	last := layouts[3]
	if got := last.NodePositions["x"].Layer; got != 3 {
		t.Errorf("x layer = %d, want 3", got)
	}
	if got := last.NodePositions["y"].Layer; got != 4 {
		t.Errorf("y layer = %d, want 4", got)
	}
	if !(last.NodePositions["x"].X < last.NodePositions["y"].X) {
		t.Errorf("x positions not increasing: x=%g y=%g",
			last.NodePositions["x"].X, last.NodePositions["y"].X)
	}
}

func TestPlanOverrides(t *testing.T) {
	t.Run("ExplicitMap", func(t *testing.T) {
		layouts := Plan(chainFrames(), 800, 600, flow.Overrides{"b": {X: 123, Y: 456}})
		for i, l := range layouts {
			pos := l.NodePositions["b"]
			if !pos.Overridden || pos.X != 123 || pos.Y != 456 {
				t.Errorf("frame %d: b = %+v, want overridden at (123, 456)", i, pos)
			}
			if l.NodePositions["a"].Overridden {
				t.Errorf("frame %d: a unexpectedly overridden", i)
			}
		}
	})

	t.Run("FrameEmbedded", func(t *testing.T) {
		frames := flow.ApplyPositionOverride(chainFrames(), "c", 700, 10)
		layouts := Plan(frames, 800, 600, nil)
		pos := layouts[0].NodePositions["c"]
		if !pos.Overridden || pos.X != 700 || pos.Y != 10 {
			t.Errorf("c = %+v, want overridden at (700, 10)", pos)
		}
	})

	t.Run("ExplicitWinsOverEmbedded", func(t *testing.T) {
		frames := flow.ApplyPositionOverride(chainFrames(), "c", 700, 10)
		layouts := Plan(frames, 800, 600, flow.Overrides{"c": {X: 1, Y: 2}})
		pos := layouts[0].NodePositions["c"]
		if pos.X != 1 || pos.Y != 2 {
			t.Errorf("c = %+v, want explicit override (1, 2)", pos)
		}
	})

	t.Run("OverrideKeepsSize", func(t *testing.T) {
		plain := Plan(chainFrames(), 800, 600, nil)
		moved := Plan(chainFrames(), 800, 600, flow.Overrides{"b": {X: 123, Y: 456}})
		if plain[0].NodePositions["b"].Height != moved[0].NodePositions["b"].Height {
			t.Error("override changed the node's height")
		}
	})
}

func TestPlanEmptyInput(t *testing.T) {
	if got := Plan(nil, 800, 600, nil); got != nil {
		t.Errorf("Plan(nil) = %v, want nil", got)
	}
	if got := Plan([]flow.Frame{{Timestamp: "2025-04-01T10:00:00Z"}}, 800, 600, nil); got != nil {
		t.Errorf("Plan(empty frames) = %v, want nil", got)
	}
}

func TestPlanSortsFramesByTimestamp(t *testing.T) {
	frames := chainFrames()
	frames[0], frames[2] = frames[2], frames[0]

	layouts := Plan(frames, 800, 600, nil)
	if len(layouts) != 3 {
		t.Fatalf("layouts = %d, want 3", len(layouts))
	}
	for i := 1; i < len(layouts); i++ {
		prev, _ := flow.ParseTimestamp(layouts[i-1].Timestamp)
		curr, _ := flow.ParseTimestamp(layouts[i].Timestamp)
		if curr.Before(prev) {
			t.Errorf("layout %d out of order: %s before %s", i, layouts[i].Timestamp, layouts[i-1].Timestamp)
		}
	}
}

func TestPlanNodeAbsentFromReferenceFrame(t *testing.T) {
	// "late" only appears in the second frame, downstream of c. It must
	// still get a deeper layer than its predecessor.
	frames := chainFrames()
	frames[1].Nodes = append(frames[1].Nodes, flow.Node{Name: "late"})
	frames[1].Links = append(frames[1].Links, flow.Link{Source: "c", Target: "late", Value: 2})

	layouts := Plan(frames, 800, 600, nil)
	var late flow.NodePosition
	found := false
	for _, l := range layouts {
		if pos, ok := l.NodePositions["late"]; ok {
			late = pos
			found = true
		}
	}
	if !found {
		t.Fatal("late node missing from every layout")
	}
	if late.Layer <= 2 {
		t.Errorf("late layer = %d, want > 2 (past its predecessor c)", late.Layer)
	}
}

func TestPlanHeightsWithinBounds(t *testing.T) {
	tun := layout.DefaultTunables()
	layouts := Plan(chainFrames(), 800, 600, nil)

	minH := layout.MinNodeHeight(600)
	for _, l := range layouts {
		for name, pos := range l.NodePositions {
			if pos.Height < minH-1e-9 || pos.Height > tun.MaxNodeHeight+1e-9 {
				t.Errorf("%s height = %g, want within [%g, %g]", name, pos.Height, minH, tun.MaxNodeHeight)
			}
			if pos.Y < tun.MarginY-1e-9 {
				t.Errorf("%s y = %g, above margin", name, pos.Y)
			}
			if math.IsNaN(pos.Y) || math.IsNaN(pos.Height) {
				t.Errorf("%s has NaN geometry", name)
			}
		}
	}
}
