package dag

import (
	"errors"
	"reflect"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New()

	if err := g.AddNode("a"); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode("a"); err != nil {
		t.Fatalf("AddNode duplicate: %v", err)
	}
	if got := g.NodeCount(); got != 1 {
		t.Errorf("NodeCount = %d, want 1", got)
	}

	if err := g.AddNode(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(\"\") = %v, want ErrInvalidNodeID", err)
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	_ = g.AddNode("a")
	_ = g.AddNode("b")

	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge("missing", "b"); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge missing source = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge("a", "missing"); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge missing target = %v, want ErrUnknownTargetNode", err)
	}

	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d, want 1", got)
	}
	if got := g.OutDegree("a"); got != 1 {
		t.Errorf("OutDegree(a) = %d, want 1", got)
	}
	if got := g.InDegree("b"); got != 1 {
		t.Errorf("InDegree(b) = %d, want 1", got)
	}
}

func TestSourcesAndSinks(t *testing.T) {
	g := New()
	for _, n := range []string{"a", "b", "c", "d"} {
		_ = g.AddNode(n)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("b", "d")

	if got, want := g.Sources(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sources = %v, want %v", got, want)
	}
	if got, want := g.Sinks(), []string{"c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sinks = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edges   [][2]string
		wantErr error
	}{
		{
			name:  "Empty",
			edges: nil,
		},
		{
			name:  "Chain",
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
		},
		{
			name:  "Diamond",
			edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
		},
		{
			name:    "SelfLoop",
			edges:   [][2]string{{"a", "a"}},
			wantErr: ErrGraphHasCycle,
		},
		{
			name:    "TwoCycle",
			edges:   [][2]string{{"a", "b"}, {"b", "a"}},
			wantErr: ErrGraphHasCycle,
		},
		{
			name:    "LongCycle",
			edges:   [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"c", "d"}},
			wantErr: ErrGraphHasCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				_ = g.AddNode(e[0])
				_ = g.AddNode(e[1])
			}
			for _, e := range tt.edges {
				if err := g.AddEdge(e[0], e[1]); err != nil {
					t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
				}
			}

			if err := g.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAssignLayers(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  map[string]int
	}{
		{
			name:  "Chain",
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  map[string]int{"a": 0, "b": 1, "c": 2},
		},
		{
			name:  "Diamond",
			edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
			want:  map[string]int{"a": 0, "b": 1, "c": 1, "d": 2},
		},
		{
			// The long path wins: d sits past the deepest parent, not the
			// shortest route from a source.
			name:  "LongestPath",
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}},
			want:  map[string]int{"a": 0, "b": 1, "c": 2, "d": 3},
		},
		{
			name:  "TwoComponents",
			edges: [][2]string{{"a", "b"}, {"x", "y"}},
			want:  map[string]int{"a": 0, "b": 1, "x": 0, "y": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				_ = g.AddNode(e[0])
				_ = g.AddNode(e[1])
			}
			for _, e := range tt.edges {
				if err := g.AddEdge(e[0], e[1]); err != nil {
					t.Fatalf("AddEdge: %v", err)
				}
			}

			if got := g.AssignLayers(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AssignLayers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignLayersIsolatedNode(t *testing.T) {
	g := New()
	_ = g.AddNode("alone")

	got := g.AssignLayers()
	if got["alone"] != 0 {
		t.Errorf("isolated node layer = %d, want 0", got["alone"])
	}
}
