package layout

import (
	"strings"
	"testing"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
)

func TestCubicPath(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		want           string
	}{
		{
			name: "Horizontal",
			x1:   0, y1: 50, x2: 100, y2: 50,
			want: "M 0.00 50.00 C 50.00 50.00, 50.00 50.00, 100.00 50.00",
		},
		{
			name: "Sloped",
			x1:   70, y1: 35, x2: 390, y2: 125,
			want: "M 70.00 35.00 C 230.00 35.00, 230.00 125.00, 390.00 125.00",
		},
		{
			name: "ZeroLength",
			x1:   10, y1: 10, x2: 10, y2: 10,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CubicPath(tt.x1, tt.y1, tt.x2, tt.y2); got != tt.want {
				t.Errorf("CubicPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectorPath(t *testing.T) {
	src := flow.NodePosition{X: 50, Y: 100, Width: 20, Height: 40}
	dst := flow.NodePosition{X: 400, Y: 200, Width: 20, Height: 40}
	claimed := NewClaimedPorts()

	path := ConnectorPath(claimed, "a", "b", src, dst)
	if !strings.HasPrefix(path, "M 70.00 ") {
		t.Errorf("path %q does not start at the source's right edge x=70", path)
	}
	if !strings.Contains(path, " 400.00 ") {
		t.Errorf("path %q does not end at the target's left edge x=400", path)
	}
}

func TestConnectorPathFansOut(t *testing.T) {
	// Two parallel links from the same source must leave through distinct
	// ports.
	src := flow.NodePosition{X: 50, Y: 100, Width: 20, Height: 40}
	dst1 := flow.NodePosition{X: 400, Y: 100, Width: 20, Height: 40}
	dst2 := flow.NodePosition{X: 400, Y: 300, Width: 20, Height: 40}
	claimed := NewClaimedPorts()

	p1 := ConnectorPath(claimed, "a", "b", src, dst1)
	p2 := ConnectorPath(claimed, "a", "c", src, dst2)

	start := func(p string) string {
		fields := strings.Fields(p)
		if len(fields) < 3 {
			t.Fatalf("malformed path %q", p)
		}
		return fields[1] + " " + fields[2]
	}
	if start(p1) == start(p2) {
		t.Errorf("parallel links share source port: %q vs %q", p1, p2)
	}
}
