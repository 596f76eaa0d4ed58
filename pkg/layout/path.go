package layout

import (
	"fmt"
	"math"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
)

// CubicPath serializes a cubic Bézier from (x1, y1) to (x2, y2) in SVG path
// syntax. The control points sit at the horizontal midpoint between the
// endpoints, each keeping its endpoint's y, producing a smooth S-curve.
//
// A zero-length path returns the empty string so degenerate links can be
// skipped downstream instead of rendering a point.
func CubicPath(x1, y1, x2, y2 float64) string {
	if math.Abs(x2-x1) < eps && math.Abs(y2-y1) < eps {
		return ""
	}
	midX := (x1 + x2) / 2
	return fmt.Sprintf("M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f",
		x1, y1, midX, y1, midX, y2, x2, y2)
}

// ConnectorPath assigns one port on each endpoint of a link and returns the
// serialized connector curve. The source port sits on the right edge of the
// source rectangle, the target port on the left edge of the target
// rectangle. Claims accumulate in claimed so parallel links touching the
// same node fan out across its ports instead of stacking.
func ConnectorPath(claimed ClaimedPorts, source, target string, src, dst flow.NodePosition) string {
	srcY := claimed.Claim(source, SideRight, src)
	dstY := claimed.Claim(target, SideLeft, dst)
	return CubicPath(src.X+src.Width, srcY, dst.X, dstY)
}
