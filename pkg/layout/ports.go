package layout

import (
	"math"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
)

// Side identifies which vertical edge of a node rectangle a port sits on.
// Links leave their source on the right edge and enter their target on the
// left edge.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// PortCount returns the number of discrete attachment slots on one edge of
// a node of the given height: one per ten units, never fewer than three.
func PortCount(height float64) int {
	n := int(math.Floor(height / 10))
	if n < 3 {
		n = 3
	}
	return n
}

type portKey struct {
	node  string
	side  Side
	index int
}

// ClaimedPorts tracks which attachment slots are taken during a single
// layout computation. Claims are a rendering-disambiguation device scoped
// to one LayoutState - create a fresh set per call, never persist one.
type ClaimedPorts map[portKey]bool

// NewClaimedPorts returns an empty claim set for one layout computation.
func NewClaimedPorts() ClaimedPorts { return make(ClaimedPorts) }

// Claim picks the free port on the given edge of the node nearest its
// vertical middle, searching outward alternately below and above the
// middle, marks it claimed, and returns the port's y coordinate.
//
// When every port is already claimed, the middle port is reused: parallel
// links then overlap rather than fail, which is the lesser evil for very
// short nodes.
func (c ClaimedPorts) Claim(node string, side Side, pos flow.NodePosition) float64 {
	n := PortCount(pos.Height)
	mid := n / 2

	index := mid
	for offset := 0; offset <= n; offset++ {
		var candidates []int
		if offset == 0 {
			candidates = []int{mid}
		} else {
			candidates = []int{mid + offset, mid - offset}
		}
		found := false
		for _, i := range candidates {
			if i < 0 || i >= n {
				continue
			}
			key := portKey{node: node, side: side, index: i}
			if !c[key] {
				c[key] = true
				index = i
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	// Ports are evenly spaced along the edge, offset half a slot from
	// either end.
	slot := pos.Height / float64(n)
	return pos.Y + slot*(float64(index)+0.5)
}
