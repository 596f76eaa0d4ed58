package layout

import "math"

const eps = 1e-9

// MinNodeHeight returns the minimum node height for a canvas of the given
// height: one twentieth of the canvas, clamped to [15, 30].
func MinNodeHeight(canvasHeight float64) float64 {
	return math.Max(15, math.Min(30, canvasHeight/20))
}

// LayerHeights allocates a height for each node in one layer, given the
// nodes' aggregate values in vertical order.
//
// Each height is proportional to the node's share of the layer total,
// clamped to [MinNodeHeight, MaxNodeHeight]. If the clamped heights plus
// inter-node padding exceed the usable vertical space, every height in the
// layer is scaled down by a single factor so the layer fits exactly.
//
// The second return value is the y coordinate of the top of the first
// node: the layer is centered vertically as a block within the usable
// space.
func (t Tunables) LayerHeights(values []float64, canvasHeight float64) ([]float64, float64) {
	n := len(values)
	if n == 0 {
		return nil, t.MarginY
	}

	usable := canvasHeight - 2*t.MarginY
	if usable < 0 {
		usable = canvasHeight
	}

	var total float64
	for _, v := range values {
		total += v
	}

	minH := MinNodeHeight(canvasHeight)
	heights := make([]float64, n)
	for i, v := range values {
		h := minH
		if total > eps {
			h = usable * v / total
		}
		heights[i] = math.Max(minH, math.Min(t.MaxNodeHeight, h))
	}

	padding := t.NodePadding * float64(n-1)
	var sum float64
	for _, h := range heights {
		sum += h
	}

	if sum+padding > usable && sum > eps {
		scale := (usable - padding) / sum
		if scale < 0 {
			scale = 0
		}
		for i := range heights {
			heights[i] *= scale
		}
		sum *= scale
	}

	top := t.MarginY + (usable-sum-padding)/2
	if top < t.MarginY {
		top = t.MarginY
	}
	return heights, top
}

// LayerX returns the x coordinate for each of layerCount layers, spread
// evenly across the usable width. A single layer occupies the left margin.
func (t Tunables) LayerX(layerCount int, canvasWidth float64) []float64 {
	if layerCount <= 0 {
		return nil
	}
	xs := make([]float64, layerCount)
	if layerCount == 1 {
		xs[0] = t.MarginX
		return xs
	}
	span := canvasWidth - 2*t.MarginX - t.NodeWidth
	if span < 0 {
		span = 0
	}
	step := span / float64(layerCount-1)
	for i := range xs {
		xs[i] = t.MarginX + float64(i)*step
	}
	return xs
}
