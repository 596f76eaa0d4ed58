package layout

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestGeometryInvariants verifies the allocation invariants that must hold
// for any combination of values and canvas size.
func TestGeometryInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	tun := DefaultTunables()

	properties.Property("layer heights plus padding never exceed the usable space", prop.ForAll(
		func(values []float64, canvas float64) bool {
			heights, top := tun.LayerHeights(values, canvas)

			usable := canvas - 2*tun.MarginY
			padding := tun.NodePadding * float64(len(values)-1)
			var sum float64
			for _, h := range heights {
				if h < 0 {
					return false
				}
				sum += h
			}
			return sum+padding <= usable+1e-6 && top >= tun.MarginY-1e-6
		},
		gen.SliceOfN(6, gen.Float64Range(0, 1000)),
		gen.Float64Range(300, 1200),
	))

	properties.Property("minimum node height stays within [15, 30]", prop.ForAll(
		func(canvas float64) bool {
			h := MinNodeHeight(canvas)
			return h >= 15 && h <= 30
		},
		gen.Float64Range(1, 100000),
	))

	properties.Property("layer x positions are strictly increasing and inside the margins", prop.ForAll(
		func(layers int, width float64) bool {
			xs := tun.LayerX(layers, width)
			if len(xs) != layers {
				return false
			}
			for i, x := range xs {
				if x < tun.MarginX-1e-6 {
					return false
				}
				if i > 0 && xs[i] <= xs[i-1] {
					return false
				}
			}
			return xs[len(xs)-1] <= width-tun.MarginX-tun.NodeWidth+1e-6
		},
		gen.IntRange(1, 12),
		gen.Float64Range(400, 2000),
	))

	properties.TestingRun(t)
}
