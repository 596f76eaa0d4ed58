package realtime

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ThatOrJohn/flowturi/pkg/layout"
)

// TestSmoothingInvariants verifies the smoothing behavior for arbitrary
// value steps and alphas.
func TestSmoothingInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("smoothed estimate converges toward a steady value", prop.ForAll(
		func(start, target, alpha float64) bool {
			tun := layout.DefaultTunables()
			tun.SmoothingAlpha = alpha
			s := New(WithTunables(tun))

			var cache *SmoothingCache
			state, cache := s.Step(streamFrame(1, start), nil, cache, 800, 600, nil)
			prev := &state
			for tick := int64(2); tick <= 40; tick++ {
				state, cache = s.Step(streamFrame(tick, target), prev, cache, 800, 600, nil)
				p := state
				prev = &p
			}

			v, ok := cache.LinkValue("a->b")
			if !ok {
				return false
			}
			// After 39 blends the residual is (1-alpha)^39 of the jump.
			tolerance := math.Abs(start-target)*math.Pow(1-alpha, 38) + 1e-6
			return math.Abs(v-target) <= tolerance
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.05, 1),
	))

	properties.Property("smoothed estimate stays between start and target", prop.ForAll(
		func(start, target float64) bool {
			s := New()

			var cache *SmoothingCache
			state, cache := s.Step(streamFrame(1, start), nil, cache, 800, 600, nil)
			prev := &state

			lo, hi := math.Min(start, target), math.Max(start, target)
			for tick := int64(2); tick <= 10; tick++ {
				state, cache = s.Step(streamFrame(tick, target), prev, cache, 800, 600, nil)
				p := state
				prev = &p

				v, _ := cache.LinkValue("a->b")
				if v < lo-1e-9 || v > hi+1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}
