package layout

import (
	"github.com/BurntSushi/toml"

	"github.com/ThatOrJohn/flowturi/pkg/errors"
)

// Default tunable values. These are empirically chosen constants - treat
// them as starting points, not invariants, and override them via a TOML
// config file or [Tunables] literal where a data set calls for it.
const (
	// DefaultSmoothingAlpha is the exponential smoothing factor used by the
	// real-time stabilizer. Lower values are smoother but lag more; higher
	// values are more reactive but jitter.
	DefaultSmoothingAlpha = 0.3

	// DefaultValueWeight and DefaultConnectionWeight form the composite
	// ordering score: valueWeight*aggregate + connectionWeight*connections.
	DefaultValueWeight      = 0.7
	DefaultConnectionWeight = 10.0

	// DefaultInteriorThreshold is the relative score gap beyond which a
	// node is considered materially heavier and pulled toward the middle
	// of its layer.
	DefaultInteriorThreshold = 0.2

	// DefaultStalenessWindow is the number of ticks a node or link may be
	// absent from a real-time stream before its cache entry is evicted.
	DefaultStalenessWindow = 5

	// DefaultNodeWidth is the fixed horizontal size of a node rectangle.
	DefaultNodeWidth = 20.0

	// DefaultMaxNodeHeight caps any single node's height.
	DefaultMaxNodeHeight = 100.0

	// DefaultNodePadding is the vertical gap between adjacent nodes in a layer.
	DefaultNodePadding = 10.0

	// DefaultMarginX and DefaultMarginY inset the drawable area from the
	// canvas edges.
	DefaultMarginX = 50.0
	DefaultMarginY = 20.0
)

// Tunables collects the engine's adjustable constants. The zero value is
// not usable - start from [DefaultTunables].
type Tunables struct {
	SmoothingAlpha    float64 `toml:"smoothing_alpha"`
	ValueWeight       float64 `toml:"value_weight"`
	ConnectionWeight  float64 `toml:"connection_weight"`
	InteriorThreshold float64 `toml:"interior_threshold"`
	StalenessWindow   int64   `toml:"staleness_window"`
	NodeWidth         float64 `toml:"node_width"`
	MaxNodeHeight     float64 `toml:"max_node_height"`
	NodePadding       float64 `toml:"node_padding"`
	MarginX           float64 `toml:"margin_x"`
	MarginY           float64 `toml:"margin_y"`
}

// DefaultTunables returns the default engine constants.
func DefaultTunables() Tunables {
	return Tunables{
		SmoothingAlpha:    DefaultSmoothingAlpha,
		ValueWeight:       DefaultValueWeight,
		ConnectionWeight:  DefaultConnectionWeight,
		InteriorThreshold: DefaultInteriorThreshold,
		StalenessWindow:   DefaultStalenessWindow,
		NodeWidth:         DefaultNodeWidth,
		MaxNodeHeight:     DefaultMaxNodeHeight,
		NodePadding:       DefaultNodePadding,
		MarginX:           DefaultMarginX,
		MarginY:           DefaultMarginY,
	}
}

// Validate checks that the tunables are internally consistent.
func (t Tunables) Validate() error {
	if t.SmoothingAlpha <= 0 || t.SmoothingAlpha > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "smoothing_alpha must be in (0, 1], got %g", t.SmoothingAlpha)
	}
	if t.StalenessWindow < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "staleness_window must be >= 1, got %d", t.StalenessWindow)
	}
	if t.NodeWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "node_width must be positive, got %g", t.NodeWidth)
	}
	if t.MaxNodeHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_node_height must be positive, got %g", t.MaxNodeHeight)
	}
	if t.NodePadding < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "node_padding must not be negative, got %g", t.NodePadding)
	}
	return nil
}

// LoadTunables reads tunables from a TOML file at path. Keys omitted from
// the file keep their default values.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return t, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load tunables from %s", path)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
