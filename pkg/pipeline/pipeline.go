// Package pipeline provides the core batch pipeline for Flowturi.
//
// This package implements the complete load → plan → render pipeline used
// by the CLI and the HTTP host. By centralizing this logic, we ensure
// consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a frame sequence from a file (JSON, NDJSON, YAML)
//  2. Plan: Compute a stable layout for every frame (historical planner)
//  3. Render: Emit artifacts (layout JSON, per-frame SVG snapshots)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Input:   "frames.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout"
)

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 600.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
}

// Options contains all configuration for the batch pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Input string `json:"input,omitempty"` // frame file path (CLI); unset when frames are supplied directly

	// Plan options
	Width        float64          `json:"width,omitempty"`
	Height       float64          `json:"height,omitempty"`
	Tunables     *layout.Tunables `json:"tunables,omitempty"`
	TunablesPath string           `json:"tunables_path,omitempty"` // TOML file; overrides Tunables when set

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"` // draw node names in SVG snapshots
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Frames is the decoded input sequence.
	Frames []flow.Frame

	// FramesHash is the content hash of the input sequence.
	FramesHash string

	// Layouts are the per-frame layout states in timestamp order.
	Layouts []flow.LayoutState

	// Artifacts contains rendered outputs keyed by file name
	// (e.g. "frame-0003.svg", "layouts.json").
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which artifacts hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FrameCount  int
	LayoutCount int
	LoadTime    time.Duration
	PlanTime    time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for the render stage.
type CacheInfo struct {
	ArtifactHits   int
	ArtifactMisses int
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, svg)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	for _, f := range o.Formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	if o.TunablesPath != "" {
		t, err := layout.LoadTunables(o.TunablesPath)
		if err != nil {
			return err
		}
		o.Tunables = &t
	}
	if o.Tunables == nil {
		t := layout.DefaultTunables()
		o.Tunables = &t
	}
	if err := o.Tunables.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
