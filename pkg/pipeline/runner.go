package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ThatOrJohn/flowturi/pkg/cache"
	"github.com/ThatOrJohn/flowturi/pkg/errors"
	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout/historical"
	"github.com/ThatOrJohn/flowturi/pkg/observability"
	"github.com/ThatOrJohn/flowturi/pkg/render/svg"
)

// artifactTTL bounds how long rendered snapshots stay cached.
const artifactTTL = 7 * 24 * time.Hour

// Runner encapsulates pipeline execution with artifact caching.
// Both CLI and HTTP host can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete load → plan → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger != nil {
		r.Logger = opts.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	frames, err := flow.ImportFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	for i := range frames {
		for _, n := range frames[i].Nodes {
			if err := errors.ValidateNodeName(n.Key()); err != nil {
				return nil, fmt.Errorf("load: frame %d: %w", i, err)
			}
		}
	}
	result.Frames = frames
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.FrameCount = len(frames)

	if framesData, err := json.Marshal(frames); err == nil {
		result.FramesHash = cache.Hash(framesData)
	}

	r.Logger.Info("loaded frames",
		"frames", len(frames),
		"duration", result.Stats.LoadTime)

	// Stage 2: Plan
	if err := r.Plan(ctx, result, opts); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	// Stage 3: Render
	if err := r.Render(ctx, result, opts); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	return result, nil
}

// Plan runs the historical planner over the loaded frames.
func (r *Runner) Plan(ctx context.Context, result *Result, opts Options) error {
	start := time.Now()
	observability.Layout().OnPlanStart(ctx, len(result.Frames))

	planner := historical.New(
		historical.WithTunables(*opts.Tunables),
		historical.WithLogger(r.Logger),
	)
	result.Layouts = planner.Plan(result.Frames, opts.Width, opts.Height, nil)

	result.Stats.PlanTime = time.Since(start)
	result.Stats.LayoutCount = len(result.Layouts)
	observability.Layout().OnPlanComplete(ctx, len(result.Frames), len(result.Layouts), result.Stats.PlanTime, nil)

	r.Logger.Info("planned layouts",
		"layouts", len(result.Layouts),
		"duration", result.Stats.PlanTime)
	return nil
}

// Render emits the requested artifacts for the planned layouts. SVG
// snapshots are cached by content hash; the layout JSON is always encoded
// fresh (it is cheaper to produce than to fetch).
func (r *Runner) Render(ctx context.Context, result *Result, opts Options) error {
	start := time.Now()

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			if err := flow.WriteLayoutsJSON(&buf, result.Layouts); err != nil {
				return err
			}
			result.Artifacts["layouts.json"] = buf.Bytes()

		case FormatSVG:
			for i, l := range result.Layouts {
				name := fmt.Sprintf("frame-%04d.svg", i)
				data, hit, err := r.renderSnapshot(ctx, result.FramesHash, i, l, opts)
				if err != nil {
					return err
				}
				if hit {
					result.CacheInfo.ArtifactHits++
				} else {
					result.CacheInfo.ArtifactMisses++
				}
				result.Artifacts[name] = data
			}
		}
	}

	result.Stats.RenderTime = time.Since(start)
	r.Logger.Info("rendered artifacts",
		"artifacts", len(result.Artifacts),
		"cache_hits", result.CacheInfo.ArtifactHits,
		"duration", result.Stats.RenderTime)
	return nil
}

// renderSnapshot renders one frame's SVG, consulting the artifact cache.
func (r *Runner) renderSnapshot(ctx context.Context, framesHash string, index int, l flow.LayoutState, opts Options) ([]byte, bool, error) {
	key := cache.ArtifactKey(framesHash, cache.ArtifactKeyOpts{
		Format: FormatSVG,
		Width:  opts.Width,
		Height: opts.Height,
		Frame:  index,
	})

	if !opts.Refresh && framesHash != "" {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	var svgOpts []svg.Option
	if opts.Labels {
		svgOpts = append(svgOpts, svg.WithLabels(), svg.WithTitle())
	}
	data := svg.Render(l, opts.Width, opts.Height, svgOpts...)

	if framesHash != "" {
		if err := r.Cache.Set(ctx, key, data, artifactTTL); err != nil {
			r.Logger.Debug("artifact cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return data, false, nil
}
