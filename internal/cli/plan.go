package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ThatOrJohn/flowturi/pkg/pipeline"
)

// planCommand creates the plan command for batch layout of recorded frames.
func (c *CLI) planCommand() *cobra.Command {
	var (
		width   float64
		height  float64
		formats []string
		output  string
		labels  bool
		config  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "plan <frames-file>",
		Short: "Compute a stable layout for every frame of a recorded sequence",
		Long: `Plan reads a complete frame sequence from a file (.json, .ndjson, .jsonl,
.yaml) and runs the historical layout planner over it: one global node
ordering and layering is derived from the structurally richest frame, and
every frame's geometry is materialized from that fixed plan.

Artifacts are written next to each other in the output directory: the
layout sequence as JSON and, with --format svg, one SVG snapshot per frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			runner := c.newRunner(noCache)

			prog := newProgress(c.Logger)
			result, err := runner.Execute(ctx, pipeline.Options{
				Input:        args[0],
				Width:        width,
				Height:       height,
				Formats:      formats,
				Labels:       labels,
				TunablesPath: config,
				Refresh:      refresh,
				Logger:       loggerFromContext(ctx),
			})
			if err != nil {
				printError("Planning failed: %v", err)
				return err
			}
			prog.done(fmt.Sprintf("Planned %d layouts", result.Stats.LayoutCount))

			if err := os.MkdirAll(output, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			names := make([]string, 0, len(result.Artifacts))
			for name := range result.Artifacts {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				path := filepath.Join(output, name)
				if err := os.WriteFile(path, result.Artifacts[name], 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
			}

			printSuccess("Wrote %d artifacts", len(names))
			printDetail("Directory: %s", output)
			printStats(result.Stats.FrameCount, result.Stats.LayoutCount,
				result.CacheInfo.ArtifactHits > 0 && result.CacheInfo.ArtifactMisses == 0)
			if len(names) > 0 && strings.HasSuffix(names[0], ".svg") {
				printFile(filepath.Join(output, names[0]))
			} else {
				printNextStep("Render snapshots", "flowturi plan "+args[0]+" --format svg")
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&width, "width", pipeline.DefaultWidth, "canvas width in pixels")
	cmd.Flags().Float64Var(&height, "height", pipeline.DefaultHeight, "canvas height in pixels")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{pipeline.FormatJSON}, "output formats (json, svg)")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory for artifacts")
	cmd.Flags().BoolVar(&labels, "labels", false, "draw node names in SVG snapshots")
	cmd.Flags().StringVar(&config, "config", "", "TOML file overriding engine tunables")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached artifacts and re-render")

	return cmd
}
