package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout"
	"github.com/ThatOrJohn/flowturi/pkg/layout/realtime"
)

// streamCommand creates the stream command for incremental stabilization.
func (c *CLI) streamCommand() *cobra.Command {
	var (
		width  float64
		height float64
		config string
		output string
	)

	cmd := &cobra.Command{
		Use:   "stream [frames-file]",
		Short: "Stabilize frames arriving one at a time",
		Long: `Stream reads newline-delimited JSON frames (from a file, or stdin when no
argument is given) and runs the real-time layout stabilizer over them in
arrival order, emitting one layout per input line as NDJSON.

The smoothing cache lives for the duration of the command, exactly as it
would for one live session: node layers are assigned on first sight and
never change, geometry is exponentially smoothed, and nodes absent beyond
the staleness window are evicted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := io.Reader(os.Stdin)
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open frames: %w", err)
				}
				defer f.Close()
				in = f
			}

			out := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			tunables := layout.DefaultTunables()
			if config != "" {
				t, err := layout.LoadTunables(config)
				if err != nil {
					return err
				}
				tunables = t
			}

			stabilizer := realtime.New(
				realtime.WithTunables(tunables),
				realtime.WithLogger(c.Logger),
			)

			var (
				cache *realtime.SmoothingCache
				prev  *flow.LayoutState
				count int
			)

			prog := newProgress(c.Logger)
			enc := json.NewEncoder(out)
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				var frame flow.Frame
				if err := json.Unmarshal([]byte(line), &frame); err != nil {
					c.Logger.Warn("skipping malformed frame", "err", err)
					continue
				}

				state, updated := stabilizer.Step(frame, prev, cache, width, height, nil)
				cache = updated
				prev = &state
				count++

				if err := enc.Encode(state); err != nil {
					return fmt.Errorf("encode layout: %w", err)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read frames: %w", err)
			}

			if count == 0 {
				printWarning("No frames were read from input")
				return nil
			}
			prog.done(fmt.Sprintf("Stabilized %d frames", count))
			return nil
		},
	}

	cmd.Flags().Float64Var(&width, "width", 800, "canvas width in pixels")
	cmd.Flags().Float64Var(&height, "height", 600, "canvas height in pixels")
	cmd.Flags().StringVar(&config, "config", "", "TOML file overriding engine tunables")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write layouts to a file instead of stdout")

	return cmd
}
