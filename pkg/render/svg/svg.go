// Package svg renders a single LayoutState as a static SVG snapshot.
//
// The snapshot is a debugging and export aid: node rectangles plus the
// engine's serialized connector curves, exactly as the interactive renderer
// would receive them. It carries no interactivity or styling beyond what is
// needed to inspect the geometry.
package svg

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"github.com/ThatOrJohn/flowturi/pkg/flow"
)

const (
	nodeFill   = "#4a90d9"
	nodeStroke = "#2a5a99"
	linkStroke = "#9bb7d4"
	labelFill  = "#1a1a2e"
)

// Option configures the renderer.
type Option func(*renderer)

// WithLabels draws each node's name beside its rectangle.
func WithLabels() Option { return func(r *renderer) { r.labels = true } }

// WithTitle draws the frame timestamp in the top-left corner.
func WithTitle() Option { return func(r *renderer) { r.title = true } }

type renderer struct {
	labels bool
	title  bool
}

// Render serializes one layout to SVG bytes for a canvas of the given size.
func Render(l flow.LayoutState, width, height float64, opts ...Option) []byte {
	var r renderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)

	// Links first so nodes draw on top of their connectors.
	for _, lp := range l.LinkPaths {
		if lp.Path == "" {
			// Zero-length connector; nothing to draw.
			continue
		}
		fmt.Fprintf(&buf, `  <path d="%s" fill="none" stroke="%s" stroke-opacity="0.6" stroke-width="%.1f"/>`+"\n",
			lp.Path, linkStroke, strokeWidth(lp.Value))
	}

	names := make([]string, 0, len(l.NodePositions))
	for name := range l.NodePositions {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		pos := l.NodePositions[name]
		fmt.Fprintf(&buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s"/>`+"\n",
			pos.X, pos.Y, pos.Width, pos.Height, nodeFill, nodeStroke)
		if r.labels {
			fmt.Fprintf(&buf, `  <text x="%.2f" y="%.2f" font-size="11" fill="%s">%s</text>`+"\n",
				pos.X+pos.Width+4, pos.Y+pos.Height/2+4, labelFill, escape(name))
		}
	}

	if r.title && l.Timestamp != "" {
		fmt.Fprintf(&buf, `  <text x="8" y="16" font-size="12" fill="%s">%s</text>`+"\n",
			labelFill, escape(l.Timestamp))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// strokeWidth maps a link's smoothed value to a visible stroke width.
func strokeWidth(value float64) float64 {
	w := math.Sqrt(math.Max(value, 0))
	return math.Max(1, math.Min(12, w))
}

func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
