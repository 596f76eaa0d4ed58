package flow

import (
	"strconv"
	"time"
)

// Position is an x/y coordinate pair in canvas units.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is one vertex of a frame's flow graph. Nodes are identified by name;
// producers that emit an "id" field instead are accepted and normalized by
// [Frame.Normalize].
type Node struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`

	// CustomPosition, when set, replaces the computed position for this
	// node. It does not affect layering or the ordering of sibling nodes.
	CustomPosition *Position `json:"custom_position,omitempty" yaml:"custom_position,omitempty"`
}

// Key returns the node's identifying name, falling back to ID when the
// producer used the alternate field.
func (n Node) Key() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Link is a weighted directed connection between two nodes of the same frame.
type Link struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Value  float64 `json:"value" yaml:"value"`
}

// Key returns the cache key for this link ("source->target").
func (l Link) Key() string { return l.Source + "->" + l.Target }

// Frame is one timestamped observation of the flow graph.
type Frame struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// Tick is an optional monotonic sequence number supplied by real-time
	// producers. When zero, a tick is derived from the timestamp.
	Tick int64 `json:"tick,omitempty" yaml:"tick,omitempty"`

	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}

// Normalize unifies node identifiers so every node carries a non-empty Name.
// Producers may use either "id" or "name"; after Normalize, Name is
// authoritative. Nodes with neither field are removed.
func (f *Frame) Normalize() {
	out := f.Nodes[:0]
	for _, n := range f.Nodes {
		if n.Name == "" {
			n.Name = n.ID
		}
		if n.Name == "" {
			continue
		}
		out = append(out, n)
	}
	f.Nodes = out
}

// NodeSet returns the set of node names present in the frame.
func (f *Frame) NodeSet() map[string]bool {
	set := make(map[string]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		set[n.Key()] = true
	}
	return set
}

// TickValue returns the frame's explicit tick if set, otherwise a tick
// derived from the timestamp (seconds since epoch). This tolerates
// producers that omit the tick field.
func (f *Frame) TickValue() int64 {
	if f.Tick > 0 {
		return f.Tick
	}
	if t, err := ParseTimestamp(f.Timestamp); err == nil {
		return t.Unix()
	}
	return 0
}

// Time returns the parsed timestamp, or the zero time if unparseable.
func (f *Frame) Time() time.Time {
	t, err := ParseTimestamp(f.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseTimestamp parses a frame timestamp. Accepted forms are RFC 3339
// (with or without sub-second precision), "2006-01-02 15:04:05", and
// numeric seconds since the Unix epoch (integer or fractional).
func ParseTimestamp(s string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(secs)
		frac := secs - float64(whole)
		return time.Unix(whole, int64(frac*float64(time.Second))).UTC(), nil
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
