// Package dag models the cross-frame link topology used for layer
// assignment. Nodes are identified by name; edges are directed from flow
// sources toward flow sinks. The model assumes an acyclic topology - cycles
// are detected and reported, never silently laid out.
package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node name is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node name must not be empty")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is
	// detected. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge represents a directed connection between two named nodes.
type Edge struct {
	From string
	To   string
}

// DAG is a directed acyclic graph over named nodes, used to derive layer
// assignments from a frame's link topology.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]bool
	edges    []Edge
	outgoing map[string][]string // node -> children
	incoming map[string][]string // node -> parents
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]bool),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
// Returns ErrInvalidNodeID if the name is empty.
func (d *DAG) AddNode(name string) error {
	if name == "" {
		return ErrInvalidNodeID
	}
	d.nodes[name] = true
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing. Duplicate edges between the same pair are allowed.
func (d *DAG) AddEdge(from, to string) error {
	if !d.nodes[from] {
		return ErrUnknownSourceNode
	}
	if !d.nodes[to] {
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, Edge{From: from, To: to})
	d.outgoing[from] = append(d.outgoing[from], to)
	d.incoming[to] = append(d.incoming[to], from)
	return nil
}

// Nodes returns all node names in sorted order.
func (d *DAG) Nodes() []string {
	names := make([]string, 0, len(d.nodes))
	for name := range d.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Has reports whether the named node exists.
func (d *DAG) Has(name string) bool { return d.nodes[name] }

// Children returns the nodes this node has edges to.
// The returned slice should not be modified.
func (d *DAG) Children(name string) []string { return d.outgoing[name] }

// Parents returns the nodes that have edges to this node.
// The returned slice should not be modified.
func (d *DAG) Parents(name string) []string { return d.incoming[name] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(name string) int { return len(d.outgoing[name]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(name string) int { return len(d.incoming[name]) }

// Sources returns nodes with no incoming edges, in sorted order.
// These are the flow origins and are assigned layer 0.
func (d *DAG) Sources() []string {
	var sources []string
	for name := range d.nodes {
		if len(d.incoming[name]) == 0 {
			sources = append(sources, name)
		}
	}
	slices.Sort(sources)
	return sources
}

// Sinks returns nodes with no outgoing edges, in sorted order.
func (d *DAG) Sinks() []string {
	var sinks []string
	for name := range d.nodes {
		if len(d.outgoing[name]) == 0 {
			sinks = append(sinks, name)
		}
	}
	slices.Sort(sinks)
	return sinks
}

// Validate checks that the graph is acyclic and returns nil if valid.
// Returns ErrGraphHasCycle if a directed cycle is detected.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		for _, child := range d.outgoing[name] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[name] = black
	}

	for name := range d.nodes {
		if color[name] == white {
			dfs(name)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
