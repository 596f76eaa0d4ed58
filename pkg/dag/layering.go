package dag

// AssignLayers computes a layer (topological depth) for every node.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed at one plus the maximum layer of any of
// its parents, ensuring that:
//   - Source nodes (no incoming edges) are at layer 0
//   - All parents are strictly left of their children
//   - Each node is pushed as deep as necessary to avoid parent conflicts
//
// This is the left-to-right justified assignment used by both layout
// engines. The returned map has an entry for every node in the graph.
//
// AssignLayers assumes the graph is acyclic. If cycles exist, nodes in the
// cycle never reach zero in-degree and remain at layer 0 (their default).
// Run [DAG.Validate] first when cycle detection matters.
//
// Time complexity is O(V + E); space is O(V) for the queue and layer maps.
func (d *DAG) AssignLayers() map[string]int {
	inDegree := make(map[string]int, len(d.nodes))
	layers := make(map[string]int, len(d.nodes))
	queue := make([]string, 0, len(d.nodes))

	for name := range d.nodes {
		degree := d.InDegree(name)
		inDegree[name] = degree
		layers[name] = 0
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range d.outgoing[curr] {
			if layer := layers[curr] + 1; layer > layers[child] {
				layers[child] = layer
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	return layers
}
