package network

// Cycle is a detected cycle as a sequence of node IDs.
type Cycle []string

const (
	white = 0 // unvisited
	gray  = 1 // on the DFS stack
	black = 2 // finished
)

// HasCycle reports whether the graph contains a directed cycle.
func (g *Graph) HasCycle() bool {
	return hasCycle(g.NodeIDs(), g.children)
}

// Cycles finds cycles with a three-colour DFS. Each back edge yields one
// cycle, so the result is a witness set rather than every simple cycle.
func (g *Graph) Cycles() []Cycle {
	color := make(map[string]int, len(g.nodes))
	parent := make(map[string]string, len(g.nodes))
	var cycles []Cycle

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, next := range g.children[id] {
			switch color[next] {
			case white:
				parent[next] = id
				visit(next)
			case gray:
				cycles = append(cycles, extractCycle(next, id, parent))
			}
		}
		color[id] = black
	}

	for _, n := range g.nodes {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}
	return cycles
}

// extractCycle walks parent pointers back from end to start, given a back
// edge end → start.
func extractCycle(start, end string, parent map[string]string) Cycle {
	cycle := Cycle{start}
	if start == end {
		return cycle
	}
	for cur := end; cur != start; {
		cycle = append(cycle, cur)
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	return cycle
}

// TopologicalOrder returns node IDs so that every edge points forward
// (Kahn's algorithm, ties broken by discovery order).
func (g *Graph) TopologicalOrder() ([]string, error) {
	order, ok := topologicalSort(g.NodeIDs(), g.children)
	if !ok {
		return nil, ErrCycle
	}
	return order, nil
}

func hasCycle(ids []string, children map[string][]string) bool {
	color := make(map[string]int, len(ids))

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range children[id] {
			if next == id {
				return true
			}
			switch color[next] {
			case white:
				if visit(next) {
					return true
				}
			case gray:
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range ids {
		if color[id] == white && visit(id) {
			return true
		}
	}
	return false
}

func topologicalSort(ids []string, children map[string][]string) ([]string, bool) {
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, c := range children[id] {
			inDegree[c]++
		}
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(ids))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sorted = append(sorted, cur)
		for _, c := range children[cur] {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	return sorted, len(sorted) == len(ids)
}

// Ancestors returns the nodes with a directed path to id, in discovery
// order. id itself is not included.
func (g *Graph) Ancestors(id string) []string {
	seen := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.parents[cur] {
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}

	var out []string
	for _, n := range g.nodes {
		if n.ID != id && seen[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}

// reachable reports whether to can be reached from from along children.
func reachable(children map[string][]string, from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range children[cur] {
			if c == to {
				return true
			}
			if !visited[c] {
				visited[c] = true
				stack = append(stack, c)
			}
		}
	}
	return false
}
