package probability

import (
	"fmt"

	"github.com/dd0wney/cluso-bowtie/pkg/network"
)

// Network is a graph plus one table per node. A Network built with
// Unfitted carries no tables and cannot be used for inference.
type Network struct {
	graph  *network.Graph
	order  []string
	tables map[string]*Table
}

// NewNetwork attaches tables to an acyclic graph. Every node needs exactly
// one table whose parents are the node's graph parents and whose parent
// state sets match the parents' own tables.
func NewNetwork(g *network.Graph, tables []*Table) (*Network, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	byNode := make(map[string]*Table, len(tables))
	for _, t := range tables {
		if _, ok := g.Node(t.Node); !ok {
			return nil, fmt.Errorf("%w: table for %s", network.ErrUnknownNode, t.Node)
		}
		if _, dup := byNode[t.Node]; dup {
			return nil, &TableError{Node: t.Node, Cause: fmt.Errorf("%w: duplicate table", ErrInvalidTable)}
		}
		if err := t.Validate(DefaultTolerance); err != nil {
			return nil, &TableError{Node: t.Node, Cause: err}
		}
		byNode[t.Node] = t.Clone()
	}

	for _, id := range order {
		t, ok := byNode[id]
		if !ok {
			return nil, &TableError{Node: id, Cause: fmt.Errorf("%w: missing table", ErrInvalidTable)}
		}
		if err := checkParents(g, t, byNode); err != nil {
			return nil, &TableError{Node: id, Cause: err}
		}
	}

	return &Network{graph: g, order: order, tables: byNode}, nil
}

func checkParents(g *network.Graph, t *Table, byNode map[string]*Table) error {
	want := g.Parents(t.Node)
	if len(want) != len(t.Parents) {
		return fmt.Errorf("%w: %d parents, graph has %d", ErrInvalidTable, len(t.Parents), len(want))
	}
	graphParents := make(map[string]bool, len(want))
	for _, p := range want {
		graphParents[p] = true
	}
	for i, p := range t.Parents {
		if !graphParents[p] {
			return fmt.Errorf("%w: %s is not a parent in the graph", ErrInvalidTable, p)
		}
		if !t.ParentStates[i].Equal(byNode[p].States) {
			return fmt.Errorf("%w: parent %s states %v, its table has %v", ErrInvalidTable, p, t.ParentStates[i], byNode[p].States)
		}
	}
	return nil
}

// Unfitted wraps a graph without tables.
func Unfitted(g *network.Graph) *Network {
	return &Network{graph: g}
}

// Fitted reports whether every node has a table.
func (n *Network) Fitted() bool {
	return n != nil && n.tables != nil
}

// Graph returns the underlying structure.
func (n *Network) Graph() *network.Graph {
	return n.graph
}

// Order returns node ids in topological order. Empty for an unfitted
// network.
func (n *Network) Order() []string {
	return append([]string(nil), n.order...)
}

// Table returns a copy of the node's table.
func (n *Network) Table(id string) (*Table, bool) {
	t, ok := n.tables[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// States returns the state set of a node.
func (n *Network) States(id string) (StateSet, bool) {
	t, ok := n.tables[id]
	if !ok {
		return nil, false
	}
	return append(StateSet(nil), t.States...), true
}

// Tables returns copies of all tables in topological order.
func (n *Network) Tables() []*Table {
	out := make([]*Table, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.tables[id].Clone())
	}
	return out
}

// Plain returns every table as nested maps keyed by node id, parent
// assignment label and state name.
func (n *Network) Plain() map[string]map[string]map[string]float64 {
	out := make(map[string]map[string]map[string]float64, len(n.tables))
	for id, t := range n.tables {
		out[id] = t.Plain()
	}
	return out
}
