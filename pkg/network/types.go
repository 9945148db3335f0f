// Package network turns normalized bowtie records into a typed causal
// graph and enforces that the graph is a directed acyclic graph.
package network

import (
	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
)

// NodeType is the bowtie stage a node belongs to.
type NodeType string

const (
	Activity    NodeType = "Activity"
	Pressure    NodeType = "Pressure"
	Control     NodeType = "Control"
	Escalation  NodeType = "Escalation"
	Problem     NodeType = "Problem"
	Mitigation  NodeType = "Mitigation"
	Consequence NodeType = "Consequence"
)

// ChainTypes lists the node types in causal-chain order.
var ChainTypes = [7]NodeType{Activity, Pressure, Control, Escalation, Problem, Mitigation, Consequence}

var typePrefixes = map[NodeType]string{
	Activity:    "ACT_",
	Pressure:    "PRES_",
	Control:     "CTRL_",
	Escalation:  "ESC_",
	Problem:     "PROB_",
	Mitigation:  "MIT_",
	Consequence: "CONS_",
}

// Prefix returns the identifier prefix for the type.
func (t NodeType) Prefix() string {
	return typePrefixes[t]
}

// Valid reports whether t is one of the seven chain types.
func (t NodeType) Valid() bool {
	_, ok := typePrefixes[t]
	return ok
}

// Relation tags an edge with the causal role it plays.
type Relation string

const (
	Causes             Relation = "causes"
	RequiresControl    Relation = "requires_control"
	CanFail            Relation = "can_fail"
	EscalatesTo        Relation = "escalates_to"
	RequiresMitigation Relation = "requires_mitigation"
	AffectsOutcome     Relation = "affects_outcome"
)

// ChainRelations[i] labels the edge from ChainTypes[i] to ChainTypes[i+1].
var ChainRelations = [6]Relation{Causes, RequiresControl, CanFail, EscalatesTo, RequiresMitigation, AffectsOutcome}

// Valid reports whether r belongs to the fixed relation vocabulary.
func (r Relation) Valid() bool {
	for _, known := range ChainRelations {
		if r == known {
			return true
		}
	}
	return false
}

// Node is a deduplicated graph vertex. Two nodes with the same ID are the
// same node.
type Node struct {
	ID    string   `json:"id" yaml:"id"`
	Type  NodeType `json:"type" yaml:"type"`
	Label string   `json:"label" yaml:"label"`
}

// Edge is a typed directed edge. Weight counts the records (or merged
// links) that produced it.
type Edge struct {
	From     string   `json:"from" yaml:"from"`
	To       string   `json:"to" yaml:"to"`
	Relation Relation `json:"relation" yaml:"relation"`
	Weight   int      `json:"weight" yaml:"weight"`
}

func (e Edge) String() string {
	return e.From + " -" + string(e.Relation) + "-> " + e.To
}

type edgeKey struct {
	from, to string
	rel      Relation
}

func (e Edge) key() edgeKey {
	return edgeKey{from: e.From, to: e.To, rel: e.Relation}
}

// Graph owns a node set, an edge set and the records it was built from.
// It is immutable once returned; accessors hand out copies.
type Graph struct {
	nodes    []Node
	index    map[string]int
	edges    []Edge
	parents  map[string][]string
	children map[string][]string
	records  []bowtie.RiskRecord
}

// newGraph indexes already deduplicated parts. Slices are owned by the
// new graph.
func newGraph(nodes []Node, edges []Edge, records []bowtie.RiskRecord) *Graph {
	g := &Graph{
		nodes:    nodes,
		index:    make(map[string]int, len(nodes)),
		edges:    edges,
		parents:  make(map[string][]string, len(nodes)),
		children: make(map[string][]string, len(nodes)),
		records:  records,
	}
	for i, n := range nodes {
		g.index[n.ID] = i
	}

	type pair struct{ from, to string }
	seen := make(map[pair]bool, len(edges))
	for _, e := range edges {
		p := pair{e.From, e.To}
		if seen[p] {
			continue
		}
		seen[p] = true
		g.parents[e.To] = append(g.parents[e.To], e.From)
		g.children[e.From] = append(g.children[e.From], e.To)
	}
	return g
}

// withEdges returns a graph sharing nodes and records but with a new edge set.
func (g *Graph) withEdges(edges []Edge) *Graph {
	return newGraph(g.nodes, edges, g.records)
}

// Nodes returns the nodes in discovery order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeIDs returns node identifiers in discovery order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node looks up a node by identifier.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// NodesOfType returns the nodes of type t in discovery order.
func (g *Graph) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the edges in discovery order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Records returns deep copies of the records the graph was built from.
func (g *Graph) Records() []bowtie.RiskRecord {
	return cloneRecords(g.records)
}

func cloneRecords(records []bowtie.RiskRecord) []bowtie.RiskRecord {
	out := make([]bowtie.RiskRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Parents returns the distinct direct predecessors of id in edge
// discovery order.
func (g *Graph) Parents(id string) []string {
	return append([]string(nil), g.parents[id]...)
}

// Children returns the distinct direct successors of id.
func (g *Graph) Children(id string) []string {
	return append([]string(nil), g.children[id]...)
}

// Roots returns nodes without incoming edges.
func (g *Graph) Roots() []string {
	var out []string
	for _, n := range g.nodes {
		if len(g.parents[n.ID]) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// Leaves returns nodes without outgoing edges.
func (g *Graph) Leaves() []string {
	var out []string
	for _, n := range g.nodes {
		if len(g.children[n.ID]) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}
