package network

import (
	"fmt"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
)

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	filter func(bowtie.RiskRecord) bool
	cache  *IDCache
}

// WithFilter keeps only records for which pred returns true.
func WithFilter(pred func(bowtie.RiskRecord) bool) BuildOption {
	return func(o *buildOptions) { o.filter = pred }
}

// WithProblem keeps only records whose central problem equals name
// after whitespace normalization.
func WithProblem(name string) BuildOption {
	want := bowtie.NormalizeLabel(name)
	return WithFilter(func(r bowtie.RiskRecord) bool {
		return bowtie.NormalizeLabel(r.CentralProblem) == want
	})
}

// WithIDCache derives node identifiers through a caller-owned cache.
func WithIDCache(c *IDCache) BuildOption {
	return func(o *buildOptions) { o.cache = c }
}

// Build derives the deduplicated node and edge sets of the fixed
// seven-stage chain from records. It makes one pass over the records.
func Build(records []bowtie.RiskRecord, opts ...BuildOption) (*Graph, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(records) == 0 {
		return nil, bowtie.ErrEmptyInput
	}

	kept := make([]bowtie.RiskRecord, 0, len(records))
	for i, r := range records {
		if err := bowtie.Validate(i, r); err != nil {
			return nil, err
		}
		if o.filter != nil && !o.filter(r) {
			continue
		}
		kept = append(kept, r.Clone())
	}
	if len(kept) == 0 {
		return nil, ErrEmptyResult
	}

	var (
		nodes     []Node
		nodeIndex = make(map[string]struct{})
		edges     []Edge
		edgeIndex = make(map[edgeKey]int)
	)

	for _, r := range kept {
		labels := r.Chain()
		var ids [7]string
		for stage, label := range labels {
			t := ChainTypes[stage]
			id := o.cache.NodeID(t, label)
			ids[stage] = id
			if _, ok := nodeIndex[id]; !ok {
				nodeIndex[id] = struct{}{}
				nodes = append(nodes, Node{ID: id, Type: t, Label: bowtie.NormalizeLabel(label)})
			}
		}
		for stage, rel := range ChainRelations {
			e := Edge{From: ids[stage], To: ids[stage+1], Relation: rel, Weight: 1}
			if i, ok := edgeIndex[e.key()]; ok {
				edges[i].Weight++
				continue
			}
			edgeIndex[e.key()] = len(edges)
			edges = append(edges, e)
		}
	}

	return newGraph(nodes, edges, kept), nil
}

// NewGraph assembles a graph from explicit parts, e.g. a structure
// restored from an export. Duplicate edges are merged by summing weights.
func NewGraph(nodes []Node, edges []Edge, records []bowtie.RiskRecord) (*Graph, error) {
	ownNodes := make([]Node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		if !n.Type.Valid() {
			return nil, fmt.Errorf("%w: %q on node %s", ErrUnknownNodeType, n.Type, n.ID)
		}
		seen[n.ID] = true
		ownNodes = append(ownNodes, n)
	}

	merged, err := mergeEdges(nil, edges, seen)
	if err != nil {
		return nil, err
	}
	return newGraph(ownNodes, merged, cloneRecords(records)), nil
}

// WithLinks returns a new graph with extra edges merged in, such as links
// suggested by a text-similarity linker. These are the edges that can
// introduce cycles; run EnsureAcyclic afterwards.
func (g *Graph) WithLinks(links []Edge) (*Graph, error) {
	known := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		known[n.ID] = true
	}
	merged, err := mergeEdges(g.edges, links, known)
	if err != nil {
		return nil, err
	}
	return g.withEdges(merged), nil
}

func mergeEdges(base, extra []Edge, known map[string]bool) ([]Edge, error) {
	out := make([]Edge, len(base), len(base)+len(extra))
	copy(out, base)
	index := make(map[edgeKey]int, len(out)+len(extra))
	for i, e := range out {
		index[e.key()] = i
	}

	for _, e := range extra {
		if !known[e.From] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, e.From)
		}
		if !known[e.To] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, e.To)
		}
		if !e.Relation.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRelation, e.Relation)
		}
		if e.Weight <= 0 {
			e.Weight = 1
		}
		if i, ok := index[e.key()]; ok {
			out[i].Weight += e.Weight
			continue
		}
		index[e.key()] = len(out)
		out = append(out, e)
	}
	return out, nil
}
