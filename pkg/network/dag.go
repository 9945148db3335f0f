package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-bowtie/pkg/logging"
)

// MaxSkipExamples is the default number of skipped edges quoted in a
// SkipReport.
const MaxSkipExamples = 5

// CyclePolicy decides the order in which edges are re-inserted once the
// bulk insertion is found to contain a cycle.
type CyclePolicy int

const (
	// FirstSeen re-inserts edges in discovery (record) order.
	FirstSeen CyclePolicy = iota
	// ByFrequency re-inserts edges with higher Weight first; ties keep
	// discovery order.
	ByFrequency
)

func (p CyclePolicy) String() string {
	switch p {
	case ByFrequency:
		return "frequency"
	default:
		return "first_seen"
	}
}

// ParseCyclePolicy accepts "first_seen" or "frequency".
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(s) {
	case "", "first_seen", "firstseen":
		return FirstSeen, nil
	case "frequency", "by_frequency":
		return ByFrequency, nil
	default:
		return FirstSeen, fmt.Errorf("unknown cycle policy %q", s)
	}
}

// SkipReport describes the edges dropped to keep the graph acyclic.
type SkipReport struct {
	Total    int         `json:"total" yaml:"total"`
	Examples []Edge      `json:"examples,omitempty" yaml:"examples,omitempty"`
	Policy   CyclePolicy `json:"-" yaml:"-"`
}

// Degraded reports whether any edge was dropped.
func (r SkipReport) Degraded() bool {
	return r.Total > 0
}

// DAGOption configures EnsureAcyclic.
type DAGOption func(*dagOptions)

type dagOptions struct {
	policy      CyclePolicy
	maxExamples int
	logger      logging.Logger
}

func WithCyclePolicy(p CyclePolicy) DAGOption {
	return func(o *dagOptions) { o.policy = p }
}

func WithMaxSkipExamples(n int) DAGOption {
	return func(o *dagOptions) { o.maxExamples = n }
}

func WithLogger(l logging.Logger) DAGOption {
	return func(o *dagOptions) { o.logger = l }
}

// EnsureAcyclic returns a graph whose edge set has no directed cycle.
// All edges are first tried together; if that closes a cycle, edges are
// inserted one by one in policy order and any edge that would close a
// cycle is skipped. Skipping is a degraded result, reported through the
// logger and the returned SkipReport, never an error. The result is
// deterministic for a given edge order.
func EnsureAcyclic(g *Graph, opts ...DAGOption) (*Graph, SkipReport) {
	o := dagOptions{policy: FirstSeen, maxExamples: MaxSkipExamples}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger).With(logging.Component("dag"))

	report := SkipReport{Policy: o.policy}
	if !g.HasCycle() {
		return g, report
	}

	order := make([]int, len(g.edges))
	for i := range order {
		order[i] = i
	}
	if o.policy == ByFrequency {
		sort.SliceStable(order, func(a, b int) bool {
			return g.edges[order[a]].Weight > g.edges[order[b]].Weight
		})
	}

	committed := make(map[string][]string, len(g.nodes))
	keep := make([]bool, len(g.edges))
	for _, i := range order {
		e := g.edges[i]
		if reachable(committed, e.To, e.From) {
			logger.Debug("Skipped edge", logging.Edge(e.From, string(e.Relation), e.To), logging.Int("weight", e.Weight))
			report.Total++
			if len(report.Examples) < o.maxExamples {
				report.Examples = append(report.Examples, e)
			}
			continue
		}
		keep[i] = true
		committed[e.From] = append(committed[e.From], e.To)
	}

	kept := make([]Edge, 0, len(g.edges)-report.Total)
	for i, e := range g.edges {
		if keep[i] {
			kept = append(kept, e)
		}
	}

	examples := make([]string, len(report.Examples))
	for i, e := range report.Examples {
		examples[i] = e.String()
	}
	logging.Log(logger, logging.WarnLevel, "skipped cycle-closing edges; causal chain may be incomplete",
		logging.Count(report.Total),
		logging.String("policy", o.policy.String()),
		logging.Strings("examples", examples),
	)

	return g.withEdges(kept), report
}
