package inference

import (
	"fmt"
	"math"
	"sort"

	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// Backend compiles a fitted network into a queryable model.
type Backend interface {
	Name() string
	Compile(net *probability.Network) (Model, error)
}

// Model answers exact marginal queries. Implementations must be safe for
// concurrent use and must not modify the network they were compiled from.
type Model interface {
	// Marginal returns the posterior of target over its state set given
	// evidence. Evidence has already been validated by the caller.
	Marginal(target string, evidence Evidence) ([]float64, error)
}

// BackendVariableElimination is the registered name of VariableElimination.
const BackendVariableElimination = "variable_elimination"

var backends = map[string]Backend{
	BackendVariableElimination: VariableElimination{},
}

// BackendByName returns a registered backend.
func BackendByName(name string) (Backend, error) {
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// VariableElimination performs exact inference by summing out variables
// one at a time. Before elimination it reduces factors by the evidence and
// drops nodes that are neither the target, evidence, nor their ancestors.
type VariableElimination struct{}

func (VariableElimination) Name() string { return BackendVariableElimination }

func (VariableElimination) Compile(net *probability.Network) (Model, error) {
	if !net.Fitted() {
		return nil, ErrUnfittedNetwork
	}

	order := net.Order()
	m := &veModel{
		index:   make(map[string]int, len(order)),
		states:  make([]probability.StateSet, len(order)),
		parents: make([][]int, len(order)),
		factors: make([]*factor, len(order)),
	}
	for i, id := range order {
		m.index[id] = i
	}

	for i, id := range order {
		t, _ := net.Table(id)
		m.states[i] = t.States

		vars := make([]int, 0, len(t.Parents)+1)
		card := make([]int, 0, len(t.Parents)+1)
		for k, p := range t.Parents {
			vars = append(vars, m.index[p])
			card = append(card, len(t.ParentStates[k]))
		}
		m.parents[i] = append([]int(nil), vars...)
		vars = append(vars, i)
		card = append(card, len(t.States))

		f := newFactor(vars, card)
		for r, row := range t.Rows {
			copy(f.values[r*len(t.States):], row)
		}
		m.factors[i] = f
	}
	return m, nil
}

type veModel struct {
	index   map[string]int
	states  []probability.StateSet
	parents [][]int
	factors []*factor
}

func (m *veModel) Marginal(target string, evidence Evidence) ([]float64, error) {
	t, ok := m.index[target]
	if !ok {
		return nil, ErrUnknownNode
	}
	ev := make(map[int]int, len(evidence))
	for id, s := range evidence {
		v, ok := m.index[id]
		if !ok {
			return nil, ErrUnknownNode
		}
		k := m.states[v].Index(s)
		if k < 0 {
			return nil, ErrInvalidState
		}
		ev[v] = k
	}

	relevant := m.ancestors(t, ev)

	var factors []*factor
	for _, v := range relevant {
		f := m.factors[v]
		for _, u := range f.vars {
			if s, observed := ev[u]; observed {
				f = reduce(f, u, s)
			}
		}
		factors = append(factors, f)
	}

	hidden := make(map[int]bool, len(relevant))
	for _, v := range relevant {
		if _, observed := ev[v]; !observed && v != t {
			hidden[v] = true
		}
	}
	for len(hidden) > 0 {
		v := pickVariable(hidden, factors)
		delete(hidden, v)

		var joined *factor
		rest := factors[:0:0]
		for _, f := range factors {
			if !f.has(v) {
				rest = append(rest, f)
				continue
			}
			if joined == nil {
				joined = f
			} else {
				joined = product(joined, f)
			}
		}
		if joined != nil {
			rest = append(rest, sumOut(joined, v))
		}
		factors = rest
	}

	result := factors[0]
	for _, f := range factors[1:] {
		result = product(result, f)
	}

	z := result.sum()
	if z <= 0 || math.IsNaN(z) {
		return nil, ErrInconsistentEvidence
	}

	out := make([]float64, len(m.states[t]))
	if s, observed := ev[t]; observed {
		out[s] = 1
		return out, nil
	}
	for i, p := range result.values {
		out[i] = p / z
	}
	return out, nil
}

// ancestors returns target, the evidence nodes and all their ancestors in
// ascending (topological) index order.
func (m *veModel) ancestors(target int, ev map[int]int) []int {
	seen := map[int]bool{target: true}
	stack := []int{target}
	for v := range ev {
		if !seen[v] {
			seen[v] = true
			stack = append(stack, v)
		}
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range m.parents[v] {
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// pickVariable chooses the hidden variable whose elimination joins the
// fewest other variables, breaking ties by lowest index.
func pickVariable(hidden map[int]bool, factors []*factor) int {
	best, bestScore := -1, math.MaxInt
	for v := range hidden {
		neighbours := make(map[int]struct{})
		for _, f := range factors {
			if !f.has(v) {
				continue
			}
			for _, u := range f.vars {
				if u != v {
					neighbours[u] = struct{}{}
				}
			}
		}
		score := len(neighbours)
		if score < bestScore || (score == bestScore && v < best) {
			best, bestScore = v, score
		}
	}
	return best
}
