package probability

import (
	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
)

// observations holds, per record, the state of every node on that
// record's chain. Nodes off the chain are at their baseline state.
type observations struct {
	rows     []map[string]State
	baseline map[string]State
	usable   int
	clamped  int
}

// collect discretizes the graph's records. Activities on a chain are at
// their top state; pressure through problem take the likelihood rating and
// mitigation and consequence the severity rating. A record is usable when
// at least one rating is known.
func collect(g *network.Graph, states map[string]StateSet, d Discretizer) *observations {
	obs := &observations{baseline: make(map[string]State, len(states))}
	for id, ss := range states {
		obs.baseline[id] = ss.Baseline()
	}

	for _, r := range g.Records() {
		likelihood, c1 := d.Rating(r.Likelihood)
		severity, c2 := d.Rating(r.Severity)
		if c1 {
			obs.clamped++
		}
		if c2 {
			obs.clamped++
		}
		if likelihood == Unknown && severity == Unknown {
			continue
		}
		obs.usable++
		obs.rows = append(obs.rows, chainStates(g, r, states, likelihood, severity))
	}
	return obs
}

func chainStates(g *network.Graph, r bowtie.RiskRecord, states map[string]StateSet, likelihood, severity State) map[string]State {
	row := make(map[string]State, len(network.ChainTypes))
	for stage, label := range r.Chain() {
		t := network.ChainTypes[stage]
		id := network.NodeID(t, label)
		if _, ok := g.Node(id); !ok {
			continue
		}
		switch t {
		case network.Activity:
			row[id] = states[id].Top()
		case network.Mitigation, network.Consequence:
			row[id] = severity
		default:
			row[id] = likelihood
		}
	}
	return row
}

// estimate replaces rows of t that have observations with their maximum
// likelihood estimate. Rows without observations keep their template
// values. It reports whether any row was learned.
func (o *observations) estimate(t *Table) bool {
	counts := make([][]float64, t.RowCount())
	seen := make([]bool, len(counts))
	assign := make([]State, len(t.Parents))

	for _, row := range o.rows {
		s, ok := row[t.Node]
		if !ok || s == Unknown {
			continue
		}
		k := t.States.Index(s)
		if k < 0 {
			continue
		}

		complete := true
		for i, p := range t.Parents {
			ps, on := row[p]
			if !on {
				ps = o.baseline[p]
			}
			if ps == Unknown {
				complete = false
				break
			}
			assign[i] = ps
		}
		if !complete {
			continue
		}

		r, err := t.RowIndex(assign)
		if err != nil {
			continue
		}
		if counts[r] == nil {
			counts[r] = make([]float64, len(t.States))
		}
		counts[r][k]++
		seen[r] = true
	}

	learned := false
	for r, c := range counts {
		if !seen[r] {
			continue
		}
		normalize(c)
		t.Rows[r] = c
		learned = true
	}
	return learned
}
