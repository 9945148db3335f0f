package network

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
)

// recordsFromChoices turns 7*k small integers into k records whose labels
// are drawn from a tiny vocabulary, so duplicates are common.
func recordsFromChoices(choices []int) []bowtie.RiskRecord {
	var recs []bowtie.RiskRecord
	for i := 0; i+7 <= len(choices); i += 7 {
		l := func(stage int) string { return fmt.Sprintf("label %d", choices[i+stage]) }
		recs = append(recs, bowtie.RiskRecord{
			Activity:             l(0),
			Pressure:             l(1),
			PreventiveControl:    l(2),
			EscalationFactor:     l(3),
			CentralProblem:       l(4),
			ProtectiveMitigation: l(5),
			Consequence:          l(6),
		})
	}
	return recs
}

func TestGraphInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("builder never emits duplicate nodes or edges", prop.ForAll(
		func(choices []int) bool {
			g, err := Build(recordsFromChoices(choices))
			if err != nil {
				return false
			}
			nodes := make(map[string]bool)
			for _, n := range g.Nodes() {
				if nodes[n.ID] {
					return false
				}
				nodes[n.ID] = true
			}
			edges := make(map[edgeKey]bool)
			for _, e := range g.Edges() {
				if edges[e.key()] || !nodes[e.From] || !nodes[e.To] {
					return false
				}
				edges[e.key()] = true
			}
			return true
		},
		gen.SliceOfN(35, gen.IntRange(0, 2)),
	))

	properties.Property("validator output always sorts topologically", prop.ForAll(
		func(choices []int, links []int) bool {
			g, err := Build(recordsFromChoices(choices))
			if err != nil {
				return false
			}
			ids := g.NodeIDs()
			var extra []Edge
			for i := 0; i+1 < len(links); i += 2 {
				extra = append(extra, Edge{
					From:     ids[links[i]%len(ids)],
					To:       ids[links[i+1]%len(ids)],
					Relation: ChainRelations[i%len(ChainRelations)],
				})
			}
			cyclic, err := g.WithLinks(extra)
			if err != nil {
				return false
			}
			out, report := EnsureAcyclic(cyclic)
			if _, err := out.TopologicalOrder(); err != nil {
				return false
			}
			return out.EdgeCount()+report.Total == cyclic.EdgeCount()
		},
		gen.SliceOfN(21, gen.IntRange(0, 2)),
		gen.SliceOf(gen.IntRange(0, 40)),
	))

	properties.TestingRun(t)
}
