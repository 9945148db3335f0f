// Package analysis compares scenario posteriors against the baseline and
// ranks root causes by their effect on a target node.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/dd0wney/cluso-bowtie/pkg/inference"
	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// NodeDelta is the change in a node's top-state probability between the
// baseline and a scenario.
type NodeDelta struct {
	Node     string            `json:"node"`
	Type     network.NodeType  `json:"type"`
	TopState probability.State `json:"top_state"`
	Baseline float64           `json:"baseline"`
	Scenario float64           `json:"scenario"`
	Delta    float64           `json:"delta"`
}

// Propagate queries every node with no evidence and with the scenario and
// returns the deltas in graph discovery order.
func Propagate(eng *inference.Engine, scenario inference.Evidence, opts ...Option) ([]NodeDelta, error) {
	o := defaults(opts)
	start := time.Now()

	baseline, err := eng.Query(nil)
	if err != nil {
		return nil, err
	}
	conditioned, err := eng.Query(scenario)
	if err != nil {
		return nil, err
	}

	g := eng.Network().Graph()
	deltas := make([]NodeDelta, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		b, s := baseline[n.ID], conditioned[n.ID]
		deltas = append(deltas, NodeDelta{
			Node:     n.ID,
			Type:     n.Type,
			TopState: b.States.Top(),
			Baseline: b.Top(),
			Scenario: s.Top(),
			Delta:    s.Top() - b.Top(),
		})
	}

	o.metrics.RecordAnalysis("propagate", 0, time.Since(start))
	o.logger.Debug("Propagated scenario",
		logging.Component("analysis"),
		logging.Int("evidence", len(scenario)),
		logging.Count(len(deltas)))
	return deltas, nil
}

// SortByImpact orders deltas by absolute change, largest first, then by
// node id.
func SortByImpact(deltas []NodeDelta) {
	sort.SliceStable(deltas, func(i, j int) bool {
		di, dj := math.Abs(deltas[i].Delta), math.Abs(deltas[j].Delta)
		if di != dj {
			return di > dj
		}
		return deltas[i].Node < deltas[j].Node
	})
}
