package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-bowtie/pkg/inference"
	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
)

// RootImpact is the target's top-state probability when one root is
// forced to its own top state.
type RootImpact struct {
	Root     string  `json:"root"`
	Impact   float64 `json:"impact"`
	Baseline float64 `json:"baseline"`
	Lift     float64 `json:"lift"`
}

// DefaultTarget returns the single consequence node with no outgoing edges.
func DefaultTarget(g *network.Graph) (string, error) {
	var terminal []string
	for _, id := range g.Leaves() {
		if n, _ := g.Node(id); n.Type == network.Consequence {
			terminal = append(terminal, id)
		}
	}
	if len(terminal) != 1 {
		return "", fmt.Errorf("%w: %d terminal consequences", ErrAmbiguousTarget, len(terminal))
	}
	return terminal[0], nil
}

// CriticalPath forces each root to its top state in turn and ranks roots
// by the resulting top-state probability of target, highest first. An
// empty target selects DefaultTarget. Roots with no path to target and
// roots whose query fails are left out of the ranking.
func CriticalPath(ctx context.Context, eng *inference.Engine, target string, opts ...Option) ([]RootImpact, error) {
	o := defaults(opts)
	logger := o.logger.With(logging.Component("analysis"))
	start := time.Now()

	g := eng.Network().Graph()
	if target == "" {
		var err error
		if target, err = DefaultTarget(g); err != nil {
			return nil, err
		}
	}

	baseline, err := eng.Marginal(target, nil)
	if err != nil {
		return nil, err
	}

	upstream := make(map[string]bool)
	for _, id := range g.Ancestors(target) {
		upstream[id] = true
	}
	var roots []string
	for _, id := range g.Roots() {
		if upstream[id] {
			roots = append(roots, id)
		}
	}

	impacts := make([]*RootImpact, len(roots))
	var failed atomic.Int32

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(o.parallelism)
	for i, root := range roots {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			states, _ := eng.Network().States(root)
			d, err := eng.Marginal(target, inference.Evidence{root: states.Top()})
			if err != nil {
				failed.Add(1)
				logger.Debug("Excluded root from ranking", logging.NodeID(root), logging.Error(err))
				return nil
			}
			impacts[i] = &RootImpact{
				Root:     root,
				Impact:   d.Top(),
				Baseline: baseline.Top(),
				Lift:     d.Top() - baseline.Top(),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]RootImpact, 0, len(impacts))
	for _, ri := range impacts {
		if ri != nil {
			ranked = append(ranked, *ri)
		}
	}
	rank(ranked)

	o.metrics.RecordAnalysis("critical_path", int(failed.Load()), time.Since(start))
	logger.Debug("Ranked roots",
		logging.NodeID(target),
		logging.Float64("baseline", baseline.Top()),
		logging.Count(len(ranked)),
		logging.Int("excluded", int(failed.Load())))
	return ranked, nil
}

// rank orders by impact, highest first, then by root id.
func rank(impacts []RootImpact) {
	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].Impact != impacts[j].Impact {
			return impacts[i].Impact > impacts[j].Impact
		}
		return impacts[i].Root < impacts[j].Root
	})
}
