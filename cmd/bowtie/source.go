package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/export"
	"github.com/dd0wney/cluso-bowtie/pkg/inference"
	"github.com/dd0wney/cluso-bowtie/pkg/ingest"
	"github.com/dd0wney/cluso-bowtie/pkg/pipeline"
	"github.com/dd0wney/cluso-bowtie/pkg/probability"
)

// source is where a query command gets its fitted network: either a
// record table fitted on the fly or a saved snapshot.
type source struct {
	snapshot string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.snapshot, "snapshot", "", "fitted snapshot written by 'bowtie fit --snapshot-out'")
	cmd.Args = cobra.MaximumNArgs(1)
}

// loaded is a compiled engine plus the id of the run or snapshot it came
// from.
type loaded struct {
	id     string
	engine *inference.Engine
}

func (a *app) run(ctx context.Context, path string) (*pipeline.Run, error) {
	rows, err := ingest.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return pipeline.Execute(ctx, rows,
		pipeline.WithConfig(a.cfg),
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithProblem(a.problem))
}

func (a *app) load(ctx context.Context, src source, args []string) (loaded, error) {
	switch {
	case src.snapshot != "" && len(args) > 0:
		return loaded{}, errors.New("give either a record file or --snapshot, not both")
	case src.snapshot == "" && len(args) == 0:
		return loaded{}, errors.New("a record file or --snapshot is required")
	case len(args) > 0:
		run, err := a.run(ctx, args[0])
		if err != nil {
			return loaded{}, err
		}
		eng, err := run.Engine()
		return loaded{id: run.ID, engine: eng}, err
	}

	snap, err := export.Load(src.snapshot)
	if err != nil {
		return loaded{}, err
	}
	net, err := snap.Network()
	if err != nil {
		return loaded{}, err
	}
	backend, err := inference.BackendByName(a.cfg.Inference.Backend)
	if err != nil {
		return loaded{}, err
	}
	eng, err := inference.New(net,
		inference.WithBackend(backend),
		inference.WithLogger(a.logger),
		inference.WithMetrics(a.metrics))
	return loaded{id: snap.ID, engine: eng}, err
}

// parseEvidence reads NODE=STATE pairs.
func parseEvidence(pairs []string) (inference.Evidence, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	ev := make(inference.Evidence, len(pairs))
	for _, p := range pairs {
		node, state, ok := strings.Cut(p, "=")
		node, state = strings.TrimSpace(node), strings.TrimSpace(state)
		if !ok || node == "" || state == "" {
			return nil, fmt.Errorf("evidence %q is not NODE=STATE", p)
		}
		ev[node] = probability.State(state)
	}
	return ev, nil
}
