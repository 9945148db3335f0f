package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
	"github.com/dd0wney/cluso-bowtie/pkg/export"
	"github.com/dd0wney/cluso-bowtie/pkg/ingest"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
)

type graphView struct {
	Nodes   []network.Node     `json:"nodes" yaml:"nodes"`
	Edges   []network.Edge     `json:"edges" yaml:"edges"`
	Skipped network.SkipReport `json:"skipped" yaml:"skipped"`
}

func newGraphCmd(a *app) *cobra.Command {
	var snapshotOut string

	cmd := &cobra.Command{
		Use:   "graph <records>",
		Short: "Build and validate the graph without fitting tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, skipped, err := a.buildGraph(args[0])
			if err != nil {
				return err
			}
			if snapshotOut != "" {
				if err := export.Save(snapshotOut, export.FromGraph(g)); err != nil {
					return err
				}
			}

			view := graphView{Nodes: g.Nodes(), Edges: g.Edges(), Skipped: skipped}
			return a.emit(cmd.OutOrStdout(), view, func() string {
				rows := make([][]string, 0, len(view.Edges))
				for _, e := range view.Edges {
					rows = append(rows, []string{e.From, string(e.Relation), e.To, strconv.Itoa(e.Weight)})
				}
				out := titleStyle.Render(fmt.Sprintf("%d nodes, %d edges", len(view.Nodes), len(view.Edges))) + "\n" +
					renderTable([]string{"From", "Relation", "To", "Weight"}, rows, 3)
				if skipped.Degraded() {
					out += "\n" + warningStyle.Render(fmt.Sprintf("%d edges skipped to break cycles", skipped.Total))
				}
				return out
			})
		},
	}
	cmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "write the graph snapshot to this path (.json, .yaml or .snap)")
	return cmd
}

func (a *app) buildGraph(path string) (*network.Graph, network.SkipReport, error) {
	rows, err := ingest.LoadFile(path)
	if err != nil {
		return nil, network.SkipReport{}, err
	}
	records, err := bowtie.Normalize(rows)
	if err != nil {
		return nil, network.SkipReport{}, err
	}

	opts := []network.BuildOption{}
	if a.problem != "" {
		opts = append(opts, network.WithProblem(a.problem))
	}
	g, err := network.Build(records, opts...)
	if err != nil {
		return nil, network.SkipReport{}, err
	}

	policy, err := network.ParseCyclePolicy(a.cfg.DAG.CyclePolicy)
	if err != nil {
		return nil, network.SkipReport{}, err
	}
	g, skipped := network.EnsureAcyclic(g,
		network.WithCyclePolicy(policy),
		network.WithMaxSkipExamples(a.cfg.DAG.MaxSkipExamples),
		network.WithLogger(a.logger))
	a.metrics.RecordGraph(len(records), g.NodeCount(), g.EdgeCount(), skipped.Total)
	return g, skipped, nil
}
