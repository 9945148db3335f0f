package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/analysis"
)

func newPropagateCmd(a *app) *cobra.Command {
	var (
		src      source
		evidence []string
		byImpact bool
	)

	cmd := &cobra.Command{
		Use:   "propagate [records]",
		Short: "Change in every node's top-state probability under a scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvidence(evidence)
			if err != nil {
				return err
			}
			l, err := a.load(cmd.Context(), src, args)
			if err != nil {
				return err
			}
			deltas, err := analysis.Propagate(l.engine, ev,
				analysis.WithLogger(a.logger),
				analysis.WithMetrics(a.metrics))
			if err != nil {
				return err
			}
			if byImpact {
				analysis.SortByImpact(deltas)
			}

			return a.emit(cmd.OutOrStdout(), deltas, func() string {
				rows := make([][]string, 0, len(deltas))
				for _, d := range deltas {
					rows = append(rows, []string{
						d.Node,
						string(d.Type),
						string(d.TopState),
						prob(d.Baseline),
						prob(d.Scenario),
						signed(d.Delta),
					})
				}
				return renderTable([]string{"Node", "Type", "Top", "Baseline", "Scenario", "Delta"}, rows, 3, 4, 5)
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringArrayVarP(&evidence, "evidence", "e", nil, "scenario state as NODE=STATE (repeatable)")
	cmd.Flags().BoolVar(&byImpact, "by-impact", true, "sort by absolute delta instead of graph order")
	_ = cmd.MarkFlagRequired("evidence")
	return cmd
}
