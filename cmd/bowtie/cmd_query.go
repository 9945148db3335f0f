package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/export"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		src      source
		evidence []string
		targets  []string
	)

	cmd := &cobra.Command{
		Use:   "query [records]",
		Short: "Posterior marginals given evidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvidence(evidence)
			if err != nil {
				return err
			}
			l, err := a.load(cmd.Context(), src, args)
			if err != nil {
				return err
			}
			result, err := l.engine.Query(ev, targets...)
			if err != nil {
				return err
			}

			report := export.NewReport(l.id, l.engine.Network(), ev, result)
			return a.emit(cmd.OutOrStdout(), report, func() string {
				rows := make([][]string, 0, len(result))
				for _, d := range orderedResult(l.engine, result) {
					top := d.States.Top()
					rows = append(rows, []string{d.Node, string(top), prob(d.Top()), distribution(d)})
				}
				return renderTable([]string{"Node", "Top", "P(top)", "Distribution"}, rows, 2)
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringArrayVarP(&evidence, "evidence", "e", nil, "observed state as NODE=STATE (repeatable)")
	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "nodes to report (default all)")
	return cmd
}
