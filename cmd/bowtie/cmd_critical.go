package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/analysis"
)

type criticalView struct {
	Source string                `json:"source" yaml:"source"`
	Target string                `json:"target" yaml:"target"`
	Ranks  []analysis.RootImpact `json:"ranks" yaml:"ranks"`
}

func newCriticalCmd(a *app) *cobra.Command {
	var (
		src    source
		target string
	)

	cmd := &cobra.Command{
		Use:   "critical [records]",
		Short: "Rank root causes by their effect on a target node",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.load(cmd.Context(), src, args)
			if err != nil {
				return err
			}
			if target == "" {
				target = a.cfg.Analysis.Target
			}
			if target == "" {
				if target, err = analysis.DefaultTarget(l.engine.Network().Graph()); err != nil {
					return err
				}
			}

			ranks, err := analysis.CriticalPath(cmd.Context(), l.engine, target,
				analysis.WithParallelism(a.cfg.Analysis.Parallelism),
				analysis.WithLogger(a.logger),
				analysis.WithMetrics(a.metrics))
			if err != nil {
				return err
			}

			view := criticalView{Source: l.id, Target: target, Ranks: ranks}
			return a.emit(cmd.OutOrStdout(), view, func() string {
				rows := make([][]string, 0, len(ranks))
				for i, r := range ranks {
					rows = append(rows, []string{strconv.Itoa(i + 1), r.Root, prob(r.Impact), signed(r.Lift)})
				}
				return titleStyle.Render(fmt.Sprintf("target %s", target)) + "\n" +
					renderTable([]string{"#", "Root", "Impact", "Lift"}, rows, 0, 2, 3)
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&target, "target", "t", "", "node to rank roots against (default: the single terminal consequence)")
	return cmd
}
