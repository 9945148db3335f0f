package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/export"
)

func newFitCmd(a *app) *cobra.Command {
	var snapshotOut string

	cmd := &cobra.Command{
		Use:   "fit <records>",
		Short: "Fit probability tables and show baseline marginals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := a.run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if snapshotOut != "" {
				if err := export.Save(snapshotOut, export.FromRun(run)); err != nil {
					return err
				}
			}

			eng, err := run.Engine()
			if err != nil {
				return err
			}
			baseline, err := eng.Query(nil)
			if err != nil {
				return err
			}

			report := export.NewReport(run.ID, run.Network, nil, baseline)
			return a.emit(cmd.OutOrStdout(), report, func() string {
				g := run.Graph
				rows := make([][]string, 0, len(baseline))
				for _, d := range orderedResult(eng, baseline) {
					n, _ := g.Node(d.Node)
					t, _ := run.Network.Table(d.Node)
					rows = append(rows, []string{
						d.Node,
						string(n.Type),
						strconv.Itoa(len(g.Parents(d.Node))),
						strconv.Itoa(t.RowCount()),
						distribution(d),
					})
				}
				out := titleStyle.Render(fmt.Sprintf("run %s: %s tables, %d nodes", run.ID, run.Fit.Mode, g.NodeCount())) + "\n" +
					renderTable([]string{"Node", "Type", "Parents", "Rows", "Baseline"}, rows, 2, 3)
				if run.Fit.FellBack {
					out += "\n" + warningStyle.Render(fmt.Sprintf("learned mode fell back to templates: %d usable records", run.Fit.Samples))
				}
				if run.Skipped.Degraded() {
					out += "\n" + warningStyle.Render(fmt.Sprintf("%d edges skipped to break cycles", run.Skipped.Total))
				}
				return out
			})
		},
	}
	cmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "write the fitted snapshot to this path (.json, .yaml or .snap)")
	return cmd
}
