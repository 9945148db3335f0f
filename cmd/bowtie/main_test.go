package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-bowtie/pkg/analysis"
	"github.com/dd0wney/cluso-bowtie/pkg/export"
	"github.com/dd0wney/cluso-bowtie/pkg/inference"
)

const recordsCSV = `Activity,Pressure,Control,Escalation,Problem,Mitigation,Consequence,Likelihood
Farming,Runoff,Buffer,Storm,Eutrophication,Aeration,FishKill,4
Shipping,Ballast,Buffer,Storm,Eutrophication,Aeration,FishKill,2
`

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte(recordsCSV), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGraphCommand(t *testing.T) {
	out, _, err := execute(t, "graph", writeRecords(t))
	require.NoError(t, err)
	assert.Contains(t, out, "9 nodes, 8 edges")
	assert.Contains(t, out, "ACT_Shipping")
	assert.Contains(t, out, "requires_control")
}

func TestGraphCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "graph", "--format", "json", writeRecords(t))
	require.NoError(t, err)

	var view graphView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Nodes, 9)
	assert.Len(t, view.Edges, 8)
	assert.Zero(t, view.Skipped.Total)
}

func TestFitCommand(t *testing.T) {
	out, _, err := execute(t, "fit", writeRecords(t))
	require.NoError(t, err)
	assert.Contains(t, out, "templated tables, 9 nodes")
	assert.Contains(t, out, "CONS_FishKill")
}

func TestFitThenQuerySnapshot(t *testing.T) {
	records := writeRecords(t)
	snap := filepath.Join(t.TempDir(), "net.snap")

	_, _, err := execute(t, "fit", "--snapshot-out", snap, records)
	require.NoError(t, err)

	query := []string{"--format", "json", "-e", "ACT_Farming=Present", "-t", "CONS_FishKill"}

	fromSnap, _, err := execute(t, append([]string{"query", "--snapshot", snap}, query...)...)
	require.NoError(t, err)
	fromRecords, _, err := execute(t, append([]string{"query", records}, query...)...)
	require.NoError(t, err)

	var a, b export.Report
	require.NoError(t, json.Unmarshal([]byte(fromSnap), &a))
	require.NoError(t, json.Unmarshal([]byte(fromRecords), &b))

	require.Contains(t, a.Posteriors, "CONS_FishKill")
	require.Len(t, a.Posteriors, 1)
	for state, p := range b.Posteriors["CONS_FishKill"] {
		assert.InDelta(t, p, a.Posteriors["CONS_FishKill"][state], 1e-12, state)
	}
	assert.Equal(t, "Present", string(a.Evidence["ACT_Farming"]))
}

func TestQueryCommand_SourceErrors(t *testing.T) {
	records := writeRecords(t)

	_, _, err := execute(t, "query")
	assert.Error(t, err)

	_, _, err = execute(t, "query", "--snapshot", "x.json", records)
	assert.Error(t, err)

	_, _, err = execute(t, "query", "-e", "nonsense", records)
	assert.ErrorContains(t, err, "NODE=STATE")

	_, _, err = execute(t, "query", "-e", "ACT_Mining=Present", records)
	assert.ErrorIs(t, err, inference.ErrUnknownNode)
}

func TestPropagateCommand(t *testing.T) {
	out, _, err := execute(t, "propagate", "--format", "json", "-e", "ACT_Farming=Present", writeRecords(t))
	require.NoError(t, err)

	var deltas []analysis.NodeDelta
	require.NoError(t, json.Unmarshal([]byte(out), &deltas))
	require.Len(t, deltas, 9)
	for _, d := range deltas {
		assert.GreaterOrEqual(t, d.Delta, -1e-9, d.Node)
	}
	for i := 1; i < len(deltas); i++ {
		assert.GreaterOrEqual(t, abs(deltas[i-1].Delta), abs(deltas[i].Delta))
	}
}

func TestPropagateCommand_RequiresEvidence(t *testing.T) {
	_, _, err := execute(t, "propagate", writeRecords(t))
	assert.Error(t, err)
}

func TestCriticalCommand(t *testing.T) {
	out, _, err := execute(t, "critical", "--format", "yaml", writeRecords(t))
	require.NoError(t, err)
	assert.Contains(t, out, "target: CONS_FishKill")
	assert.Contains(t, out, "root: ACT_Farming")
	assert.Contains(t, out, "root: ACT_Shipping")
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bowtie.prom")
	_, _, err := execute(t, "fit", "--metrics-file", path, writeRecords(t))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bowtie_pipeline_runs_total")
	assert.Contains(t, string(data), "bowtie_graph_nodes 9")
}

func TestLogsGoToStderr(t *testing.T) {
	out, errOut, err := execute(t, "fit", "--format", "json", "--log-level", "debug", writeRecords(t))
	require.NoError(t, err)
	assert.Contains(t, errOut, "Analysis run complete")
	assert.NotContains(t, out, "Analysis run complete")
}

func TestGlobalFlagErrors(t *testing.T) {
	records := writeRecords(t)

	_, _, err := execute(t, "graph", "--format", "xml", records)
	assert.ErrorContains(t, err, "unknown format")

	cfg := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("cpt:\n  mode: guessed\n"), 0o600))
	_, _, err = execute(t, "fit", "--config", cfg, records)
	assert.Error(t, err)

	_, _, err = execute(t, "fit", "--log-level", "loud", records)
	assert.Error(t, err)
}

func TestParseEvidence(t *testing.T) {
	ev, err := parseEvidence([]string{"ACT_Farming=Present", " PRES_Runoff = High "})
	require.NoError(t, err)
	assert.Equal(t, inference.Evidence{"ACT_Farming": "Present", "PRES_Runoff": "High"}, ev)

	ev, err = parseEvidence(nil)
	require.NoError(t, err)
	assert.Nil(t, ev)

	for _, bad := range []string{"ACT_Farming", "=High", "ACT_Farming="} {
		_, err := parseEvidence([]string{bad})
		assert.Error(t, err, bad)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
