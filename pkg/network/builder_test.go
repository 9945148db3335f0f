package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
)

func farming() bowtie.RiskRecord {
	return bowtie.RiskRecord{
		Activity:             "Farming",
		Pressure:             "Runoff",
		PreventiveControl:    "Buffer",
		EscalationFactor:     "Storm",
		CentralProblem:       "Eutrophication",
		ProtectiveMitigation: "Aeration",
		Consequence:          "FishKill",
	}
}

func TestBuild_SingleRecord(t *testing.T) {
	g, err := Build([]bowtie.RiskRecord{farming()})
	require.NoError(t, err)

	require.Equal(t, 7, g.NodeCount())
	require.Equal(t, 6, g.EdgeCount())

	nodes := g.Nodes()
	for i, want := range ChainTypes {
		assert.Equal(t, want, nodes[i].Type, "node %d", i)
	}
	assert.Equal(t, "ACT_Farming", nodes[0].ID)
	assert.Equal(t, "CONS_FishKill", nodes[6].ID)

	edges := g.Edges()
	for i, rel := range ChainRelations {
		assert.Equal(t, rel, edges[i].Relation)
		assert.Equal(t, nodes[i].ID, edges[i].From)
		assert.Equal(t, nodes[i+1].ID, edges[i].To)
	}

	assert.Equal(t, []string{"ACT_Farming"}, g.Roots())
	assert.Equal(t, []string{"CONS_FishKill"}, g.Leaves())
}

func TestBuild_SharedPrefixDeduplicates(t *testing.T) {
	second := farming()
	second.Consequence = "Odour"

	g, err := Build([]bowtie.RiskRecord{farming(), second})
	require.NoError(t, err)

	assert.Len(t, g.NodesOfType(Activity), 1)
	assert.Len(t, g.NodesOfType(Pressure), 1)
	assert.Len(t, g.NodesOfType(Consequence), 2)

	var outcomes []Edge
	for _, e := range g.Edges() {
		if e.Relation == AffectsOutcome {
			outcomes = append(outcomes, e)
		}
	}
	require.Len(t, outcomes, 2)
	assert.NotEqual(t, outcomes[0].To, outcomes[1].To)

	// shared edges count both records
	assert.Equal(t, 2, g.Edges()[0].Weight)
	assert.Equal(t, 8, g.NodeCount())
	assert.Equal(t, 7, g.EdgeCount())
}

func TestBuild_DuplicateRecordsCollapse(t *testing.T) {
	g, err := Build([]bowtie.RiskRecord{farming(), farming(), farming()})
	require.NoError(t, err)
	assert.Equal(t, 7, g.NodeCount())
	assert.Equal(t, 6, g.EdgeCount())
	for _, e := range g.Edges() {
		assert.Equal(t, 3, e.Weight)
	}
	assert.Len(t, g.Records(), 3)
}

func TestBuild_LabelsWithPunctuationShareIdentity(t *testing.T) {
	a := farming()
	a.Activity = "Intensive farming"
	b := farming()
	b.Activity = "Intensive  -  farming!"

	g, err := Build([]bowtie.RiskRecord{a, b})
	require.NoError(t, err)
	acts := g.NodesOfType(Activity)
	require.Len(t, acts, 1)
	assert.Equal(t, "ACT_Intensive_farming", acts[0].ID)
	assert.Equal(t, "Intensive farming", acts[0].Label)
}

func TestBuild_Filter(t *testing.T) {
	other := farming()
	other.CentralProblem = "Hypoxia"
	other.Consequence = "Dead zone"

	g, err := Build([]bowtie.RiskRecord{farming(), other}, WithProblem(" Hypoxia "))
	require.NoError(t, err)
	assert.Len(t, g.Records(), 1)
	_, ok := g.Node("PROB_Hypoxia")
	assert.True(t, ok)
	_, ok = g.Node("PROB_Eutrophication")
	assert.False(t, ok)

	_, err = Build([]bowtie.RiskRecord{farming()}, WithProblem("Nothing"))
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, bowtie.ErrEmptyInput)

	bad := farming()
	bad.Consequence = ""
	_, err = Build([]bowtie.RiskRecord{farming(), bad})
	assert.ErrorIs(t, err, bowtie.ErrSchema)
}

func TestBuild_IDCache(t *testing.T) {
	cache, err := NewIDCache(64)
	require.NoError(t, err)

	g1, err := Build([]bowtie.RiskRecord{farming()}, WithIDCache(cache))
	require.NoError(t, err)
	assert.Equal(t, 7, cache.Len())

	g2, err := Build([]bowtie.RiskRecord{farming()})
	require.NoError(t, err)
	assert.Equal(t, g2.NodeIDs(), g1.NodeIDs())
}

func TestNodeID(t *testing.T) {
	tests := []struct {
		t     NodeType
		label string
		want  string
	}{
		{Pressure, "Nutrient runoff", "PRES_Nutrient_runoff"},
		{Control, "  Buffer  strips ", "CTRL_Buffer_strips"},
		{Escalation, "Storm (>50mm/day)", "ESC_Storm_50mm_day"},
		{Problem, "Eutrophication", "PROB_Eutrophication"},
		{Mitigation, "Aeration", "MIT_Aeration"},
		{Consequence, "Fish-kill", "CONS_Fish_kill"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NodeID(tt.t, tt.label))
		})
	}

	a, b := NodeID(Activity, "!!!"), NodeID(Activity, "???")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, NodeID(Activity, "!!!"))
}

func TestWithLinks(t *testing.T) {
	g, err := Build([]bowtie.RiskRecord{farming()})
	require.NoError(t, err)

	linked, err := g.WithLinks([]Edge{
		{From: "ACT_Farming", To: "PROB_Eutrophication", Relation: Causes},
		{From: "ACT_Farming", To: "PRES_Runoff", Relation: Causes, Weight: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, linked.EdgeCount())
	assert.Equal(t, 3, linked.Edges()[0].Weight)
	assert.Equal(t, 6, g.EdgeCount(), "original graph is untouched")
	assert.ElementsMatch(t, []string{"ACT_Farming", "ESC_Storm"}, linked.Parents("PROB_Eutrophication"))

	_, err = g.WithLinks([]Edge{{From: "ACT_Farming", To: "ACT_Nope", Relation: Causes}})
	assert.ErrorIs(t, err, ErrUnknownNode)

	_, err = g.WithLinks([]Edge{{From: "ACT_Farming", To: "PRES_Runoff", Relation: "mentions"}})
	assert.ErrorIs(t, err, ErrUnknownRelation)
}

func TestNewGraph(t *testing.T) {
	nodes := []Node{
		{ID: "ACT_A", Type: Activity, Label: "A"},
		{ID: "PRES_B", Type: Pressure, Label: "B"},
	}
	g, err := NewGraph(nodes, []Edge{
		{From: "ACT_A", To: "PRES_B", Relation: Causes},
		{From: "ACT_A", To: "PRES_B", Relation: Causes},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 2, g.Edges()[0].Weight)

	_, err = NewGraph(append(nodes, nodes[0]), nil, nil)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, err = NewGraph([]Node{{ID: "X", Type: "Gadget"}}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestGraph_RecordsDoNotAlias(t *testing.T) {
	r := farming()
	r.Likelihood = bowtie.Rating(4)
	r.Severity = bowtie.Rating(2)
	g, err := Build([]bowtie.RiskRecord{r})
	require.NoError(t, err)

	*r.Likelihood = 1
	out := g.Records()
	require.Len(t, out, 1)
	assert.Equal(t, 4.0, *out[0].Likelihood, "input mutation after Build")

	*out[0].Severity = 5
	assert.Equal(t, 2.0, *g.Records()[0].Severity, "mutation of a returned record")

	restored, err := NewGraph(g.Nodes(), g.Edges(), out)
	require.NoError(t, err)
	*out[0].Likelihood = 3
	assert.Equal(t, 4.0, *restored.Records()[0].Likelihood)
}
