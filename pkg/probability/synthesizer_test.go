package probability

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/network"
)

func record(activity, consequence string) bowtie.RiskRecord {
	return bowtie.RiskRecord{
		Activity:             activity,
		Pressure:             "Runoff",
		PreventiveControl:    "Buffer",
		EscalationFactor:     "Storm",
		CentralProblem:       "Eutrophication",
		ProtectiveMitigation: "Aeration",
		Consequence:          consequence,
	}
}

func rated(r bowtie.RiskRecord, likelihood, severity float64) bowtie.RiskRecord {
	r.Likelihood = bowtie.Rating(likelihood)
	r.Severity = bowtie.Rating(severity)
	return r
}

func buildGraph(t *testing.T, records ...bowtie.RiskRecord) *network.Graph {
	t.Helper()
	g, err := network.Build(records)
	require.NoError(t, err)
	return g
}

func TestFit_TemplatedChain(t *testing.T) {
	g := buildGraph(t, record("Farming", "FishKill"))

	net, report, err := NewSynthesizer().Fit(g)
	require.NoError(t, err)
	require.True(t, net.Fitted())
	assert.Equal(t, Templated, report.Mode)
	assert.False(t, report.Degraded())

	act, ok := net.Table("ACT_Farming")
	require.True(t, ok)
	assert.Equal(t, Binary, act.States)
	assert.Equal(t, [][]float64{{0.2, 0.8}}, act.Rows)

	pres, ok := net.Table("PRES_Runoff")
	require.True(t, ok)
	assert.Equal(t, []string{"ACT_Farming"}, pres.Parents)
	row, err := pres.Row(Present)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.3, 0.6}, row, 1e-12)
	row, err = pres.Row(Absent)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.7, 0.2, 0.1}, row, 1e-12)

	cons, _ := net.Table("CONS_FishKill")
	row, err = cons.Row(High)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.05, 0.25, 0.7}, row, 1e-12)

	assert.Len(t, net.Tables(), 7)
	assert.Equal(t, "ACT_Farming", net.Order()[0])
}

func TestFit_MultiParentAveragesTemplates(t *testing.T) {
	g := buildGraph(t, record("Farming", "FishKill"), record("Forestry", "FishKill"))

	net, _, err := NewSynthesizer(WithWorkers(2)).Fit(g)
	require.NoError(t, err)

	pres, _ := net.Table("PRES_Runoff")
	require.Equal(t, []string{"ACT_Farming", "ACT_Forestry"}, pres.Parents)

	row, err := pres.Row(Present, Absent)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4, 0.25, 0.35}, row, 1e-12)

	row, err = pres.Row(Present, Present)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.3, 0.6}, row, 1e-12)
}

func TestFit_Learned(t *testing.T) {
	var records []bowtie.RiskRecord
	for i := 0; i < 12; i++ {
		records = append(records, rated(record("Farming", "FishKill"), 5, 0.1))
	}
	g := buildGraph(t, records...)

	net, report, err := NewSynthesizer(WithMode(Learned)).Fit(g)
	require.NoError(t, err)
	assert.Equal(t, Learned, report.Mode)
	assert.Equal(t, 12, report.Samples)
	assert.Equal(t, 6, report.LearnedNodes)
	assert.False(t, report.FellBack)

	pres, _ := net.Table("PRES_Runoff")
	row, _ := pres.Row(Present)
	assert.Equal(t, []float64{0, 0, 1}, row, "observed row is the empirical frequency")
	row, _ = pres.Row(Absent)
	assert.InDeltaSlice(t, []float64{0.7, 0.2, 0.1}, row, 1e-12, "unobserved row keeps its template")

	cons, _ := net.Table("CONS_FishKill")
	row, _ = cons.Row(Low)
	assert.Equal(t, []float64{1, 0, 0}, row)

	mit, _ := net.Table("MIT_Aeration")
	row, _ = mit.Row(High)
	assert.Equal(t, []float64{1, 0, 0}, row)

	act, _ := net.Table("ACT_Farming")
	assert.Equal(t, [][]float64{{0.2, 0.8}}, act.Rows, "activity roots stay templated")
}

func TestFit_LearnedOffChainParentsAtBaseline(t *testing.T) {
	var records []bowtie.RiskRecord
	for i := 0; i < 10; i++ {
		records = append(records, rated(record("Farming", "FishKill"), 3, 3))
	}
	records = append(records, record("Forestry", "FishKill"))
	g := buildGraph(t, records...)

	net, report, err := NewSynthesizer(WithMode(Learned)).Fit(g)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Samples, "unrated record is not usable")

	pres, _ := net.Table("PRES_Runoff")
	row, _ := pres.Row(Present, Absent)
	assert.Equal(t, []float64{0, 1, 0}, row)
	row, _ = pres.Row(Absent, Present)
	assert.InDeltaSlice(t, []float64{0.4, 0.25, 0.35}, row, 1e-12)
}

func TestFit_LearnedFallsBackWithWarning(t *testing.T) {
	g := buildGraph(t,
		rated(record("Farming", "FishKill"), 5, 5),
		rated(record("Farming", "AlgalBloom"), 2, 9),
	)
	logger := logging.NewMemoryLogger()

	net, report, err := NewSynthesizer(WithMode(Learned), WithLogger(logger)).Fit(g)
	require.NoError(t, err)
	require.True(t, net.Fitted())

	assert.True(t, report.FellBack)
	assert.Equal(t, Templated, report.Mode)
	assert.Equal(t, Learned, report.Requested)
	assert.Equal(t, 2, report.Samples)
	assert.Equal(t, 1, report.Clamped)
	assert.Zero(t, report.LearnedNodes)

	warnings := logger.AtLevel(logging.WarnLevel)
	require.Len(t, warnings, 2)
	assert.Equal(t, "cpt", warnings[1].Fields["component"])
	assert.Equal(t, 2, warnings[1].Fields["samples"])

	pres, _ := net.Table("PRES_Runoff")
	row, _ := pres.Row(Present)
	assert.InDeltaSlice(t, []float64{0.1, 0.3, 0.6}, row, 1e-12)
}

func TestFit_LearnedRatingScales(t *testing.T) {
	var records []bowtie.RiskRecord
	for i := 0; i < 12; i++ {
		records = append(records, rated(record("Farming", "FishKill"), 0.9, 0.9))
	}
	g := buildGraph(t, records...)

	net, report, err := NewSynthesizer(WithMode(Learned)).Fit(g)
	require.NoError(t, err)
	assert.Zero(t, report.Clamped, "probabilities are in range on the default scale")
	pres, _ := net.Table("PRES_Runoff")
	row, _ := pres.Row(Present)
	assert.Equal(t, []float64{0, 0, 1}, row)

	net, report, err = NewSynthesizer(WithMode(Learned), WithScale(ScaleOrdinal)).Fit(g)
	require.NoError(t, err)
	assert.Equal(t, 24, report.Clamped)
	pres, _ = net.Table("PRES_Runoff")
	row, _ = pres.Row(Present)
	assert.Equal(t, []float64{1, 0, 0}, row, "ordinal ratings below one clamp to the lowest level")
}

func TestFit_TableTooLarge(t *testing.T) {
	g := buildGraph(t, record("Farming", "FishKill"), record("Forestry", "FishKill"))
	logger := logging.NewMemoryLogger()

	_, _, err := NewSynthesizer(WithMaxTableCells(6), WithLogger(logger)).Fit(g)
	require.ErrorIs(t, err, ErrTableTooLarge)

	var tableErr *TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "PRES_Runoff", tableErr.Node)

	errs := logger.AtLevel(logging.ErrorLevel)
	require.Len(t, errs, 1)
	assert.Equal(t, "cpt synthesis", errs[0].Message)
	assert.Contains(t, errs[0].Fields, "latency")
	assert.Equal(t, err.Error(), errs[0].Fields["error"])
}

func TestFit_CyclicGraph(t *testing.T) {
	g, err := buildGraph(t, record("Farming", "FishKill")).WithLinks([]network.Edge{
		{From: "PRES_Runoff", To: "ACT_Farming", Relation: network.Causes},
	})
	require.NoError(t, err)
	logger := logging.NewMemoryLogger()

	_, _, err = NewSynthesizer(WithLogger(logger)).Fit(g)
	require.ErrorIs(t, err, network.ErrCycle)

	errs := logger.AtLevel(logging.ErrorLevel)
	require.Len(t, errs, 1)
	assert.Equal(t, "cpt", errs[0].Fields["component"])
}

func TestFit_CustomTemplates(t *testing.T) {
	tmpl := DefaultTemplates()
	tmpl.Roots[network.Activity] = Prior{States: Binary, Probabilities: []float64{0.5, 0.5}}

	net, _, err := NewSynthesizer(WithTemplates(tmpl)).Fit(buildGraph(t, record("Farming", "FishKill")))
	require.NoError(t, err)

	act, _ := net.Table("ACT_Farming")
	assert.Equal(t, []float64{0.5, 0.5}, act.Rows[0])
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Learned")
	require.NoError(t, err)
	assert.Equal(t, Learned, m)
	assert.Equal(t, "learned", m.String())

	_, err = ParseMode("bayesian")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNewNetwork_Validation(t *testing.T) {
	g := buildGraph(t, record("Farming", "FishKill"))
	net, _, err := NewSynthesizer().Fit(g)
	require.NoError(t, err)
	tables := net.Tables()

	_, err = NewNetwork(g, tables[:6])
	assert.ErrorIs(t, err, ErrInvalidTable, "missing table")

	_, err = NewNetwork(g, append(tables, tables[0]))
	assert.ErrorIs(t, err, ErrInvalidTable, "duplicate table")

	broken := net.Tables()
	broken[1].ParentStates[0] = ThreeLevel
	broken[1].Rows = append(broken[1].Rows, []float64{1, 0, 0})
	_, err = NewNetwork(g, broken)
	assert.ErrorIs(t, err, ErrInvalidTable, "parent states must match the parent's table")

	stray := &Table{Node: "ACT_Mining", States: Binary, Rows: [][]float64{{0.5, 0.5}}}
	_, err = NewNetwork(g, append(net.Tables(), stray))
	assert.ErrorIs(t, err, network.ErrUnknownNode)

	again, err := NewNetwork(g, tables)
	require.NoError(t, err)
	assert.Equal(t, net.Plain(), again.Plain())
}

func TestUnfitted(t *testing.T) {
	net := Unfitted(buildGraph(t, record("Farming", "FishKill")))
	assert.False(t, net.Fitted())
	_, ok := net.Table("ACT_Farming")
	assert.False(t, ok)
	_, ok = net.States("ACT_Farming")
	assert.False(t, ok)
}

func TestFit_RowsSumToOne(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("every table row sums to one", prop.ForAll(
		func(choices []int, learned bool) bool {
			var records []bowtie.RiskRecord
			for i := 0; i+3 <= len(choices); i += 3 {
				r := record(fmt.Sprintf("activity %d", choices[i]%3), fmt.Sprintf("outcome %d", choices[i+1]%3))
				r.EscalationFactor = fmt.Sprintf("factor %d", choices[i+2]%2)
				records = append(records, rated(r, float64(choices[i]%5+1), float64(choices[i+1]%5+1)))
			}
			g, err := network.Build(records)
			if err != nil {
				return false
			}
			mode := Templated
			if learned {
				mode = Learned
			}
			net, _, err := NewSynthesizer(WithMode(mode), WithMinSamples(1)).Fit(g)
			if err != nil {
				return false
			}
			for _, tbl := range net.Tables() {
				if tbl.Validate(DefaultTolerance) != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.IntRange(0, 20)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
