package probability

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscretize_Auto(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		want    State
		clamped bool
	}{
		{"zero", 0, Low, false},
		{"unit low", 0.2, Low, false},
		{"unit third", 1.0 / 3.0, Low, false},
		{"unit medium", 0.5, Medium, false},
		{"unit high", 0.9, High, false},
		{"one is unit", 1, High, false},
		{"ordinal two", 2, Low, false},
		{"ordinal three", 3, Medium, false},
		{"ordinal four", 4, High, false},
		{"ordinal five", 5, High, false},
		{"above range", 7, High, true},
		{"negative", -1, Low, true},
		{"nan", math.NaN(), Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := Discretize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clamped, clamped)
		})
	}
}

func TestDiscretize_ExplicitScales(t *testing.T) {
	ordinal := Discretizer{Scale: ScaleOrdinal}
	got, _ := ordinal.Discretize(1)
	assert.Equal(t, Low, got, "1 on the ordinal scale is the lowest rating")
	got, clamped := ordinal.Discretize(0.5)
	assert.Equal(t, Low, got)
	assert.True(t, clamped)

	unit := Discretizer{Scale: ScaleUnit}
	got, clamped = unit.Discretize(3)
	assert.Equal(t, High, got)
	assert.True(t, clamped)

	got, clamped = unit.Rating(nil)
	assert.Equal(t, Unknown, got)
	assert.False(t, clamped)
}

func TestParseScale(t *testing.T) {
	for in, want := range map[string]Scale{"": ScaleAuto, "Auto": ScaleAuto, "unit": ScaleUnit, " ordinal ": ScaleOrdinal} {
		got, err := ParseScale(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, "ordinal", ScaleOrdinal.String())

	_, err := ParseScale("percent")
	assert.ErrorIs(t, err, ErrUnknownScale)
}

func TestDiscretize_Monotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	monotonic := func(d Discretizer) func(a, b float64) bool {
		return func(a, b float64) bool {
			if a > b {
				a, b = b, a
			}
			sa, _ := d.Discretize(a)
			sb, _ := d.Discretize(b)
			return RiskLevel(sa) <= RiskLevel(sb)
		}
	}

	properties.Property("unit scale is monotonic", prop.ForAll(
		monotonic(Discretizer{Scale: ScaleUnit}),
		gen.Float64Range(-1, 2), gen.Float64Range(-1, 2),
	))
	properties.Property("ordinal scale is monotonic", prop.ForAll(
		monotonic(Discretizer{Scale: ScaleOrdinal}),
		gen.Float64Range(0, 7), gen.Float64Range(0, 7),
	))
	properties.Property("auto scale is monotonic within probabilities", prop.ForAll(
		monotonic(Discretizer{Scale: ScaleAuto}),
		gen.Float64Range(0, 1), gen.Float64Range(0, 1),
	))
	properties.Property("auto scale is monotonic within ratings", prop.ForAll(
		monotonic(Discretizer{Scale: ScaleAuto}),
		gen.Float64Range(1.0001, 9), gen.Float64Range(1.0001, 9),
	))

	properties.TestingRun(t)
}
