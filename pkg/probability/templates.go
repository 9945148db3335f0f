package probability

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-bowtie/pkg/network"
)

// TemplateProvider supplies the hand-specified distributions used when a
// table is not learned from data.
type TemplateProvider interface {
	// RootDistribution returns the prior of a parentless node of type t.
	RootDistribution(t network.NodeType) Prior
	// ConditionalRow returns a ThreeLevel distribution for a node of type
	// t given one parent at risk level 0 (Low), 1 (Medium) or 2 (High).
	ConditionalRow(t network.NodeType, parentLevel int) []float64
}

// Prior is a distribution over an explicit state set.
type Prior struct {
	States        StateSet  `yaml:"states"`
	Probabilities []float64 `yaml:"probabilities"`
}

// Matrix rows are indexed by the parent's risk level and columns by the
// child's ThreeLevel state.
type Matrix [3][3]float64

// MatrixTemplates is the table-driven TemplateProvider.
type MatrixTemplates struct {
	Roots              map[network.NodeType]Prior
	DefaultRoot        Prior
	Conditional        map[network.NodeType]Matrix
	DefaultConditional Matrix
}

// DefaultTemplates returns the built-in templates: activities are present
// with probability 0.8, other roots are near uniform, and each stage has
// its own conditional matrix.
func DefaultTemplates() *MatrixTemplates {
	return &MatrixTemplates{
		Roots: map[network.NodeType]Prior{
			network.Activity: {States: Binary, Probabilities: []float64{0.2, 0.8}},
		},
		DefaultRoot: Prior{States: ThreeLevel, Probabilities: []float64{0.33, 0.34, 0.33}},
		Conditional: map[network.NodeType]Matrix{
			network.Pressure: {
				{0.7, 0.2, 0.1},
				{0.3, 0.5, 0.2},
				{0.1, 0.3, 0.6},
			},
			network.Control: {
				{0.6, 0.3, 0.1},
				{0.3, 0.5, 0.2},
				{0.2, 0.3, 0.5},
			},
			network.Escalation: {
				{0.7, 0.2, 0.1},
				{0.3, 0.4, 0.3},
				{0.1, 0.3, 0.6},
			},
			network.Consequence: {
				{0.8, 0.15, 0.05},
				{0.3, 0.5, 0.2},
				{0.05, 0.25, 0.7},
			},
		},
		DefaultConditional: Matrix{
			{0.6, 0.3, 0.1},
			{0.25, 0.5, 0.25},
			{0.1, 0.3, 0.6},
		},
	}
}

func (m *MatrixTemplates) RootDistribution(t network.NodeType) Prior {
	p, ok := m.Roots[t]
	if !ok {
		p = m.DefaultRoot
	}
	return Prior{
		States:        append(StateSet(nil), p.States...),
		Probabilities: append([]float64(nil), p.Probabilities...),
	}
}

func (m *MatrixTemplates) ConditionalRow(t network.NodeType, parentLevel int) []float64 {
	mat, ok := m.Conditional[t]
	if !ok {
		mat = m.DefaultConditional
	}
	if parentLevel < 0 {
		parentLevel = 0
	} else if parentLevel > 2 {
		parentLevel = 2
	}
	row := mat[parentLevel]
	return row[:]
}

// templateFile is the YAML layout accepted by ParseTemplates:
//
//	roots:
//	  Activity: {states: [Absent, Present], probabilities: [0.1, 0.9]}
//	  default: {states: [Low, Medium, High], probabilities: [0.5, 0.3, 0.2]}
//	conditional:
//	  Pressure: [[0.7, 0.2, 0.1], [0.3, 0.5, 0.2], [0.1, 0.3, 0.6]]
//	  default: [[...], [...], [...]]
type templateFile struct {
	Roots       map[string]Prior       `yaml:"roots"`
	Conditional map[string][][]float64 `yaml:"conditional"`
}

const defaultKey = "default"

// LoadTemplates reads a YAML template file and overlays it on
// DefaultTemplates.
func LoadTemplates(path string) (*MatrixTemplates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return ParseTemplates(data)
}

// ParseTemplates overlays YAML template data on DefaultTemplates. Entries
// not mentioned keep their defaults.
func ParseTemplates(data []byte) (*MatrixTemplates, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	out := DefaultTemplates()
	for key, prior := range file.Roots {
		if err := validatePrior(prior); err != nil {
			return nil, fmt.Errorf("root template %s: %w", key, err)
		}
		if key == defaultKey {
			if !prior.States.Equal(ThreeLevel) {
				return nil, fmt.Errorf("root template %s: %w: default root must use %v", key, ErrInvalidTable, ThreeLevel)
			}
			out.DefaultRoot = prior
			continue
		}
		t, err := templateType(key)
		if err != nil {
			return nil, err
		}
		out.Roots[t] = prior
	}

	for key, rows := range file.Conditional {
		mat, err := toMatrix(rows)
		if err != nil {
			return nil, fmt.Errorf("conditional template %s: %w", key, err)
		}
		if key == defaultKey {
			out.DefaultConditional = mat
			continue
		}
		t, err := templateType(key)
		if err != nil {
			return nil, err
		}
		out.Conditional[t] = mat
	}
	return out, nil
}

func templateType(key string) (network.NodeType, error) {
	t := network.NodeType(key)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", network.ErrUnknownNodeType, key)
	}
	return t, nil
}

func validatePrior(p Prior) error {
	if len(p.States) == 0 || len(p.States) != len(p.Probabilities) {
		return fmt.Errorf("%w: %d states with %d probabilities", ErrInvalidTable, len(p.States), len(p.Probabilities))
	}
	if !p.States.Equal(ThreeLevel) && !p.States.Equal(Binary) {
		return fmt.Errorf("%w: states %v must be %v or %v", ErrInvalidTable, p.States, ThreeLevel, Binary)
	}
	return checkRow(p.Probabilities)
}

func toMatrix(rows [][]float64) (Matrix, error) {
	var m Matrix
	if len(rows) != 3 {
		return m, fmt.Errorf("%w: want 3 rows, got %d", ErrInvalidTable, len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return m, fmt.Errorf("%w: row %d has %d entries", ErrInvalidTable, i, len(row))
		}
		if err := checkRow(row); err != nil {
			return m, fmt.Errorf("row %d: %w", i, err)
		}
		copy(m[i][:], row)
	}
	return m, nil
}

func checkRow(row []float64) error {
	sum := 0.0
	for _, p := range row {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: entry %v", ErrInvalidTable, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > DefaultTolerance {
		return fmt.Errorf("%w: row sums to %v", ErrInvalidTable, sum)
	}
	return nil
}
