package probability

import (
	"fmt"
	"math"
	"strings"
)

// DefaultTolerance is the allowed deviation of a row sum from one.
const DefaultTolerance = 1e-6

// Table is a conditional probability table. Rows are indexed by parent
// assignments in mixed radix with the last parent varying fastest; a root
// node has exactly one row. Each row is a distribution over States.
type Table struct {
	Node         string      `json:"node" yaml:"node"`
	States       StateSet    `json:"states" yaml:"states"`
	Parents      []string    `json:"parents,omitempty" yaml:"parents,omitempty"`
	ParentStates []StateSet  `json:"parent_states,omitempty" yaml:"parent_states,omitempty"`
	Rows         [][]float64 `json:"rows" yaml:"rows"`
}

// RowCount returns the number of parent assignments.
func (t *Table) RowCount() int {
	n := 1
	for _, ps := range t.ParentStates {
		n *= len(ps)
	}
	return n
}

// tableCells returns the number of cells a table with the given
// cardinalities would hold, or false when it would exceed limit.
func tableCells(states int, parentCards []int, limit int) (int, bool) {
	cells := states
	for _, c := range parentCards {
		if c != 0 && cells > math.MaxInt/c {
			return 0, false
		}
		cells *= c
	}
	if limit > 0 && cells > limit {
		return cells, false
	}
	return cells, true
}

// RowIndex returns the row for a full parent assignment given in Parents
// order.
func (t *Table) RowIndex(assignment []State) (int, error) {
	if len(assignment) != len(t.Parents) {
		return 0, fmt.Errorf("%w: %s expects %d parent states, got %d", ErrInvalidTable, t.Node, len(t.Parents), len(assignment))
	}
	row := 0
	for i, s := range assignment {
		k := t.ParentStates[i].Index(s)
		if k < 0 {
			return 0, fmt.Errorf("%w: state %q not valid for parent %s", ErrInvalidTable, s, t.Parents[i])
		}
		row = row*len(t.ParentStates[i]) + k
	}
	return row, nil
}

// ParentAssignment decodes a row index into parent states.
func (t *Table) ParentAssignment(row int) []State {
	out := make([]State, len(t.Parents))
	for i := len(t.Parents) - 1; i >= 0; i-- {
		card := len(t.ParentStates[i])
		out[i] = t.ParentStates[i][row%card]
		row /= card
	}
	return out
}

// Row returns the distribution for a parent assignment.
func (t *Table) Row(assignment ...State) ([]float64, error) {
	i, err := t.RowIndex(assignment)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), t.Rows[i]...), nil
}

// Validate checks shape, non-negativity and that each row sums to one
// within tol.
func (t *Table) Validate(tol float64) error {
	if len(t.States) == 0 {
		return fmt.Errorf("%w: %s has no states", ErrInvalidTable, t.Node)
	}
	if len(t.Parents) != len(t.ParentStates) {
		return fmt.Errorf("%w: %s lists %d parents but %d parent state sets", ErrInvalidTable, t.Node, len(t.Parents), len(t.ParentStates))
	}
	if len(t.Rows) != t.RowCount() {
		return fmt.Errorf("%w: %s has %d rows, want %d", ErrInvalidTable, t.Node, len(t.Rows), t.RowCount())
	}
	for i, row := range t.Rows {
		if len(row) != len(t.States) {
			return fmt.Errorf("%w: %s row %d has %d entries, want %d", ErrInvalidTable, t.Node, i, len(row), len(t.States))
		}
		sum := 0.0
		for _, p := range row {
			if p < 0 || math.IsNaN(p) {
				return fmt.Errorf("%w: %s row %d has entry %v", ErrInvalidTable, t.Node, i, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: %s row %d sums to %v", ErrInvalidTable, t.Node, i, sum)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Node:         t.Node,
		States:       append(StateSet(nil), t.States...),
		Parents:      append([]string(nil), t.Parents...),
		ParentStates: make([]StateSet, len(t.ParentStates)),
		Rows:         make([][]float64, len(t.Rows)),
	}
	for i, ps := range t.ParentStates {
		c.ParentStates[i] = append(StateSet(nil), ps...)
	}
	for i, r := range t.Rows {
		c.Rows[i] = append([]float64(nil), r...)
	}
	if len(c.Parents) == 0 {
		c.Parents = nil
		c.ParentStates = nil
	}
	return c
}

// Plain returns the table as nested maps: parent assignment label to
// state name to probability. The label is "parent=state" pairs joined by
// commas, empty for a root.
func (t *Table) Plain() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(t.Rows))
	for i, row := range t.Rows {
		dist := make(map[string]float64, len(row))
		for k, p := range row {
			dist[string(t.States[k])] = p
		}
		out[t.assignmentLabel(i)] = dist
	}
	return out
}

func (t *Table) assignmentLabel(row int) string {
	if len(t.Parents) == 0 {
		return ""
	}
	states := t.ParentAssignment(row)
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = t.Parents[i] + "=" + string(s)
	}
	return strings.Join(parts, ",")
}

func normalize(row []float64) {
	sum := 0.0
	for _, p := range row {
		sum += p
	}
	if sum == 0 {
		return
	}
	for i := range row {
		row[i] /= sum
	}
}
