// Package probability holds the discrete probability model attached to a
// bowtie graph: state sets, discretization of ratings, conditional
// probability tables and their synthesis.
package probability

import "strings"

// State is one discrete value a node can take.
type State string

const (
	Low     State = "Low"
	Medium  State = "Medium"
	High    State = "High"
	Absent  State = "Absent"
	Present State = "Present"

	// Unknown marks a missing or NaN rating. It never appears in a
	// StateSet.
	Unknown State = "Unknown"
)

// StateSet is an ordered set of states, lowest risk first.
type StateSet []State

var (
	// ThreeLevel is the default ordinal state set.
	ThreeLevel = StateSet{Low, Medium, High}
	// Binary is used for boolean-like root nodes such as activities.
	Binary = StateSet{Absent, Present}
)

// Index returns the position of s in the set, or -1.
func (ss StateSet) Index(s State) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

// Contains reports whether s belongs to the set.
func (ss StateSet) Contains(s State) bool {
	return ss.Index(s) >= 0
}

// Top returns the highest-risk state.
func (ss StateSet) Top() State {
	if len(ss) == 0 {
		return Unknown
	}
	return ss[len(ss)-1]
}

// Baseline returns the lowest-risk state.
func (ss StateSet) Baseline() State {
	if len(ss) == 0 {
		return Unknown
	}
	return ss[0]
}

// Equal reports whether both sets hold the same states in the same order.
func (ss StateSet) Equal(other StateSet) bool {
	if len(ss) != len(other) {
		return false
	}
	for i := range ss {
		if ss[i] != other[i] {
			return false
		}
	}
	return true
}

func (ss StateSet) String() string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// RiskLevel maps a state onto the Low/Medium/High scale used to index
// templates: 0, 1 or 2. Absent counts as Low and Present as High.
func RiskLevel(s State) int {
	switch s {
	case Medium:
		return 1
	case High, Present:
		return 2
	default:
		return 0
	}
}
