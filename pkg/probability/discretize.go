package probability

import (
	"fmt"
	"math"
	"strings"
)

// Scale selects how numeric ratings are read.
type Scale int

const (
	// ScaleAuto treats values in [0,1] as probabilities and values in
	// (1,5] as ordinal ratings.
	ScaleAuto Scale = iota
	// ScaleUnit reads every value as a probability in [0,1].
	ScaleUnit
	// ScaleOrdinal reads every value as a rating in [1,5].
	ScaleOrdinal
)

func (s Scale) String() string {
	switch s {
	case ScaleAuto:
		return "auto"
	case ScaleUnit:
		return "unit"
	case ScaleOrdinal:
		return "ordinal"
	default:
		return fmt.Sprintf("Scale(%d)", int(s))
	}
}

// ParseScale parses "auto", "unit" or "ordinal".
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return ScaleAuto, nil
	case "unit":
		return ScaleUnit, nil
	case "ordinal":
		return ScaleOrdinal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, s)
}

// Discretizer maps numeric ratings onto ThreeLevel states.
type Discretizer struct {
	Scale Scale
}

// Discretize applies the rule under ScaleAuto.
func Discretize(v float64) (State, bool) {
	return Discretizer{Scale: ScaleAuto}.Discretize(v)
}

// Discretize returns the state for v and whether v had to be clamped into
// range. NaN yields Unknown.
func (d Discretizer) Discretize(v float64) (State, bool) {
	if math.IsNaN(v) {
		return Unknown, false
	}

	var p float64
	clamped := false
	switch d.Scale {
	case ScaleUnit:
		p, clamped = clamp(v, 0, 1)
	case ScaleOrdinal:
		v, clamped = clamp(v, 1, 5)
		p = (v - 1) / 4
	default:
		switch {
		case v < 0:
			p, clamped = 0, true
		case v <= 1:
			p = v
		default:
			v, clamped = clamp(v, 1, 5)
			p = (v - 1) / 4
		}
	}
	return tercile(p), clamped
}

// Rating discretizes an optional rating; nil is Unknown.
func (d Discretizer) Rating(v *float64) (State, bool) {
	if v == nil {
		return Unknown, false
	}
	return d.Discretize(*v)
}

func clamp(v, lo, hi float64) (float64, bool) {
	switch {
	case v < lo:
		return lo, true
	case v > hi:
		return hi, true
	}
	return v, false
}

func tercile(p float64) State {
	switch {
	case p <= 1.0/3.0:
		return Low
	case p <= 2.0/3.0:
		return Medium
	default:
		return High
	}
}
