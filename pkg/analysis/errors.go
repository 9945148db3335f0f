package analysis

import "errors"

// ErrAmbiguousTarget is returned when no target is given and the network
// does not have exactly one terminal consequence.
var ErrAmbiguousTarget = errors.New("target is ambiguous: specify a target node")
