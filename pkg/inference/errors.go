package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrUnfittedNetwork is returned when inference is attempted on a
	// network without probability tables.
	ErrUnfittedNetwork = errors.New("network has no probability tables")

	// ErrUnknownNode is returned when evidence or a query names a node the
	// network does not contain.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidState is returned when evidence asserts a state outside the
	// node's state set.
	ErrInvalidState = errors.New("invalid state")

	// ErrInconsistentEvidence is returned when the evidence has zero
	// probability under the network.
	ErrInconsistentEvidence = errors.New("evidence has zero probability")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("unknown inference backend")
)

// QueryError records which part of a query failed.
type QueryError struct {
	Op    string // "evidence" or "query"
	Node  string
	State string
	Cause error
}

func (e *QueryError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("inference %s %s=%s: %v", e.Op, e.Node, e.State, e.Cause)
	}
	return fmt.Sprintf("inference %s %s: %v", e.Op, e.Node, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}
