package probability

import (
	"errors"
	"fmt"
)

var (
	// ErrTableTooLarge is returned when a node's table would exceed the
	// configured cell limit.
	ErrTableTooLarge = errors.New("probability table too large")

	// ErrInvalidTable is returned for tables with the wrong shape, negative
	// entries or rows that do not sum to one.
	ErrInvalidTable = errors.New("invalid probability table")

	// ErrUnknownScale is returned when parsing an unrecognized rating scale.
	ErrUnknownScale = errors.New("unknown rating scale")

	// ErrUnknownMode is returned when parsing an unrecognized synthesis mode.
	ErrUnknownMode = errors.New("unknown synthesis mode")
)

// TableError ties a table failure to the node it belongs to.
type TableError struct {
	Node  string
	Cause error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.Node, e.Cause)
}

func (e *TableError) Unwrap() error {
	return e.Cause
}
