package bowtie

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when the record table has no rows.
	ErrEmptyInput = errors.New("empty record table")
	// ErrSchema matches every *SchemaError.
	ErrSchema = errors.New("record schema violation")
)

// SchemaError reports a record whose mandatory fields could not be resolved.
type SchemaError struct {
	Row             int      // zero-based row index in the input table
	MissingFields   []string // canonical names with no non-empty value
	InvalidFields   []string // optional numeric fields that failed to parse
	AvailableFields []string // column names present in the row, sorted
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "row %d", e.Row)
	if len(e.MissingFields) > 0 {
		fmt.Fprintf(&b, ": missing fields [%s]", strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) > 0 {
		fmt.Fprintf(&b, ": invalid fields [%s]", strings.Join(e.InvalidFields, ", "))
	}
	fmt.Fprintf(&b, " (available: [%s])", strings.Join(e.AvailableFields, ", "))
	return b.String()
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
