package bowtie

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// structFieldToCanonical maps RiskRecord struct field names, as reported by
// the validator, to canonical column names.
var structFieldToCanonical = map[string]string{
	"Activity":             FieldActivity,
	"Pressure":             FieldPressure,
	"PreventiveControl":    FieldPreventiveControl,
	"EscalationFactor":     FieldEscalationFactor,
	"CentralProblem":       FieldCentralProblem,
	"ProtectiveMitigation": FieldProtectiveMitigation,
	"Consequence":          FieldConsequence,
}

// foldKey makes column matching insensitive to case, spaces, '_' and '-'.
func foldKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeLabel collapses internal whitespace and trims the ends.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize converts a raw table into canonical RiskRecords. It is a pure
// transform: the input is not modified.
func Normalize(rows []RawRecord) ([]RiskRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([]RiskRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := NormalizeRow(i, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// NormalizeRow resolves a single row. index is only used for error reporting.
func NormalizeRow(index int, row RawRecord) (RiskRecord, error) {
	folded := make(map[string]string, len(row))
	for k, v := range row {
		fk := foldKey(k)
		// keep the first non-empty value if two columns fold together
		if existing, ok := folded[fk]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		folded[fk] = v
	}

	lookup := func(canonical string) string {
		for _, name := range append([]string{canonical}, fieldAliases[canonical]...) {
			if v := NormalizeLabel(folded[foldKey(name)]); v != "" {
				return v
			}
		}
		return ""
	}

	rec := RiskRecord{
		Activity:             lookup(FieldActivity),
		Pressure:             lookup(FieldPressure),
		PreventiveControl:    lookup(FieldPreventiveControl),
		EscalationFactor:     lookup(FieldEscalationFactor),
		CentralProblem:       lookup(FieldCentralProblem),
		ProtectiveMitigation: lookup(FieldProtectiveMitigation),
		Consequence:          lookup(FieldConsequence),
	}

	var invalid []string
	parseRating := func(canonical string) *float64 {
		raw := lookup(canonical)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid = append(invalid, canonical)
			return nil
		}
		return &v
	}
	rec.Likelihood = parseRating(FieldLikelihood)
	rec.Severity = parseRating(FieldSeverity)

	missing, err := missingFields(rec)
	if err != nil {
		return RiskRecord{}, err
	}
	if len(missing) > 0 || len(invalid) > 0 {
		return RiskRecord{}, &SchemaError{
			Row:             index,
			MissingFields:   missing,
			InvalidFields:   invalid,
			AvailableFields: availableFields(row),
		}
	}
	return rec, nil
}

// Validate checks an already-built record, e.g. one constructed in code.
func Validate(index int, rec RiskRecord) error {
	missing, err := missingFields(rec)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Row: index, MissingFields: missing}
}

// missingFields runs the struct validator and returns canonical names of
// the required fields that failed, in chain order.
func missingFields(rec RiskRecord) ([]string, error) {
	err := validate.Struct(rec)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		if name, ok := structFieldToCanonical[fe.StructField()]; ok {
			failed[name] = true
		}
	}
	missing := make([]string, 0, len(failed))
	for _, name := range RequiredFields {
		if failed[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

func availableFields(row RawRecord) []string {
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
