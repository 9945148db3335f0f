// Package bowtie defines the risk-record table consumed by the network
// builder and normalizes raw tables into it.
package bowtie

// Canonical field names of a bowtie record.
const (
	FieldActivity             = "Activity"
	FieldPressure             = "Pressure"
	FieldPreventiveControl    = "Preventive_Control"
	FieldEscalationFactor     = "Escalation_Factor"
	FieldCentralProblem       = "Central_Problem"
	FieldProtectiveMitigation = "Protective_Mitigation"
	FieldConsequence          = "Consequence"
	FieldLikelihood           = "Likelihood"
	FieldSeverity             = "Severity"
)

// RequiredFields lists the seven mandatory string fields in chain order.
var RequiredFields = []string{
	FieldActivity,
	FieldPressure,
	FieldPreventiveControl,
	FieldEscalationFactor,
	FieldCentralProblem,
	FieldProtectiveMitigation,
	FieldConsequence,
}

// fieldAliases are tried, in order, after the canonical name.
var fieldAliases = map[string][]string{
	FieldActivity:             {"Activities", "Activity_Name", "Source_Activity"},
	FieldPressure:             {"Pressures", "Threat", "Hazard", "Driver"},
	FieldPreventiveControl:    {"Control", "Preventive_Controls", "Barrier", "Prevention"},
	FieldEscalationFactor:     {"Escalation", "Escalation_Factors", "Degradation_Factor"},
	FieldCentralProblem:       {"Problem", "Top_Event", "Hazard_Event", "Central_Event"},
	FieldProtectiveMitigation: {"Mitigation", "Protective_Mitigations", "Recovery_Control"},
	FieldConsequence:          {"Consequences", "Outcome", "Impact"},
	FieldLikelihood:           {"Threat_Likelihood", "Probability", "Frequency"},
	FieldSeverity:             {"Consequence_Severity", "Impact_Severity", "Impact_Score"},
}

// RawRecord is one row of an input table keyed by whatever column names
// the source used.
type RawRecord map[string]string

// RiskRecord is one normalized causal chain
// Activity → Pressure → Control → Escalation → Problem → Mitigation → Consequence.
// Likelihood and Severity are optional 1–5 ratings; nil means not supplied.
type RiskRecord struct {
	Activity             string   `json:"activity" yaml:"activity" validate:"required"`
	Pressure             string   `json:"pressure" yaml:"pressure" validate:"required"`
	PreventiveControl    string   `json:"preventive_control" yaml:"preventive_control" validate:"required"`
	EscalationFactor     string   `json:"escalation_factor" yaml:"escalation_factor" validate:"required"`
	CentralProblem       string   `json:"central_problem" yaml:"central_problem" validate:"required"`
	ProtectiveMitigation string   `json:"protective_mitigation" yaml:"protective_mitigation" validate:"required"`
	Consequence          string   `json:"consequence" yaml:"consequence" validate:"required"`
	Likelihood           *float64 `json:"likelihood,omitempty" yaml:"likelihood,omitempty"`
	Severity             *float64 `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// Chain returns the seven labels in chain order.
func (r RiskRecord) Chain() [7]string {
	return [7]string{
		r.Activity,
		r.Pressure,
		r.PreventiveControl,
		r.EscalationFactor,
		r.CentralProblem,
		r.ProtectiveMitigation,
		r.Consequence,
	}
}

// Clone returns a copy of r that shares no rating pointers with it.
func (r RiskRecord) Clone() RiskRecord {
	if r.Likelihood != nil {
		r.Likelihood = Rating(*r.Likelihood)
	}
	if r.Severity != nil {
		r.Severity = Rating(*r.Severity)
	}
	return r
}

// Rating returns a pointer to v, for building records in code.
func Rating(v float64) *float64 {
	return &v
}
