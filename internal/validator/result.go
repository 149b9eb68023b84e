package validator

// Status is the outcome of validating a reply.
type Status string

// Validation outcomes.
const (
	StatusValid              Status = "valid"
	StatusLowConfidence      Status = "low_confidence"
	StatusHallucination      Status = "hallucination"
	StatusPartiallyValid     Status = "partially_valid"
	StatusNeedsClarification Status = "needs_clarification"
)

// Severity grades a validation issue.
type Severity string

// Issue severities.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Issue is one problem found in a reply.
type Issue struct {
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Result is exactly one validation outcome. Response is set for valid,
// low confidence and partially valid replies; Reason for low confidence and
// hallucination; Questions for clarification requests.
type Result struct {
	Status    Status   `json:"status"`
	Response  string   `json:"response,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Issues    []Issue  `json:"issues,omitempty"`
	Questions []string `json:"questions,omitempty"`
}

// Accepted reports whether the reply may be shown to the user.
func (r Result) Accepted() bool {
	return r.Status == StatusValid || r.Status == StatusPartiallyValid
}
