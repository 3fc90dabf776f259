package validator

import "fiscalio/internal/domain"

// Severity ranks a rule outcome. Error-severity failures aggregate into a
// ValidationError; warning-severity failures only annotate the response.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Result is the outcome of one rule against one field.
type Result struct {
	Passed   bool
	Field    string
	Message  string
	Severity Severity
}

// Rule is a single validation rule over a normalized record.
type Rule interface {
	RuleKey() string
	Validate(record *domain.FiscalRecord) []Result
}
