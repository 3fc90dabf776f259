package validator

import (
	"fiscalio/internal/domain"
)

// Engine runs an ordered rule list over a record. All rules always run:
// a failing rule never short-circuits the rest, so the caller sees every
// offending field at once.
type Engine struct {
	rules []Rule
}

func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Run validates the record. Warning-severity failures come back as
// human-readable strings; error-severity failures are aggregated into a
// single ValidationError listing every offending field.
func (e *Engine) Run(record *domain.FiscalRecord) ([]string, error) {
	var (
		warnings []string
		fields   []domain.FieldError
	)
	for _, rule := range e.rules {
		for _, res := range rule.Validate(record) {
			if res.Passed {
				continue
			}
			if res.Severity == SeverityWarning {
				warnings = append(warnings, res.Message)
				continue
			}
			fields = append(fields, domain.FieldError{Field: res.Field, Message: res.Message})
		}
	}
	if len(fields) > 0 {
		return warnings, &domain.ValidationError{Fields: fields}
	}
	return warnings, nil
}
