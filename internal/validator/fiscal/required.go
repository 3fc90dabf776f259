package fiscal

import (
	"fmt"

	"fiscalio/internal/domain"
	"fiscalio/internal/validator"
)

// requiredFieldRule checks that a required identity or commercial field is
// populated in the final record.
type requiredFieldRule struct {
	ruleKey string
	field   string
	extract func(*domain.FiscalRecord) bool
}

func (r *requiredFieldRule) RuleKey() string { return r.ruleKey }

func (r *requiredFieldRule) Validate(record *domain.FiscalRecord) []validator.Result {
	present := r.extract(record)
	msg := fmt.Sprintf("%s is present", r.field)
	if !present {
		msg = fmt.Sprintf("%s is missing", r.field)
	}
	return []validator.Result{{
		Passed:   present,
		Field:    r.field,
		Message:  msg,
		Severity: validator.SeverityError,
	}}
}

func requiredRules() []validator.Rule {
	return []validator.Rule{
		&requiredFieldRule{
			ruleKey: "required_document_number",
			field:   "document_number",
			extract: func(rec *domain.FiscalRecord) bool { return rec.DocumentNumber != "" },
		},
		&requiredFieldRule{
			ruleKey: "required_issuer_id",
			field:   "issuer_id",
			extract: func(rec *domain.FiscalRecord) bool { return rec.IssuerID != "" },
		},
		&requiredFieldRule{
			ruleKey: "required_issue_date",
			field:   "issue_date",
			extract: func(rec *domain.FiscalRecord) bool { return rec.IssueDate != "" },
		},
		&requiredFieldRule{
			ruleKey: "required_total_value",
			field:   "total_value",
			extract: func(rec *domain.FiscalRecord) bool { return rec.TotalValue != nil },
		},
		&requiredFieldRule{
			ruleKey: "required_line_items",
			field:   "items",
			extract: func(rec *domain.FiscalRecord) bool { return len(rec.Items) > 0 },
		},
	}
}
