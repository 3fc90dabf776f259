package fiscal

import (
	"fmt"
	"regexp"
	"time"

	"fiscalio/internal/domain"
	"fiscalio/internal/validator"
)

var (
	fiscalKeyPattern = regexp.MustCompile(`^\d{44}$`)
	cnpjPattern      = regexp.MustCompile(`^\d{14}$`)
	cpfPattern       = regexp.MustCompile(`^\d{11}$`)
	cfopPattern      = regexp.MustCompile(`^\d{4}$`)
	ncmPattern       = regexp.MustCompile(`^\d{8}$`)
	cstPattern       = regexp.MustCompile(`^\d{2,3}$`)
)

// formatRule validates the shape of a field when it is present. Absent
// optional fields pass: presence is the required rules' concern.
type formatRule struct {
	ruleKey string
	field   string
	check   func(*domain.FiscalRecord) (value string, ok bool)
}

func (r *formatRule) RuleKey() string { return r.ruleKey }

func (r *formatRule) Validate(record *domain.FiscalRecord) []validator.Result {
	value, ok := r.check(record)
	msg := fmt.Sprintf("%s is well formed", r.field)
	if !ok {
		msg = fmt.Sprintf("%s has invalid format: %q", r.field, value)
	}
	return []validator.Result{{
		Passed:   ok,
		Field:    r.field,
		Message:  msg,
		Severity: validator.SeverityError,
	}}
}

func patternCheck(value string, re *regexp.Regexp) (string, bool) {
	if value == "" {
		return value, true
	}
	return value, re.MatchString(value)
}

func formatRules() []validator.Rule {
	return []validator.Rule{
		&formatRule{
			ruleKey: "format_fiscal_key",
			field:   "fiscal_key",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				return patternCheck(rec.FiscalKey, fiscalKeyPattern)
			},
		},
		&formatRule{
			ruleKey: "format_issuer_id",
			field:   "issuer_id",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				return patternCheck(rec.IssuerID, cnpjPattern)
			},
		},
		&formatRule{
			ruleKey: "format_recipient_id",
			field:   "recipient_id",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				if rec.RecipientID == "" {
					return "", true
				}
				// Recipient may be a CPF (11 digits) instead of a CNPJ.
				if len(rec.RecipientID) == 11 {
					return patternCheck(rec.RecipientID, cpfPattern)
				}
				return patternCheck(rec.RecipientID, cnpjPattern)
			},
		},
		&formatRule{
			ruleKey: "format_cfop",
			field:   "cfop",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				return patternCheck(rec.CFOP, cfopPattern)
			},
		},
		&formatRule{
			ruleKey: "format_ncm",
			field:   "ncm",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				return patternCheck(rec.NCM, ncmPattern)
			},
		},
		&formatRule{
			ruleKey: "format_cst",
			field:   "cst",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				return patternCheck(rec.CST, cstPattern)
			},
		},
		&formatRule{
			ruleKey: "format_issue_date",
			field:   "issue_date",
			check: func(rec *domain.FiscalRecord) (string, bool) {
				if rec.IssueDate == "" {
					return "", true
				}
				_, err := time.Parse("2006-01-02", rec.IssueDate)
				return rec.IssueDate, err == nil
			},
		},
	}
}
