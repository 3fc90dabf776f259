// Package fiscal holds the built-in validation rules for normalized NF-e
// records: required identity/commercial fields, field formats, and numeric
// sanity checks.
package fiscal

import "fiscalio/internal/validator"

// DefaultRules returns the rule set the service runs over every record,
// in evaluation order.
func DefaultRules() []validator.Rule {
	rules := requiredRules()
	rules = append(rules, formatRules()...)
	rules = append(rules, nonNegativeRule{}, totalCrossCheckRule{})
	return rules
}
