package fiscal

import (
	"fmt"
	"math"

	"fiscalio/internal/domain"
	"fiscalio/internal/validator"
)

// itemTotalTolerance absorbs per-line rounding when summing qty*unit.
const itemTotalTolerance = 0.05

// nonNegativeRule rejects negative monetary and quantity values anywhere in
// the record.
type nonNegativeRule struct{}

func (nonNegativeRule) RuleKey() string { return "numeric_non_negative" }

func (nonNegativeRule) Validate(record *domain.FiscalRecord) []validator.Result {
	var results []validator.Result
	fail := func(field string, v float64) {
		results = append(results, validator.Result{
			Field:    field,
			Message:  fmt.Sprintf("%s is negative: %.2f", field, v),
			Severity: validator.SeverityError,
		})
	}

	if record.TotalValue != nil && *record.TotalValue < 0 {
		fail("total_value", *record.TotalValue)
	}
	taxes := map[string]*float64{
		"taxes.icms_base":    record.Taxes.ICMSBase,
		"taxes.icms_value":   record.Taxes.ICMSValue,
		"taxes.pis_value":    record.Taxes.PISValue,
		"taxes.cofins_value": record.Taxes.COFINSValue,
		"taxes.iss_value":    record.Taxes.ISSValue,
	}
	for field, v := range taxes {
		if v != nil && *v < 0 {
			fail(field, *v)
		}
	}
	for i, item := range record.Items {
		if item.Quantity < 0 {
			fail(fmt.Sprintf("items[%d].quantity", i), item.Quantity)
		}
		if item.UnitValue < 0 {
			fail(fmt.Sprintf("items[%d].unit_value", i), item.UnitValue)
		}
	}

	if len(results) == 0 {
		return []validator.Result{{Passed: true, Field: "numerics", Message: "all numeric fields are non-negative"}}
	}
	return results
}

// totalCrossCheckRule compares total_value against the sum of qty*unit over
// all items. Discounts, freight and partial item tables legitimately break
// the identity, so a mismatch only warns.
type totalCrossCheckRule struct{}

func (totalCrossCheckRule) RuleKey() string { return "math_total_cross_check" }

func (totalCrossCheckRule) Validate(record *domain.FiscalRecord) []validator.Result {
	if record.TotalValue == nil || len(record.Items) == 0 {
		return []validator.Result{{Passed: true, Field: "total_value"}}
	}

	var sum float64
	for _, item := range record.Items {
		if item.UnitValue == 0 {
			// Unpriced items make the identity meaningless.
			return []validator.Result{{Passed: true, Field: "total_value"}}
		}
		sum += item.Quantity * item.UnitValue
	}

	if math.Abs(sum-*record.TotalValue) <= itemTotalTolerance {
		return []validator.Result{{Passed: true, Field: "total_value"}}
	}
	return []validator.Result{{
		Field:    "total_value",
		Message:  fmt.Sprintf("total_value %.2f differs from item sum %.2f", *record.TotalValue, sum),
		Severity: validator.SeverityWarning,
	}}
}
