package extractor

import "fiscalio/internal/domain"

// GenericOCRItemDescription is the placeholder the OCR extractor emits when
// the item table could not be read. A record whose only item is this
// placeholder does not count as having a usable line item.
const GenericOCRItemDescription = "unidentified item"

// The critical field set scored for completeness. Seven members: six scalar
// fields plus the presence of at least one well-formed line item. The
// threshold applies per document, not per page, for multi-page PDFs.
const criticalFieldCount = 7

// CompletenessScore returns the fraction of the critical field set that is
// populated in a record, in [0, 1]. It is a pure function, decoupled from
// the I/O that produced the record, and monotonic in the number of
// populated critical fields.
func CompletenessScore(record *domain.FiscalRecord) float64 {
	if record == nil {
		return 0
	}

	populated := 0
	if record.DocumentNumber != "" {
		populated++
	}
	if record.FiscalKey != "" {
		populated++
	}
	if record.TotalValue != nil && *record.TotalValue > 0 {
		populated++
	}
	if record.IssueDate != "" {
		populated++
	}
	if record.CFOP != "" {
		populated++
	}
	if record.IssuerID != "" {
		populated++
	}
	if hasUsableItem(record.Items) {
		populated++
	}

	return float64(populated) / float64(criticalFieldCount)
}

// IsComplete applies the configured threshold: a score below it means more
// than the tolerated share of critical fields is missing and fallback
// corroboration is required.
func IsComplete(record *domain.FiscalRecord, threshold float64) bool {
	return CompletenessScore(record) >= threshold
}

func hasUsableItem(items []domain.LineItem) bool {
	for _, item := range items {
		if item.Description != "" && item.Description != GenericOCRItemDescription &&
			item.Quantity > 0 && item.UnitValue >= 0 {
			return true
		}
	}
	return false
}
