package extractor

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"fiscalio/internal/domain"
	"fiscalio/internal/port"
)

// Format checks applied during merge. A primary (OCR) value that fails its
// field's format check loses to a secondary (vision) value that passes it.
var (
	fiscalKeyRe = regexp.MustCompile(`^\d{44}$`)
	cnpjRe      = regexp.MustCompile(`^\d{14}$`)
	cfopRe      = regexp.MustCompile(`^\d{4}$`)
	ncmRe       = regexp.MustCompile(`^\d{8}$`)
	cstRe       = regexp.MustCompile(`^\d{2,3}$`)
	numberRe    = regexp.MustCompile(`^\d+$`)
)

// moneyTolerance is the absolute difference below which two monetary values
// are considered to agree (rounding noise, not disagreement).
const moneyTolerance = 0.01

// MergeAttempts reconciles a primary (OCR) and a secondary (vision) attempt
// field by field. Precedence per field: keep the primary value when it is
// non-null and format-valid; otherwise take the secondary; when both are
// non-null and materially differ, the attempt with the higher completeness
// score wins (ties go to the primary) and a reconciliation note is emitted
// rather than an error — the document is still returned with the
// disagreement surfaced for a human to judge.
func MergeAttempts(primary, secondary *port.Attempt) (*domain.FiscalRecord, []string) {
	merged := *primary.Record
	other := secondary.Record
	secondaryWins := secondary.Confidence > primary.Confidence

	var notes []string

	mergeString(&merged.DocumentNumber, other.DocumentNumber, numberRe, "document_number", secondaryWins, &notes)
	mergeString(&merged.Series, other.Series, numberRe, "series", secondaryWins, &notes)
	mergeString(&merged.FiscalKey, other.FiscalKey, fiscalKeyRe, "fiscal_key", secondaryWins, &notes)
	mergeString(&merged.IssuerID, other.IssuerID, cnpjRe, "issuer_id", secondaryWins, &notes)
	mergeString(&merged.RecipientID, other.RecipientID, cnpjRe, "recipient_id", secondaryWins, &notes)
	mergeString(&merged.CFOP, other.CFOP, cfopRe, "cfop", secondaryWins, &notes)
	mergeString(&merged.NCM, other.NCM, ncmRe, "ncm", secondaryWins, &notes)
	mergeString(&merged.CST, other.CST, cstRe, "cst", secondaryWins, &notes)
	mergeDate(&merged.IssueDate, other.IssueDate, secondaryWins, &notes)

	mergeFloat(&merged.TotalValue, other.TotalValue, "total_value", secondaryWins, &notes)
	mergeFloat(&merged.Taxes.ICMSBase, other.Taxes.ICMSBase, "taxes.icms_base", secondaryWins, &notes)
	mergeFloat(&merged.Taxes.ICMSValue, other.Taxes.ICMSValue, "taxes.icms_value", secondaryWins, &notes)
	mergeFloat(&merged.Taxes.PISValue, other.Taxes.PISValue, "taxes.pis_value", secondaryWins, &notes)
	mergeFloat(&merged.Taxes.COFINSValue, other.Taxes.COFINSValue, "taxes.cofins_value", secondaryWins, &notes)
	mergeFloat(&merged.Taxes.ISSValue, other.Taxes.ISSValue, "taxes.iss_value", secondaryWins, &notes)

	merged.Items = mergeItems(primary.Record.Items, other.Items, &notes)

	if merged.PaymentMethod == "" {
		merged.PaymentMethod = other.PaymentMethod
	}
	if merged.Currency == "" {
		merged.Currency = other.Currency
	}

	return &merged, notes
}

// mergeString implements the merge precedence for scalar string fields.
// An empty string counts as null.
func mergeString(pVal *string, sVal string, formatRe *regexp.Regexp, field string, secondaryWins bool, notes *[]string) {
	if *pVal == sVal {
		return
	}
	if *pVal == "" && sVal != "" {
		*pVal = sVal
		return
	}
	if sVal == "" {
		return
	}

	// Disagreement: a format-valid value beats an invalid one.
	if formatRe != nil {
		pMatch := formatRe.MatchString(*pVal)
		sMatch := formatRe.MatchString(sVal)
		if sMatch && !pMatch {
			*notes = append(*notes, fmt.Sprintf("reconciliation: %s %q failed format check, replaced by vision value %q", field, *pVal, sVal))
			*pVal = sVal
			return
		}
		if pMatch && !sMatch {
			*notes = append(*notes, fmt.Sprintf("reconciliation: %s vision value %q failed format check, kept ocr value %q", field, sVal, *pVal))
			return
		}
	}

	if secondaryWins {
		*notes = append(*notes, fmt.Sprintf("reconciliation: %s disagrees (ocr=%q vision=%q), took vision (higher completeness)", field, *pVal, sVal))
		*pVal = sVal
		return
	}
	*notes = append(*notes, fmt.Sprintf("reconciliation: %s disagrees (ocr=%q vision=%q), kept ocr", field, *pVal, sVal))
}

// mergeFloat implements the merge precedence for nullable monetary fields.
func mergeFloat(pVal **float64, sVal *float64, field string, secondaryWins bool, notes *[]string) {
	if sVal == nil {
		return
	}
	if *pVal == nil {
		v := *sVal
		*pVal = &v
		return
	}
	if math.Abs(**pVal-*sVal) <= moneyTolerance {
		return
	}

	if secondaryWins {
		*notes = append(*notes, fmt.Sprintf("reconciliation: %s disagrees (ocr=%.2f vision=%.2f), took vision (higher completeness)", field, **pVal, *sVal))
		v := *sVal
		*pVal = &v
		return
	}
	*notes = append(*notes, fmt.Sprintf("reconciliation: %s disagrees (ocr=%.2f vision=%.2f), kept ocr", field, **pVal, *sVal))
}

// mergeDate keeps whichever side parses as a calendar date, preferring the
// primary when both do.
func mergeDate(pVal *string, sVal string, secondaryWins bool, notes *[]string) {
	if *pVal == sVal || sVal == "" {
		return
	}
	if *pVal == "" {
		*pVal = sVal
		return
	}

	pOK := parseableDate(*pVal)
	sOK := parseableDate(sVal)
	if sOK && !pOK {
		*notes = append(*notes, fmt.Sprintf("reconciliation: issue_date %q is not a valid date, replaced by vision value %q", *pVal, sVal))
		*pVal = sVal
		return
	}
	if pOK && !sOK {
		return
	}
	if secondaryWins {
		*notes = append(*notes, fmt.Sprintf("reconciliation: issue_date disagrees (ocr=%q vision=%q), took vision (higher completeness)", *pVal, sVal))
		*pVal = sVal
		return
	}
	*notes = append(*notes, fmt.Sprintf("reconciliation: issue_date disagrees (ocr=%q vision=%q), kept ocr", *pVal, sVal))
}

// mergeItems prefers the side with more real line items. The OCR placeholder
// item never beats an actual item list.
func mergeItems(primary, secondary []domain.LineItem, notes *[]string) []domain.LineItem {
	pReal := realItemCount(primary)
	sReal := realItemCount(secondary)

	if sReal > pReal {
		if pReal > 0 {
			*notes = append(*notes, fmt.Sprintf("reconciliation: vision found %d line items vs %d from ocr, took vision", sReal, pReal))
		}
		return secondary
	}
	return primary
}

func realItemCount(items []domain.LineItem) int {
	n := 0
	for _, item := range items {
		if item.Description != "" && item.Description != GenericOCRItemDescription {
			n++
		}
	}
	return n
}

func parseableDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
