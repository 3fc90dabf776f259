package ocr

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fiscalio/internal/domain"
	"fiscalio/internal/extractor"
)

// The fixed ordered pattern set applied against recognized text, one
// matcher per field. Each matcher independently fails soft: a field it
// cannot locate stays null rather than aborting the extraction.
var (
	documentNumberRe = regexp.MustCompile(`(?i)(?:n[úu]mero|n[°º]|nf-e)\s*:?\s*(\d+)`)
	seriesRe         = regexp.MustCompile(`(?i)s[ée]rie\s*:?\s*(\d+)`)
	issueDateRe      = regexp.MustCompile(`(?i)(?:data\s+de\s+emiss[ãa]o|emiss[ãa]o|data)\s*:?\s*(\d{2}[/\-]\d{2}[/\-]\d{4})`)
	issuerRe         = regexp.MustCompile(`(?i)cnpj\s*:?\s*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)
	recipientRe      = regexp.MustCompile(`(?i)destinat[áa]rio[\s\S]*?cnpj\s*:?\s*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2})`)
	totalValueRe     = regexp.MustCompile(`(?i)(?:valor\s+total|total\s+geral|vl\.?\s*total)\s*:?\s*r?\$?\s*([\d.,]+)`)
	cfopRe           = regexp.MustCompile(`(?i)cfop\s*:?\s*(\d{4})`)
	ncmRe            = regexp.MustCompile(`(?i)ncm\s*:?\s*(\d{8})`)
	cstRe            = regexp.MustCompile(`(?i)cst\s*:?\s*(\d{2,3})`)
	fiscalKeyRe      = regexp.MustCompile(`(?i)(?:chave|chave\s+de\s+acesso|nfe)\s*:?\s*(\d{44})`)
	bareKeyRe        = regexp.MustCompile(`\b(\d{44})\b`)

	icmsRe   = regexp.MustCompile(`(?i)icms\s*:?\s*r?\$?\s*([\d.,]+)`)
	pisRe    = regexp.MustCompile(`(?i)pis\s*:?\s*r?\$?\s*([\d.,]+)`)
	cofinsRe = regexp.MustCompile(`(?i)cofins\s*:?\s*r?\$?\s*([\d.,]+)`)
	issRe    = regexp.MustCompile(`(?i)iss\s*:?\s*r?\$?\s*([\d.,]+)`)

	itemDescriptionRe = regexp.MustCompile(`(?i)descri[çc][ãa]o\s*:?\s*([^\n\r]+)`)
	itemQuantityRe    = regexp.MustCompile(`(?i)quantidade\s*:?\s*([\d.,]+)`)
	itemUnitValueRe   = regexp.MustCompile(`(?i)valor\s+unit[áa]rio\s*:?\s*r?\$?\s*([\d.,]+)`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// parseText applies the pattern set to recognized page text and builds a
// partial record. It never fails: unmatched fields stay null.
func parseText(text string) *domain.FiscalRecord {
	record := &domain.FiscalRecord{
		DocumentType:  domain.DocumentTypeNFe,
		Currency:      domain.DefaultCurrency,
		PaymentMethod: domain.PaymentCash,
	}

	record.DocumentNumber = firstGroup(documentNumberRe, text)
	record.Series = firstGroup(seriesRe, text)
	record.IssueDate = normalizeDate(firstGroup(issueDateRe, text))
	record.IssuerID = normalizeCNPJ(firstGroup(issuerRe, text))
	record.RecipientID = normalizeCNPJ(firstGroup(recipientRe, text))
	record.CFOP = firstGroup(cfopRe, text)
	record.NCM = firstGroup(ncmRe, text)
	record.CST = firstGroup(cstRe, text)

	record.FiscalKey = firstGroup(fiscalKeyRe, text)
	if record.FiscalKey == "" {
		record.FiscalKey = firstGroup(bareKeyRe, text)
	}

	record.TotalValue = matchAmount(totalValueRe, text)
	record.Taxes = domain.Taxes{
		ICMSValue:   matchAmount(icmsRe, text),
		PISValue:    matchAmount(pisRe, text),
		COFINSValue: matchAmount(cofinsRe, text),
		ISSValue:    matchAmount(issRe, text),
	}

	record.Items = parseItems(text, record)
	return record
}

// parseItems extracts whatever the item table yielded through OCR. Fiscal
// PDFs rarely OCR into clean rows, so a single best-effort item is built
// from the labeled description/quantity/unit-value fields; when nothing
// matches, a placeholder item records that the table was unreadable.
func parseItems(text string, record *domain.FiscalRecord) []domain.LineItem {
	desc := strings.TrimSpace(firstGroup(itemDescriptionRe, text))
	if desc == "" {
		return []domain.LineItem{{
			Description: extractor.GenericOCRItemDescription,
			Quantity:    1,
			CFOPItem:    record.CFOP,
			NCM:         record.NCM,
			CST:         record.CST,
		}}
	}

	item := domain.LineItem{
		Description: desc,
		Quantity:    1,
		CFOPItem:    record.CFOP,
		NCM:         record.NCM,
		CST:         record.CST,
	}
	if qty := matchAmount(itemQuantityRe, text); qty != nil && *qty > 0 {
		item.Quantity = *qty
	}
	if unit := matchAmount(itemUnitValueRe, text); unit != nil {
		item.UnitValue = *unit
	} else if record.TotalValue != nil && item.Quantity > 0 {
		item.UnitValue = *record.TotalValue / item.Quantity
	}
	return []domain.LineItem{item}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func matchAmount(re *regexp.Regexp, text string) *float64 {
	raw := firstGroup(re, text)
	if raw == "" {
		return nil
	}
	return parseBRLAmount(raw)
}

// parseBRLAmount parses a Brazilian-formatted monetary string ("3.000,00",
// "750,00", "1234.56") into a value rounded to two fractional digits.
// Returns nil when the text is not a number.
func parseBRLAmount(raw string) *float64 {
	clean := strings.NewReplacer("R$", "", " ", "", "\t", "").Replace(strings.TrimSpace(raw))
	if clean == "" {
		return nil
	}

	hasDot := strings.Contains(clean, ".")
	hasComma := strings.Contains(clean, ",")
	switch {
	case hasDot && hasComma:
		// 3.000,00 -> 3000.00
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case hasComma:
		// 750,00 -> 750.00
		clean = strings.Replace(clean, ",", ".", 1)
	case strings.Count(clean, ".") == 1:
		// A lone dot is decimal when followed by at most two digits,
		// otherwise a thousands separator (3.000 -> 3000).
		if frac := clean[strings.IndexByte(clean, '.')+1:]; len(frac) > 2 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	case hasDot:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return nil
	}
	v := d.Round(2).InexactFloat64()
	return &v
}

func normalizeCNPJ(raw string) string {
	return nonDigitRe.ReplaceAllString(raw, "")
}

// normalizeDate converts DD/MM/YYYY (or DD-MM-YYYY) to YYYY-MM-DD.
func normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return raw
	}
	if len(parts[0]) == 4 {
		return parts[0] + "-" + parts[1] + "-" + parts[2]
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
