package domain

// FiscalRecord is the normalized representation of a Brazilian electronic
// fiscal document (NF-e), regardless of the input format it was extracted
// from. String fields use "" for "not extracted"; nullable monetary fields
// use nil pointers because a null tax means "not applicable to this
// operation" while zero means "applicable but waived".
type FiscalRecord struct {
	DocumentType   string     `json:"document_type"`
	DocumentNumber string     `json:"document_number"`
	Series         string     `json:"series"`
	FiscalKey      string     `json:"fiscal_key"`
	IssuerID       string     `json:"issuer_id"`
	RecipientID    string     `json:"recipient_id"`
	CFOP           string     `json:"cfop"`
	NCM            string     `json:"ncm"`
	CST            string     `json:"cst"`
	PaymentMethod  string     `json:"payment_method"`
	TotalValue     *float64   `json:"total_value"`
	Currency       string     `json:"currency"`
	IssueDate      string     `json:"issue_date"`
	Taxes          Taxes      `json:"taxes"`
	Items          []LineItem `json:"items"`
}

// Taxes holds the document-level tax amounts of an NF-e.
type Taxes struct {
	ICMSBase    *float64 `json:"icms_base"`
	ICMSValue   *float64 `json:"icms_value"`
	PISValue    *float64 `json:"pis_value"`
	COFINSValue *float64 `json:"cofins_value"`
	ISSValue    *float64 `json:"iss_value"`
}

// LineItem is a single product or service line on the document.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitValue   float64 `json:"unit_value"`
	CFOPItem    string  `json:"cfop_item"`
	NCM         string  `json:"ncm"`
	CST         string  `json:"cst"`
}

// ProcessResult is what the pipeline hands back to the HTTP boundary for a
// single document request.
type ProcessResult struct {
	Record         *FiscalRecord
	Warnings       []string
	Provenance     string  // which extractor(s) produced the record
	ProcessingTime float64 // seconds
}

// Classification is the output of the downstream accounting-classification
// collaborator. The pipeline treats it as opaque and never depends on it.
type Classification struct {
	AccountCode string `json:"account_code"`
	Category    string `json:"category"`
	Rationale   string `json:"rationale"`
}
