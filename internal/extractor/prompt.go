package extractor

// BuildNFePrompt returns the extraction prompt for Brazilian electronic
// fiscal invoices (NF-e). The schema mirrors the normalized record field
// for field so the reply can be decoded directly.
func BuildNFePrompt() string {
	return `You are a fiscal document data extraction assistant. Analyze the provided image of a Brazilian Nota Fiscal Eletrônica (NF-e) and extract its data into the following JSON structure, computed ONLY from content visible in the document.

IMPORTANT INSTRUCTIONS:
- Return ONLY valid JSON with no markdown formatting, no code fences, no explanation — just the raw JSON object.
- Any field you cannot read from the document must be null. Never guess, never use 0 or "" as a stand-in for an unknown value.
- Tax identification numbers (CNPJ) must contain digits only: strip dots, slashes, and hyphens.
- Normalize dates to YYYY-MM-DD.
- Monetary amounts and quantities must be JSON numbers with "." as the decimal separator (convert Brazilian "3.000,00" to 3000.00).
- The fiscal access key ("chave de acesso") is exactly 44 digits.
- Extract EVERY product or service line into "items"; do not skip, summarize, or merge lines.

The JSON object must follow this schema:
{
  "document_number": "invoice number",
  "series": "invoice series",
  "fiscal_key": "44-digit access key",
  "issue_date": "YYYY-MM-DD",
  "issuer_id": "issuer CNPJ, digits only",
  "recipient_id": "recipient CNPJ, digits only",
  "cfop": "4-digit CFOP code",
  "ncm": "8-digit NCM code",
  "cst": "2-digit CST code",
  "payment_method": "cash" | "installment" | "other",
  "total_value": 0,
  "currency": "BRL",
  "taxes": {
    "icms_base": 0,
    "icms_value": 0,
    "pis_value": 0,
    "cofins_value": 0,
    "iss_value": null
  },
  "items": [
    {
      "description": "",
      "quantity": 0,
      "unit_value": 0,
      "cfop_item": "",
      "ncm": "",
      "cst": ""
    }
  ]
}`
}
