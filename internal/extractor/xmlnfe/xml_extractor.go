// Package xmlnfe parses the fixed NF-e XML schema published at
// http://www.portalfiscal.inf.br/nfe. The format encodes every required
// field explicitly, so this extractor never needs fallback corroboration.
package xmlnfe

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"fiscalio/internal/domain"
	"fiscalio/internal/port"
)

// Extractor implements port.Extractor for NF-e XML payloads.
type Extractor struct{}

// NewExtractor creates the XML extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// infNFe mirrors the element paths the pipeline reads. The schema is
// namespaced but fixed, so local names are sufficient once the infNFe
// element is located.
type infNFe struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		NNF    string `xml:"nNF"`
		Serie  string `xml:"serie"`
		DhEmi  string `xml:"dhEmi"`
		DEmi   string `xml:"dEmi"` // pre-4.00 layout
		IndPag string `xml:"indPag"`
	} `xml:"ide"`
	Emit struct {
		CNPJ string `xml:"CNPJ"`
	} `xml:"emit"`
	Dest struct {
		CNPJ string `xml:"CNPJ"`
		CPF  string `xml:"CPF"`
	} `xml:"dest"`
	Det []struct {
		Prod struct {
			XProd  string `xml:"xProd"`
			QCom   string `xml:"qCom"`
			VUnCom string `xml:"vUnCom"`
			NCM    string `xml:"NCM"`
			CFOP   string `xml:"CFOP"`
		} `xml:"prod"`
		Imposto struct {
			ICMS struct {
				Variants []icmsVariant `xml:",any"`
			} `xml:"ICMS"`
		} `xml:"imposto"`
	} `xml:"det"`
	Total struct {
		ICMSTot struct {
			VBC     string `xml:"vBC"`
			VICMS   string `xml:"vICMS"`
			VPIS    string `xml:"vPIS"`
			VCOFINS string `xml:"vCOFINS"`
			VNF     string `xml:"vNF"`
		} `xml:"ICMSTot"`
		ISSQNtot struct {
			VISS string `xml:"vISS"`
		} `xml:"ISSQNtot"`
	} `xml:"total"`
	Pag struct {
		DetPag []struct {
			IndPag string `xml:"indPag"`
		} `xml:"detPag"`
	} `xml:"pag"`
}

// icmsVariant matches whichever ICMS00/ICMS10/... group the document uses.
type icmsVariant struct {
	CST   string `xml:"CST"`
	CSOSN string `xml:"CSOSN"`
}

// Extract parses the payload and populates every field of the normalized
// record directly from well-known element paths. A malformed document
// raises ParseError; there is no fallback for XML input.
func (e *Extractor) Extract(_ context.Context, input port.ExtractInput) (*port.Attempt, error) {
	inf, err := locateInfNFe(input.Payload)
	if err != nil {
		return nil, &domain.ParseError{Err: err}
	}

	record := &domain.FiscalRecord{
		DocumentType:   domain.DocumentTypeNFe,
		DocumentNumber: inf.Ide.NNF,
		Series:         inf.Ide.Serie,
		FiscalKey:      strings.TrimPrefix(inf.ID, "NFe"),
		IssuerID:       inf.Emit.CNPJ,
		RecipientID:    recipientID(inf),
		PaymentMethod:  paymentMethod(inf),
		Currency:       domain.DefaultCurrency,
		IssueDate:      issueDate(inf),
	}

	record.TotalValue = parseMoney(inf.Total.ICMSTot.VNF)
	record.Taxes = domain.Taxes{
		ICMSBase:    parseMoney(inf.Total.ICMSTot.VBC),
		ICMSValue:   parseMoney(inf.Total.ICMSTot.VICMS),
		PISValue:    parseMoney(inf.Total.ICMSTot.VPIS),
		COFINSValue: parseMoney(inf.Total.ICMSTot.VCOFINS),
		ISSValue:    parseMoney(inf.Total.ISSQNtot.VISS),
	}

	for _, det := range inf.Det {
		item := domain.LineItem{
			Description: det.Prod.XProd,
			Quantity:    parseQuantity(det.Prod.QCom),
			UnitValue:   parseUnitValue(det.Prod.VUnCom),
			CFOPItem:    det.Prod.CFOP,
			NCM:         det.Prod.NCM,
			CST:         itemCST(det.Imposto.ICMS.Variants),
		}
		record.Items = append(record.Items, item)
	}

	// Document-level commercial codes come from the first item, the same
	// convention the fiscal authority uses for single-operation documents.
	if len(record.Items) > 0 {
		record.CFOP = record.Items[0].CFOPItem
		record.NCM = record.Items[0].NCM
		record.CST = record.Items[0].CST
	}

	return &port.Attempt{Record: record, Source: domain.SourceXML, Confidence: 1.0}, nil
}

// locateInfNFe scans for the infNFe element so both bare <NFe> documents
// and <nfeProc> distribution envelopes parse with the same code.
func locateInfNFe(payload []byte) (*infNFe, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("infNFe element not found")
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "infNFe" {
			var inf infNFe
			if err := dec.DecodeElement(&inf, &start); err != nil {
				return nil, err
			}
			return &inf, nil
		}
	}
}

func recipientID(inf *infNFe) string {
	if inf.Dest.CNPJ != "" {
		return inf.Dest.CNPJ
	}
	return inf.Dest.CPF
}

// issueDate strips the timestamp from dhEmi ("2024-03-15T10:22:31-03:00").
func issueDate(inf *infNFe) string {
	raw := inf.Ide.DhEmi
	if raw == "" {
		raw = inf.Ide.DEmi
	}
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// paymentMethod maps the indPag indicator (0 = at sight, 1 = in
// installments) onto the normalized enum.
func paymentMethod(inf *infNFe) string {
	ind := inf.Ide.IndPag
	if ind == "" && len(inf.Pag.DetPag) > 0 {
		ind = inf.Pag.DetPag[0].IndPag
	}
	switch ind {
	case "", "0":
		return domain.PaymentCash
	case "1":
		return domain.PaymentInstallment
	default:
		return domain.PaymentOther
	}
}

func itemCST(variants []icmsVariant) string {
	for _, v := range variants {
		if v.CST != "" {
			return v.CST
		}
		if v.CSOSN != "" {
			return v.CSOSN
		}
	}
	return ""
}

// parseMoney parses a numeric text node as a decimal rounded to two
// fractional digits. An absent node maps to nil, not zero: a null tax
// means "not applicable to this operation" while zero means "applicable
// but waived".
func parseMoney(s string) *float64 {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	v := d.Round(2).InexactFloat64()
	return &v
}

// parseQuantity rounds to four fractional digits, the precision the NF-e
// schema allows for commercial quantities.
func parseQuantity(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.Round(4).InexactFloat64()
}

func parseUnitValue(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.Round(2).InexactFloat64()
}
