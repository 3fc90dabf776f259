package domain

// SourceFormat classifies a raw payload into one of the supported input
// kinds. Resolution happens exactly once, at the entry point.
type SourceFormat string

const (
	FormatXML   SourceFormat = "xml"
	FormatPDF   SourceFormat = "pdf"
	FormatImage SourceFormat = "image"
)

// ExtractionSource tags which extractor produced an attempt.
type ExtractionSource string

const (
	SourceXML    ExtractionSource = "xml"
	SourceOCR    ExtractionSource = "ocr"
	SourceVision ExtractionSource = "vision"
)

// Payment method values for FiscalRecord.PaymentMethod.
const (
	PaymentCash        = "cash"
	PaymentInstallment = "installment"
	PaymentOther       = "other"
)

// DocumentTypeNFe is the only document type the pipeline currently emits.
const DocumentTypeNFe = "nfe"

// DefaultCurrency is assumed when the document does not state one.
const DefaultCurrency = "BRL"

// AllowedContentTypes maps sniffed or declared MIME content types to the
// source format that handles them.
var AllowedContentTypes = map[string]SourceFormat{
	"application/xml": FormatXML,
	"text/xml":        FormatXML,
	"application/pdf": FormatPDF,
	"image/jpeg":      FormatImage,
	"image/png":       FormatImage,
	"image/webp":      FormatImage,
	"image/gif":       FormatImage,
}

// AllowedExtensions maps file extensions (without dot) to source formats,
// used when the declared content type is absent or generic.
var AllowedExtensions = map[string]SourceFormat{
	"xml":  FormatXML,
	"pdf":  FormatPDF,
	"jpg":  FormatImage,
	"jpeg": FormatImage,
	"png":  FormatImage,
	"webp": FormatImage,
	"gif":  FormatImage,
}
