package port

import (
	"context"

	"fiscalio/internal/domain"
)

// ExtractInput carries the data needed for one extraction pass.
type ExtractInput struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// Attempt is the intermediate result of a single extractor run: a partial
// record plus diagnostics. It lives only for the duration of one request
// and is owned by the coordinator until the merge step discards it.
type Attempt struct {
	Record     *domain.FiscalRecord
	Source     domain.ExtractionSource
	Confidence float64 // fraction of critical fields populated; 1.0 for XML
	RawText    string  // recognized text, OCR only
	PageCount  int     // rasterized pages, OCR only
}

// Extractor produces a partial fiscal record from a raw payload.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (*Attempt, error)
}

// Rasterizer renders a single PDF page as a PNG image. The fallback path
// uses it to re-render the page the OCR pass saw before handing it to the
// vision extractor.
type Rasterizer interface {
	RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error)
}
