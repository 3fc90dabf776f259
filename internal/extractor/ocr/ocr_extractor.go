package ocr

import (
	"context"
	"log"
	"strings"

	"fiscalio/internal/config"
	"fiscalio/internal/domain"
	"fiscalio/internal/port"
)

// PageRasterizer renders a page range of a PDF into PNG images.
type PageRasterizer interface {
	RenderPages(ctx context.Context, pdf []byte, first, last int) ([][]byte, error)
}

// Extractor runs the local OCR path for scanned PDFs: rasterize up to
// maxPages pages, recognize each one, and parse the concatenated text
// with the fixed pattern set.
type Extractor struct {
	raster    PageRasterizer
	recognize Recognizer
	maxPages  int
}

func NewExtractor(raster PageRasterizer, recognize Recognizer, cfg config.OCRConfig) *Extractor {
	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	return &Extractor{raster: raster, recognize: recognize, maxPages: maxPages}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.Attempt, error) {
	pages, err := e.raster.RenderPages(ctx, input.Payload, 1, e.maxPages)
	if err != nil {
		return nil, err
	}

	var texts []string
	for i, png := range pages {
		text, err := e.recognize.Recognize(ctx, png)
		if err != nil {
			// A page that fails mid-document still leaves the earlier
			// pages usable; only a first-page failure is fatal.
			if len(texts) == 0 {
				return nil, err
			}
			log.Printf("[OCR] page %d recognition failed, keeping %d page(s): %v", i+1, len(texts), err)
			break
		}
		texts = append(texts, text)
	}

	raw := strings.Join(texts, "\n")
	record := parseText(raw)
	return &port.Attempt{
		Record:    record,
		Source:    domain.SourceOCR,
		RawText:   raw,
		PageCount: len(texts),
	}, nil
}
