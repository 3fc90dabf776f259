package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"fiscalio/internal/config"
	"fiscalio/internal/domain"
	"fiscalio/internal/extractor"
)

// PdftoppmRasterizer shells out to poppler's pdftoppm to render PDF pages
// as PNG images. Rendering at a fixed DPI keeps OCR behavior deterministic
// across environments.
type PdftoppmRasterizer struct {
	bin string
	dpi int
}

// NewPdftoppmRasterizer creates a rasterizer from the OCR config.
func NewPdftoppmRasterizer(cfg config.OCRConfig) *PdftoppmRasterizer {
	return &PdftoppmRasterizer{bin: cfg.PdftoppmBin, dpi: cfg.DPI}
}

// RenderPage renders a single 1-based page as PNG bytes.
func (r *PdftoppmRasterizer) RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	pages, err := r.render(ctx, pdf, page, page)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, &domain.OCRFailureError{Stage: "rasterize", Err: fmt.Errorf("page %d not rendered", page)}
	}
	return pages[0], nil
}

// RenderPages renders pages first..last (1-based, inclusive) as PNG bytes,
// stopping at the end of the document.
func (r *PdftoppmRasterizer) RenderPages(ctx context.Context, pdf []byte, first, last int) ([][]byte, error) {
	return r.render(ctx, pdf, first, last)
}

func (r *PdftoppmRasterizer) render(ctx context.Context, pdf []byte, first, last int) ([][]byte, error) {
	dir, err := os.MkdirTemp("", "fiscalio-raster-*")
	if err != nil {
		return nil, &domain.OCRFailureError{Stage: "rasterize", Err: err}
	}
	defer func() { _ = os.RemoveAll(dir) }()

	src := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(src, pdf, 0o600); err != nil {
		return nil, &domain.OCRFailureError{Stage: "rasterize", Err: err}
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, r.bin,
		"-png",
		"-r", fmt.Sprint(r.dpi),
		"-f", fmt.Sprint(first),
		"-l", fmt.Sprint(last),
		src, prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, &extractor.TransientError{Op: "rasterize", Err: ctx.Err()}
		}
		return nil, &domain.OCRFailureError{Stage: "rasterize", Err: fmt.Errorf("%s: %v: %s", r.bin, err, out)}
	}

	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, &domain.OCRFailureError{Stage: "rasterize", Err: err}
	}
	if len(matches) == 0 {
		return nil, &domain.OCRFailureError{Stage: "rasterize", Err: fmt.Errorf("no pages rendered")}
	}

	pages := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, &domain.OCRFailureError{Stage: "rasterize", Err: err}
		}
		pages = append(pages, data)
	}
	return pages, nil
}
