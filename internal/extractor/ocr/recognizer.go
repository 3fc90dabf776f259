package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"fiscalio/internal/config"
	"fiscalio/internal/domain"
	"fiscalio/internal/extractor"
)

// Recognizer turns a rendered page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// TesseractRecognizer shells out to the tesseract binary, configured for
// Portuguese with a page-segmentation mode tuned for dense form layouts.
type TesseractRecognizer struct {
	bin  string
	lang string
	psm  int
}

// NewTesseractRecognizer creates a recognizer from the OCR config.
func NewTesseractRecognizer(cfg config.OCRConfig) *TesseractRecognizer {
	return &TesseractRecognizer{bin: cfg.TesseractBin, lang: cfg.Lang, psm: cfg.PSM}
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	dir, err := os.MkdirTemp("", "fiscalio-ocr-*")
	if err != nil {
		return "", &domain.OCRFailureError{Stage: "recognize", Err: err}
	}
	defer func() { _ = os.RemoveAll(dir) }()

	src := filepath.Join(dir, "page.png")
	if err := os.WriteFile(src, png, 0o600); err != nil {
		return "", &domain.OCRFailureError{Stage: "recognize", Err: err}
	}

	cmd := exec.CommandContext(ctx, t.bin,
		src, "stdout",
		"--oem", "3",
		"--psm", fmt.Sprint(t.psm),
		"-l", t.lang,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", &extractor.TransientError{Op: "recognize", Err: ctx.Err()}
		}
		return "", &domain.OCRFailureError{Stage: "recognize", Err: fmt.Errorf("%s: %v: %s", t.bin, err, stderr.String())}
	}

	return stdout.String(), nil
}
