package extractor

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/semaphore"

	"fiscalio/internal/config"
	"fiscalio/internal/domain"
	"fiscalio/internal/port"
)

// Coordinator routes a classified payload through the format-appropriate
// primary extractor, scores the attempt, and runs vision corroboration when
// the primary is incomplete. It owns every ExtractionAttempt for the
// duration of one request and discards them after the merge.
//
// States: Primary -> Evaluating -> (Done | Fallback) -> Merging -> Done.
type Coordinator struct {
	xml    port.Extractor
	ocr    port.Extractor
	vision port.Extractor
	raster port.Rasterizer

	threshold float64
	retry     RetryPolicy

	// limiter caps concurrent external-service calls (OCR, vision,
	// rasterization). Acquired immediately before each call, released on
	// every exit path, never held across unrelated work.
	limiter *semaphore.Weighted
}

// Outcome is the coordinator's result for one request: the winning attempt
// plus the reconciliation and degradation warnings gathered along the way.
type Outcome struct {
	Record     *domain.FiscalRecord
	Provenance string
	Warnings   []string
}

// NewCoordinator wires the three extractors under a shared pipeline config.
func NewCoordinator(xml, ocr, vision port.Extractor, raster port.Rasterizer, cfg config.PipelineConfig) *Coordinator {
	return &Coordinator{
		xml:       xml,
		ocr:       ocr,
		vision:    vision,
		raster:    raster,
		threshold: cfg.CompletenessThreshold,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		limiter: semaphore.NewWeighted(cfg.MaxConcurrentExternal),
	}
}

// Process runs one document through the state machine. Fallback strictly
// follows completeness evaluation of the primary attempt: vision is never
// invoked speculatively in parallel with OCR.
func (c *Coordinator) Process(ctx context.Context, format domain.SourceFormat, input port.ExtractInput) (*Outcome, error) {
	switch format {
	case domain.FormatXML:
		return c.processXML(ctx, input)
	case domain.FormatPDF:
		return c.processPDF(ctx, input)
	case domain.FormatImage:
		return c.processImage(ctx, input)
	default:
		return nil, &domain.UnsupportedFormatError{ContentType: string(format)}
	}
}

// processXML needs no fallback: the source format encodes every required
// field explicitly, so a successful parse is definitionally complete.
func (c *Coordinator) processXML(ctx context.Context, input port.ExtractInput) (*Outcome, error) {
	attempt, err := c.xml.Extract(ctx, input)
	if err != nil {
		return nil, err
	}
	attempt.Confidence = 1.0
	return &Outcome{Record: attempt.Record, Provenance: string(domain.SourceXML)}, nil
}

func (c *Coordinator) processPDF(ctx context.Context, input port.ExtractInput) (*Outcome, error) {
	primary, err := c.extractGuarded(ctx, "ocr", c.ocr, input)
	if err != nil {
		// OCR failed structurally even after retries; vision over the
		// rendered first page is the last usable path for this document.
		log.Printf("coordinator: ocr extraction failed (%v), falling back to vision", err)
		fallback, fbErr := c.visionOverFirstPage(ctx, input)
		if fbErr != nil {
			return nil, fmt.Errorf("ocr failed and vision fallback unavailable: %w", err)
		}
		fallback.Confidence = CompletenessScore(fallback.Record)
		return &Outcome{Record: fallback.Record, Provenance: string(domain.SourceVision)}, nil
	}

	// Evaluating
	primary.Confidence = CompletenessScore(primary.Record)
	if primary.Confidence >= c.threshold {
		return &Outcome{Record: primary.Record, Provenance: string(domain.SourceOCR)}, nil
	}

	// Fallback: re-render the same page as an image and corroborate with
	// vision. Exhausting retries here degrades gracefully — a partial
	// primary result is still more useful to the caller than none.
	log.Printf("coordinator: ocr completeness %.3f below threshold %.2f, invoking vision corroboration", primary.Confidence, c.threshold)
	secondary, err := c.visionOverFirstPage(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("coordinator: vision corroboration failed (%v), returning uncorroborated ocr attempt", err)
		return &Outcome{
			Record:     primary.Record,
			Provenance: string(domain.SourceOCR),
			Warnings:   []string{"uncorroborated: vision fallback failed, result based on low-confidence OCR only"},
		}, nil
	}
	secondary.Confidence = CompletenessScore(secondary.Record)

	// Merging
	merged, notes := MergeAttempts(primary, secondary)
	return &Outcome{
		Record:     merged,
		Provenance: string(domain.SourceOCR) + "+" + string(domain.SourceVision),
		Warnings:   notes,
	}, nil
}

// processImage has no cheaper primary: vision is the only extractor that
// reads photographed documents.
func (c *Coordinator) processImage(ctx context.Context, input port.ExtractInput) (*Outcome, error) {
	attempt, err := c.extractGuarded(ctx, "vision", c.vision, input)
	if err != nil {
		return nil, err
	}
	attempt.Confidence = CompletenessScore(attempt.Record)
	return &Outcome{Record: attempt.Record, Provenance: string(domain.SourceVision)}, nil
}

// visionOverFirstPage renders page 1 of the PDF and runs the vision
// extractor on the resulting image. When rendering itself fails (corrupt
// page tree, pdftoppm missing) the original PDF is sent to the model
// directly instead of giving up.
func (c *Coordinator) visionOverFirstPage(ctx context.Context, input port.ExtractInput) (*port.Attempt, error) {
	if err := c.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	page, err := c.raster.RenderPage(ctx, input.Payload, 1)
	c.limiter.Release(1)
	if err != nil {
		log.Printf("coordinator: page render failed (%v), sending original pdf to vision", err)
		return c.extractGuarded(ctx, "vision", c.vision, port.ExtractInput{
			Payload:     input.Payload,
			ContentType: "application/pdf",
			Filename:    input.Filename,
		})
	}

	return c.extractGuarded(ctx, "vision", c.vision, port.ExtractInput{
		Payload:     page,
		ContentType: "image/png",
		Filename:    input.Filename,
	})
}

// extractGuarded runs one extractor under the retry policy, with each
// individual call holding a limiter permit. The permit is acquired
// immediately before and released immediately after the external call, so
// it is never held across a backoff sleep.
func (c *Coordinator) extractGuarded(ctx context.Context, op string, ex port.Extractor, input port.ExtractInput) (*port.Attempt, error) {
	return c.retry.Extract(ctx, op, &guardedExtractor{ex: ex, limiter: c.limiter}, input)
}

// guardedExtractor wraps an extractor so every call takes a limiter permit
// for exactly the duration of that call, released on all exit paths.
type guardedExtractor struct {
	ex      port.Extractor
	limiter *semaphore.Weighted
}

func (g *guardedExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.Attempt, error) {
	if err := g.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.limiter.Release(1)
	return g.ex.Extract(ctx, input)
}
