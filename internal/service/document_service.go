package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"fiscalio/internal/config"
	"fiscalio/internal/detect"
	"fiscalio/internal/domain"
	"fiscalio/internal/extractor"
	"fiscalio/internal/port"
	"fiscalio/internal/validator"
)

// ProcessInput is the DTO for one document processing request.
type ProcessInput struct {
	Payload     []byte
	Filename    string
	ContentType string
	// Timeout overrides the configured per-request deadline when > 0.
	Timeout time.Duration
}

// DocumentService defines the document processing contract.
type DocumentService interface {
	Process(ctx context.Context, input *ProcessInput) (*domain.ProcessResult, error)
	SupportedFormats() map[string][]string
}

type documentService struct {
	coordinator *extractor.Coordinator
	validator   *validator.Engine
	classifier  port.Classifier
	maxBytes    int64
	timeout     time.Duration
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	coordinator *extractor.Coordinator,
	validationEngine *validator.Engine,
	classifier port.Classifier,
	limits config.LimitsConfig,
	pipeline config.PipelineConfig,
) DocumentService {
	return &documentService{
		coordinator: coordinator,
		validator:   validationEngine,
		classifier:  classifier,
		maxBytes:    limits.MaxFileSizeBytes(),
		timeout:     pipeline.RequestTimeout,
	}
}

// Process runs one document through format detection, extraction,
// validation and classification, under a per-request deadline. Either a
// fully assembled result comes back or a typed error; never a half-built
// record.
func (s *documentService) Process(ctx context.Context, input *ProcessInput) (*domain.ProcessResult, error) {
	started := time.Now()

	if len(input.Payload) == 0 {
		return nil, &domain.UnsupportedFormatError{ContentType: "empty payload"}
	}
	if s.maxBytes > 0 && int64(len(input.Payload)) > s.maxBytes {
		return nil, &domain.UnsupportedFormatError{ContentType: "payload exceeds maximum file size"}
	}

	// Format resolution happens exactly once; every downstream consumer
	// sees the canonical content type, not whatever the client declared.
	format, contentType, err := detect.Classify(detect.Input{
		Payload:     input.Payload,
		Filename:    input.Filename,
		ContentType: input.ContentType,
	})
	if err != nil {
		return nil, err
	}

	timeout := s.timeout
	if input.Timeout > 0 {
		timeout = input.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := s.coordinator.Process(ctx, format, port.ExtractInput{
		Payload:     input.Payload,
		ContentType: contentType,
		Filename:    input.Filename,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.ProcessingTimeoutError{Timeout: timeout}
		}
		return nil, err
	}

	warnings, err := s.validator.Run(outcome.Record)
	if err != nil {
		return nil, err
	}
	warnings = append(outcome.Warnings, warnings...)

	result := &domain.ProcessResult{
		Record:         outcome.Record,
		Warnings:       warnings,
		Provenance:     outcome.Provenance,
		ProcessingTime: time.Since(started).Seconds(),
	}

	// Classification is advisory and must never delay or fail the request.
	go s.classify(*outcome.Record)

	return result, nil
}

func (s *documentService) classify(record domain.FiscalRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.classifier.Classify(ctx, record); err != nil {
		log.Printf("fiscalio.service: classification failed for document %s: %v", record.DocumentNumber, err)
	}
}

// SupportedFormats lists the accepted content types grouped by source kind.
func (s *documentService) SupportedFormats() map[string][]string {
	out := make(map[string][]string)
	for ct, format := range domain.AllowedContentTypes {
		out[string(format)] = append(out[string(format)], ct)
	}
	for _, types := range out {
		sort.Strings(types)
	}
	return out
}
