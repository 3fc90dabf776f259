package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fiscalio/internal/config"
	"fiscalio/internal/domain"
	"fiscalio/internal/extractor"
	"fiscalio/internal/port"
	"fiscalio/internal/service"
	"fiscalio/internal/validator"
	"fiscalio/internal/validator/fiscal"
	"fiscalio/mocks"
)

func floatPtr(v float64) *float64 { return &v }

func completeRecord() *domain.FiscalRecord {
	return &domain.FiscalRecord{
		DocumentType:   "nfe",
		DocumentNumber: "123",
		FiscalKey:      "35240312345678000190550010000001231000001234",
		IssuerID:       "12345678000190",
		CFOP:           "5102",
		PaymentMethod:  "cash",
		TotalValue:     floatPtr(3000.00),
		Currency:       "BRL",
		IssueDate:      "2024-03-15",
		Items: []domain.LineItem{
			{Description: "Servico de manutencao", Quantity: 2, UnitValue: 1500.00},
		},
	}
}

type serviceFixture struct {
	xml        *mocks.MockExtractor
	ocr        *mocks.MockExtractor
	vision     *mocks.MockExtractor
	raster     *mocks.MockRasterizer
	classifier *mocks.MockClassifier
	svc        service.DocumentService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		xml:        new(mocks.MockExtractor),
		ocr:        new(mocks.MockExtractor),
		vision:     new(mocks.MockExtractor),
		raster:     new(mocks.MockRasterizer),
		classifier: new(mocks.MockClassifier),
	}
	pipeline := config.PipelineConfig{
		CompletenessThreshold: 0.70,
		MaxAttempts:           1,
		RetryBaseDelay:        time.Millisecond,
		RetryMaxDelay:         time.Millisecond,
		RequestTimeout:        time.Minute,
		MaxConcurrentExternal: 2,
	}
	coord := extractor.NewCoordinator(f.xml, f.ocr, f.vision, f.raster, pipeline)
	engine := validator.NewEngine(fiscal.DefaultRules()...)
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return(&domain.Classification{}, nil).Maybe()
	f.svc = service.NewDocumentService(coord, engine, f.classifier, config.LimitsConfig{MaxFileSizeMB: 1}, pipeline)
	return f
}

func TestDocumentService_XMLSuccess(t *testing.T) {
	f := newServiceFixture()
	f.xml.On("Extract", mock.Anything, mock.Anything).
		Return(&port.Attempt{Record: completeRecord(), Source: domain.SourceXML}, nil)

	result, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:     []byte(`<?xml version="1.0"?><NFe/>`),
		Filename:    "nota.xml",
		ContentType: "application/xml",
	})

	require.NoError(t, err)
	assert.Equal(t, "xml", result.Provenance)
	assert.Equal(t, "123", result.Record.DocumentNumber)
	assert.Empty(t, result.Warnings)
	assert.GreaterOrEqual(t, result.ProcessingTime, 0.0)
}

func TestDocumentService_UnsupportedFormatInvokesNoExtractor(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:     []byte("PK\x03\x04 fake docx"),
		Filename:    "report.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})

	require.Error(t, err)
	kind, _ := domain.ErrorKind(err)
	assert.Equal(t, "UnsupportedFormatError", kind)
	f.xml.AssertNotCalled(t, "Extract")
	f.ocr.AssertNotCalled(t, "Extract")
	f.vision.AssertNotCalled(t, "Extract")
}

func TestDocumentService_EmptyPayloadRejected(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.Process(context.Background(), &service.ProcessInput{Filename: "nota.xml"})

	require.Error(t, err)
	var unsupported *domain.UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupported)
}

func TestDocumentService_OversizedPayloadRejected(t *testing.T) {
	f := newServiceFixture() // limit is 1 MB

	_, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:  bytes.Repeat([]byte("a"), 2*1024*1024),
		Filename: "nota.pdf",
	})

	require.Error(t, err)
	var unsupported *domain.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Error(), "maximum file size")
	f.ocr.AssertNotCalled(t, "Extract")
}

func TestDocumentService_ValidationFailureSurfacesAllFields(t *testing.T) {
	f := newServiceFixture()
	rec := completeRecord()
	rec.DocumentNumber = ""
	rec.TotalValue = nil
	f.xml.On("Extract", mock.Anything, mock.Anything).
		Return(&port.Attempt{Record: rec, Source: domain.SourceXML}, nil)

	_, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:     []byte(`<?xml version="1.0"?><NFe/>`),
		Filename:    "nota.xml",
		ContentType: "application/xml",
	})

	require.Error(t, err)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 2)
}

func TestDocumentService_MergeWarningsReachResult(t *testing.T) {
	f := newServiceFixture()

	ocrRec := completeRecord()
	visionRec := completeRecord()
	visionRec.TotalValue = floatPtr(2950.00)
	// Drop enough critical fields to force the corroboration pass.
	ocrRec.FiscalKey = ""
	ocrRec.CFOP = ""
	ocrRec.IssueDate = ""

	f.ocr.On("Extract", mock.Anything, mock.Anything).
		Return(&port.Attempt{Record: ocrRec, Source: domain.SourceOCR}, nil)
	f.raster.On("RenderPage", mock.Anything, mock.Anything, 1).Return([]byte("png"), nil)
	f.vision.On("Extract", mock.Anything, mock.Anything).
		Return(&port.Attempt{Record: visionRec, Source: domain.SourceVision}, nil)

	result, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:     []byte("%PDF-1.4 content"),
		Filename:    "nota.pdf",
		ContentType: "application/pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "ocr+vision", result.Provenance)
	require.NotNil(t, result.Record.TotalValue)
	// Vision is more complete here, so its total wins on disagreement and
	// the reconciliation is surfaced.
	assert.Equal(t, 2950.00, *result.Record.TotalValue)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "reconciliation")
}

func TestDocumentService_TimeoutMapsToProcessingTimeout(t *testing.T) {
	f := newServiceFixture()
	f.ocr.On("Extract", mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).
		WaitUntil(time.After(50 * time.Millisecond))

	_, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:     []byte("%PDF-1.4 content"),
		Filename:    "nota.pdf",
		ContentType: "application/pdf",
		Timeout:     10 * time.Millisecond,
	})

	require.Error(t, err)
	var timeoutErr *domain.ProcessingTimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

// A PNG uploaded under a generic declared type still reaches the vision
// extractor, carrying the canonical MIME resolved at classification time
// rather than the client's declaration.
func TestDocumentService_GenericContentTypeImageReachesVision(t *testing.T) {
	f := newServiceFixture()
	f.vision.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.ContentType == "image/png"
	})).Return(&port.Attempt{Record: completeRecord(), Source: domain.SourceVision}, nil)

	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)
	result, err := f.svc.Process(context.Background(), &service.ProcessInput{
		Payload:     png,
		Filename:    "nota.png",
		ContentType: "application/octet-stream",
	})

	require.NoError(t, err)
	assert.Equal(t, "vision", result.Provenance)
	f.vision.AssertExpectations(t)
}

func TestDocumentService_SupportedFormats(t *testing.T) {
	f := newServiceFixture()

	formats := f.svc.SupportedFormats()

	assert.Contains(t, formats["xml"], "application/xml")
	assert.Contains(t, formats["pdf"], "application/pdf")
	assert.Contains(t, formats["image"], "image/png")
}
