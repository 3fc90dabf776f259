package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds surfaced in the response envelope.
const (
	KindUnsupportedFormat = "UnsupportedFormatError"
	KindParse             = "ParseError"
	KindOCRFailure        = "OCRFailureError"
	KindLLMTimeout        = "LLMTimeoutError"
	KindLLMResponseFormat = "LLMResponseFormatError"
	KindValidation        = "ValidationError"
	KindProcessingTimeout = "ProcessingTimeoutError"
	KindInternal          = "InternalError"
)

// UnsupportedFormatError indicates the payload could not be classified into
// a supported input kind. Fatal, never retried.
type UnsupportedFormatError struct {
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %s", e.ContentType)
}

// ParseError indicates a structurally malformed XML document. Fatal for the
// XML path; no fallback exists for XML input.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("malformed XML document: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// OCRFailureError indicates the OCR invocation (rasterization or text
// recognition) failed structurally.
type OCRFailureError struct {
	Stage string // "rasterize" or "recognize"
	Err   error
}

func (e *OCRFailureError) Error() string {
	return fmt.Sprintf("ocr %s failed: %v", e.Stage, e.Err)
}
func (e *OCRFailureError) Unwrap() error { return e.Err }

// LLMTimeoutError indicates the vision model call did not complete in time.
type LLMTimeoutError struct {
	Err error
}

func (e *LLMTimeoutError) Error() string { return fmt.Sprintf("vision model call timed out: %v", e.Err) }
func (e *LLMTimeoutError) Unwrap() error { return e.Err }

// LLMResponseFormatError indicates the vision model replied with something
// that does not parse as the requested structure.
type LLMResponseFormatError struct {
	Raw string
	Err error
}

func (e *LLMResponseFormatError) Error() string {
	return fmt.Sprintf("vision model reply is not valid structured output: %v", e.Err)
}
func (e *LLMResponseFormatError) Unwrap() error { return e.Err }

// FieldError describes one offending field found during record validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every offending field, not just the first, so the
// caller can report all problems at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "record validation failed: " + strings.Join(parts, "; ")
}

// ProcessingTimeoutError indicates the per-request deadline elapsed before
// the pipeline produced a complete record.
type ProcessingTimeoutError struct {
	Timeout time.Duration
}

func (e *ProcessingTimeoutError) Error() string {
	return fmt.Sprintf("document processing exceeded the %s request timeout", e.Timeout)
}

// ErrorKind maps an error to the envelope kind string and a safe,
// client-facing message. Unexpected internal faults map to a generic kind
// without leaking internal state.
func ErrorKind(err error) (kind, message string) {
	var (
		unsupported *UnsupportedFormatError
		parseErr    *ParseError
		ocrErr      *OCRFailureError
		llmTimeout  *LLMTimeoutError
		llmFormat   *LLMResponseFormatError
		validation  *ValidationError
		procTimeout *ProcessingTimeoutError
	)
	switch {
	case errors.As(err, &unsupported):
		return KindUnsupportedFormat, unsupported.Error()
	case errors.As(err, &parseErr):
		return KindParse, parseErr.Error()
	case errors.As(err, &ocrErr):
		return KindOCRFailure, ocrErr.Error()
	case errors.As(err, &llmTimeout):
		return KindLLMTimeout, llmTimeout.Error()
	case errors.As(err, &llmFormat):
		return KindLLMResponseFormat, llmFormat.Error()
	case errors.As(err, &validation):
		return KindValidation, validation.Error()
	case errors.As(err, &procTimeout):
		return KindProcessingTimeout, procTimeout.Error()
	default:
		return KindInternal, "an internal error occurred"
	}
}
