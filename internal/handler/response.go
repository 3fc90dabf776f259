package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fiscalio/internal/domain"
)

// APIResponse is the standard envelope for all API responses. The data,
// warnings, and processing_time fields are always present so callers can
// rely on a fixed shape; error is only attached on failure.
type APIResponse struct {
	Success        bool        `json:"success"`
	Data           interface{} `json:"data"`
	Warnings       []string    `json:"warnings"`
	ProcessingTime float64     `json:"processing_time"`
	Error          *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Warnings: []string{}})
}

// RespondResult sends a 200 success response carrying a processing result.
func RespondResult(c *gin.Context, result *domain.ProcessResult) {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, APIResponse{
		Success:        true,
		Data:           result.Record,
		Warnings:       warnings,
		ProcessingTime: result.ProcessingTime,
	})
}

// RespondError maps a domain error to an HTTP status and sends the error
// envelope. Unexpected internal faults are logged with full detail but
// surfaced generically.
func RespondError(c *gin.Context, err error) {
	kind, msg := domain.ErrorKind(err)
	status := statusForKind(kind)
	if kind == domain.KindInternal {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] internal error: %v", requestID, err)
	}
	c.JSON(status, APIResponse{
		Success:  false,
		Warnings: []string{},
		Error:    &APIError{Kind: kind, Message: msg},
	})
}

// statusForKind translates envelope error kinds to HTTP status codes.
func statusForKind(kind string) int {
	switch kind {
	case domain.KindUnsupportedFormat:
		return http.StatusBadRequest
	case domain.KindParse, domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindOCRFailure, domain.KindLLMTimeout, domain.KindLLMResponseFormat:
		return http.StatusBadGateway
	case domain.KindProcessingTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
