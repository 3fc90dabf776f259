package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fiscalio/internal/service"
)

// DocumentHandler handles document processing endpoints.
type DocumentHandler struct {
	docSvc service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docSvc: docSvc}
}

// Process handles POST /api/v1/documents/process. The document comes in as
// the "file" multipart part; an optional "timeout" form field (seconds)
// overrides the configured per-request deadline.
func (h *DocumentHandler) Process(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success:  false,
			Warnings: []string{},
			Error:    &APIError{Kind: "BadRequestError", Message: "missing multipart file field 'file'"},
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		RespondError(c, err)
		return
	}
	defer func() { _ = src.Close() }()

	payload, err := io.ReadAll(src)
	if err != nil {
		RespondError(c, err)
		return
	}

	input := &service.ProcessInput{
		Payload:     payload,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}
	if raw := c.PostForm("timeout"); raw != "" {
		secs, err := strconv.ParseFloat(raw, 64)
		if err != nil || secs <= 0 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success:  false,
				Warnings: []string{},
				Error:    &APIError{Kind: "BadRequestError", Message: "timeout must be a positive number of seconds"},
			})
			return
		}
		input.Timeout = time.Duration(secs * float64(time.Second))
	}

	result, err := h.docSvc.Process(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}

	RespondResult(c, result)
}

// Formats handles GET /api/v1/documents/formats.
func (h *DocumentHandler) Formats(c *gin.Context) {
	RespondOK(c, gin.H{"supported_formats": h.docSvc.SupportedFormats()})
}
