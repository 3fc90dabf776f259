package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fiscalio/internal/domain"
	"fiscalio/internal/handler"
	"fiscalio/internal/service"
	"fiscalio/mocks"
)

func floatPtr(v float64) *float64 { return &v }

func newTestRouter(docSvc service.DocumentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewDocumentHandler(docSvc)
	r.POST("/api/v1/documents/process", h.Process)
	r.GET("/api/v1/documents/formats", h.Formats)
	return r
}

func multipartRequest(t *testing.T, filename, contentType string, payload []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestProcess_Success(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.MatchedBy(func(in *service.ProcessInput) bool {
		return in.Filename == "nota.xml" && len(in.Payload) > 0
	})).Return(&domain.ProcessResult{
		Record: &domain.FiscalRecord{
			DocumentNumber: "123",
			TotalValue:     floatPtr(3000.00),
		},
		Warnings:       []string{"reconciliation: total_value disagrees"},
		Provenance:     "ocr+vision",
		ProcessingTime: 1.25,
	}, nil)

	rec := httptest.NewRecorder()
	req := multipartRequest(t, "nota.xml", "application/xml", []byte("<NFe/>"), nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, 1.25, resp.ProcessingTime)
	require.Len(t, resp.Warnings, 1)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "123", data["document_number"])
	assert.Equal(t, 3000.00, data["total_value"])
}

func TestProcess_UnsupportedFormatEnvelope(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.Anything).
		Return(nil, &domain.UnsupportedFormatError{ContentType: "application/msword"})

	rec := httptest.NewRecorder()
	req := multipartRequest(t, "report.docx", "application/msword", []byte("PK"), nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UnsupportedFormatError", resp.Error.Kind)
	assert.Contains(t, resp.Error.Message, "application/msword")
}

// The envelope shape is fixed: data, warnings, and processing_time appear
// even when empty or zero, on success and failure alike.
func TestProcess_EnvelopeFieldsAlwaysPresent(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.Anything).
		Return(&domain.ProcessResult{Record: &domain.FiscalRecord{DocumentNumber: "123"}}, nil).Once()
	svc.On("Process", mock.Anything, mock.Anything).
		Return(nil, &domain.UnsupportedFormatError{ContentType: "application/msword"}).Once()
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "nota.xml", "application/xml", []byte("<NFe/>"), nil))
	body := rec.Body.String()
	assert.Contains(t, body, `"processing_time":0`)
	assert.Contains(t, body, `"warnings":[]`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "report.docx", "application/msword", []byte("PK"), nil))
	body = rec.Body.String()
	assert.Contains(t, body, `"data":null`)
	assert.Contains(t, body, `"warnings":[]`)
	assert.Contains(t, body, `"processing_time":0`)
}

func TestProcess_ErrorKindStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"parse", &domain.ParseError{Err: errors.New("bad xml")}, http.StatusUnprocessableEntity, "ParseError"},
		{"validation", &domain.ValidationError{Fields: []domain.FieldError{{Field: "total_value", Message: "missing"}}}, http.StatusUnprocessableEntity, "ValidationError"},
		{"ocr", &domain.OCRFailureError{Stage: "rasterize", Err: errors.New("boom")}, http.StatusBadGateway, "OCRFailureError"},
		{"llm timeout", &domain.LLMTimeoutError{Err: errors.New("slow")}, http.StatusBadGateway, "LLMTimeoutError"},
		{"llm format", &domain.LLMResponseFormatError{Err: errors.New("prose")}, http.StatusBadGateway, "LLMResponseFormatError"},
		{"request timeout", &domain.ProcessingTimeoutError{Timeout: time.Minute}, http.StatusGatewayTimeout, "ProcessingTimeoutError"},
		{"internal", errors.New("database exploded"), http.StatusInternalServerError, "InternalError"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mocks.MockDocumentService)
			svc.On("Process", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := httptest.NewRecorder()
			req := multipartRequest(t, "nota.pdf", "application/pdf", []byte("%PDF"), nil)
			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeEnvelope(t, rec.Body)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantKind, resp.Error.Kind)
		})
	}
}

// Internal faults keep their detail in the log, not the response body.
func TestProcess_InternalErrorDoesNotLeak(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.Anything).Return(nil, errors.New("pdftoppm stderr: /tmp/secret path"))

	rec := httptest.NewRecorder()
	req := multipartRequest(t, "nota.pdf", "application/pdf", []byte("%PDF"), nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec.Body)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "an internal error occurred", resp.Error.Message)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestProcess_MissingFilePart(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Process")
}

func TestProcess_TimeoutOverride(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.MatchedBy(func(in *service.ProcessInput) bool {
		return in.Timeout == 45*time.Second
	})).Return(&domain.ProcessResult{Record: &domain.FiscalRecord{}}, nil)

	rec := httptest.NewRecorder()
	req := multipartRequest(t, "nota.pdf", "application/pdf", []byte("%PDF"), map[string]string{"timeout": "45"})
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestProcess_InvalidTimeoutRejected(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	rec := httptest.NewRecorder()
	req := multipartRequest(t, "nota.pdf", "application/pdf", []byte("%PDF"), map[string]string{"timeout": "-3"})
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Process")
}

func TestFormats(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("SupportedFormats").Return(map[string][]string{
		"xml":   {"application/xml", "text/xml"},
		"pdf":   {"application/pdf"},
		"image": {"image/jpeg", "image/png"},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/formats", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	formats := data["supported_formats"].(map[string]interface{})
	assert.Contains(t, formats, "xml")
	assert.Contains(t, formats, "pdf")
	assert.Contains(t, formats, "image")
}
