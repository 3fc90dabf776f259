package handler

import (
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"

	"fiscalio/internal/config"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ocr config.OCRConfig
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(ocr config.OCRConfig) *HealthHandler {
	return &HealthHandler{ocr: ocr}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The OCR path depends on local binaries;
// readiness reports them so a misconfigured deployment is caught before
// traffic arrives.
func (h *HealthHandler) Readiness(c *gin.Context) {
	missing := make([]string, 0, 2)
	for _, bin := range []string{h.ocr.PdftoppmBin, h.ocr.TesseractBin} {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "missing_binaries": missing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
