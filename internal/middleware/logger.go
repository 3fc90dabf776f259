package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fiscalio/internal/config"
)

// RequestID injects an X-Request-ID header into the request and response.
// Downstream log lines and internal-error envelopes key on it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger emits one component-prefixed line per request, matching the
// [OCR]/coordinator style used across the pipeline. At log levels above
// debug, only 4xx and 5xx responses are logged.
func Logger(cfg config.LogConfig) gin.HandlerFunc {
	errorsOnly := cfg.Level != "" && cfg.Level != "debug"
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if errorsOnly && status < http.StatusBadRequest {
			return
		}

		requestID, _ := c.Get("request_id")
		log.Printf("[HTTP] [%v] %s %s %d %s",
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			status,
			time.Since(start),
		)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
