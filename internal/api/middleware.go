package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cartelera-bot/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.InfoWithContext(map[string]interface{}{
			"request_id": c.GetString(requestIDKey),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}, "%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
