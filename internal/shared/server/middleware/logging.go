package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docqa-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			zap.String("owner_id", OwnerIDFromContext(c)),
			zap.String("client_ip", c.ClientIP()),
		}
		if docID := c.GetString("documentId"); docID != "" {
			fields = append(fields, zap.String("document_id", docID))
		}
		if cached, ok := c.Get("cached"); ok {
			fields = append(fields, zap.Any("cached", cached))
		}
		telemetry.FromContext(c.Request.Context()).Info("request.complete", fields...)
	}
}
