package middleware

import (
	"time"

	"nodegate/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingMiddleware logs every request with the context fields
// (request id, username) the upstream middleware put there.
func LoggingMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	ctxLogger := logger.NewContextLogger(zapLogger)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctxLogger.LogRequest(
			c.Request.Context(),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}
