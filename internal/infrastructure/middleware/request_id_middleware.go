package middleware

import (
	"context"

	"nodegate/pkg/logger"
	"nodegate/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware tags every request with an id, echoed in the
// X-Request-ID response header and carried through the request context
// for log correlation. An inbound X-Request-ID is reused.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}

		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Next()
	}
}
