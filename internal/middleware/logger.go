package middleware

import (
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestIDHeader is echoed back on every response
const RequestIDHeader = "X-Request-ID"

// RequestID middleware assigns every request an id, taken from the
// X-Request-ID header when the caller sent one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), c.GetHeader(RequestIDHeader))
		requestID := logger.RequestIDFromContext(ctx)

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logger middleware for logging HTTP requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		log := logger.Ctx(c.Request.Context()).With(
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", statusCode),
			logger.Duration("latency", latency),
			logger.String("client_ip", c.ClientIP()),
		)
		switch {
		case statusCode >= 500:
			log.Error("request failed", logger.String("errors", c.Errors.String()))
		case statusCode >= 400:
			log.Warn("request rejected")
		default:
			log.Info("request completed")
		}
	}
}
