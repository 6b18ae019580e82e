package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/domain"
)

// CorrelationIDHeader carries the request correlation ID in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

// correlationIDKey is the gin context key holding the correlation ID.
const correlationIDKey = "correlation_id"

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		c.Header("X-Frame-Options", "DENY")

		// Enforce HTTPS (only in production)
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Reports contain patient names
		c.Header("Cache-Control", "no-store")
		c.Header("Referrer-Policy", "no-referrer")

		c.Next()
	}
}

// CorrelationID tags each request with a correlation ID, reusing the
// caller's when present. The ID is also placed on the request context so
// services can log it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header(CorrelationIDHeader, correlationID)
		c.Request = c.Request.WithContext(domain.WithCorrelationID(c.Request.Context(), correlationID))

		c.Next()
	}
}

// GetCorrelationID returns the correlation ID set by CorrelationID.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

// RequestTimeout bounds the request context. Handlers that exceed the
// deadline without writing a response get a 408.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusRequestTimeout,
				domain.NewErrorResponse(domain.MsgRequestTimeout, ctx.Err(), GetCorrelationID(c)))
		}
	}
}

// RequestLogger writes one structured entry per request. Bodies are
// never logged.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := logrus.Fields{
			"correlation_id": GetCorrelationID(c),
			"method":         c.Request.Method,
			"path":           path,
			"status":         c.Writer.Status(),
			"latency":        time.Since(start).String(),
			"client_ip":      c.ClientIP(),
			"response_size":  c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}

// Recovery converts panics into the standard 500 error body.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"correlation_id": GetCorrelationID(c),
			"panic":          recovered,
		}).Error("Recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError,
			domain.NewErrorResponse(domain.MsgInternalServer, panicError(recovered), GetCorrelationID(c)))
	})
}

func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return err
	}
	if s, ok := recovered.(string); ok {
		return errors.New(s)
	}
	return errors.New("unexpected panic")
}
