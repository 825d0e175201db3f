package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns OpenTelemetry tracing middleware. It wraps otelgin and
// enriches the request span with the request ID and, when the route carries
// one, the tenant being synced.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if requestID := c.GetString(RequestIDKey); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		// Only attach tenant IDs that actually parse; raw path garbage does
		// not belong in span attributes
		if raw := c.Param("tenant_id"); raw != "" {
			if tenantID, err := uuid.Parse(raw); err == nil {
				span.SetAttributes(attribute.String("tenant_id", tenantID.String()))
			}
		}
	}
}
