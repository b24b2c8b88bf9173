package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/shared/telemetry"
)

// Context keys handlers may set so the access log can correlate a request.
const (
	PlanIDKey = "planId"
	RowKey    = "row"
)

// Logging emits one structured line per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
		}
		if planID, ok := c.Get(PlanIDKey); ok {
			fields["plan_id"] = planID
		}
		if row, ok := c.Get(RowKey); ok {
			fields["row"] = row
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		telemetry.Info("request.complete", fields)
	}
}
