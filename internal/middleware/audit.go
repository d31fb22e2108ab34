package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit entry after a successful request. Failures to record are logged
// and never change the response.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if recorder == nil || status >= http.StatusBadRequest {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			Path:      c.FullPath(),
			Status:    status,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		if principal, ok := CurrentPrincipal(c); ok {
			entry.PrincipalID = &principal.ID
			entry.PrincipalKind = string(principal.Kind)
		}
		entry.Details, _ = json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"latency_ms": time.Since(start).Milliseconds(),
		})

		if err := recorder.Create(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to record audit log",
				zap.String("action", action),
				zap.String("resource", resource),
				zap.Error(err),
			)
		}
	}
}
