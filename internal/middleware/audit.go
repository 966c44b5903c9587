package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/adminkit/pkg/middleware/requestid"
)

// ContextAuditTargetKey holds the id of a record created by the handler, which
// has no id path parameter to report.
const ContextAuditTargetKey = "auditTarget"

// SetAuditTarget records the id of the record a request created.
func SetAuditTarget(c *gin.Context, id string) {
	c.Set(ContextAuditTargetKey, id)
}

// Audit logs every successful mutating request together with the acting session.
func Audit(logger *zap.Logger, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !mutates(c.Request.Method) {
			c.Next()
			return
		}

		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		target := c.GetString(ContextAuditTargetKey)
		if target == "" {
			target = c.Param("id")
		}

		fields := []zap.Field{
			zap.String("resource", resource),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("target", target),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if session := SessionFromContext(c); session != nil {
			fields = append(fields, zap.Int64("actor_id", session.UserID), zap.String("actor", session.Username))
		}
		logger.Info("audit", fields...)
	}
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
