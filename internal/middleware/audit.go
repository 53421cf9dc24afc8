package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/pkg/jobs"
)

// AuditSink accepts audit jobs for asynchronous persistence.
type AuditSink interface {
	Enqueue(job jobs.Job) error
}

// Audit creates a middleware that records an audit entry after successful
// requests by handing it to the audit queue. A failed enqueue never fails the
// request.
func Audit(sink AuditSink, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if sink == nil || c.Writer.Status() >= 400 {
			return
		}

		actor := ActorFrom(c)
		detail, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		_ = sink.Enqueue(jobs.Job{
			ID:   uuid.NewString(),
			Type: action,
			Payload: &models.AuditLog{
				Actor:      &actor,
				Action:     action,
				Resource:   resource,
				ResourceID: resourceID,
				Detail:     detail,
				IPAddress:  c.ClientIP(),
				UserAgent:  c.GetHeader("User-Agent"),
			},
		})
	}
}
