package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextActorKey is the gin context key storing the acting user identity.
const ContextActorKey = "currentActor"

// DefaultActor is recorded when a request carries no X-Actor-Id header.
const DefaultActor = "system"

// Actor reads the acting user from the X-Actor-Id header and stores it on the
// context for handlers and the audit trail.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader("X-Actor-Id"))
		if actor == "" {
			actor = DefaultActor
		}
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor recorded on the context.
func ActorFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextActorKey); ok {
		if actor, ok := v.(string); ok && actor != "" {
			return actor
		}
	}
	return DefaultActor
}
