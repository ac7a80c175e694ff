package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventory-engine/internal/shared/response"
	"inventory-engine/pkg/jwt"
	"inventory-engine/pkg/logger"
)

const actorIDKey = "actorID"

// ActorAuth verifies the bearer token and stores the actor id in the context.
func ActorAuth(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		// 2. Verify token
		claims, err := manager.ValidateAccessToken(parts[1])
		if err != nil {
			logger.Debug("auth: token rejected", map[string]interface{}{
				"request_id": c.GetString("request_id"),
				"error":      err.Error(),
			})
			response.Unauthorized(c, "invalid token")
			return
		}

		// 3. Actor id
		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil {
			response.Unauthorized(c, "invalid actor id in token")
			return
		}

		c.Set(actorIDKey, actorID)
		c.Next()
	}
}

// ActorID returns the actor stored by ActorAuth.
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(actorIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
