package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskdesk/taskdesk/internal/models"
)

const actorCtxKey = "actor"

// HandleAuthMiddleware resolves the calling user from the Bearer
// token and stores it in the request context for the handlers.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ParseJWTToken(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	actor, err := h.users.GetUserByID(c, claims.Subject)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", claims.Subject).
			Msg("failed to resolve actor")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(actorCtxKey, actor)
	c.Next()
}

// HandleAdminMiddleware guards admin-only routes. It must run after
// HandleAuthMiddleware.
func (h *handlerImpl) HandleAdminMiddleware(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if actor.Role != models.RoleAdmin {
		h.logger.Error().
			Str("user_id", actor.ID).
			Str("role", string(actor.Role)).
			Msg("admin role required")
		abort(c, newForbiddenError("admin role required"))
		return
	}
	c.Next()
}

func getActorFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(actorCtxKey)
	if !exists {
		return nil, false
	}
	actor, ok := value.(*models.User)
	return actor, ok
}
