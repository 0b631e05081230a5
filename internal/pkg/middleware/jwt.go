package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/tripdispatch/internal/pkg/jwt"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/utils"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "user_role"
	ContextKeyActor  = "actor"
)

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return utils.UnauthorizedResponse(c, "Authorization header is required")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return utils.UnauthorizedResponse(c, "Invalid authorization format")
			}

			claims, err := jwtpkg.ValidateToken(parts[1], config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			actor := claims.Actor()
			c.Set(ContextKeyUserID, actor.ID)
			c.Set(ContextKeyRole, actor.Role)
			c.Set(ContextKeyActor, actor)
			AddAttribute(c, "user.id", actor.ID)
			AddAttribute(c, "user.role", string(actor.Role))

			return next(c)
		}
	}
}

// ActorFromContext returns the authenticated party set by JWTAuthMiddleware
func ActorFromContext(c echo.Context) (models.Actor, bool) {
	actor, ok := c.Get(ContextKeyActor).(models.Actor)
	return actor, ok
}
