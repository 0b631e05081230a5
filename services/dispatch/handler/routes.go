package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/middleware"
	"github.com/piresc/tripdispatch/internal/pkg/ratelimit"
)

// RegisterRoutes registers all HTTP and WebSocket routes. The WebSocket
// endpoint authenticates its own upgrade request.
func (h *Handler) RegisterRoutes(e *echo.Echo, limiter ratelimit.Limiter) {
	e.GET("/ws", h.tripWS.HandleWebSocket)

	v1 := e.Group("/v1", middleware.JWTAuthMiddleware(h.jwtConfig))

	var positionLimiter echo.MiddlewareFunc
	if limiter != nil {
		positionLimiter = middleware.RateLimiterMiddleware(limiter, "http")
	}
	h.tripHTTP.RegisterRoutes(v1, positionLimiter)
}
