package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/ratelimit"
	"github.com/piresc/tripdispatch/internal/utils"
)

// RateLimiterMiddleware throttles requests per authenticated user, or per
// client IP before authentication. Limiter errors fail open.
func RateLimiterMiddleware(limiter ratelimit.Limiter, surface string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identifier := c.RealIP()
			if userID, ok := c.Get(ContextKeyUserID).(string); ok && userID != "" {
				identifier = userID
			}

			decision, err := limiter.Allow(c.Request().Context(), fmt.Sprintf("%s:%s", c.Path(), identifier))
			if err != nil {
				logger.WarnCtx(c.Request().Context(), "Rate limiter unavailable",
					logger.String("identifier", identifier),
					logger.Err(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retryAfter := time.Until(decision.ResetAt).Seconds()
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(int(retryAfter)))
				metrics.RateLimitDenied.WithLabelValues(surface).Inc()
				return utils.TooManyRequestsResponse(c, "Rate limit exceeded")
			}

			return next(c)
		}
	}
}
