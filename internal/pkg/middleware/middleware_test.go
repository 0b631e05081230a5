package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/tripdispatch/internal/pkg/jwt"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testJWT = models.JWTConfig{Secret: "middleware-secret", Expiration: 30, Issuer: "test"}

func TestJWTAuthMiddleware(t *testing.T) {
	valid, _, err := jwtpkg.GenerateToken(models.Actor{ID: "driver-7", Role: models.RoleDriver}, testJWT)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "Missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Token " + valid, wantStatus: http.StatusUnauthorized},
		{name: "Bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "Valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			e := echo.New()
			var seen models.Actor
			e.GET("/v1/trips", func(c echo.Context) error {
				seen, _ = ActorFromContext(c)
				return c.NoContent(http.StatusOK)
			}, JWTAuthMiddleware(testJWT))
			req := httptest.NewRequest(http.MethodGet, "/v1/trips", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// Act
			e.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, models.Actor{ID: "driver-7", Role: models.RoleDriver}, seen)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	})

	t.Run("assigns new id", func(t *testing.T) {
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
	})
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestRateLimiterMiddleware(t *testing.T) {
	t.Run("denies after limit", func(t *testing.T) {
		// Arrange
		e := echo.New()
		e.POST("/v1/trips/:tripID/position", func(c echo.Context) error {
			return c.NoContent(http.StatusAccepted)
		}, RateLimiterMiddleware(ratelimit.NewWindowLimiter(2, time.Minute), "http"))

		// Act
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/trips/t1/position", nil))
			codes = append(codes, rec.Code)
			if i == 2 {
				assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			}
		}

		// Assert
		assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		e := echo.New()
		e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			RateLimiterMiddleware(failingLimiter{}, "http"))
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPanicRecoveryWithZapMiddleware(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	zl := &logger.ZapLogger{Logger: zap.New(core)}

	e := echo.New()
	e.Use(PanicRecoveryWithZapMiddleware(zl))
	e.GET("/boom", func(c echo.Context) error {
		c.Set(ContextKeyUserID, "rider-9")
		panic("offer registry corrupted")
	})
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	rec := httptest.NewRecorder()

	// Act
	assert.NotPanics(t, func() { e.ServeHTTP(rec, req) })

	// Assert
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "req-9")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered during request processing", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "offer registry corrupted", fields["panic_value"])
	assert.Equal(t, "rider-9", fields["user_id"])
	assert.Contains(t, fields["stack_trace"], "panic")
}

func TestPanicRecoveryWithZapMiddleware_RequiresLogger(t *testing.T) {
	assert.Panics(t, func() { PanicRecoveryWithZapMiddleware(nil) })
}
