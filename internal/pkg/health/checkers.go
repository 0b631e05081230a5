package health

import (
	"context"
	"errors"

	"github.com/piresc/tripdispatch/internal/pkg/circuitbreaker"
	"github.com/piresc/tripdispatch/internal/pkg/database"
	"github.com/piresc/tripdispatch/internal/pkg/nats"
)

// PostgresChecker pings the trip store database
func PostgresChecker(client *database.PostgresClient) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if err := client.GetDB().PingContext(ctx); err != nil {
			return errUnavailable("postgres", err)
		}
		return nil
	})
}

// RedisChecker pings the driver directory
func RedisChecker(client *database.RedisClient) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if err := client.Client.Ping(ctx).Err(); err != nil {
			return errUnavailable("redis", err)
		}
		return nil
	})
}

// NATSChecker reports whether the event bus connection is up
func NATSChecker(client *nats.Client) HealthChecker {
	return CheckerFunc(func(context.Context) error {
		conn := client.GetConn()
		if conn == nil || !conn.IsConnected() {
			return errUnavailable("nats", errors.New("not connected"))
		}
		return nil
	})
}

// BreakerChecker reports unhealthy while the breaker is open
func BreakerChecker(cb *circuitbreaker.CircuitBreaker) HealthChecker {
	return CheckerFunc(func(context.Context) error {
		if cb.State() == circuitbreaker.StateOpen {
			return errUnavailable(cb.Name(), circuitbreaker.ErrCircuitBreakerOpen)
		}
		return nil
	})
}
