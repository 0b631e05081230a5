package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trip_dispatch"

var (
	OffersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "offers_total", Help: "Offers sent to candidates by outcome"},
		[]string{"outcome"},
	)
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "dispatch_runs_total", Help: "Dispatch runs by result"},
		[]string{"result"},
	)
	DispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_latency_seconds",
		Help:      "Time from dispatch start to bind or failure",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	})
	BindRacesLost = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "bind_races_lost_total", Help: "Accepts that lost the conditional bind",
	})
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "transitions_total", Help: "Committed trip transitions by target status"},
		[]string{"status"},
	)
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "fallback_positions_total", Help: "Fallback queue activity by outcome"},
		[]string{"outcome"},
	)
	RateLimitDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_denied_total", Help: "Position updates rejected by the rate limiter"},
		[]string{"surface"},
	)
	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "drivers_online", Help: "Drivers currently connected over WebSocket",
	})
	FallbackPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "fallback_pending", Help: "Position updates waiting in the fallback queue",
	})
)

// Offer outcomes
const (
	OutcomeAccepted      = "accepted"
	OutcomeDeclined      = "declined"
	OutcomeExpired       = "expired"
	OutcomeDeliveryError = "delivery_failed"
	OutcomeRaceLost      = "race_lost"
	OutcomeSkipped       = "skipped"
	OutcomeAborted       = "aborted"
)

// Fallback outcomes
const (
	FallbackEnqueued  = "enqueued"
	FallbackRecovered = "recovered"
	FallbackRetried   = "retried"
	FallbackLost      = "lost"
	FallbackEvicted   = "evicted"
)

// RegisterHandler exposes the default registry on /metrics
func RegisterHandler(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
