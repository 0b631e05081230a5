package eta

import (
	"context"
	"math"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/utils"
)

// DefaultSpeedKmh is the average urban driving speed used for straight-line estimates
const DefaultSpeedKmh = 30.0

// Estimator returns one travel time per origin towards a single destination
type Estimator interface {
	Estimate(ctx context.Context, origins []models.Location, destination models.Location) ([]time.Duration, error)
}

// StraightLine estimates travel time from the haversine distance at a fixed speed
type StraightLine struct {
	speedKmh float64
}

// NewStraightLine creates an estimator; non-positive speeds use DefaultSpeedKmh
func NewStraightLine(speedKmh float64) *StraightLine {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return &StraightLine{speedKmh: speedKmh}
}

// Duration converts a distance in meters into travel time, rounded to the
// nearest nanosecond
func (s *StraightLine) Duration(distanceMeters float64) time.Duration {
	seconds := distanceMeters * 3.6 / s.speedKmh
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func (s *StraightLine) Estimate(_ context.Context, origins []models.Location, destination models.Location) ([]time.Duration, error) {
	out := make([]time.Duration, len(origins))
	for i, origin := range origins {
		out[i] = s.Duration(utils.DistanceMeters(origin, destination))
	}
	return out, nil
}
