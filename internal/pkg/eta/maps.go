package eta

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"googlemaps.github.io/maps"
)

// RoadEstimator asks the Distance Matrix API for driving times and falls back
// to a straight-line estimate for any origin it could not resolve
type RoadEstimator struct {
	client   *maps.Client
	fallback *StraightLine
}

// NewRoadEstimator builds a Distance Matrix backed estimator. Extra options
// are appended after the defaults.
func NewRoadEstimator(cfg models.MapsConfig, fallback *StraightLine, opts ...maps.ClientOption) (*RoadEstimator, error) {
	httpClient := &http.Client{
		Transport: newrelic.NewRoundTripper(nil),
		Timeout:   cfg.Timeout,
	}
	options := append([]maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(httpClient),
	}, opts...)

	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	if fallback == nil {
		fallback = NewStraightLine(DefaultSpeedKmh)
	}
	return &RoadEstimator{client: client, fallback: fallback}, nil
}

func (r *RoadEstimator) Estimate(ctx context.Context, origins []models.Location, destination models.Location) ([]time.Duration, error) {
	out, _ := r.fallback.Estimate(ctx, origins, destination)
	if len(origins) == 0 {
		return out, nil
	}

	req := &maps.DistanceMatrixRequest{
		Origins:      make([]string, len(origins)),
		Destinations: []string{latLng(destination)},
		Mode:         maps.TravelModeDriving,
	}
	for i, o := range origins {
		req.Origins[i] = latLng(o)
	}

	resp, err := r.client.DistanceMatrix(ctx, req)
	if err != nil {
		logger.WarnCtx(ctx, "Distance matrix lookup failed, using straight-line ETA",
			logger.Int("origins", len(origins)),
			logger.Err(err))
		return out, nil
	}

	for i, row := range resp.Rows {
		if i >= len(out) || len(row.Elements) == 0 {
			continue
		}
		if el := row.Elements[0]; el != nil && el.Status == "OK" {
			out[i] = el.Duration
		}
	}
	return out, nil
}

func latLng(l models.Location) string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}
