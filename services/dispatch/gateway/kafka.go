package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/models"
)

// timelineWriter is satisfied by *kafka.Producer
type timelineWriter interface {
	PublishJSON(ctx context.Context, key string, v interface{}) error
}

// TimelineRecord is one entry of a trip's timeline topic
type TimelineRecord struct {
	Kind       string      `json:"kind"`
	TripID     string      `json:"trip_id"`
	RecordedAt time.Time   `json:"recorded_at"`
	Payload    interface{} `json:"payload"`
}

// TimelineGateway appends trip events to the Kafka timeline keyed by trip id
type TimelineGateway struct {
	writer timelineWriter
	now    func() time.Time
}

// NewTimelineGateway creates a timeline gateway over a producer
func NewTimelineGateway(writer timelineWriter) *TimelineGateway {
	return &TimelineGateway{writer: writer, now: time.Now}
}

func (g *TimelineGateway) PublishTripEvent(ctx context.Context, event models.TripEvent) error {
	return g.append(ctx, event.Type, event.TripID, event)
}

func (g *TimelineGateway) PublishPositionLost(ctx context.Context, event models.PositionLostEvent) error {
	return g.append(ctx, constants.SubjectPositionLost, event.TripID, event)
}

func (g *TimelineGateway) append(ctx context.Context, kind, tripID string, payload interface{}) error {
	record := TimelineRecord{
		Kind:       kind,
		TripID:     tripID,
		RecordedAt: g.now().UTC(),
		Payload:    payload,
	}
	if err := g.writer.PublishJSON(ctx, tripID, record); err != nil {
		return fmt.Errorf("failed to append %s to timeline: %w", kind, err)
	}
	return nil
}
