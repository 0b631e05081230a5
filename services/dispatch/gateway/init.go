package gateway

import (
	"context"
	"errors"

	"github.com/piresc/tripdispatch/internal/pkg/kafka"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	natspkg "github.com/piresc/tripdispatch/internal/pkg/nats"
	"github.com/piresc/tripdispatch/services/dispatch"
)

var _ dispatch.EventGW = (*EventGW)(nil)

// EventGW fans domain events out to NATS and the Kafka timeline. Either
// side may be absent.
type EventGW struct {
	natsGateway     *NATSGateway
	timelineGateway *TimelineGateway
}

// NewEventGW creates the unified event gateway. A nil client or producer
// disables that side.
func NewEventGW(natsClient *natspkg.Client, producer *kafka.Producer) *EventGW {
	gw := &EventGW{}
	if natsClient != nil {
		gw.natsGateway = NewNATSGateway(natsClient)
	}
	if producer != nil {
		gw.timelineGateway = NewTimelineGateway(producer)
	}
	return gw
}

// PublishTripEvent forwards to every configured sink
func (g *EventGW) PublishTripEvent(ctx context.Context, event models.TripEvent) error {
	var errs []error
	if g.natsGateway != nil {
		errs = append(errs, g.natsGateway.PublishTripEvent(ctx, event))
	}
	if g.timelineGateway != nil {
		errs = append(errs, g.timelineGateway.PublishTripEvent(ctx, event))
	}
	return errors.Join(errs...)
}

// PublishPositionLost forwards to every configured sink
func (g *EventGW) PublishPositionLost(ctx context.Context, event models.PositionLostEvent) error {
	var errs []error
	if g.natsGateway != nil {
		errs = append(errs, g.natsGateway.PublishPositionLost(ctx, event))
	}
	if g.timelineGateway != nil {
		errs = append(errs, g.timelineGateway.PublishPositionLost(ctx, event))
	}
	return errors.Join(errs...)
}
