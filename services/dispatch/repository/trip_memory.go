package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// MemoryTripRepo keeps trips in process memory. It backs single-instance
// deployments and the dispatch scenario tests.
type MemoryTripRepo struct {
	mu    sync.RWMutex
	trips map[string]*models.Trip
}

// NewMemoryTripRepository creates an empty in-memory trip store
func NewMemoryTripRepository() *MemoryTripRepo {
	return &MemoryTripRepo{trips: make(map[string]*models.Trip)}
}

// CreateTrip stores a copy of trip
func (r *MemoryTripRepo) CreateTrip(_ context.Context, trip *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trips[trip.ID]; exists {
		return fmt.Errorf("trip %s already exists", trip.ID)
	}
	r.trips[trip.ID] = cloneTrip(trip)
	return nil
}

// GetTrip returns a copy of the stored trip
func (r *MemoryTripRepo) GetTrip(_ context.Context, tripID string) (*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trip, ok := r.trips[tripID]
	if !ok {
		return nil, dispatch.ErrTripNotFound
	}
	return cloneTrip(trip), nil
}

// ConditionalUpdate applies patch when the stored status still equals expected
func (r *MemoryTripRepo) ConditionalUpdate(_ context.Context, tripID string, expected models.TripStatus, patch models.TripPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[tripID]
	if !ok {
		return false, dispatch.ErrTripNotFound
	}
	if trip.Status != expected {
		return false, nil
	}
	patch.Apply(trip)
	return true, nil
}

// UpdatePosition sets the live position of an active trip
func (r *MemoryTripRepo) UpdatePosition(_ context.Context, tripID string, pos models.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[tripID]
	if !ok {
		return dispatch.ErrTripNotFound
	}
	if !trip.Status.IsActive() {
		return dispatch.ErrTripNotActive
	}
	trip.AppendPosition(pos)
	return nil
}

// FindTrips lists matching trips, newest request first
func (r *MemoryTripRepo) FindTrips(_ context.Context, filter models.TripFilter) ([]*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trips := make([]*models.Trip, 0)
	for _, trip := range r.trips {
		if filter.Matches(trip) {
			summary := cloneTrip(trip)
			summary.Route = nil
			trips = append(trips, summary)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		if trips[i].RequestedAt.Equal(trips[j].RequestedAt) {
			return trips[i].ID < trips[j].ID
		}
		return trips[i].RequestedAt.After(trips[j].RequestedAt)
	})
	if filter.Limit > 0 && len(trips) > filter.Limit {
		trips = trips[:filter.Limit]
	}
	return trips, nil
}

func cloneTrip(trip *models.Trip) *models.Trip {
	c := *trip
	if trip.CurrentPosition != nil {
		pos := *trip.CurrentPosition
		c.CurrentPosition = &pos
	}
	if trip.Route != nil {
		c.Route = append([]models.Position(nil), trip.Route...)
	}
	if trip.CancelledBy != nil {
		actor := *trip.CancelledBy
		c.CancelledBy = &actor
	}
	if trip.Metrics != nil {
		m := *trip.Metrics
		c.Metrics = &m
	}
	return &c
}
