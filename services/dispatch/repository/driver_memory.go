package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/utils"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// MemoryDriverRepo is the in-process driver directory. Radius queries
// prefilter on geohash cells before measuring exact distances.
type MemoryDriverRepo struct {
	mu      sync.Mutex
	drivers map[string]*models.Driver
	now     func() time.Time
}

// NewMemoryDriverRepository creates an empty in-memory directory
func NewMemoryDriverRepository() *MemoryDriverRepo {
	return &MemoryDriverRepo{drivers: make(map[string]*models.Driver), now: time.Now}
}

// QueryNearby returns online, available drivers within radiusMeters of point
func (r *MemoryDriverRepo) QueryNearby(_ context.Context, point models.Location, radiusMeters float64) ([]models.NearbyDriver, error) {
	cells := utils.CoveringCells(point, radiusMeters)
	precision := uint(len(cells[0]))

	r.mu.Lock()
	defer r.mu.Unlock()

	nearby := make([]models.NearbyDriver, 0)
	for _, d := range r.drivers {
		if !d.Online || !d.Available || d.Position == nil {
			continue
		}
		loc := d.Position.Location()
		if !inCells(utils.EncodeLocation(loc, precision), cells) {
			continue
		}
		dist := utils.DistanceMeters(point, loc)
		if dist > radiusMeters {
			continue
		}
		nearby = append(nearby, models.NearbyDriver{
			DriverID:       d.ID,
			Location:       loc,
			DistanceMeters: dist,
			Rating:         d.Rating,
		})
	}
	sortNearby(nearby)
	return nearby, nil
}

func inCells(hash string, cells []string) bool {
	for _, cell := range cells {
		if strings.HasPrefix(hash, cell) {
			return true
		}
	}
	return false
}

func sortNearby(nearby []models.NearbyDriver) {
	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].DistanceMeters == nearby[j].DistanceMeters {
			return nearby[i].DriverID < nearby[j].DriverID
		}
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
}

// GetDriver returns a copy of the directory record
func (r *MemoryDriverRepo) GetDriver(_ context.Context, driverID string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[driverID]
	if !ok {
		return nil, dispatch.ErrDriverNotFound
	}
	c := *d
	if d.Position != nil {
		pos := *d.Position
		c.Position = &pos
	}
	return &c, nil
}

// ConditionalBind binds the driver to tripID when it is online and unbound
func (r *MemoryDriverRepo) ConditionalBind(_ context.Context, driverID, tripID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[driverID]
	if !ok || !d.Online || !d.Available || d.TripID != "" {
		return false, nil
	}
	d.Available = false
	d.TripID = tripID
	d.UpdatedAt = r.now()
	return true, nil
}

// ConditionalRelease frees the driver when it is still bound to tripID
func (r *MemoryDriverRepo) ConditionalRelease(_ context.Context, driverID, tripID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[driverID]
	if !ok || d.TripID != tripID {
		return false, nil
	}
	d.TripID = ""
	d.Available = d.Online
	d.UpdatedAt = r.now()
	return true, nil
}

// GoOnline marks the driver online. A driver still bound to a trip stays
// unavailable until the trip releases it.
func (r *MemoryDriverRepo) GoOnline(_ context.Context, driverID string, pos models.Position, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[driverID]
	if !ok {
		d = &models.Driver{ID: driverID}
		r.drivers[driverID] = d
	}
	p := pos
	d.Online = true
	d.Available = d.TripID == ""
	d.Position = &p
	if rating > 0 {
		d.Rating = rating
	}
	d.UpdatedAt = r.now()
	return nil
}

// SetPosition records a fresh position for a known driver
func (r *MemoryDriverRepo) SetPosition(_ context.Context, driverID string, pos models.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[driverID]
	if !ok {
		return dispatch.ErrDriverNotFound
	}
	p := pos
	d.Position = &p
	d.UpdatedAt = r.now()
	return nil
}

// SetOffline removes the driver from offer eligibility
func (r *MemoryDriverRepo) SetOffline(_ context.Context, driverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[driverID]
	if !ok {
		return nil
	}
	d.Online = false
	d.Available = false
	d.UpdatedAt = r.now()
	return nil
}

// StaleDrivers lists online drivers not heard from since before
func (r *MemoryDriverRepo) StaleDrivers(_ context.Context, before time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stale := make([]string, 0)
	for id, d := range r.drivers {
		if d.Online && d.UpdatedAt.Before(before) {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return stale, nil
}
