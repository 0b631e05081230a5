package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/database"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// Scripts run atomically inside Redis so that at most one trip can bind a
// driver regardless of how many instances race for it.
var (
	bindScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'online') ~= '1' then return 0 end
if redis.call('HGET', KEYS[1], 'available') ~= '1' then return 0 end
local bound = redis.call('HGET', KEYS[1], 'trip_id')
if bound and bound ~= '' then return 0 end
redis.call('HSET', KEYS[1], 'available', '0', 'trip_id', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

	releaseScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'trip_id') ~= ARGV[1] then return 0 end
local online = redis.call('HGET', KEYS[1], 'online')
if online ~= '1' then online = '0' end
redis.call('HSET', KEYS[1], 'trip_id', '', 'available', online, 'updated_at', ARGV[2])
return 1
`)

	onlineScript = redis.NewScript(`
local bound = redis.call('HGET', KEYS[1], 'trip_id')
local available = '1'
if bound and bound ~= '' then available = '0' end
redis.call('HSET', KEYS[1], 'online', '1', 'available', available,
  'lat', ARGV[3], 'lng', ARGV[2], 'heading', ARGV[4], 'speed', ARGV[5], 'updated_at', ARGV[7])
if ARGV[6] ~= '' then redis.call('HSET', KEYS[1], 'rating', ARGV[6]) end
redis.call('GEOADD', KEYS[2], ARGV[2], ARGV[3], ARGV[1])
redis.call('ZADD', KEYS[3], ARGV[7], ARGV[1])
return available
`)

	positionScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'lat', ARGV[3], 'lng', ARGV[2], 'heading', ARGV[4], 'speed', ARGV[5], 'updated_at', ARGV[6])
if redis.call('HGET', KEYS[1], 'online') == '1' then
  redis.call('GEOADD', KEYS[2], ARGV[2], ARGV[3], ARGV[1])
  redis.call('ZADD', KEYS[3], ARGV[6], ARGV[1])
end
return 1
`)

	offlineScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'online', '0', 'available', '0', 'updated_at', ARGV[2])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('ZREM', KEYS[3], ARGV[1])
return 1
`)
)

// DriverRepo implements the driver directory on Redis: a GEO set of online
// drivers, one state hash per driver and a last-seen sorted set
type DriverRepo struct {
	cfg         *models.Config
	redisClient *database.RedisClient
	now         func() time.Time
}

// NewDriverRepository creates a new Redis-backed driver directory
func NewDriverRepository(cfg *models.Config, redisClient *database.RedisClient) *DriverRepo {
	return &DriverRepo{
		cfg:         cfg,
		redisClient: redisClient,
		now:         time.Now,
	}
}

func stateKey(driverID string) string {
	return fmt.Sprintf(constants.KeyDriverState, driverID)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// QueryNearby returns online, available drivers within radiusMeters of point
func (r *DriverRepo) QueryNearby(ctx context.Context, point models.Location, radiusMeters float64) ([]models.NearbyDriver, error) {
	hits, err := r.redisClient.GeoRadius(ctx, constants.KeyDriverGeo, point.Longitude, point.Latitude, radiusMeters, "m")
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby drivers: %w", err)
	}
	if len(hits) == 0 {
		return []models.NearbyDriver{}, nil
	}

	pipe := r.redisClient.Client.Pipeline()
	states := make([]*redis.SliceCmd, len(hits))
	for i, hit := range hits {
		states[i] = pipe.HMGet(ctx, stateKey(hit.Name), constants.FieldOnline, constants.FieldAvailable, constants.FieldRating)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load driver states: %w", err)
	}

	nearby := make([]models.NearbyDriver, 0, len(hits))
	for i, hit := range hits {
		vals, err := states[i].Result()
		if err != nil || len(vals) != 3 {
			continue
		}
		if fieldString(vals[0]) != "1" || fieldString(vals[1]) != "1" {
			continue
		}
		rating, _ := strconv.ParseFloat(fieldString(vals[2]), 64)
		nearby = append(nearby, models.NearbyDriver{
			DriverID:       hit.Name,
			Location:       models.Location{Latitude: hit.Latitude, Longitude: hit.Longitude},
			DistanceMeters: hit.Dist,
			Rating:         rating,
		})
	}
	sortNearby(nearby)
	return nearby, nil
}

func fieldString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// GetDriver loads the state hash of a driver
func (r *DriverRepo) GetDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	fields, err := r.redisClient.Client.HGetAll(ctx, stateKey(driverID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get driver %s: %w", driverID, err)
	}
	if len(fields) == 0 {
		return nil, dispatch.ErrDriverNotFound
	}

	driver := &models.Driver{
		ID:        driverID,
		Online:    fields[constants.FieldOnline] == "1",
		Available: fields[constants.FieldAvailable] == "1",
		TripID:    fields[constants.FieldTripID],
	}
	driver.Rating, _ = strconv.ParseFloat(fields[constants.FieldRating], 64)
	if ms, err := strconv.ParseInt(fields[constants.FieldUpdatedAt], 10, 64); err == nil {
		driver.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	if lat, err := strconv.ParseFloat(fields[constants.FieldLatitude], 64); err == nil {
		lng, _ := strconv.ParseFloat(fields[constants.FieldLongitude], 64)
		heading, _ := strconv.ParseFloat(fields[constants.FieldHeading], 64)
		speed, _ := strconv.ParseFloat(fields[constants.FieldSpeed], 64)
		driver.Position = &models.Position{
			Latitude:  lat,
			Longitude: lng,
			Heading:   heading,
			Speed:     speed,
			Timestamp: driver.UpdatedAt,
		}
	}
	return driver, nil
}

// ConditionalBind binds the driver to tripID when it is online and unbound
func (r *DriverRepo) ConditionalBind(ctx context.Context, driverID, tripID string) (bool, error) {
	ok, err := bindScript.Run(ctx, r.redisClient.Client, []string{stateKey(driverID)},
		tripID, r.now().UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to bind driver %s: %w", driverID, err)
	}
	return ok == 1, nil
}

// ConditionalRelease frees the driver when it is still bound to tripID
func (r *DriverRepo) ConditionalRelease(ctx context.Context, driverID, tripID string) (bool, error) {
	ok, err := releaseScript.Run(ctx, r.redisClient.Client, []string{stateKey(driverID)},
		tripID, r.now().UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to release driver %s: %w", driverID, err)
	}
	return ok == 1, nil
}

// GoOnline marks the driver online and indexes its position
func (r *DriverRepo) GoOnline(ctx context.Context, driverID string, pos models.Position, rating float64) error {
	ratingArg := ""
	if rating > 0 {
		ratingArg = formatFloat(rating)
	}
	available, err := onlineScript.Run(ctx, r.redisClient.Client,
		[]string{stateKey(driverID), constants.KeyDriverGeo, constants.KeyDriverLastSeen},
		driverID, formatFloat(pos.Longitude), formatFloat(pos.Latitude),
		formatFloat(pos.Heading), formatFloat(pos.Speed), ratingArg, r.now().UnixMilli(),
	).Text()
	if err != nil {
		return fmt.Errorf("failed to set driver %s online: %w", driverID, err)
	}

	logger.Debug("Driver online",
		logger.String("driver_id", driverID),
		logger.Bool("available", available == "1"))
	return nil
}

// SetPosition records a fresh position for a known driver
func (r *DriverRepo) SetPosition(ctx context.Context, driverID string, pos models.Position) error {
	ok, err := positionScript.Run(ctx, r.redisClient.Client,
		[]string{stateKey(driverID), constants.KeyDriverGeo, constants.KeyDriverLastSeen},
		driverID, formatFloat(pos.Longitude), formatFloat(pos.Latitude),
		formatFloat(pos.Heading), formatFloat(pos.Speed), r.now().UnixMilli(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to set position of driver %s: %w", driverID, err)
	}
	if ok == 0 {
		return dispatch.ErrDriverNotFound
	}
	return nil
}

// SetOffline removes the driver from the spatial index. A binding to an
// in-flight trip is kept until the trip releases it.
func (r *DriverRepo) SetOffline(ctx context.Context, driverID string) error {
	err := offlineScript.Run(ctx, r.redisClient.Client,
		[]string{stateKey(driverID), constants.KeyDriverGeo, constants.KeyDriverLastSeen},
		driverID, r.now().UnixMilli(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to set driver %s offline: %w", driverID, err)
	}
	return nil
}

// StaleDrivers lists online drivers whose last update is older than before
func (r *DriverRepo) StaleDrivers(ctx context.Context, before time.Time) ([]string, error) {
	ids, err := r.redisClient.Client.ZRangeByScore(ctx, constants.KeyDriverLastSeen, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stale drivers: %w", err)
	}
	return ids, nil
}
