package database

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_ConnectionError(t *testing.T) {
	client, err := NewRedisClient(models.RedisConfig{Host: "127.0.0.1", Port: 1})

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestNewRedisClient_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(models.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)})

	require.NoError(t, err)
	defer client.Close()
	assert.NotNil(t, client.GetClient())
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

func TestRedisClient_GeoRadius(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	db := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client := &RedisClient{Client: db}
	ctx := context.Background()

	require.NoError(t, db.GeoAdd(ctx, "drivers:geo",
		&redis.GeoLocation{Name: "near", Longitude: 106.827153, Latitude: -6.175392},
		&redis.GeoLocation{Name: "far", Longitude: 106.837153, Latitude: -6.185392},
	).Err())

	// Act
	hits, err := client.GeoRadius(ctx, "drivers:geo", 106.827153, -6.175392, 5, "km")

	// Assert
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Name)
	assert.Equal(t, "far", hits[1].Name)
	assert.Less(t, hits[0].Dist, hits[1].Dist)
}

func TestRedisClient_GeoRadius_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &RedisClient{Client: db}

	mock.ExpectGeoRadius("drivers:geo", 106.8, -6.2, &redis.GeoRadiusQuery{
		Radius:    500,
		Unit:      "m",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).SetErr(errors.New("redis down"))

	_, err := client.GeoRadius(context.Background(), "drivers:geo", 106.8, -6.2, 500, "m")

	assert.EqualError(t, err, "redis down")
	assert.NoError(t, mock.ExpectationsWereMet())
}
