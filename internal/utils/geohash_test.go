package utils

import (
	"strings"
	"testing"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name      string
		a, b      models.Location
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same point",
			a:         models.Location{Latitude: -6.175392, Longitude: 106.827153},
			b:         models.Location{Latitude: -6.175392, Longitude: 106.827153},
			expected:  0,
			tolerance: 0.001,
		},
		{
			name:      "Jakarta to Bandung",
			a:         models.Location{Latitude: -6.175392, Longitude: 106.827153},
			b:         models.Location{Latitude: -6.914744, Longitude: 107.609810},
			expected:  120000,
			tolerance: 10000,
		},
		{
			name:      "One degree of latitude",
			a:         models.Location{Latitude: 0, Longitude: 100},
			b:         models.Location{Latitude: 1, Longitude: 100},
			expected:  111195,
			tolerance: 100,
		},
		{
			name:      "Cross 180th meridian",
			a:         models.Location{Latitude: 0, Longitude: 179},
			b:         models.Location{Latitude: 0, Longitude: -179},
			expected:  222390,
			tolerance: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DistanceMeters(tt.a, tt.b)

			assert.GreaterOrEqual(t, result, 0.0)
			assert.InDelta(t, tt.expected, result, tt.tolerance)
			assert.InDelta(t, result, DistanceMeters(tt.b, tt.a), 1e-6)
		})
	}
}

func TestEncodeDecodeGeohash(t *testing.T) {
	loc := models.Location{Latitude: -6.175392, Longitude: 106.827153}

	hash := EncodeLocation(loc, 7)
	center := DecodeGeohash(hash)

	assert.Len(t, hash, 7)
	assert.Less(t, DistanceMeters(loc, center), 200.0)
}

func TestPrecisionForRadius(t *testing.T) {
	jakarta := models.Location{Latitude: -6.2, Longitude: 106.8}

	assert.Equal(t, uint(4), PrecisionForRadius(jakarta, 5000))
	assert.Equal(t, uint(4), PrecisionForRadius(jakarta, 15000))
	assert.Equal(t, uint(6), PrecisionForRadius(jakarta, 500))
	assert.Equal(t, uint(1), PrecisionForRadius(models.Location{Latitude: 90, Longitude: 0}, 1000))
}

func TestCoveringCells_ContainsNearbyPoint(t *testing.T) {
	// Arrange
	center := models.Location{Latitude: -6.2, Longitude: 106.8}
	radius := 5000.0
	nearby := models.Location{Latitude: -6.2 + 0.03, Longitude: 106.8 + 0.02}
	require.Less(t, DistanceMeters(center, nearby), radius)

	// Act
	cells := CoveringCells(center, radius)

	// Assert
	require.Len(t, cells, 9)
	nearbyHash := EncodeLocation(nearby, 9)
	covered := false
	for _, cell := range cells {
		if strings.HasPrefix(nearbyHash, cell) {
			covered = true
		}
	}
	assert.True(t, covered)
}

func BenchmarkDistanceMeters(b *testing.B) {
	a := models.Location{Latitude: -6.175392, Longitude: 106.827153}
	c := models.Location{Latitude: -6.914744, Longitude: 107.609810}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DistanceMeters(a, c)
	}
}
