package utils

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/piresc/tripdispatch/internal/pkg/models"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula
	EarthRadiusMeters = 6371000.0

	metersPerDegreeLat = 111320.0
	maxGeohashChars    = 9
)

// EncodeLocation converts a location to a geohash string
func EncodeLocation(location models.Location, precision uint) string {
	return geohash.EncodeWithPrecision(location.Latitude, location.Longitude, precision)
}

// DecodeGeohash converts a geohash string to the center of its cell
func DecodeGeohash(hash string) models.Location {
	lat, lng := geohash.Decode(hash)
	return models.Location{Latitude: lat, Longitude: lng}
}

// DistanceMeters returns the great-circle distance between two points in meters
func DistanceMeters(a, b models.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// cellSize returns the latitude and longitude span in degrees of a geohash
// cell with the given number of characters
func cellSize(chars uint) (latDeg, lonDeg float64) {
	bits := 5 * chars
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 180.0 / math.Pow(2, float64(latBits)), 360.0 / math.Pow(2, float64(lonBits))
}

// PrecisionForRadius picks the finest geohash precision whose cell is at least
// as large as radiusMeters around center, so the cell and its eight neighbors
// cover the whole circle
func PrecisionForRadius(center models.Location, radiusMeters float64) uint {
	needLat := radiusMeters / metersPerDegreeLat
	cosLat := math.Cos(center.Latitude * math.Pi / 180.0)
	if cosLat < 1e-6 {
		return 1
	}
	needLon := radiusMeters / (metersPerDegreeLat * cosLat)

	for chars := uint(maxGeohashChars); chars > 1; chars-- {
		latDeg, lonDeg := cellSize(chars)
		if latDeg >= needLat && lonDeg >= needLon {
			return chars
		}
	}
	return 1
}

// CoveringCells returns the geohash cell containing center plus its neighbors
// at a precision sized for radiusMeters
func CoveringCells(center models.Location, radiusMeters float64) []string {
	precision := PrecisionForRadius(center, radiusMeters)
	hash := EncodeLocation(center, precision)
	return append([]string{hash}, geohash.Neighbors(hash)...)
}
