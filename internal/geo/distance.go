// Package geo provides the great-circle distance used to filter and rank
// pickup work for collectors. Distance is never used for authorization.
package geo

import (
	"math"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Unknown is returned when either coordinate is absent. Callers must not
// exclude entities by an unknown distance, and must not rank by it.
var Unknown = math.Inf(1)

// IsUnknown reports whether d is the unknown-distance sentinel.
func IsUnknown(d float64) bool {
	return math.IsInf(d, 1)
}

// DistanceKm computes the haversine great-circle distance in kilometers
// between two coordinates. It is symmetric, deterministic and returns 0 for
// identical coordinates. A nil coordinate yields Unknown.
func DistanceKm(a, b *domain.Coordinate) float64 {
	if a == nil || b == nil {
		return Unknown
	}
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
