// Package geo computes great-circle distances between latitude/longitude
// points on a spherical Earth approximation.
package geo

import (
	"errors"
	"math"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

var ErrInvalidCoordinates = errors.New("coordinates out of range")

// ValidateCoordinates checks that lat is within [-90, 90] and lng within
// [-180, 180] and that neither is NaN.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Distance returns the haversine distance in meters between two points,
// rounded to the nearest meter. Inputs are decimal degrees and must have
// been validated with ValidateCoordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	deltaPhi := radians(lat2 - lat1)
	deltaLambda := radians(lng2 - lng1)

	a := math.Pow(math.Sin(deltaPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(deltaLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(EarthRadius * c)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
