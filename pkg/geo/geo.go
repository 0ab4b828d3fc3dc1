package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for Haversine.
const EarthRadiusMeters = 6371000.0

const metersPerDegree = 111000.0

// ValidateCoordinate rejects latitudes outside [-90,90] and longitudes
// outside [-180,180].
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinate is not a number")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", lng)
	}
	return nil
}

// Haversine returns the great-circle distance in meters between two
// points given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// BoundingBox returns a lat/lng box guaranteed to contain every point
// within radiusMeters of the center. The box is a prefilter only;
// callers must still apply the exact great-circle check. Near the poles
// or the antimeridian the longitude range degrades to the full span so
// that no candidate is lost.
func BoundingBox(lat, lng, radiusMeters float64) (latMin, latMax, lngMin, lngMax float64) {
	latDelta := radiusMeters / metersPerDegree
	latMin = math.Max(lat-latDelta, -90)
	latMax = math.Min(lat+latDelta, 90)

	// Shrinking circles of longitude: widen the delta by 1/cos(lat) at
	// the latitude extreme closest to a pole.
	extreme := math.Max(math.Abs(latMin), math.Abs(latMax))
	cos := math.Cos(extreme * math.Pi / 180)
	if cos < 1e-6 {
		return latMin, latMax, -180, 180
	}
	lngDelta := latDelta / cos
	lngMin = lng - lngDelta
	lngMax = lng + lngDelta
	if lngMin < -180 || lngMax > 180 {
		// Crossing the antimeridian; a single BETWEEN cannot express the
		// wrapped interval, fall back to a full scan on longitude.
		return latMin, latMax, -180, 180
	}
	return latMin, latMax, lngMin, lngMax
}
