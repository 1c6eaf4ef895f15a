package attendance

import "math"

// Confidence is the tiered match quality of a location validation.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceNearby Confidence = "nearby"
	ConfidenceCity   Confidence = "city"
	ConfidenceNone   Confidence = "none"
)

const earthRadiusMeters = 6371000.0

// distanceMeters is the great-circle (haversine) distance between two points.
func distanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// validCoordinate rejects out-of-range values and the (0,0) placeholder that
// broken clients report when they have no fix.
func validCoordinate(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	if lat < -90 || lat > 90 {
		return false
	}
	if lng < -180 || lng > 180 {
		return false
	}
	return true
}
