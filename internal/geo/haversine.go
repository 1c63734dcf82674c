// Package geo computes great-circle distances between coordinates.
package geo

import "math"

const (
	EarthRadiusMeters = 6371000.0
	EarthRadiusMiles  = 3959.0
)

// Distance returns the haversine distance between two points given in degrees.
// The result is expressed in the unit of radius.
func Distance(lat1, lon1, lat2, lon2, radius float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radius * c
}

// Meters is Distance on the route radius.
func Meters(lat1, lon1, lat2, lon2 float64) float64 {
	return Distance(lat1, lon1, lat2, lon2, EarthRadiusMeters)
}

// Miles is Distance on the matching radius.
func Miles(lat1, lon1, lat2, lon2 float64) float64 {
	return Distance(lat1, lon1, lat2, lon2, EarthRadiusMiles)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
