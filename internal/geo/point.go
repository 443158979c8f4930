// Package geo provides the coordinate type and great-circle distance used by
// coverage analysis.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// EarthRadiusKM is the mean Earth radius used for haversine distances.
const EarthRadiusKM = 6371.0

// Coordinate validation errors.
var (
	ErrInvalidLatitude  = eris.New("geo: latitude must be a finite number in [-90, 90]")
	ErrInvalidLongitude = eris.New("geo: longitude must be a finite number in [-180, 180]")
)

// Point is an immutable WGS-84 coordinate in decimal degrees.
type Point struct {
	lat float64
	lon float64
}

// NewPoint validates lat/lon and returns a Point.
func NewPoint(lat, lon float64) (Point, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return Point{}, eris.Wrapf(ErrInvalidLatitude, "got %v", lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return Point{}, eris.Wrapf(ErrInvalidLongitude, "got %v", lon)
	}
	return Point{lat: lat, lon: lon}, nil
}

// MustPoint is NewPoint for literals known to be valid. It panics otherwise.
func MustPoint(lat, lon float64) Point {
	p, err := NewPoint(lat, lon)
	if err != nil {
		panic(err)
	}
	return p
}

// Lat returns the latitude in degrees.
func (p Point) Lat() float64 { return p.lat }

// Lon returns the longitude in degrees.
func (p Point) Lon() float64 { return p.lon }

// DistanceKM returns the haversine great-circle distance between a and b in
// kilometres. Identical points yield exactly 0.
func DistanceKM(a, b Point) float64 {
	return haversineKM(a.lat, a.lon, b.lat, b.lon)
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push h just outside [0, 1] near antipodes.
	h = math.Max(0, math.Min(1, h))

	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
