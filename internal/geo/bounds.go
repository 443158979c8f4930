package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// SRID for WGS-84 longitude/latitude.
const SRID = 4326

// boundsPad widens search bounds slightly so points that sit exactly on the
// radius are never excluded by rounding in the bounds arithmetic.
const boundsPad = 1e-9

// Geom returns p as a go-geom point (X = longitude, Y = latitude).
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.lon, p.lat}).SetSRID(SRID)
}

// SearchBounds returns lon/lat rectangles (X = longitude, Y = latitude) that
// together contain every point within radiusKM of center. Two rectangles are
// returned when the search area crosses the antimeridian. A negative or NaN
// radius returns nil.
func SearchBounds(center Point, radiusKM float64) []*geom.Bounds {
	if math.IsNaN(radiusKM) || radiusKM < 0 {
		return nil
	}

	angular := radiusKM / EarthRadiusKM
	if angular >= math.Pi {
		return []*geom.Bounds{world()}
	}

	dLat := degrees(angular)
	minLat := center.lat - dLat - boundsPad
	maxLat := center.lat + dLat + boundsPad

	// A pole inside the circle means every longitude is reachable.
	if minLat <= -90 || maxLat >= 90 {
		return []*geom.Bounds{
			geom.NewBounds(geom.XY).Set(-180, math.Max(minLat, -90), 180, math.Min(maxLat, 90)),
		}
	}

	ratio := math.Sin(angular) / math.Cos(radians(center.lat))
	if ratio >= 1 {
		return []*geom.Bounds{geom.NewBounds(geom.XY).Set(-180, minLat, 180, maxLat)}
	}
	dLon := degrees(math.Asin(ratio)) + boundsPad

	minLon := center.lon - dLon
	maxLon := center.lon + dLon
	switch {
	case minLon < -180:
		return []*geom.Bounds{
			geom.NewBounds(geom.XY).Set(minLon+360, minLat, 180, maxLat),
			geom.NewBounds(geom.XY).Set(-180, minLat, maxLon, maxLat),
		}
	case maxLon > 180:
		return []*geom.Bounds{
			geom.NewBounds(geom.XY).Set(minLon, minLat, 180, maxLat),
			geom.NewBounds(geom.XY).Set(-180, minLat, maxLon-360, maxLat),
		}
	default:
		return []*geom.Bounds{geom.NewBounds(geom.XY).Set(minLon, minLat, maxLon, maxLat)}
	}
}

func world() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(-180, -90, 180, 90)
}
