package coverage

import (
	"math"

	"github.com/sells-group/coverage-cli/internal/geo"
)

// CoincidentKM is the distance below which two points count as co-located.
// It only matters for a zero radius.
const CoincidentKM = 1e-9

// Index answers radius queries over an immutable set of demand points.
// Implementations must return identical sums for identical inputs.
type Index interface {
	// WeightWithin returns the summed weight of demand points whose distance
	// to center is <= radiusKM.
	WeightWithin(center geo.Point, radiusKM float64) int64
	// Len returns the number of indexed demand points.
	Len() int
}

// within reports whether distanceKM falls inside an inclusive radius.
// Negative and NaN radii match nothing.
func within(distanceKM, radiusKM float64) bool {
	if !(radiusKM >= 0) {
		return false
	}
	return distanceKM <= radiusKM || distanceKM < CoincidentKM
}

// AddWeight adds two non-negative weights, saturating at math.MaxInt64.
func AddWeight(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

// LinearIndex scans every demand point on each query.
type LinearIndex struct {
	points []DemandPoint
}

// NewLinearIndex copies points into a LinearIndex.
func NewLinearIndex(points []DemandPoint) *LinearIndex {
	cp := make([]DemandPoint, len(points))
	copy(cp, points)
	return &LinearIndex{points: cp}
}

// WeightWithin implements Index.
func (x *LinearIndex) WeightWithin(center geo.Point, radiusKM float64) int64 {
	var total int64
	for _, p := range x.points {
		if within(geo.DistanceKM(center, p.Location), radiusKM) {
			total = AddWeight(total, p.Weight)
		}
	}
	return total
}

// Len implements Index.
func (x *LinearIndex) Len() int { return len(x.points) }
