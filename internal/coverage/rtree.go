package coverage

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/coverage-cli/internal/geo"
)

// R-tree node fan-out.
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// pointTolerance is the half-width of the rectangle stored for each point.
const pointTolerance = 1e-12

type rtreeItem struct {
	point DemandPoint
	rect  rtreego.Rect
}

func (it *rtreeItem) Bounds() rtreego.Rect { return it.rect }

// RTreeIndex prefilters demand points with an R-tree over lon/lat bounding
// boxes, then applies the exact haversine test. The tree is read-only after
// construction.
type RTreeIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewRTreeIndex bulk-loads points into an RTreeIndex.
func NewRTreeIndex(points []DemandPoint) *RTreeIndex {
	items := make([]rtreego.Spatial, 0, len(points))
	for _, p := range points {
		pt := rtreego.Point{p.Location.Lon(), p.Location.Lat()}
		items = append(items, &rtreeItem{point: p, rect: pt.ToRect(pointTolerance)})
	}
	return &RTreeIndex{
		tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, items...),
		size: len(points),
	}
}

// WeightWithin implements Index.
func (x *RTreeIndex) WeightWithin(center geo.Point, radiusKM float64) int64 {
	bounds := geo.SearchBounds(center, radiusKM)
	if len(bounds) == 0 || x.size == 0 {
		return 0
	}

	var seen map[*rtreeItem]struct{}
	if len(bounds) > 1 {
		seen = make(map[*rtreeItem]struct{})
	}

	var total int64
	for _, b := range bounds {
		rect, err := boundsRect(b)
		if err != nil {
			continue
		}
		for _, s := range x.tree.SearchIntersect(rect) {
			it := s.(*rtreeItem)
			if seen != nil {
				if _, dup := seen[it]; dup {
					continue
				}
				seen[it] = struct{}{}
			}
			if within(geo.DistanceKM(center, it.point.Location), radiusKM) {
				total = AddWeight(total, it.point.Weight)
			}
		}
	}
	return total
}

// Len implements Index.
func (x *RTreeIndex) Len() int { return x.size }

func boundsRect(b *geom.Bounds) (rtreego.Rect, error) {
	width := math.Max(b.Max(0)-b.Min(0), pointTolerance)
	height := math.Max(b.Max(1)-b.Min(1), pointTolerance)
	return rtreego.NewRect(rtreego.Point{b.Min(0), b.Min(1)}, []float64{width, height})
}
