package coverage

import "math"

// Default bubble sizing in metres, matching the workshop belt map.
const (
	DefaultBubbleMinM   = 200.0
	DefaultBubbleExtraM = 8000.0
)

// BubbleSize maps a total onto [minSize, minSize+maxExtra] with a square-root
// scale so a few very large totals do not dwarf the rest.
func BubbleSize(total, maxInSet int64, minSize, maxExtra float64) float64 {
	if maxInSet <= 0 || total <= 0 {
		return minSize
	}
	ratio := math.Min(float64(total)/float64(maxInSet), 1)
	return minSize + maxExtra*math.Sqrt(ratio)
}

// BubbleSizes sizes every result relative to the largest total in the set.
func BubbleSizes(results []Result, minSize, maxExtra float64) []float64 {
	top := MaxWeight(results)
	sizes := make([]float64, len(results))
	for i, r := range results {
		sizes[i] = BubbleSize(r.TotalWeight, top, minSize, maxExtra)
	}
	return sizes
}
