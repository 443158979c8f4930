package coverage

// Expansion priority tiers.
const (
	TierCore      = "core"
	TierGrowth    = "growth"
	TierEmerging  = "emerging"
	TierUncovered = "uncovered"
)

// Share-of-maximum thresholds for tiers.
const (
	coreShareThreshold   = 0.75 // total >= 75% of the set maximum
	growthShareThreshold = 0.40 // total >= 40% of the set maximum
)

// Classify returns the expansion tier for a total relative to the largest
// total in its set.
// Rules:
//   - core: share >= 0.75
//   - growth: share >= 0.40
//   - emerging: any demand below 0.40
//   - uncovered: no demand within the radius
func Classify(total, maxInSet int64) string {
	if total <= 0 || maxInSet <= 0 {
		return TierUncovered
	}
	share := float64(total) / float64(maxInSet)
	switch {
	case share >= coreShareThreshold:
		return TierCore
	case share >= growthShareThreshold:
		return TierGrowth
	default:
		return TierEmerging
	}
}

// ClassifyAll labels every result relative to the set maximum.
func ClassifyAll(results []Result) []string {
	top := MaxWeight(results)
	tiers := make([]string, len(results))
	for i, r := range results {
		tiers[i] = Classify(r.TotalWeight, top)
	}
	return tiers
}
