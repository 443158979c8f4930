package coverage

import (
	"context"

	"github.com/rotisserie/eris"
)

// ComputeCoverage returns one Result per location, in input order, holding the
// summed weight of demand points within radiusKM (inclusive). It scans demand
// linearly; use Compute with an RTreeIndex for large demand sets.
func ComputeCoverage(locations []ServiceLocation, demand []DemandPoint, radiusKM float64) []Result {
	return Compute(locations, NewLinearIndex(demand), radiusKM)
}

// Compute is ComputeCoverage over any Index.
func Compute(locations []ServiceLocation, idx Index, radiusKM float64) []Result {
	results, _ := ComputeContext(context.Background(), locations, idx, radiusKM)
	return results
}

// ComputeContext is Compute with cancellation checked between locations.
// A cancelled computation returns no partial results.
func ComputeContext(ctx context.Context, locations []ServiceLocation, idx Index, radiusKM float64) ([]Result, error) {
	results := make([]Result, len(locations))
	for i, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "coverage: compute cancelled")
		}
		results[i] = Result{
			Location:    loc,
			RadiusKM:    radiusKM,
			TotalWeight: idx.WeightWithin(loc.Location, radiusKM),
		}
	}
	return results, nil
}

// MaxWeight returns the largest TotalWeight in results, or 0.
func MaxWeight(results []Result) int64 {
	var top int64
	for _, r := range results {
		if r.TotalWeight > top {
			top = r.TotalWeight
		}
	}
	return top
}
