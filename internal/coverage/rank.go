package coverage

import (
	"cmp"
	"slices"
)

// Rank returns a copy of results ordered by TotalWeight descending. Equal
// totals keep their input order.
func Rank(results []Result) []Result {
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(a, b Result) int {
		return cmp.Compare(b.TotalWeight, a.TotalWeight)
	})
	return ranked
}
