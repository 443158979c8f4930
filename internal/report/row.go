// Package report turns coverage summaries into export rows and renders them
// as CSV, terminal tables and GeoJSON.
package report

import (
	"math"

	"github.com/sells-group/coverage-cli/internal/analysis"
	"github.com/sells-group/coverage-cli/internal/coverage"
)

// DefaultFileName is the CSV export name used when none is given.
const DefaultFileName = "workshop_nrc_vin_summary.csv"

// Row is one service location in an export.
type Row struct {
	WorkshopName  string  `csv:"workshop_name" json:"workshop_name"`
	Pincode       string  `csv:"workshop_pincode" json:"workshop_pincode"`
	Lat           float64 `csv:"workshop_lat" json:"workshop_lat"`
	Lon           float64 `csv:"workshop_lon" json:"workshop_lon"`
	RadiusKM      float64 `csv:"radius_km" json:"radius_km"`
	Count         int64   `csv:"nrc_vin_count_within_radius" json:"nrc_vin_count_within_radius"`
	Rank          int     `csv:"rank" json:"rank"`
	BubbleRadiusM float64 `csv:"bubble_radius_m" json:"bubble_radius_m"`
	Priority      string  `csv:"priority" json:"priority"`
}

// Options controls bubble sizing in BuildSummary.
type Options struct {
	BubbleMinM   float64
	BubbleExtraM float64
}

// BuildSummary ranks results and derives bubble sizes and priorities.
// Locations with equal totals share a rank.
func BuildSummary(results []coverage.Result, opts Options) []Row {
	ranked := coverage.Rank(results)
	return rows(ranked,
		coverage.BubbleSizes(ranked, opts.BubbleMinM, opts.BubbleExtraM),
		coverage.ClassifyAll(ranked),
	)
}

// FromSummary builds rows from an engine summary, which is already ranked.
func FromSummary(s *analysis.Summary) []Row {
	return rows(s.Results, s.Sizes, s.Tiers)
}

func rows(ranked []coverage.Result, sizes []float64, tiers []string) []Row {
	out := make([]Row, len(ranked))
	rank := 0
	for i, r := range ranked {
		if i == 0 || r.TotalWeight != ranked[i-1].TotalWeight {
			rank = i + 1
		}
		out[i] = Row{
			WorkshopName:  r.Location.Name,
			Pincode:       r.Location.Pincode,
			Lat:           r.Location.Location.Lat(),
			Lon:           r.Location.Location.Lon(),
			RadiusKM:      r.RadiusKM,
			Count:         r.TotalWeight,
			Rank:          rank,
			BubbleRadiusM: math.Round(sizes[i]*100) / 100,
			Priority:      tiers[i],
		}
	}
	return out
}
