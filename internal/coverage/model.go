// Package coverage sums demand-point weights within a radius of each service
// location and ranks the result.
package coverage

import "github.com/sells-group/coverage-cli/internal/geo"

// ServiceLocation is a fixed business location (a workshop) whose catchment
// is measured.
type ServiceLocation struct {
	Name     string
	Pincode  string
	Location geo.Point
}

// DemandPoint is a geocoded point (typically a pincode centroid) carrying a
// non-negative demand weight.
type DemandPoint struct {
	Pincode  string
	Location geo.Point
	Weight   int64
}

// Result is the demand covered by one service location at one radius.
type Result struct {
	Location    ServiceLocation
	RadiusKM    float64
	TotalWeight int64
}
