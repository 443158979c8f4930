// Package dataset loads workshop and demand inputs into immutable, versioned
// snapshots and publishes them to the rest of the process.
package dataset

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/ingest"
)

// Index kinds.
const (
	IndexRTree  = "rtree"
	IndexLinear = "linear"
)

// Snapshot is one loaded pair of collections. Nothing in it is mutated after
// construction.
type Snapshot struct {
	Version   uuid.UUID
	LoadedAt  time.Time
	Locations []coverage.ServiceLocation
	Demand    []coverage.DemandPoint
	Index     coverage.Index
	Reports   []ingest.Report
}

// NewSnapshot builds a snapshot with a fresh version and a demand index of
// the given kind (rtree by default).
func NewSnapshot(locations []coverage.ServiceLocation, demand []coverage.DemandPoint, indexKind string, reports ...ingest.Report) *Snapshot {
	var idx coverage.Index
	if indexKind == IndexLinear {
		idx = coverage.NewLinearIndex(demand)
	} else {
		idx = coverage.NewRTreeIndex(demand)
	}
	return &Snapshot{
		Version:   uuid.New(),
		LoadedAt:  time.Now().UTC(),
		Locations: locations,
		Demand:    demand,
		Index:     idx,
		Reports:   reports,
	}
}

// TotalDemand sums every demand weight in the snapshot.
func (s *Snapshot) TotalDemand() int64 {
	var total int64
	for _, d := range s.Demand {
		total = coverage.AddWeight(total, d.Weight)
	}
	return total
}

// Report returns the ingest report for a dataset.
func (s *Snapshot) Report(dataset string) (ingest.Report, bool) {
	for _, r := range s.Reports {
		if r.Dataset == dataset {
			return r, true
		}
	}
	return ingest.Report{}, false
}
