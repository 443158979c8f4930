package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/columns"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/geo"
)

// Report counts what happened to each data row of a dataset.
type Report struct {
	Dataset            string `json:"dataset"`
	Source             string `json:"source,omitempty"`
	Rows               int    `json:"rows"`
	Loaded             int    `json:"loaded"`
	InvalidCoordinates int    `json:"invalid_coordinates"`
	InvalidWeights     int    `json:"invalid_weights"`
	UnnamedLocations   int    `json:"unnamed_locations"`
	BlankRows          int    `json:"blank_rows"`
}

// Dropped returns the number of non-blank rows that were not loaded.
func (r Report) Dropped() int {
	return r.InvalidCoordinates
}

// ParseServiceLocations converts workshop rows. Rows with bad coordinates are
// dropped; rows without a name are kept under a synthetic name.
func ParseServiceLocations(t *Table, m columns.Mapping) ([]coverage.ServiceLocation, Report, error) {
	latIdx, lonIdx, err := coordIndexes(m)
	if err != nil {
		return nil, Report{}, err
	}
	nameIdx, ok := m.Index(columns.FieldName)
	if !ok {
		return nil, Report{}, eris.New("ingest: workshop mapping has no name column")
	}
	pinIdx := optionalIndex(m, columns.FieldPincode)

	log := zap.L().With(zap.String("component", "ingest"), zap.String("dataset", m.Dataset))
	rep := Report{Dataset: m.Dataset, Source: t.Source, Rows: len(t.Rows)}
	out := make([]coverage.ServiceLocation, 0, len(t.Rows))

	for i, row := range t.Rows {
		rowNum := i + 1
		if blank(row) {
			rep.BlankRows++
			continue
		}

		p, err := parsePoint(cell(row, latIdx), cell(row, lonIdx))
		if err != nil {
			rep.InvalidCoordinates++
			log.Debug("ingest: dropping row with invalid coordinates", zap.Int("row", rowNum), zap.Error(err))
			continue
		}

		name := cell(row, nameIdx)
		if name == "" {
			name = fmt.Sprintf("workshop %d", rowNum)
			rep.UnnamedLocations++
		}

		out = append(out, coverage.ServiceLocation{
			Name:     name,
			Pincode:  normalizePincode(cell(row, pinIdx)),
			Location: p,
		})
	}
	rep.Loaded = len(out)

	logReport(log, rep)
	return out, rep, nil
}

// ParseDemandPoints converts demand rows. Rows with bad coordinates are
// dropped; unusable weights become 0.
func ParseDemandPoints(t *Table, m columns.Mapping) ([]coverage.DemandPoint, Report, error) {
	latIdx, lonIdx, err := coordIndexes(m)
	if err != nil {
		return nil, Report{}, err
	}
	weightIdx, ok := m.Index(columns.FieldWeight)
	if !ok {
		return nil, Report{}, eris.New("ingest: demand mapping has no weight column")
	}
	pinIdx := optionalIndex(m, columns.FieldPincode)

	log := zap.L().With(zap.String("component", "ingest"), zap.String("dataset", m.Dataset))
	rep := Report{Dataset: m.Dataset, Source: t.Source, Rows: len(t.Rows)}
	out := make([]coverage.DemandPoint, 0, len(t.Rows))

	for i, row := range t.Rows {
		rowNum := i + 1
		if blank(row) {
			rep.BlankRows++
			continue
		}

		p, err := parsePoint(cell(row, latIdx), cell(row, lonIdx))
		if err != nil {
			rep.InvalidCoordinates++
			log.Debug("ingest: dropping row with invalid coordinates", zap.Int("row", rowNum), zap.Error(err))
			continue
		}

		w, ok := ParseWeight(cell(row, weightIdx))
		if !ok {
			rep.InvalidWeights++
			log.Debug("ingest: weight defaulted to 0",
				zap.Int("row", rowNum),
				zap.String("value", cell(row, weightIdx)),
			)
		}

		out = append(out, coverage.DemandPoint{
			Pincode:  normalizePincode(cell(row, pinIdx)),
			Location: p,
			Weight:   w,
		})
	}
	rep.Loaded = len(out)

	logReport(log, rep)
	return out, rep, nil
}

// ParseNumber parses a decimal that may carry thousands separators.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("ingest: empty number")
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: parse number %q", s)
	}
	return v, nil
}

// MaxWeight is the largest demand weight accepted per row (2^40). Larger
// values are invalid.
const MaxWeight = 1 << 40

// ParseWeight parses a demand weight, rounding fractions to the nearest
// integer. Empty, non-numeric, NaN, infinite, negative and out-of-range
// values yield (0, false).
func ParseWeight(s string) (int64, bool) {
	v, err := ParseNumber(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	r := math.Round(v)
	if r > MaxWeight {
		return 0, false
	}
	return int64(r), true
}

func parsePoint(latStr, lonStr string) (geo.Point, error) {
	lat, err := ParseNumber(latStr)
	if err != nil {
		return geo.Point{}, eris.Wrap(err, "latitude")
	}
	lon, err := ParseNumber(lonStr)
	if err != nil {
		return geo.Point{}, eris.Wrap(err, "longitude")
	}
	return geo.NewPoint(lat, lon)
}

// normalizePincode drops the ".0" spreadsheets add to numeric codes.
func normalizePincode(s string) string {
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" && whole != "" {
		return whole
	}
	return s
}

func coordIndexes(m columns.Mapping) (int, int, error) {
	lat, ok := m.Index(columns.FieldLatitude)
	if !ok {
		return 0, 0, eris.Errorf("ingest: %s mapping has no latitude column", m.Dataset)
	}
	lon, ok := m.Index(columns.FieldLongitude)
	if !ok {
		return 0, 0, eris.Errorf("ingest: %s mapping has no longitude column", m.Dataset)
	}
	return lat, lon, nil
}

func optionalIndex(m columns.Mapping, field string) int {
	if i, ok := m.Index(field); ok {
		return i
	}
	return -1
}

func logReport(log *zap.Logger, rep Report) {
	fields := []zap.Field{
		zap.String("source", rep.Source),
		zap.Int("rows", rep.Rows),
		zap.Int("loaded", rep.Loaded),
		zap.Int("blank_rows", rep.BlankRows),
	}
	if rep.InvalidCoordinates > 0 || rep.InvalidWeights > 0 || rep.UnnamedLocations > 0 {
		log.Warn("ingest: rows needed repair",
			append(fields,
				zap.Int("invalid_coordinates", rep.InvalidCoordinates),
				zap.Int("invalid_weights", rep.InvalidWeights),
				zap.Int("unnamed_locations", rep.UnnamedLocations),
			)...,
		)
		return
	}
	log.Info("ingest: dataset parsed", fields...)
}
