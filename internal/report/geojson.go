package report

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/geo"
)

// WorkshopsGeoJSON renders rows as point features carrying the coverage
// total, rank, bubble radius and priority.
func WorkshopsGeoJSON(rows []Row) ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(rows))}
	for _, r := range rows {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: point(r.Lat, r.Lon),
			Properties: map[string]any{
				"workshop_name":               r.WorkshopName,
				"workshop_pincode":            r.Pincode,
				"radius_km":                   r.RadiusKM,
				"nrc_vin_count_within_radius": r.Count,
				"rank":                        r.Rank,
				"bubble_radius_m":             r.BubbleRadiusM,
				"priority":                    r.Priority,
			},
		})
	}
	return marshal(fc)
}

// DemandGeoJSON renders demand points as background point features.
func DemandGeoJSON(points []coverage.DemandPoint) ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(points))}
	for _, p := range points {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: p.Location.Geom(),
			Properties: map[string]any{
				"pincode":       p.Pincode,
				"nrc_vin_count": p.Weight,
			},
		})
	}
	return marshal(fc)
}

// point builds a lon/lat geometry. Rows carry already-validated coordinates,
// so no range check happens here.
func point(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(geo.SRID)
}

func marshal(fc geojson.FeatureCollection) ([]byte, error) {
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "report: encode geojson")
	}
	return data, nil
}
