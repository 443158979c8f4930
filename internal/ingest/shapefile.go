package ingest

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Geometry columns appended for point shapefiles.
const (
	ColumnLongitude = "Longitude"
	ColumnLatitude  = "Latitude"
)

// readShapefile turns DBF attributes into columns. Point X/Y are appended as
// Longitude/Latitude unless the DBF already carries those columns.
func readShapefile(path string) (*Table, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	header := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		header = append(header, strings.TrimRight(f.String(), "\x00"))
	}
	addGeom := !hasColumn(header, ColumnLongitude) && !hasColumn(header, ColumnLatitude)
	if addGeom {
		header = append(header, ColumnLongitude, ColumnLatitude)
	}

	var (
		rows     [][]string
		nonPoint int
	)
	for reader.Next() {
		_, shape := reader.Shape()

		row := make([]string, 0, len(header))
		for i := range fields {
			row = append(row, strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00")))
		}
		if addGeom {
			if p, ok := shape.(*shp.Point); ok {
				row = append(row, formatCoord(p.X), formatCoord(p.Y))
			} else {
				nonPoint++
				row = append(row, "", "")
			}
		}
		rows = append(rows, row)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "shapefile: read records")
	}

	if nonPoint > 0 {
		zap.L().Warn("shapefile: records without point geometry",
			zap.String("path", path),
			zap.Int("records", nonPoint),
		)
	}
	return &Table{Header: header, Rows: rows}, nil
}

func hasColumn(header []string, name string) bool {
	for _, h := range header {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
