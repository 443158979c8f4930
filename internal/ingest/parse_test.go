package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coverage-cli/internal/columns"
)

func workshopMapping(t *testing.T, header []string) columns.Mapping {
	t.Helper()
	m, err := columns.ResolveSchema(header, columns.WorkshopSchema())
	require.NoError(t, err)
	return m
}

func demandMapping(t *testing.T, header []string) columns.Mapping {
	t.Helper()
	m, err := columns.ResolveSchema(header, columns.DemandSchema())
	require.NoError(t, err)
	return m
}

func TestParseServiceLocations(t *testing.T) {
	tbl := &Table{
		Source: "workshops.xlsx",
		Header: []string{"Mabindra Workshop Location", "Pincode", "Latitude", "Longitude"},
		Rows: [][]string{
			{"Bangalore Central", "560001.0", "12.9716", "77.5946"},
			{"", "560024", "13.0358", "77.5970"},
			{"Broken", "560099", "north", "77.1"},
			{"Out of range", "560099", "95", "77.1"},
			{" ", "", "", ""},
			{"Short row", "", "13.1"},
		},
	}

	locs, rep, err := ParseServiceLocations(tbl, workshopMapping(t, tbl.Header))
	require.NoError(t, err)
	require.Len(t, locs, 2)

	assert.Equal(t, "Bangalore Central", locs[0].Name)
	assert.Equal(t, "560001", locs[0].Pincode)
	assert.Equal(t, 12.9716, locs[0].Location.Lat())
	assert.Equal(t, "workshop 2", locs[1].Name)

	assert.Equal(t, Report{
		Dataset:            columns.DatasetWorkshops,
		Source:             "workshops.xlsx",
		Rows:               6,
		Loaded:             2,
		InvalidCoordinates: 3,
		UnnamedLocations:   1,
		BlankRows:          1,
	}, rep)
	assert.Equal(t, 3, rep.Dropped())
}

func TestParseServiceLocations_NoPincodeColumn(t *testing.T) {
	tbl := &Table{
		Header: []string{"Workshop", "Lat", "Lng"},
		Rows:   [][]string{{"A", "1", "2"}},
	}
	locs, _, err := ParseServiceLocations(tbl, workshopMapping(t, tbl.Header))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "", locs[0].Pincode)
}

func TestParseDemandPoints(t *testing.T) {
	tbl := &Table{
		Header: []string{"Customer Pin Code", "Lat", "Lon", "NRC VIN Count"},
		Rows: [][]string{
			{"560001", "12.9716", "77.5946", "10"},
			{"560002", "13.2", "77.6", "4.6"},
			{"560003", "13.2", "77.6", "1,250"},
			{"560004", "13.2", "77.6", "n/a"},
			{"560005", "13.2", "77.6", "-3"},
			{"560006", "13.2", "77.6", "NaN"},
			{"560007", "13.2", "77.6", ""},
			{"560008", "", "77.6", "9"},
		},
	}

	pts, rep, err := ParseDemandPoints(tbl, demandMapping(t, tbl.Header))
	require.NoError(t, err)
	require.Len(t, pts, 7)

	weights := make([]int64, len(pts))
	for i, p := range pts {
		weights[i] = p.Weight
	}
	assert.Equal(t, []int64{10, 5, 1250, 0, 0, 0, 0}, weights)
	assert.Equal(t, "560001", pts[0].Pincode)

	assert.Equal(t, 8, rep.Rows)
	assert.Equal(t, 7, rep.Loaded)
	assert.Equal(t, 1, rep.InvalidCoordinates)
	assert.Equal(t, 4, rep.InvalidWeights)
}

func TestParseDemandPoints_FromShapefile(t *testing.T) {
	path := createTestShapefile(t, []shpRecord{
		{name: "A", pincode: "560001", count: 10, lon: 77.5946, lat: 12.9716},
		{name: "B", pincode: "560024", count: 5, lon: 77.6, lat: 13.2},
	})
	tbl, err := ReadTable(path, Options{})
	require.NoError(t, err)

	pts, rep, err := ParseDemandPoints(tbl, demandMapping(t, tbl.Header))
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, int64(5), pts[1].Weight)
	assert.Equal(t, 13.2, pts[1].Location.Lat())
	assert.Equal(t, 0, rep.InvalidWeights)
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"7", 7, true},
		{" 2.5 ", 3, true},
		{"2.49", 2, true},
		{"12,000", 12000, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"Inf", 0, false},
		{"1e30", 0, false},
		{"1099511627776", 1 << 40, true},
		{"1099511627777", 0, false},
		{"9.3e18", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseWeight(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseNumber(t *testing.T) {
	v, err := ParseNumber(" 1,234.5 ")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	_, err = ParseNumber("12.9.1")
	assert.Error(t, err)
}
