package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/geo"
)

func result(name string, total int64) coverage.Result {
	return coverage.Result{
		Location:    coverage.ServiceLocation{Name: name, Pincode: "560001", Location: geo.MustPoint(12.97, 77.59)},
		RadiusKM:    5,
		TotalWeight: total,
	}
}

func sampleRows() []Row {
	return BuildSummary([]coverage.Result{
		result("A", 10),
		result("B", 40),
		result("C", 40),
		result("D", 0),
	}, Options{BubbleMinM: coverage.DefaultBubbleMinM, BubbleExtraM: coverage.DefaultBubbleExtraM})
}

func TestBuildSummary_CompetitionRank(t *testing.T) {
	rows := sampleRows()
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"B", "C", "A", "D"}, []string{rows[0].WorkshopName, rows[1].WorkshopName, rows[2].WorkshopName, rows[3].WorkshopName})
	assert.Equal(t, []int{1, 1, 3, 4}, []int{rows[0].Rank, rows[1].Rank, rows[2].Rank, rows[3].Rank})
}

func TestBuildSummary_SizesAndTiers(t *testing.T) {
	rows := sampleRows()

	assert.InDelta(t, 8200.0, rows[0].BubbleRadiusM, 0.01)
	assert.InDelta(t, 4200.0, rows[2].BubbleRadiusM, 0.01)
	assert.Equal(t, 200.0, rows[3].BubbleRadiusM)

	assert.Equal(t, coverage.TierCore, rows[0].Priority)
	assert.Equal(t, coverage.TierEmerging, rows[2].Priority)
	assert.Equal(t, coverage.TierUncovered, rows[3].Priority)
}

func TestBuildSummary_Empty(t *testing.T) {
	assert.Empty(t, BuildSummary(nil, Options{}))
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t,
		"workshop_name,workshop_pincode,workshop_lat,workshop_lon,radius_km,nrc_vin_count_within_radius,rank,bubble_radius_m,priority\n",
		buf.String())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "B,560001,12.97,77.59,5,40,1,"))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadCSV_Empty(t *testing.T) {
	got, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteTable(t *testing.T) {
	rows := sampleRows()
	rows[0].WorkshopName = strings.Repeat("x", 50)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "NRC_VIN_COUNT")
	assert.Contains(t, out, strings.Repeat("x", 37)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 38))
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)
}

func TestWriteTable_TruncatesOnRunes(t *testing.T) {
	rows := sampleRows()
	rows[0].WorkshopName = strings.Repeat("ब", 50)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("ब", 37)+"...")
	assert.NotContains(t, out, strings.Repeat("ब", 38))
}

func TestWorkshopsGeoJSON(t *testing.T) {
	data, err := WorkshopsGeoJSON(sampleRows())
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 4)

	f := fc.Features[0]
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{77.59, 12.97}, f.Geometry.Coordinates)
	assert.Equal(t, "B", f.Properties["workshop_name"])
	assert.Equal(t, 40.0, f.Properties["nrc_vin_count_within_radius"])
	assert.Equal(t, coverage.TierCore, f.Properties["priority"])
}

func TestDemandGeoJSON(t *testing.T) {
	data, err := DemandGeoJSON([]coverage.DemandPoint{
		{Pincode: "560002", Location: geo.MustPoint(12.96, 77.58), Weight: 7},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nrc_vin_count":7`)
	assert.Contains(t, string(data), `"pincode":"560002"`)
}

type fakeUploader struct {
	uri  string
	body []byte
	ct   string
}

func (f *fakeUploader) Upload(_ context.Context, uri string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return io.ErrShortWrite
	}
	f.uri, f.body, f.ct = uri, b, contentType
	return nil
}

func TestExport_LocalFile(t *testing.T) {
	dir := t.TempDir()
	dest, err := Export(context.Background(), filepath.Join(dir, "out")+"/", FormatCSV, sampleRows(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", DefaultFileName), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "workshop_name,"))
}

func TestExport_S3(t *testing.T) {
	up := &fakeUploader{}
	dest, err := Export(context.Background(), "s3://reports/belt.csv", "", sampleRows(), up)
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/belt.csv", dest)
	assert.Equal(t, dest, up.uri)
	assert.Equal(t, "text/csv", up.ct)
	assert.Contains(t, string(up.body), "nrc_vin_count_within_radius")
}

func TestExport_S3WithoutUploader(t *testing.T) {
	_, err := Export(context.Background(), "s3://reports/belt.csv", FormatCSV, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no s3 uploader")
}

func TestExport_GeoJSON(t *testing.T) {
	dir := t.TempDir()
	dest, err := Export(context.Background(), dir+"/", FormatGeoJSON, sampleRows(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "workshop_nrc_vin_summary.geojson"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(context.Background(), "", "xml", sampleRows(), nil)
	require.Error(t, err)
}
