package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(dir, "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestExtractZIP_MultiFile(t *testing.T) {
	zipPath := createTestZIP(t, t.TempDir(), map[string]string{
		"workshops.csv":   "Workshop,Lat,Lon\n",
		"demand/pins.csv": "Pincode,Lat,Lon,Count\n",
	})

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, extracted, 2)

	data, err := os.ReadFile(filepath.Join(destDir, "demand", "pins.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Pincode,Lat,Lon,Count\n", string(data))
}

func TestExtractZIP_SkipsResourceForks(t *testing.T) {
	zipPath := createTestZIP(t, t.TempDir(), map[string]string{
		"demand.shp":            "shp",
		"__MACOSX/._demand.shp": "fork",
		"._demand.dbf":          "fork",
	})

	extracted, err := ExtractZIP(zipPath, t.TempDir())
	require.NoError(t, err)
	require.Len(t, extracted, 1)
	assert.Equal(t, "demand.shp", filepath.Base(extracted[0]))
}

func TestExtractZIP_ZipSlipPrevention(t *testing.T) {
	zipPath := createTestZIP(t, t.TempDir(), map[string]string{
		"../../../etc/passwd": "malicious",
	})

	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractZIP_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notazip.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))

	_, err := ExtractZIP(path, t.TempDir())
	require.Error(t, err)
}
