package report

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Uploader stores an object at a remote URI. objstore.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, uri string, r io.Reader, size int64, contentType string) error
}

// Export formats.
const (
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
)

// Export writes rows to dest in the given format (csv when empty). A dest
// with the s3:// scheme goes through up; anything else is a local file path.
// A dest ending in "/" gets DefaultFileName appended, with a .geojson
// extension for GeoJSON.
func Export(ctx context.Context, dest, format string, rows []Row, up Uploader) (string, error) {
	name := DefaultFileName
	var (
		data        []byte
		contentType string
	)
	switch format {
	case "", FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, rows); err != nil {
			return "", err
		}
		data, contentType = buf.Bytes(), "text/csv"
	case FormatGeoJSON:
		b, err := WorkshopsGeoJSON(rows)
		if err != nil {
			return "", err
		}
		data, contentType = b, "application/geo+json"
		name = strings.TrimSuffix(name, ".csv") + ".geojson"
	default:
		return "", eris.Errorf("report: unknown export format %q", format)
	}

	if dest == "" {
		dest = name
	}
	if strings.HasSuffix(dest, "/") {
		dest += name
	}
	if err := put(ctx, dest, data, contentType, up); err != nil {
		return "", err
	}
	zap.L().Info("report: exported",
		zap.String("component", "report"),
		zap.String("dest", dest),
		zap.String("format", contentType),
		zap.Int("rows", len(rows)),
	)
	return dest, nil
}

func put(ctx context.Context, dest string, data []byte, contentType string, up Uploader) error {
	if strings.HasPrefix(dest, "s3://") {
		if up == nil {
			return eris.Errorf("report: no s3 uploader configured for %s", dest)
		}
		if err := up.Upload(ctx, dest, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return eris.Wrap(err, "report: upload")
		}
		return nil
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "report: create dir %s", dir)
		}
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", dest)
	}
	return nil
}
