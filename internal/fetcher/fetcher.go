// Package fetcher turns dataset URIs (local paths, http(s), ftp and s3) into
// local files the ingestion readers can open.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads a remote URI.
type Fetcher interface {
	Download(ctx context.Context, uri string) (io.ReadCloser, error)
}

// dataExts lists, in preference order, the file types picked out of a ZIP.
var dataExts = []string{".shp", ".xlsx", ".csv", ".tsv", ".txt"}

// Resolver maps URIs to local paths, downloading remote ones into TempDir.
type Resolver struct {
	tempDir  string
	fetchers map[string]Fetcher
}

// NewResolver creates a Resolver. fetchers is keyed by URI scheme
// ("http", "https", "ftp", "s3").
func NewResolver(tempDir string, fetchers map[string]Fetcher) *Resolver {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Resolver{tempDir: tempDir, fetchers: fetchers}
}

// Scheme returns the URI scheme, or "" for plain file paths.
func Scheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) < 2 {
		// Single-letter schemes are Windows drive letters.
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// IsRemote reports whether uri needs a download.
func IsRemote(uri string) bool {
	s := Scheme(uri)
	return s != "" && s != "file"
}

// Local returns a local file for uri. Remote sources are downloaded, and ZIP
// archives are extracted with the first data file returned.
func (r *Resolver) Local(ctx context.Context, uri string) (string, error) {
	local, err := r.localPath(ctx, uri)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(local), ".zip") {
		return local, nil
	}

	dest, err := os.MkdirTemp(r.tempDir, "extract-*")
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create extract dir")
	}
	files, err := ExtractZIP(local, dest)
	if err != nil {
		return "", err
	}
	picked, ok := PickDataFile(files)
	if !ok {
		return "", eris.Errorf("fetcher: no data file in archive %s", uri)
	}
	return picked, nil
}

func (r *Resolver) localPath(ctx context.Context, uri string) (string, error) {
	scheme := Scheme(uri)
	switch scheme {
	case "":
		return uri, nil
	case "file":
		u, err := url.Parse(uri)
		if err != nil {
			return "", eris.Wrap(err, "fetcher: parse file uri")
		}
		return u.Path, nil
	}

	f, ok := r.fetchers[scheme]
	if !ok {
		return "", eris.Errorf("fetcher: no fetcher configured for scheme %q", scheme)
	}

	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create temp dir")
	}
	dir, err := os.MkdirTemp(r.tempDir, "fetch-*")
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create download dir")
	}
	dest := filepath.Join(dir, baseName(uri))

	n, err := DownloadToFile(ctx, f, uri, dest)
	if err != nil {
		return "", err
	}
	zap.L().Info("fetcher: downloaded",
		zap.String("uri", uri),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}

// DownloadToFile streams uri to path and returns the bytes written.
func DownloadToFile(ctx context.Context, f Fetcher, uri, dest string) (int64, error) {
	body, err := f.Download(ctx, uri)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(dest)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}

// PickDataFile chooses the preferred data file from extracted paths.
func PickDataFile(paths []string) (string, bool) {
	for _, ext := range dataExts {
		for _, p := range paths {
			if strings.EqualFold(filepath.Ext(p), ext) {
				return p, true
			}
		}
	}
	return "", false
}

func baseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "download"
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "download"
	}
	return name
}
