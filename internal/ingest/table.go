// Package ingest reads tabular workshop and demand files and parses them into
// coverage collections.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus the data rows beneath it.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// Options configures ReadTable.
type Options struct {
	// Sheet selects an XLSX worksheet by name. Empty means the first sheet.
	Sheet string
	// Delimiter overrides the CSV field separator. Zero means ',' (or tab for .tsv).
	Delimiter rune
}

// ReadTable reads path, choosing a reader by file extension.
func ReadTable(path string, opts Options) (*Table, error) {
	var (
		t   *Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		t, err = readXLSX(path, opts.Sheet)
	case ".csv", ".txt":
		t, err = readDelimited(path, opts.Delimiter)
	case ".tsv":
		d := opts.Delimiter
		if d == 0 {
			d = '\t'
		}
		t, err = readDelimited(path, d)
	case ".shp":
		t, err = readShapefile(path)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}
	t.Source = path
	return t, nil
}

// cell returns the trimmed value at column i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// splitHeader treats the first row as the header.
func splitHeader(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &Table{Header: header, Rows: rows[1:]}
}
