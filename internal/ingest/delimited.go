package ingest

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

func readDelimited(path string, delimiter rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, record)
	}
	return splitHeader(rows), nil
}
