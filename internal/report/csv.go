package report

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// WriteCSV writes rows with a header line. An empty slice writes the header
// only.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	var err error
	if len(rows) == 0 {
		err = enc.EncodeHeader(Row{})
	} else {
		err = enc.Encode(rows)
	}
	if err != nil {
		return eris.Wrap(err, "report: encode csv")
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}

// ReadCSV decodes rows written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "report: read csv header")
	}

	var out []Row
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, eris.Wrap(err, "report: decode csv")
	}
	return out, nil
}
