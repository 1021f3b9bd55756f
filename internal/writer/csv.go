package writer

import (
	"encoding/csv"
	"io"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// utf8BOM lets spreadsheet programs detect the encoding of the csv output.
const utf8BOM = "\ufeff"

// writeCSV writes a ";"-separated file with a header row. The balance uses
// "." as the decimal separator.
func writeCSV(w io.Writer, records []types.CanonicalRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(types.OutputColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
