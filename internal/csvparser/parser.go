// =============================================================================
// Material Stock Control - CSV Input Reader
// =============================================================================
//
// This module reads the raw stock export and the reference catalog when they
// are delivered as delimited text instead of workbooks. The semantics match
// the xlsxparser package exactly:
//   - Raw export: positional rows, the first RawLayout.SkipRows discarded.
//   - Reference catalog: first row is the header, NM column required.
//
// ENCODINGS:
//   The ERP writes CSV with the pt-BR list separator (";") and, depending on
//   the workstation, in UTF-8 (with or without BOM), ISO-8859-1 or
//   Windows-1252. The decoder is chosen by CSVSettings.Encoding.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/material-stock-control/internal/config"
	"github.com/ginjaninja78/material-stock-control/internal/types"
	"github.com/ginjaninja78/material-stock-control/internal/validation"
)

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadRawExport reads the raw stock export positionally.
//
// PARAMETERS:
//   - path: The CSV file path.
//   - layout: The number of legend rows to skip. Sheet is ignored.
//   - settings: Delimiter and encoding.
//
// RETURNS:
//   - The data rows, in file order.
//   - An *types.InputError if the file cannot be used.
func ReadRawExport(path string, layout types.RawLayout, settings config.CSVSettings) ([]types.RawRow, error) {
	table, err := readAll(types.InputRawExport, path, settings)
	if err != nil {
		return nil, err
	}

	if layout.SkipRows >= len(table) {
		return []types.RawRow{}, nil
	}

	rows := make([]types.RawRow, 0, len(table)-layout.SkipRows)
	for _, row := range table[layout.SkipRows:] {
		rows = append(rows, types.RawRow(row))
	}
	return rows, nil
}

// ReadReference reads the reference catalog.
//
// PARAMETERS:
//   - path: The CSV file path.
//   - settings: Delimiter and encoding.
//
// RETURNS:
//   - The catalog rows in file order, blank rows skipped.
//   - An *types.InputError if the file or its header cannot be used.
func ReadReference(path string, settings config.CSVSettings) ([]types.ReferenceRecord, error) {
	table, err := readAll(types.InputReference, path, settings)
	if err != nil {
		return nil, err
	}

	records, err := validation.ReferenceRecords(table)
	if err != nil {
		return nil, types.UnexpectedShape(types.InputReference, path, err)
	}
	return records, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readAll decodes and splits the whole file.
func readAll(input, path string, settings config.CSVSettings) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.MissingInput(input, path, err)
		}
		return nil, types.UnexpectedShape(input, path, fmt.Errorf("failed to open file: %w", err))
	}
	defer file.Close()

	decoded := transform.NewReader(bufio.NewReader(file), decoder(settings.Encoding))

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, types.UnexpectedShape(input, path, fmt.Errorf("failed to read CSV: %w", err))
	}
	return rows, nil
}

// decoder returns the decoder for a configured encoding name. UTF-8 input
// may start with a byte order mark, which is dropped.
func decoder(name string) *encoding.Decoder {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1.NewDecoder()
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252.NewDecoder()
	default:
		return unicode.UTF8BOM.NewDecoder()
	}
}

// configureReader configures the CSV reader based on the settings.
//
// Leading spaces are kept: the description cell must be captured verbatim.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ",", "comma":
		reader.Comma = ','
	default:
		reader.Comma = ';'
		if d := []rune(settings.Delimiter); len(d) == 1 {
			reader.Comma = d[0]
		}
	}

	// The export has a variable number of fields per row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
