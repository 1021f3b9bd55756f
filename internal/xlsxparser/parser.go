// =============================================================================
// Material Stock Control - XLSX Input Reader
// =============================================================================
//
// This module reads the two workbook inputs of the pipeline:
//   - The raw stock export: a headerless sheet read positionally. The first
//     RawLayout.SkipRows rows are title/legend rows and are discarded.
//   - The reference catalog: a sheet whose first row names the columns.
//     Only NM is mandatory; Descrição do Material, MRP and Classe are optional.
//
// Cells are read as formatted text. The material code is never interpreted
// as a number, so "06.123.456" survives intact.
//
// ERROR MAPPING:
//   | Condition                          | Kind                    |
//   |------------------------------------|-------------------------|
//   | File does not exist                | types.ErrInputMissing   |
//   | File is not a readable workbook    | types.ErrUnexpectedShape|
//   | Workbook has no (or no such) sheet | types.ErrUnexpectedShape|
//   | Catalog has no NM column           | types.ErrUnexpectedShape|
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/material-stock-control/internal/types"
	"github.com/ginjaninja78/material-stock-control/internal/validation"
)

// =============================================================================
// RAW EXPORT
// =============================================================================

// ReadRawExport reads the raw stock export positionally.
//
// PARAMETERS:
//   - path: The workbook path.
//   - layout: The sheet and the number of legend rows to skip.
//
// RETURNS:
//   - The data rows, in file order, with the legend rows removed.
//   - An *types.InputError if the workbook cannot be used.
func ReadRawExport(path string, layout types.RawLayout) ([]types.RawRow, error) {
	table, err := readSheet(types.InputRawExport, path, layout.Sheet)
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

// =============================================================================
// REFERENCE CATALOG
// =============================================================================

// ReadReference reads the reference catalog. Blank rows are skipped; every
// other row becomes a ReferenceRecord, including rows with unusual codes.
//
// PARAMETERS:
//   - path: The workbook path.
//   - sheet: The worksheet name. Empty means the first sheet.
//
// RETURNS:
//   - The catalog rows in file order.
//   - An *types.InputError if the workbook or its header cannot be used.
func ReadReference(path, sheet string) ([]types.ReferenceRecord, error) {
	table, err := readSheet(types.InputReference, path, sheet)
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

// readSheet opens the workbook and returns every row of the chosen sheet.
func readSheet(input, path, sheet string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.MissingInput(input, path, err)
		}
		return nil, types.UnexpectedShape(input, path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, types.UnexpectedShape(input, path, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, types.UnexpectedShape(input, path, errors.New("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, types.UnexpectedShape(input, path, fmt.Errorf("failed to read sheet %q: %w", sheet, err))
	}
	return rows, nil
}
