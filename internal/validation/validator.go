// =============================================================================
// Material Stock Control - Validation
// =============================================================================
//
// This module checks the shape of the inputs and the plausibility of the
// canonical output. It distinguishes two severities:
//   - Shape errors: the reference catalog cannot be used at all (no NM column).
//     These are returned as errors and fail the run.
//   - Issues: data that is kept as-is but deserves a look (codes outside the
//     DD.DDD.DDD pattern, blank keys, repeated codes). These never alter data.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// ErrMissingKeyColumn is returned when the catalog has no NM column.
var ErrMissingKeyColumn = errors.New("reference catalog has no " + types.ColumnCode + " column")

// =============================================================================
// REFERENCE HEADER
// =============================================================================

// ReferenceColumns holds the 0-based position of each catalog column.
// Optional columns are -1 when absent.
type ReferenceColumns struct {
	Code        int
	Description int
	MRP         int
	Class       int
}

// ReferenceHeader locates the catalog columns by literal header name.
// Names are compared after trimming and NFC normalization, so a header typed
// with decomposed accents still matches "Descrição do Material".
//
// PARAMETERS:
//   - header: The first row of the catalog.
//
// RETURNS:
//   - The column positions.
//   - ErrMissingKeyColumn if there is no NM column.
func ReferenceHeader(header []string) (ReferenceColumns, error) {
	cols := ReferenceColumns{Code: -1, Description: -1, MRP: -1, Class: -1}

	for i, name := range header {
		// The first occurrence of a repeated header wins.
		switch normalizeHeader(name) {
		case types.ColumnCode:
			setOnce(&cols.Code, i)
		case normalizeHeader(types.ColumnDescription):
			setOnce(&cols.Description, i)
		case types.ColumnMRP:
			setOnce(&cols.MRP, i)
		case types.ColumnClass:
			setOnce(&cols.Class, i)
		}
	}

	if cols.Code < 0 {
		return cols, fmt.Errorf("%w (header: %s)", ErrMissingKeyColumn, strings.Join(header, ", "))
	}
	return cols, nil
}

// Record maps one catalog row to a ReferenceRecord. Missing cells are "".
func (c ReferenceColumns) Record(row []string, rowNumber int) types.ReferenceRecord {
	return types.ReferenceRecord{
		Code:        types.NormalizeCode(cell(row, c.Code)),
		Description: strings.TrimSpace(cell(row, c.Description)),
		MRP:         strings.TrimSpace(cell(row, c.MRP)),
		Class:       strings.TrimSpace(cell(row, c.Class)),
		RowNumber:   rowNumber,
	}
}

// ReferenceRecords converts a whole catalog table (header first) to records.
// Rows whose every cell is blank are skipped.
func ReferenceRecords(table [][]string) ([]types.ReferenceRecord, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w (sheet is empty)", ErrMissingKeyColumn)
	}

	cols, err := ReferenceHeader(table[0])
	if err != nil {
		return nil, err
	}

	records := make([]types.ReferenceRecord, 0, len(table)-1)
	for i := 1; i < len(table); i++ {
		if isRowEmpty(table[i]) {
			continue
		}
		records = append(records, cols.Record(table[i], i+1))
	}
	return records, nil
}

// =============================================================================
// ISSUES
// =============================================================================

// Issue is a non-fatal finding about the data.
type Issue struct {
	// Source is types.InputRawExport, types.InputReference or "output".
	Source string

	// RowNumber is the 1-based source row, 0 when unknown.
	RowNumber int

	// Code is the material code concerned.
	Code types.MaterialCode

	// Message is a human-readable description.
	Message string
}

// String renders the issue on one line.
func (i *Issue) String() string {
	if i.RowNumber > 0 {
		return fmt.Sprintf("[%s] row %d, NM %q: %s", i.Source, i.RowNumber, i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] NM %q: %s", i.Source, i.Code, i.Message)
}

// ValidateReference reports catalog rows with blank, malformed or repeated
// codes. Malformed codes are still joined by exact match.
func ValidateReference(refs []types.ReferenceRecord) []*Issue {
	var issues []*Issue
	firstRow := make(map[types.MaterialCode]int, len(refs))

	for _, ref := range refs {
		switch {
		case ref.Code == "":
			issues = append(issues, &Issue{Source: types.InputReference, RowNumber: ref.RowNumber, Message: "blank material code"})
			continue
		case !ref.Code.IsValid():
			issues = append(issues, &Issue{Source: types.InputReference, RowNumber: ref.RowNumber, Code: ref.Code, Message: "code does not match DD.DDD.DDD; joined by exact text"})
		}

		if first, seen := firstRow[ref.Code]; seen {
			issues = append(issues, &Issue{
				Source:    types.InputReference,
				RowNumber: ref.RowNumber,
				Code:      ref.Code,
				Message:   fmt.Sprintf("repeated code, row %d is used", first),
			})
			continue
		}
		firstRow[ref.Code] = ref.RowNumber
	}

	return issues
}

// ValidateRecords reports canonical records that will look wrong on the
// dashboard: no description, or a negative balance.
func ValidateRecords(records []types.CanonicalRecord) []*Issue {
	var issues []*Issue
	for _, rec := range records {
		if strings.TrimSpace(rec.Description) == "" {
			issues = append(issues, &Issue{Source: "output", Code: rec.Code, Message: "no description in either input"})
		}
		if rec.Balance.IsNegative() {
			issues = append(issues, &Issue{Source: "output", Code: rec.Code, Message: "negative balance " + rec.Balance.String()})
		}
	}
	return issues
}

// FormatIssues renders issues one per line.
func FormatIssues(issues []*Issue) string {
	var b strings.Builder
	for _, issue := range issues {
		b.WriteString(issue.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func normalizeHeader(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func setOnce(target *int, value int) {
	if *target < 0 {
		*target = value
	}
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
