// =============================================================================
// Material Stock Control - Block Parser
// =============================================================================
//
// This module rebuilds material "blocks" from the raw stock export. The export
// has no fixed schema: one header row per material is followed by any number
// of lot/quantity rows, with currency-equivalent rows mixed in.
//
// EXPORT STRUCTURE (after the leading legend rows):
//
//   | A | B (code)    | C | D (quantity) | E (unit) | F | G (description) |
//   |---|-------------|---|--------------|----------|---|------------------|
//   |   | 06.123.456  |   |              |          |   | Gasket           |  <- header
//   |   |             |   | 100,00       | BRL      |   |                  |  <- currency, skipped
//   |   |             |   | 1.234,50     | UN       |   |                  |  <- quantity
//   |   |             |   | 5,00         | UN       |   |                  |  <- quantity
//   |   | 06.123.457  |   |              |          |   | Bolt             |  <- next header
//
// PARSING RULES:
//   - A trimmed code cell matching DD.DDD.DDD opens a new block and closes the
//     previous one.
//   - Inside a block, rows with an empty unit or the currency marker are skipped.
//   - The first valid unit of a block wins.
//   - Quantities that do not parse contribute zero and never abort the block.
//   - End of input closes the last block.
//
// =============================================================================

package blockparser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// =============================================================================
// REPORT STRUCTURES
// =============================================================================

// Reason explains why a row did not contribute to a balance.
type Reason string

const (
	// ReasonEmptyUnit marks a row inside a block with no unit token.
	ReasonEmptyUnit Reason = "empty_unit"

	// ReasonCurrencyRow marks a monetary-amount row.
	ReasonCurrencyRow Reason = "currency_row"

	// ReasonMalformedQuantity marks a quantity cell that is not a number.
	ReasonMalformedQuantity Reason = "malformed_quantity"

	// ReasonOrphanRow marks a row seen before the first header row.
	ReasonOrphanRow Reason = "orphan_row"
)

// RowIssue is a row-level data defect. Issues are diagnostics only.
type RowIssue struct {
	// Index is the 0-based position in the parsed row slice.
	Index int

	// Code is the open block's code, empty for orphan rows.
	Code types.MaterialCode

	// Reason is why the row was skipped or contributed zero.
	Reason Reason

	// Value is the offending cell text.
	Value string
}

// Report summarizes a parse.
type Report struct {
	// RowsScanned is the number of rows given to the parser.
	RowsScanned int

	// Blocks is the number of header rows seen, repeats included.
	Blocks int

	// QuantityRows is the number of rows that were added to a balance.
	QuantityRows int

	// DuplicateBlocks counts header rows whose code had already been seen.
	// The later block replaces the earlier record.
	DuplicateBlocks int

	// Issues lists every skipped or zero-contribution row.
	Issues []RowIssue
}

// IssueCount returns the number of issues with the given reason.
func (r *Report) IssueCount(reason Reason) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Reason == reason {
			count++
		}
	}
	return count
}

// =============================================================================
// PARSER STATE
// =============================================================================

// block is the accumulator of the currently open block. A nil *block is the
// NoOpenBlock state.
type block struct {
	code        types.MaterialCode
	description string
	total       decimal.Decimal
	unit        string
}

func (b *block) record() types.StockRecord {
	return types.StockRecord{
		Code:         b.code,
		Description:  b.description,
		TotalBalance: b.total,
		Unit:         b.unit,
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse scans rows once and returns one StockRecord per material code.
//
// PARAMETERS:
//   - rows: The export rows, already stripped of the leading legend rows.
//   - layout: The positional layout of the export.
//
// RETURNS:
//   - A map of StockRecord keyed by material code.
func Parse(rows []types.RawRow, layout types.RawLayout) map[types.MaterialCode]types.StockRecord {
	records, _ := ParseWithReport(rows, layout)
	return records
}

// ParseWithReport is Parse plus a Report of row-level defects.
// The report never influences the returned records.
func ParseWithReport(rows []types.RawRow, layout types.RawLayout) (map[types.MaterialCode]types.StockRecord, *Report) {
	records := make(map[types.MaterialCode]types.StockRecord)
	report := &Report{RowsScanned: len(rows)}

	var current *block

	flush := func() {
		if current == nil {
			return
		}
		records[current.code] = current.record()
	}

	for i, row := range rows {
		candidate := types.MaterialCode(strings.TrimSpace(row.Cell(layout.CodeColumn)))

		// Header row: close the open block and start a new one.
		if candidate.IsValid() {
			flush()

			report.Blocks++
			if _, seen := records[candidate]; seen {
				report.DuplicateBlocks++
			}

			current = &block{
				code:        candidate,
				description: row.Cell(layout.DescriptionColumn),
				total:       decimal.Zero,
			}
			continue
		}

		if current == nil {
			if !isRowEmpty(row) {
				report.Issues = append(report.Issues, RowIssue{Index: i, Reason: ReasonOrphanRow})
			}
			continue
		}

		// Potential quantity row of the open block.
		unit := strings.ToUpper(strings.TrimSpace(row.Cell(layout.UnitColumn)))
		if unit == "" {
			if !isRowEmpty(row) {
				report.Issues = append(report.Issues, RowIssue{Index: i, Code: current.code, Reason: ReasonEmptyUnit})
			}
			continue
		}
		if unit == types.CurrencyMarker {
			report.Issues = append(report.Issues, RowIssue{Index: i, Code: current.code, Reason: ReasonCurrencyRow, Value: row.Cell(layout.QuantityColumn)})
			continue
		}

		// The unit is taken before the quantity is parsed, so a malformed
		// quantity on the first valid row still sets the block's unit.
		if current.unit == "" {
			current.unit = unit
		}

		quantityText := row.Cell(layout.QuantityColumn)
		quantity, ok := ParseLocaleNumber(quantityText)
		if !ok {
			report.Issues = append(report.Issues, RowIssue{Index: i, Code: current.code, Reason: ReasonMalformedQuantity, Value: quantityText})
			continue
		}

		current.total = current.total.Add(quantity)
		report.QuantityRows++
	}

	// The export has no terminating sentinel.
	flush()

	return records, report
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row types.RawRow) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
