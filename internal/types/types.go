// =============================================================================
// Material Stock Control - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the pipeline.
// Types defined here are used by:
//   - blockparser  (RawRow, MaterialCode, StockRecord)
//   - reconciler   (StockRecord, ReferenceRecord, CanonicalRecord)
//   - xlsxparser / csvparser (RawRow, ReferenceRecord)
//   - writer       (CanonicalRecord)
//
// =============================================================================

package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// CurrencyMarker is the unit-column value of monetary-amount rows.
	// These rows never contribute to a balance or set a unit.
	CurrencyMarker = "BRL"

	// DefaultUnit is the unit assigned to materials absent from the export.
	DefaultUnit = "UN"

	// TimestampLayout formats the generation timestamp as DD/MM/YYYY HH:MM:SS.
	TimestampLayout = "02/01/2006 15:04:05"
)

// Column names shared by the reference catalog and the canonical output.
const (
	ColumnCode        = "NM"
	ColumnDescription = "Descrição do Material"
	ColumnBalance     = "Saldo do Estoque"
	ColumnUnit        = "Unidade de Medida"
	ColumnMRP         = "MRP"
	ColumnClass       = "Classe"
	ColumnUpdatedAt   = "Última Atualização"
)

// OutputColumns is the column order of the canonical output.
var OutputColumns = []string{
	ColumnCode,
	ColumnDescription,
	ColumnBalance,
	ColumnUnit,
	ColumnMRP,
	ColumnClass,
	ColumnUpdatedAt,
}

// =============================================================================
// RAW EXPORT TYPES
// =============================================================================

// RawRow is one row of the raw inventory export. Cells have no fixed
// semantics beyond the positional convention described by RawLayout.
type RawRow []string

// Cell returns the cell at the 0-based index, or "" if the row is shorter.
func (r RawRow) Cell(index int) string {
	if index < 0 || index >= len(r) {
		return ""
	}
	return r[index]
}

// RawLayout describes where each field lives in the raw export.
// Column indices are 0-based (A=0, B=1, ...).
type RawLayout struct {
	// SkipRows is the number of title/legend rows discarded before parsing.
	SkipRows int `yaml:"skip_rows" envconfig:"SKIP_ROWS" validate:"gte=0"`

	// CodeColumn holds the material-code candidate.
	CodeColumn int `yaml:"code_column" envconfig:"CODE_COLUMN" validate:"gte=0"`

	// QuantityColumn holds the locale-formatted quantity text.
	QuantityColumn int `yaml:"quantity_column" envconfig:"QUANTITY_COLUMN" validate:"gte=0"`

	// UnitColumn holds the unit-or-currency token.
	UnitColumn int `yaml:"unit_column" envconfig:"UNIT_COLUMN" validate:"gte=0"`

	// DescriptionColumn holds the material description on header rows.
	DescriptionColumn int `yaml:"description_column" envconfig:"DESCRIPTION_COLUMN" validate:"gte=0"`

	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// DefaultRawLayout returns the layout of the stock export as produced by the
// ERP report: five legend rows, code in B, quantity in D, unit in E and the
// description in G.
func DefaultRawLayout() RawLayout {
	return RawLayout{
		SkipRows:          5,
		CodeColumn:        1, // Column B
		QuantityColumn:    3, // Column D
		UnitColumn:        4, // Column E
		DescriptionColumn: 6, // Column G
	}
}

// =============================================================================
// MATERIAL CODE
// =============================================================================

// materialCodePattern matches codes such as "06.123.456".
var materialCodePattern = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}$`)

// MaterialCode is the natural key of a material across both inputs.
type MaterialCode string

// IsValid reports whether the code matches the DD.DDD.DDD pattern.
func (c MaterialCode) IsValid() bool {
	return materialCodePattern.MatchString(string(c))
}

// String implements fmt.Stringer.
func (c MaterialCode) String() string {
	return string(c)
}

// NormalizeCode returns the canonical string form of a key: surrounding
// whitespace removed, nothing else. Codes are never coerced to numbers.
func NormalizeCode(raw string) MaterialCode {
	return MaterialCode(strings.TrimSpace(raw))
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// StockRecord is the aggregate of one block of the raw export.
type StockRecord struct {
	// Code is the block's material code.
	Code MaterialCode

	// Description is captured verbatim from the block's header row.
	Description string

	// TotalBalance is the sum of every valid quantity row of the block.
	TotalBalance decimal.Decimal

	// Unit is the unit token of the first valid quantity row.
	Unit string
}

// ReferenceRecord is one row of the authoritative reference catalog.
type ReferenceRecord struct {
	Code        MaterialCode
	Description string
	MRP         string
	Class       string

	// RowNumber is the 1-based row in the source sheet, for error reporting.
	RowNumber int
}

// CanonicalRecord is one row of the final output.
type CanonicalRecord struct {
	Code        MaterialCode
	Description string
	Balance     decimal.Decimal
	Unit        string
	MRP         string
	Class       string

	// GeneratedAt is shared by every record of the same batch.
	GeneratedAt time.Time
}

// Values returns the record as output cells in OutputColumns order.
// The balance is rendered without trailing zeros.
func (r CanonicalRecord) Values() []string {
	return []string{
		string(r.Code),
		r.Description,
		r.Balance.String(),
		r.Unit,
		r.MRP,
		r.Class,
		r.GeneratedAt.Format(TimestampLayout),
	}
}
