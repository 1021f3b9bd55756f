package writer

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// SheetName is the worksheet of the xlsx output.
const SheetName = "Estoque"

// columnWidths in OutputColumns order.
var columnWidths = []float64{14, 48, 16, 18, 10, 10, 22}

// writeXLSX writes a single-sheet workbook. The balance is stored as a number
// so the dashboard can aggregate it; every other cell is text.
func writeXLSX(w io.Writer, records []types.CanonicalRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(types.OutputColumns))
	for i, name := range types.OutputColumns {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(types.OutputColumns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			string(rec.Code),
			rec.Description,
			rec.Balance.InexactFloat64(),
			rec.Unit,
			rec.MRP,
			rec.Class,
			rec.GeneratedAt.Format(types.TimestampLayout),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
