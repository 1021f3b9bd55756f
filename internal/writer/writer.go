// =============================================================================
// Material Stock Control - Output Writer
// =============================================================================
//
// This module persists the canonical records. The dashboard reads the xlsx
// output; csv and xml are offered for other consumers.
//
// OUTPUT COLUMNS (all formats, in this order):
//   | NM | Descrição do Material | Saldo do Estoque | Unidade de Medida | MRP | Classe | Última Atualização |
//
// Records are written in the order given. The file is written to a temporary
// name in the destination directory and renamed into place, so a reader never
// sees a half-written output.
//
// =============================================================================

package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// ParseFormat converts a configured format name. Empty infers the format
// from the extension of path.
func ParseFormat(name, path string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch Format(name) {
	case FormatXLSX, FormatCSV, FormatXML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use xlsx, csv or xml)", name)
	}
}

// Write saves the records to path in the given format, replacing any
// existing file.
//
// PARAMETERS:
//   - path: The destination file.
//   - format: The output format.
//   - records: The canonical records, already sorted.
//
// RETURNS:
//   - An error if the file cannot be written. The previous file, if any, is
//     left untouched in that case.
func Write(path string, format Format, records []types.CanonicalRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	switch format {
	case FormatXLSX:
		err = writeXLSX(tmp, records)
	case FormatCSV:
		err = writeCSV(tmp, records)
	case FormatXML:
		err = writeXML(tmp, records)
	default:
		err = fmt.Errorf("unsupported output format %q", format)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s output: %w", format, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}
