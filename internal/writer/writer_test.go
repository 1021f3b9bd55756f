package writer

import (
	"encoding/csv"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

var generatedAt = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func sampleRecords() []types.CanonicalRecord {
	return []types.CanonicalRecord{
		{
			Code:        "12.345.678",
			Description: "Gasket <3/4>",
			Balance:     decimal.RequireFromString("1239.50"),
			Unit:        "UN",
			MRP:         "ZP",
			Class:       "A",
			GeneratedAt: generatedAt,
		},
		{
			Code:        "99.999.999",
			Description: "Válvula",
			Balance:     decimal.Zero,
			Unit:        types.DefaultUnit,
			GeneratedAt: generatedAt,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		path   string
		want   Format
		err    bool
	}{
		{name: "inferred xlsx", path: "out/Controle.xlsx", want: FormatXLSX},
		{name: "inferred upper-case", path: "out/Controle.CSV", want: FormatCSV},
		{name: "explicit wins", format: "XML", path: "out.xlsx", want: FormatXML},
		{name: "unknown extension", path: "out.pdf", err: true},
		{name: "no extension", path: "out", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.format, tt.path)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "Controle de Materiais Estoque.xlsx")
	require.NoError(t, Write(path, FormatXLSX, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, types.OutputColumns, rows[0])
	assert.Equal(t, []string{"12.345.678", "Gasket <3/4>", "1239.5", "UN", "ZP", "A", "11/03/2024 08:00:00"}, rows[1])
	assert.Equal(t, "99.999.999", rows[2][0])
	assert.Equal(t, "0", rows[2][2])
	assert.Equal(t, types.DefaultUnit, rows[2][3])
}

func TestWrite_XLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Write(path, FormatXLSX, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, types.OutputColumns, rows[0])
}

func TestWrite_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write(path, FormatCSV, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), utf8BOM))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), utf8BOM)))
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, types.OutputColumns, rows[0])
	assert.Equal(t, []string{"99.999.999", "Válvula", "0", "UN", "", "", "11/03/2024 08:00:00"}, rows[2])
}

func TestWrite_XML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")
	require.NoError(t, Write(path, FormatXML, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), xml.Header))
	assert.Contains(t, string(data), "<Descricao>Gasket &lt;3/4&gt;</Descricao>")
	assert.Contains(t, string(data), "<MRP/>")

	var doc struct {
		Generated string `xml:"gerado,attr"`
		Total     int    `xml:"total,attr"`
		Materials []struct {
			N       int    `xml:"n,attr"`
			Code    string `xml:"NM"`
			Balance string `xml:"Saldo"`
		} `xml:"material"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc))

	assert.Equal(t, "11/03/2024 08:00:00", doc.Generated)
	assert.Equal(t, 2, doc.Total)
	require.Len(t, doc.Materials, 2)
	assert.Equal(t, 2, doc.Materials[1].N)
	assert.Equal(t, "12.345.678", doc.Materials[0].Code)
	assert.Equal(t, "1239.5", doc.Materials[0].Balance)
}

func TestWrite_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, Write(path, FormatCSV, sampleRecords()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old")

	// No temporary files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWrite_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")

	require.Error(t, Write(path, Format("pdf"), sampleRecords()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
