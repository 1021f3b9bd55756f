package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/material-stock-control/internal/config"
	"github.com/ginjaninja78/material-stock-control/internal/types"
	"github.com/ginjaninja78/material-stock-control/internal/writer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func saveWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func legend() [][]interface{} {
	return [][]interface{}{{"Relatório"}, {"Centro"}, {"Emissão"}, {"legenda"}, {"", "Código"}}
}

// setup writes a raw export and a catalog and returns a config pointing at them.
func setup(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.RawExportPath = filepath.Join(dir, "Planilha Base", "Materiais.xlsx")
	cfg.ReferencePath = filepath.Join(dir, "NM materiais do SMS SI.xlsx")
	cfg.OutputPath = filepath.Join(dir, "Controle de Materiais Estoque.xlsx")

	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.RawExportPath), 0755))
	saveWorkbook(t, cfg.RawExportPath, append(legend(),
		[]interface{}{"", "12.345.678", "", "", "", "", "Gasket"},
		[]interface{}{"", "", "", "1.234,50", "UN"},
		[]interface{}{"", "", "", "5,00", "UN"},
		[]interface{}{"", "", "", "999,00", "BRL"},
		[]interface{}{"", "12.345.679", "", "", "", "", "Nut"},
		[]interface{}{"", "", "", "abc", "PC"},
	))
	saveWorkbook(t, cfg.ReferencePath, [][]interface{}{
		{"NM", "Descrição do Material", "MRP", "Classe"},
		{"12.345.678", "Gasket (catalog)", "ZP", "A"},
		{"06.000.001", "Bolt", "ND", "B"},
	})

	return cfg
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(writer.SheetName)
	require.NoError(t, err)
	return rows
}

func TestRun(t *testing.T) {
	cfg := setup(t)
	core, logs := observer.New(zapcore.DebugLevel)

	result := New(cfg, zap.New(core), WithClock(clock), WithRunID("run-1")).Run(context.Background())
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, cfg.OutputPath, result.OutputFile)
	assert.Equal(t, ProcessingStats{
		RawRows:        6,
		Blocks:         2,
		QuantityRows:   2,
		RowIssues:      2,
		ReferenceRows:  2,
		Matched:        1,
		StockOnly:      1,
		ReferenceOnly:  1,
		Records:        3,
		ProcessingTime: result.Stats.ProcessingTime,
	}, result.Stats)

	rows := readOutput(t, cfg.OutputPath)
	require.Len(t, rows, 4)
	assert.Equal(t, types.OutputColumns, rows[0])
	assert.Equal(t, []string{"06.000.001", "Bolt", "0", "UN", "ND", "B", "11/03/2024 08:00:00"}, rows[1])
	assert.Equal(t, []string{"12.345.678", "Gasket", "1239.5", "UN", "ZP", "A", "11/03/2024 08:00:00"}, rows[2])
	assert.Equal(t, []string{"12.345.679", "Nut", "0", "PC", "", "", "11/03/2024 08:00:00"}, rows[3])

	complete := logs.FilterMessage("processing complete").All()
	require.Len(t, complete, 1)
	assert.Equal(t, "run-1", complete[0].ContextMap()["run_id"])
	assert.Equal(t, 1, logs.FilterMessage("quantities that are not numbers were counted as zero").Len())
}

func TestRun_SortByCode(t *testing.T) {
	cfg := setup(t)
	cfg.SortBy = "code"

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.True(t, result.Success, "%v", result.Error)

	require.Len(t, result.Records, 3)
	assert.Equal(t, types.MaterialCode("06.000.001"), result.Records[0].Code)
	assert.Equal(t, types.MaterialCode("12.345.678"), result.Records[1].Code)
	assert.Equal(t, types.MaterialCode("12.345.679"), result.Records[2].Code)
}

func TestRun_ArchivesPreviousOutputAndWritesSummary(t *testing.T) {
	cfg := setup(t)
	root := filepath.Dir(cfg.OutputPath)
	cfg.ArchiveDir = filepath.Join(root, "archive")
	cfg.SummaryDir = filepath.Join(root, "logs")
	require.NoError(t, os.WriteFile(cfg.OutputPath, []byte("previous"), 0644))

	result := New(cfg, zap.NewNop(), WithClock(clock), WithRunID("abcdef0123")).Run(context.Background())
	require.True(t, result.Success, "%v", result.Error)

	assert.Equal(t, filepath.Join(cfg.ArchiveDir, "Controle de Materiais Estoque_20240311_080000.xlsx"), result.ArchivePath)
	archived, err := os.ReadFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(archived))

	assert.Equal(t, filepath.Join(cfg.SummaryDir, "processing_summary_20240311_080000_abcdef01.txt"), result.SummaryFile)
	summary, err := os.ReadFile(result.SummaryFile)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Records:        3")
}

func TestRun_OutputNameFormat(t *testing.T) {
	cfg := setup(t)
	cfg.OutputNameFormat = "{original}_{date}"

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.True(t, result.Success, "%v", result.Error)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.OutputPath), "Controle de Materiais Estoque_20240311.xlsx"), result.OutputFile)
	assert.FileExists(t, result.OutputFile)
}

func TestRun_DryRun(t *testing.T) {
	cfg := setup(t)
	cfg.SummaryDir = filepath.Join(filepath.Dir(cfg.OutputPath), "logs")

	result := New(cfg, nil, WithClock(clock), WithDryRun(true)).Run(context.Background())
	require.True(t, result.Success, "%v", result.Error)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Records, 3)

	assert.NoFileExists(t, cfg.OutputPath)
	assert.NoDirExists(t, cfg.SummaryDir)
}

func TestRun_MissingInput(t *testing.T) {
	cfg := setup(t)
	require.NoError(t, os.Remove(cfg.RawExportPath))

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Error, types.ErrInputMissing))

	var inputErr *types.InputError
	require.True(t, errors.As(result.Error, &inputErr))
	assert.Equal(t, types.InputRawExport, inputErr.Input)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRun_ReferenceWithoutKeyColumn(t *testing.T) {
	cfg := setup(t)
	saveWorkbook(t, cfg.ReferencePath, [][]interface{}{
		{"Código", "Descrição do Material"},
		{"12.345.678", "Gasket"},
	})

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Error, types.ErrUnexpectedShape))
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRun_NoMatchingRows(t *testing.T) {
	cfg := setup(t)
	saveWorkbook(t, cfg.RawExportPath, legend())
	saveWorkbook(t, cfg.ReferencePath, [][]interface{}{{"NM"}})

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.True(t, result.Success, "%v", result.Error)
	assert.Empty(t, result.Records)

	rows := readOutput(t, cfg.OutputPath)
	require.Len(t, rows, 1)
	assert.Equal(t, types.OutputColumns, rows[0])
}

func TestRun_CSVInputs(t *testing.T) {
	cfg := setup(t)
	dir := filepath.Dir(cfg.OutputPath)
	cfg.RawExportPath = filepath.Join(dir, "Materiais.csv")
	cfg.ReferencePath = filepath.Join(dir, "NM.csv")
	cfg.OutputPath = filepath.Join(dir, "out.csv")

	require.NoError(t, os.WriteFile(cfg.RawExportPath, []byte("a\nb\nc\nd\ne\n;12.345.678;;;;;Gasket\n;;;2,5;un\n"), 0644))
	require.NoError(t, os.WriteFile(cfg.ReferencePath, []byte("NM;MRP\n12.345.678;ZP\n"), 0644))

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.True(t, result.Success, "%v", result.Error)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	assert.Equal(t, "Gasket", rec.Description)
	assert.Equal(t, "2.5", rec.Balance.String())
	assert.Equal(t, "UN", rec.Unit)
	assert.Equal(t, "ZP", rec.MRP)
	assert.FileExists(t, cfg.OutputPath)
}

func TestRun_InvalidOutputFormat(t *testing.T) {
	cfg := setup(t)
	cfg.OutputPath = filepath.Join(filepath.Dir(cfg.OutputPath), "out.pdf")

	result := New(cfg, nil, WithClock(clock)).Run(context.Background())
	require.False(t, result.Success)
	assert.Contains(t, result.Error.Error(), "unsupported output format")
}

func TestRun_Canceled(t *testing.T) {
	cfg := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(cfg, nil, WithClock(clock)).Run(ctx)
	require.False(t, result.Success)
	assert.True(t, errors.Is(result.Error, context.Canceled))
	assert.NoFileExists(t, cfg.OutputPath)
}
