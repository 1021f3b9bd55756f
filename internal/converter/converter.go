// =============================================================================
// Material Stock Control - Converter Module
// =============================================================================
//
// This module orchestrates one processing run, from the two input files to
// the canonical output read by the dashboard.
//
// PROCESSING PIPELINE:
//   1. Resolve the output format and file name
//   2. Load the raw export and the reference catalog (concurrently)
//   3. Parse the raw export into one StockRecord per block
//   4. Reconcile stock with the catalog (full outer join, defaults, sort)
//   5. Collect data issues (catalog keys, output plausibility)
//   6. Archive the previous output and write the new one
//   7. Write the processing summary
//
// FAILURE POLICY:
//   - A missing or unreadable input fails the run before anything is written.
//   - Row-level defects never fail the run; they are counted and reported.
//   - Archival, retention and summary failures are logged and do not fail
//     the run.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/material-stock-control/internal/blockparser"
	"github.com/ginjaninja78/material-stock-control/internal/config"
	"github.com/ginjaninja78/material-stock-control/internal/csvparser"
	"github.com/ginjaninja78/material-stock-control/internal/reconciler"
	"github.com/ginjaninja78/material-stock-control/internal/types"
	"github.com/ginjaninja78/material-stock-control/internal/validation"
	"github.com/ginjaninja78/material-stock-control/internal/writer"
	"github.com/ginjaninja78/material-stock-control/internal/xlsxparser"
	"github.com/ginjaninja78/material-stock-control/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of a processing run.
type Result struct {
	// RunID identifies the run in logs and in the summary file.
	RunID string

	// OutputFile is the path of the canonical output. It is set on dry runs
	// too, to show where the output would have been written.
	OutputFile string

	// ArchivePath is the archived copy of the previous output, if any.
	ArchivePath string

	// SummaryFile is the processing summary, if summaries are enabled.
	SummaryFile string

	// DryRun reports that nothing was written.
	DryRun bool

	// Success indicates whether the run completed.
	Success bool

	// Error contains the error if the run failed. Input failures wrap
	// types.ErrInputMissing or types.ErrUnexpectedShape.
	Error error

	// Records is the canonical set, in output order.
	Records []types.CanonicalRecord

	// Issues are the non-fatal data findings.
	Issues []*validation.Issue

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	// RawRows is the number of export rows after the legend rows.
	RawRows int

	// Blocks is the number of material blocks found, repeats included.
	Blocks int

	// QuantityRows is the number of rows added to a balance.
	QuantityRows int

	// RowIssues is the number of export rows skipped or counted as zero.
	RowIssues int

	// DuplicateBlocks counts blocks whose code appeared earlier in the export.
	DuplicateBlocks int

	// ReferenceRows is the number of non-blank catalog rows.
	ReferenceRows int

	// Matched, StockOnly and ReferenceOnly split the output by origin.
	Matched       int
	StockOnly     int
	ReferenceOnly int

	// DuplicateReferences counts catalog rows ignored for a repeated code.
	DuplicateReferences int

	// Records is the number of canonical records.
	Records int

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline for one configuration.
type Converter struct {
	cfg    *config.Config
	logger *zap.Logger
	files  *utils.FileManager

	now    func() time.Time
	dryRun bool
	runID  string
}

// Option configures a Converter.
type Option func(*Converter)

// WithClock sets the clock. It is read once per run, for the timestamp
// shared by every record.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// WithDryRun runs every step except archival, writing and the summary.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) {
		c.dryRun = dryRun
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(c *Converter) {
		c.runID = id
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - cfg: The validated application configuration.
//   - logger: The logger. Nil discards logs.
//   - opts: Optional settings.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Converter{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.files = utils.NewFileManager(cfg.ArchiveDir, cfg.SummaryDir)
	c.files.UseDateSubdirs = cfg.ArchiveDateSubdirs
	c.files.Now = c.now

	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome of the run. Result.Error is set
//     when Result.Success is false.
func (c *Converter) Run(ctx context.Context) (result Result) {
	wallStart := time.Now()
	generatedAt := c.now()

	runID := c.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	log := c.logger.With(zap.String("run_id", runID))

	result = Result{RunID: runID, DryRun: c.dryRun}

	defer func() {
		result.Stats.ProcessingTime = time.Since(wallStart)
		if !c.dryRun {
			result.SummaryFile = c.writeSummary(log, result, generatedAt)
		}

		if result.Success {
			log.Info("processing complete",
				zap.String("output", result.OutputFile),
				zap.Int("records", result.Stats.Records),
				zap.Int("issues", len(result.Issues)),
				zap.Duration("elapsed", result.Stats.ProcessingTime))
		} else {
			log.Error("processing failed", zap.Error(result.Error))
		}
	}()

	// =========================================================================
	// STEP 1: RESOLVE OUTPUT
	// =========================================================================

	format, err := writer.ParseFormat(c.cfg.OutputFormat, c.cfg.OutputPath)
	if err != nil {
		result.Error = err
		return result
	}
	sortKey, err := reconciler.ParseSortKey(c.cfg.SortBy)
	if err != nil {
		result.Error = err
		return result
	}
	result.OutputFile = utils.ResolveOutputPath(c.cfg.OutputPath, c.cfg.OutputNameFormat, generatedAt)

	log.Info("processing started",
		zap.String("raw_export", c.cfg.RawExportPath),
		zap.String("reference", c.cfg.ReferencePath),
		zap.String("output", result.OutputFile),
		zap.String("format", string(format)),
		zap.Bool("dry_run", c.dryRun))

	// =========================================================================
	// STEP 2: LOAD INPUTS
	// =========================================================================
	// Both inputs are independent; a failure of either cancels the other.

	var (
		rawRows []types.RawRow
		refs    []types.ReferenceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		rows, err := c.loadRawExport()
		rawRows = rows
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		records, err := c.loadReference()
		refs = records
		return err
	})
	if err := g.Wait(); err != nil {
		result.Error = err
		return result
	}

	result.Stats.RawRows = len(rawRows)
	result.Stats.ReferenceRows = len(refs)
	log.Debug("inputs loaded", zap.Int("raw_rows", len(rawRows)), zap.Int("reference_rows", len(refs)))

	// =========================================================================
	// STEP 3: PARSE BLOCKS
	// =========================================================================

	stock, report := blockparser.ParseWithReport(rawRows, c.cfg.RawLayout)

	result.Stats.Blocks = report.Blocks
	result.Stats.QuantityRows = report.QuantityRows
	result.Stats.RowIssues = len(report.Issues)
	result.Stats.DuplicateBlocks = report.DuplicateBlocks

	for _, issue := range report.Issues {
		log.Debug("row skipped",
			zap.Int("row", issue.Index+c.cfg.RawLayout.SkipRows+1),
			zap.String("code", string(issue.Code)),
			zap.String("reason", string(issue.Reason)),
			zap.String("value", issue.Value))
	}
	if report.IssueCount(blockparser.ReasonMalformedQuantity) > 0 {
		log.Warn("quantities that are not numbers were counted as zero",
			zap.Int("rows", report.IssueCount(blockparser.ReasonMalformedQuantity)))
	}
	if report.DuplicateBlocks > 0 {
		log.Warn("material codes repeated in the export; the last block was kept",
			zap.Int("blocks", report.DuplicateBlocks))
	}
	log.Debug("blocks parsed", zap.Int("blocks", report.Blocks), zap.Int("materials", len(stock)))

	// =========================================================================
	// STEP 4: RECONCILE
	// =========================================================================

	records, stats := reconciler.ReconcileWithStats(stock, refs, reconciler.Options{
		GeneratedAt: generatedAt,
		SortBy:      sortKey,
	})

	result.Records = records
	result.Stats.Matched = stats.Matched
	result.Stats.StockOnly = stats.StockOnly
	result.Stats.ReferenceOnly = stats.ReferenceOnly
	result.Stats.DuplicateReferences = stats.DuplicateReferences
	result.Stats.Records = len(records)

	log.Info("reconciled",
		zap.Int("matched", stats.Matched),
		zap.Int("stock_only", stats.StockOnly),
		zap.Int("reference_only", stats.ReferenceOnly))

	// =========================================================================
	// STEP 5: COLLECT ISSUES
	// =========================================================================

	result.Issues = append(validation.ValidateReference(refs), validation.ValidateRecords(records)...)
	for _, issue := range result.Issues {
		log.Debug("data issue", zap.String("issue", issue.String()))
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUT
	// =========================================================================

	if c.dryRun {
		log.Info("dry run, output not written")
		result.Success = true
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	archived, err := c.files.ArchivePreviousOutput(result.OutputFile)
	if err != nil {
		log.Warn("failed to archive previous output", zap.Error(err))
	} else if archived != "" {
		result.ArchivePath = archived
		log.Debug("previous output archived", zap.String("archive", archived))
	}

	if err := writer.Write(result.OutputFile, format, records); err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	if days := c.cfg.ArchiveRetentionDays; days > 0 {
		removed, err := c.files.CleanOldArchives(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			log.Warn("failed to clean old archives", zap.Error(err))
		} else if removed > 0 {
			log.Debug("old archives removed", zap.Int("files", removed))
		}
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadRawExport reads the raw export with the reader for its extension.
func (c *Converter) loadRawExport() ([]types.RawRow, error) {
	if isCSV(c.cfg.RawExportPath) {
		return csvparser.ReadRawExport(c.cfg.RawExportPath, c.cfg.RawLayout, c.cfg.CSVSettings)
	}
	return xlsxparser.ReadRawExport(c.cfg.RawExportPath, c.cfg.RawLayout)
}

// loadReference reads the catalog with the reader for its extension.
func (c *Converter) loadReference() ([]types.ReferenceRecord, error) {
	if isCSV(c.cfg.ReferencePath) {
		return csvparser.ReadReference(c.cfg.ReferencePath, c.cfg.CSVSettings)
	}
	return xlsxparser.ReadReference(c.cfg.ReferencePath, c.cfg.ReferenceSheet)
}

// writeSummary writes the summary file and returns its path.
func (c *Converter) writeSummary(log *zap.Logger, result Result, start time.Time) string {
	summary := utils.ProcessingSummary{
		RunID:         result.RunID,
		StartTime:     start,
		EndTime:       start.Add(result.Stats.ProcessingTime),
		Success:       result.Success,
		RawExportFile: c.cfg.RawExportPath,
		ReferenceFile: c.cfg.ReferencePath,
		OutputFile:    result.OutputFile,
		ArchivePath:   result.ArchivePath,
		RawRows:       result.Stats.RawRows,
		Blocks:        result.Stats.Blocks,
		RowIssues:     result.Stats.RowIssues,
		Matched:       result.Stats.Matched,
		StockOnly:     result.Stats.StockOnly,
		ReferenceOnly: result.Stats.ReferenceOnly,
		Records:       result.Stats.Records,
	}
	if result.Error != nil {
		summary.Error = result.Error.Error()
	}
	for _, issue := range result.Issues {
		summary.Issues = append(summary.Issues, issue.String())
	}

	path, err := c.files.WriteSummaryLog(summary)
	if err != nil {
		log.Warn("failed to write processing summary", zap.Error(err))
		return ""
	}
	return path
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
