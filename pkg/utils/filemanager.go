// =============================================================================
// Material Stock Control - File Manager Utility
// =============================================================================
//
// This module provides the file housekeeping around a run:
//   - Output naming (optional placeholders in the output file name)
//   - Archival of the previous output before it is overwritten
//   - Retention of archived outputs
//   - The per-run processing summary
//
// ARCHIVAL STRATEGY:
//   - Inputs are never moved or modified; the ERP export is re-read every run
//   - The previous output is copied to ArchiveDir with a timestamp suffix
//   - Archives older than the retention period are removed after archival
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations around a processing run.
type FileManager struct {
	// ArchiveDir receives copies of previous outputs. Empty disables archival.
	ArchiveDir string

	// SummaryDir receives the processing summaries. Empty disables them.
	SummaryDir string

	// UseDateSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/Controle de Materiais Estoque_20240115_143022.xlsx
	UseDateSubdirs bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(archiveDir, summaryDir string) *FileManager {
	return &FileManager{
		ArchiveDir: archiveDir,
		SummaryDir: summaryDir,
		Now:        time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchivePreviousOutput copies an existing output file to the archive.
//
// PARAMETERS:
//   - outputPath: The output about to be overwritten.
//
// RETURNS:
//   - The path of the archived copy, or "" if archival is disabled or there
//     is no previous output.
//   - An error if the copy fails.
func (fm *FileManager) ArchivePreviousOutput(outputPath string) (string, error) {
	if fm.ArchiveDir == "" || !FileExists(outputPath) {
		return "", nil
	}

	archivePath := fm.getArchivePath(outputPath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(outputPath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	now := fm.now()
	ext := filepath.Ext(filePath)
	stem := strings.TrimSuffix(filepath.Base(filePath), ext)
	fileName := fmt.Sprintf("%s_%s%s", stem, now.Format("20060102_150405"), ext)

	if fm.UseDateSubdirs {
		subDir := filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
		return filepath.Join(subDir, fileName)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func (fm *FileManager) CleanOldArchives(maxAge time.Duration) (int, error) {
	if fm.ArchiveDir == "" || maxAge <= 0 || !FileExists(fm.ArchiveDir) {
		return 0, nil
	}

	cutoff := fm.now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(fm.ArchiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of a file name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Date (YYYYMMDD)
//               {time}      - Time (HHMMSS)
//               {original}  - Configured output name (without extension)
//   - params: Additional placeholder values.
//   - now: The time used by the date placeholders.
//   - ext: The extension to enforce, e.g. ".xlsx".
//
// EXAMPLE:
//   format: "estoque_{date}"
//   ext:    ".xlsx"
//   output: "estoque_20240115.xlsx"
func GenerateOutputFileName(format string, params map[string]string, now time.Time, ext string) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// ResolveOutputPath applies nameFormat to the file name of outputPath. An
// empty nameFormat returns outputPath unchanged.
func ResolveOutputPath(outputPath, nameFormat string, now time.Time) string {
	if nameFormat == "" {
		return outputPath
	}

	ext := filepath.Ext(outputPath)
	original := strings.TrimSuffix(filepath.Base(outputPath), ext)
	name := GenerateOutputFileName(nameFormat, map[string]string{"original": original}, now, ext)

	return filepath.Join(filepath.Dir(outputPath), name)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Error     string

	RawExportFile string
	ReferenceFile string
	OutputFile    string
	ArchivePath   string

	RawRows       int
	Blocks        int
	RowIssues     int
	Matched       int
	StockOnly     int
	ReferenceOnly int
	Records       int

	// Issues are the data findings, one line each.
	Issues []string
}

// WriteSummaryLog writes a processing summary to a text file in SummaryDir.
//
// RETURNS:
//   - The path to the summary file, or "" if summaries are disabled.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	if fm.SummaryDir == "" {
		return "", nil
	}

	if err := os.MkdirAll(fm.SummaryDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	runID := summary.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	summaryPath := filepath.Join(fm.SummaryDir, fmt.Sprintf("processing_summary_%s_%s.txt", timestamp, runID))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	status := "SUCCESS"
	if !summary.Success {
		status = "FAILED"
	}

	fmt.Fprintf(writer, "Material Stock Control - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Status:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Files:\n"+
		"  Raw Export:     %s\n"+
		"  Reference:      %s\n"+
		"  Output:         %s\n",
		summary.RunID,
		status,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.RawExportFile,
		summary.ReferenceFile,
		summary.OutputFile)
	if summary.ArchivePath != "" {
		fmt.Fprintf(writer, "  Archived:       %s\n", summary.ArchivePath)
	}

	if summary.Error != "" {
		fmt.Fprintf(writer, "\nError:\n  %s\n", summary.Error)
	}

	fmt.Fprintf(writer, "\nStatistics:\n"+
		"  Raw Rows:       %d\n"+
		"  Blocks:         %d\n"+
		"  Row Issues:     %d\n"+
		"  Matched:        %d\n"+
		"  Stock Only:     %d\n"+
		"  Reference Only: %d\n"+
		"  Records:        %d\n",
		summary.RawRows,
		summary.Blocks,
		summary.RowIssues,
		summary.Matched,
		summary.StockOnly,
		summary.ReferenceOnly,
		summary.Records)

	if len(summary.Issues) > 0 {
		writer.WriteString("\nIssues:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, issue := range summary.Issues {
			fmt.Fprintf(writer, "  %s\n", issue)
		}
	}

	writer.WriteString("\n================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
