// =============================================================================
// Material Stock Control - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline and
// writes the canonical output.
//
// COMMAND USAGE:
//   estoque process [flags]
//
// FLAGS:
//   --raw         : Path of the raw stock export (overrides raw_export_path)
//   --reference   : Path of the reference catalog (overrides reference_path)
//   --output      : Path of the output (overrides output_path)
//   --format      : Output format: xlsx, csv or xml
//   --sort-by     : Output order: description or code
//   --dry-run     : Run every step but do not write anything
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/material-stock-control/internal/config"
	"github.com/ginjaninja78/material-stock-control/internal/converter"
	"github.com/ginjaninja78/material-stock-control/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// overrides holds the path and output flags shared by process and validate.
type overrides struct {
	rawPath       string
	referencePath string
	outputPath    string
	format        string
	sortBy        string
}

var processFlags overrides

// dryRun runs the pipeline without writing output files.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build the stock control table from the export and the catalog",
	Long: `The process command reads the raw stock export and the reference catalog,
reconciles them and writes the stock control table.

On success:
  - The previous output is copied to archive_dir (when configured)
  - The new output replaces it
  - A processing summary is written to summary_dir (when configured)

On error:
  - Nothing is written; the previous output stays in place
  - The message names the input that could not be used`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	addOverrideFlags(processCmd, &processFlags)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run every step without writing output files",
	)
}

// addOverrideFlags registers the flags that override configuration values.
func addOverrideFlags(cmd *cobra.Command, o *overrides) {
	cmd.Flags().StringVar(&o.rawPath, "raw", "", "Path of the raw stock export (xlsx or csv)")
	cmd.Flags().StringVar(&o.referencePath, "reference", "", "Path of the reference catalog (xlsx or csv)")
	cmd.Flags().StringVar(&o.outputPath, "output", "", "Path of the output file")
	cmd.Flags().StringVar(&o.format, "format", "", "Output format: xlsx, csv or xml")
	cmd.Flags().StringVar(&o.sortBy, "sort-by", "", "Output order: description or code")
}

// apply copies the flags that were set into the configuration.
func (o overrides) apply(c *config.Config) error {
	if o.rawPath != "" {
		c.RawExportPath = o.rawPath
	}
	if o.referencePath != "" {
		c.ReferencePath = o.referencePath
	}
	if o.outputPath != "" {
		c.OutputPath = o.outputPath
	}
	if o.format != "" {
		c.OutputFormat = o.format
	}
	if o.sortBy != "" {
		c.SortBy = o.sortBy
	}
	return config.Validate(c)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	if err := processFlags.apply(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	fmt.Println("=== Material Stock Control ===")

	result := converter.New(cfg, logger, converter.WithDryRun(dryRun)).Run(ctx)
	if !result.Success {
		return describeFailure(result.Error)
	}

	printStats(result)

	if result.DryRun {
		fmt.Printf("\nDry run: output not written (would be %s)\n", result.OutputFile)
	} else {
		fmt.Printf("\nOutput written to: %s\n", result.OutputFile)
		if result.ArchivePath != "" {
			fmt.Printf("Previous output archived to: %s\n", result.ArchivePath)
		}
	}
	if len(result.Issues) > 0 {
		fmt.Printf("%d data issue(s) found; run 'estoque validate' for details\n", len(result.Issues))
	}

	return nil
}

// printStats prints the run statistics.
func printStats(result converter.Result) {
	s := result.Stats
	fmt.Println("Summary:")
	fmt.Printf("  Materials in export:   %d (%d blocks, %d rows skipped)\n", s.Matched+s.StockOnly, s.Blocks, s.RowIssues)
	fmt.Printf("  Matched with catalog:  %d\n", s.Matched)
	fmt.Printf("  Only in export:        %d\n", s.StockOnly)
	fmt.Printf("  Only in catalog:       %d\n", s.ReferenceOnly)
	fmt.Printf("  Records:               %d\n", s.Records)
	fmt.Printf("  Processing time:       %s\n", s.ProcessingTime)
}

// describeFailure turns a pipeline error into an actionable message.
func describeFailure(err error) error {
	var inputErr *types.InputError
	if !errors.As(err, &inputErr) {
		return err
	}

	switch {
	case errors.Is(err, types.ErrInputMissing):
		return fmt.Errorf("%s not found at %q: check that the file exists and the path in the configuration is correct: %w",
			inputErr.Input, inputErr.Path, err)
	case errors.Is(err, types.ErrUnexpectedShape) && inputErr.Input == types.InputReference:
		return fmt.Errorf("%s %q cannot be used: the first row must contain a column named %q: %w",
			inputErr.Input, inputErr.Path, types.ColumnCode, err)
	default:
		return fmt.Errorf("%s %q cannot be read as a spreadsheet: %w", inputErr.Input, inputErr.Path, err)
	}
}
