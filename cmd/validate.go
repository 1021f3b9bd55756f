package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/material-stock-control/internal/converter"
	"github.com/ginjaninja78/material-stock-control/internal/validation"
)

var validateFlags overrides

// strict makes validate fail when any data issue is found.
var strict bool

// validateCmd runs the pipeline as a dry run and reports data issues.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the inputs and report data issues without writing output",
	Long: `The validate command loads and reconciles both inputs exactly like process,
then lists every data issue it found:
  - catalog rows with blank, malformed or repeated codes
  - materials without a description in either input
  - negative balances

Nothing is written. With --strict, any issue makes the command fail.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFlags.apply(cfg); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		result := converter.New(cfg, logger, converter.WithDryRun(true)).Run(cmd.Context())
		if !result.Success {
			return describeFailure(result.Error)
		}

		printStats(result)

		if len(result.Issues) == 0 {
			fmt.Println("\nNo data issues found.")
			return nil
		}

		fmt.Printf("\n%d data issue(s):\n", len(result.Issues))
		fmt.Print(validation.FormatIssues(result.Issues))

		if strict {
			return fmt.Errorf("validation found %d issue(s)", len(result.Issues))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addOverrideFlags(validateCmd, &validateFlags)
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Fail when any data issue is found")
}
