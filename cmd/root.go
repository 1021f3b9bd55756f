// =============================================================================
// Material Stock Control - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (estoque)
//   ├── processCmd  (estoque process)
//   ├── validateCmd (estoque validate)
//   ├── watchCmd    (estoque watch)
//   └── versionCmd  (estoque version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration (file, then ESTOQUE_* environment)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/material-stock-control/internal/config"
	"github.com/ginjaninja78/material-stock-control/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// cfg is the loaded configuration, set before any subcommand runs.
var cfg *config.Config

// logger is shared by the subcommands.
var logger *zap.Logger

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "estoque",
	Short: "Material Stock Control - build the stock dashboard table from the ERP export",

	Long: `Material Stock Control reads the raw stock export produced by the ERP,
totals the balance of every material block, joins the result with the
reference catalog (NM materiais) and writes the table read by the stock
dashboard.

Every material of either input appears exactly once in the output:
  - Balance, unit and description come from the export when present
  - MRP and class come from the catalog
  - Catalog-only materials get balance 0 and unit UN

Example Usage:
  estoque process                          # Use config.yaml and the default paths
  estoque process --raw export.xlsx        # Override the raw export path
  estoque process --dry-run                # Run without writing the output
  estoque validate                         # Report data issues only`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(logging.Options{
			Level:       level,
			File:        cfg.LogFile,
			Development: verbose,
		})
		return err
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging with the console encoder",
	)
}
