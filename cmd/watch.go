package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/material-stock-control/internal/converter"
	"github.com/ginjaninja78/material-stock-control/internal/watcher"
)

var watchFlags overrides

// debounce is the quiet period after the last change before a rebuild.
var debounce time.Duration

// watchCmd rebuilds the output whenever one of the inputs is saved.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the output whenever the export or the catalog changes",
	Long: `The watch command processes the inputs once, then keeps running and
processes them again every time the raw export or the reference catalog is
saved. Failed runs are logged and the previous output is kept.

Stop it with Ctrl+C.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := watchFlags.apply(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		run := func(ctx context.Context) {
			result := converter.New(cfg, logger).Run(ctx)
			if !result.Success {
				logger.Error("rebuild failed, previous output kept", zap.Error(describeFailure(result.Error)))
			}
		}

		w, err := watcher.New([]string{cfg.RawExportPath, cfg.ReferencePath}, debounce, logger, run)
		if err != nil {
			return err
		}

		run(ctx)
		logger.Info("watching inputs for changes",
			zap.String("raw_export", cfg.RawExportPath),
			zap.String("reference", cfg.ReferencePath))

		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addOverrideFlags(watchCmd, &watchFlags)
	watchCmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period after the last change before rebuilding")
}
