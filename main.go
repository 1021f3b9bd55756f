// =============================================================================
// Material Stock Control - Main Entry Point
// =============================================================================
//
// USAGE:
//   estoque process       - Build the stock control table
//   estoque validate      - Report data issues without writing
//   estoque version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, reconciliation and output (not for external import)
//   - pkg/           : File housekeeping shared by the commands
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/material-stock-control/cmd"
)

func main() {
	cmd.Execute()
}
