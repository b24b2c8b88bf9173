// Command planctl runs the action plan pipeline from a terminal: parse a
// workbook, look up the guide, generate recommendations and export them.
package main

import (
	"fmt"
	"os"

	"ifs-actionplan/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
