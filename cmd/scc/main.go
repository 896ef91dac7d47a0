// Package main is the entry point for the scc binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd()
	setVersionInfo(root, version, commit, date)

	if err := root.Execute(); err != nil {
		fmt.Fprint(os.Stderr, formatError(root, err))
	}
	// scc reports failures on stderr but always exits 0.
}

func formatError(cmd *cobra.Command, err error) string {
	return fmt.Sprintf("Error: %v\n\n%s", err, cmd.UsageString())
}
