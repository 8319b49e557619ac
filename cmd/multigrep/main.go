// Command multigrep is the CLI front end for the bulk literal
// search-and-replace engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/multigrep/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	root := &cobra.Command{
		Use:   "multigrep",
		Short: "Bulk literal string search-and-replace across a file tree",
	}
	root.AddCommand(newRunCmd(), newPreviewCmd(), newValidateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
