package main

import (
	"context"

	"github.com/spf13/cobra"

	facade "github.com/oxhq/multigrep"
	"github.com/oxhq/multigrep/internal/config"
	"github.com/oxhq/multigrep/internal/preview"
	"github.com/oxhq/multigrep/internal/rule"
)

func newPreviewCmd() *cobra.Command {
	f := &sharedFlags{}
	var maxFiles, maxSamples int
	cmd := &cobra.Command{
		Use:   "preview ROOT",
		Short: "Show what run would change, without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(args[0], f, maxFiles, maxSamples)
		},
	}
	registerSharedFlags(cmd, f)
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "Maximum number of files to sample (default 10).")
	cmd.Flags().IntVar(&maxSamples, "max-samples", 0, "Maximum change samples per file (default 5).")
	return cmd
}

func runPreview(root string, f *sharedFlags, maxFiles, maxSamples int) error {
	opts := f.applyOverrides(config.Default().ApplyEnv())

	rules, err := resolveRules(f, rule.Defaults{CaseSensitive: opts.CaseSensitive, WholeWord: opts.WholeWord})
	if err != nil {
		printFatal(err, f.jsonOutput)
		return err
	}

	files, err := facade.FindFiles(context.Background(), root, f.walkerOptions())
	if err != nil {
		printFatal(err, f.jsonOutput)
		return err
	}

	report, err := facade.Preview(context.Background(), files, rules, preview.Options{
		MaxFiles:          maxFiles,
		MaxSamplesPerFile: maxSamples,
		ContextLines:      f.diffContext,
	})
	if err != nil {
		printFatal(err, f.jsonOutput)
		return err
	}

	printPreview(report, f.jsonOutput, f.diff)
	return nil
}
