package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	facade "github.com/oxhq/multigrep"
	"github.com/oxhq/multigrep/internal/config"
	contentpkg "github.com/oxhq/multigrep/internal/content"
	"github.com/oxhq/multigrep/internal/executor"
	"github.com/oxhq/multigrep/internal/fileio"
	"github.com/oxhq/multigrep/internal/rule"
)

func newRunCmd() *cobra.Command {
	f := &sharedFlags{}
	cmd := &cobra.Command{
		Use:   "run ROOT",
		Short: "Apply rules to every matching file under ROOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args[0], f)
		},
	}
	registerSharedFlags(cmd, f)
	return cmd
}

func runRun(root string, f *sharedFlags) error {
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

	batch := facade.NewBatch(rules, executor.Options{
		MaxConcurrency:           opts.MaxConcurrency,
		DryRun:                   opts.DryRun || f.stdout,
		StopOnError:              opts.StopOnError,
		MaxErrors:                opts.MaxErrors,
		StreamSizeThresholdBytes: opts.StreamSizeThresholdBytes,
		OversizeLimitBytes:       opts.OversizeLimitBytes,
		ProgressIntervalItems:    opts.ProgressIntervalItems,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range batch.Events() {
			if ev.Progress == nil {
				continue
			}
			r := ev.Progress.Result
			var content string
			var diff string
			if f.stdout || f.diff {
				content, diff = reReadForDisplay(r.Path, f.diffContext)
			}
			if f.stdout {
				content = contentpkg.Process(content, rules, contentpkg.Options{}).NewContent
			}
			printResult(r, diff, f, content)
		}
	}()

	summary, err := batch.Run(context.Background(), files)
	<-done
	if err != nil {
		printFatal(err, f.jsonOutput)
		return err
	}

	printSummary(summary, f.jsonOutput)
	return nil
}

// reReadForDisplay is a best-effort convenience for --stdout/--diff: it
// reads the file as it stands when the event fires. With --stdout the
// run is a dry run, so this is the original content, to which the
// caller then applies the rules; otherwise a modified file has already
// been rewritten. The diff it returns is only a ---/+++ header pair
// naming the file, with no hunks. Preview mode (which never writes)
// builds a full diff from the in-memory before/after content instead;
// see internal/preview.
func reReadForDisplay(path string, _ int) (content, diff string) {
	text, _, err := fileio.Read(path, fileio.Options{})
	if err != nil {
		return "", ""
	}
	return text, fmt.Sprintf("--- %s\n+++ %s (processed)\n", path, path)
}
