package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/oxhq/multigrep/internal/executor"
	"github.com/oxhq/multigrep/internal/preview"
	"github.com/oxhq/multigrep/internal/xerr"
)

// printResult renders one FileResult in a ✓/✗ summary line, honoring
// --verbose, --diff (already embedded in the diff string by the
// caller), --json, and --stdout.
func printResult(r executor.FileResult, diff string, f *sharedFlags, content string) {
	if f.jsonOutput {
		b, _ := json.Marshal(r)
		fmt.Println(string(b))
		return
	}

	if r.Err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Err)
		return
	}
	if r.Skipped {
		fmt.Printf("- %s — skipped (%s)\n", r.Path, r.SkipReason)
		return
	}

	if f.stdout {
		fmt.Print(content)
		return
	}

	if f.diff && diff != "" {
		fmt.Print(diff)
		return
	}

	if !r.Modified {
		if f.verbose {
			fmt.Printf("✓ %s — no changes\n", r.Path)
		}
		return
	}

	fmt.Printf("✓ %s — %d changes\n", r.Path, r.TotalMatches)
	if f.verbose {
		for ruleID, count := range r.PerRuleCounts {
			if count > 0 {
				fmt.Printf("    %s: %d\n", ruleID, count)
			}
		}
	}
}

func printSummary(s *executor.BatchSummary, jsonOutput bool) {
	if jsonOutput {
		b, _ := json.Marshal(s)
		fmt.Println(string(b))
		return
	}
	fmt.Printf(
		"\n%d files processed, %d modified, %d failed, %d skipped, %d total matches\n",
		s.FilesProcessed, s.FilesModified, s.FilesFailed, s.FilesSkipped, s.TotalMatches,
	)
	if s.Cancelled {
		fmt.Printf("run cancelled: %s\n", s.CancelReason)
	}
}

func printPreview(r *preview.Report, jsonOutput, showDiff bool) {
	if jsonOutput {
		b, _ := json.Marshal(r)
		fmt.Println(string(b))
		return
	}

	fmt.Printf(
		"considered %d files, sampled %d, %d would change (risk: %s)\n",
		r.FilesConsidered, r.FilesSampled, r.FilesWouldChange, r.Risk,
	)
	for _, factor := range r.RiskFactors {
		fmt.Printf("  ! %s\n", factor)
	}
	fmt.Printf("estimated full-run duration: %s\n", r.EstimatedDuration)

	for _, c := range r.Changes {
		if c.Skipped {
			fmt.Printf("- %s — skipped (%s)\n", c.Path, c.SkipReason)
			continue
		}
		if !c.Modified {
			continue
		}
		if showDiff {
			fmt.Print(c.Diff)
			continue
		}
		fmt.Printf("~ %s — %d changes\n", c.Path, c.Total)
	}
}

// printFatal prints a structured CLIError on stdout in --json mode, a
// plain message on stderr otherwise.
func printFatal(err error, jsonOutput bool) {
	if jsonOutput {
		if xe, ok := err.(xerr.Error); ok {
			fmt.Println(xe.JSON())
			return
		}
		fmt.Println(xerr.Error{Code: xerr.Unknown, Message: err.Error()}.JSON())
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
