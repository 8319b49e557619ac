package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oxhq/multigrep/internal/config"
	"github.com/oxhq/multigrep/internal/walker"
)

// sharedFlags holds the flag vocabulary common to run and preview:
// --include, --exclude, --no-gitignore, --oversize-limit,
// --follow-symlinks, --max-concurrency, --dry-run, --diff/--diff-context,
// --verbose, --json.
type sharedFlags struct {
	include        []string
	exclude        []string
	noGitignore    bool
	followSymlinks bool
	oversizeLimit  int64
	maxConcurrency int
	dryRun         bool
	diff           bool
	diffContext    int
	verbose        bool
	jsonOutput     bool
	stdout         bool

	rulesPath     string
	from          []string
	to            []string
	caseSensitive bool
	wholeWord     bool

	fs *pflag.FlagSet
}

func registerSharedFlags(cmd *cobra.Command, f *sharedFlags) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.include, "include", nil, "Include file patterns (glob).")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "Exclude file patterns (glob).")
	fs.BoolVar(&f.noGitignore, "no-gitignore", false, "Disable .gitignore filtering.")
	fs.BoolVar(&f.followSymlinks, "follow-symlinks", false, "Follow symbolic links to directories.")
	fs.Int64Var(&f.oversizeLimit, "oversize-limit", 0, "Maximum file size to process, in bytes (default 100 MiB).")
	fs.IntVar(&f.maxConcurrency, "max-concurrency", 0, "Number of concurrent file pipelines (default 10).")
	fs.BoolVarP(&f.dryRun, "dry-run", "d", false, "Perform a trial run without writing any files.")
	fs.BoolVarP(&f.diff, "diff", "D", false, "Show a unified diff of the changes (preview); run prints only a ---/+++ header per changed file.")
	fs.IntVarP(&f.diffContext, "diff-context", "C", 2, "Lines of context for the diff.")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output.")
	fs.BoolVarP(&f.jsonOutput, "json", "j", false, "Output results in JSON format.")
	fs.BoolVar(&f.stdout, "stdout", false, "Print processed content to stdout instead of writing files (single file only).")

	fs.StringVar(&f.rulesPath, "rules", "", "Path to a rules document (YAML or JSON).")
	fs.StringSliceVar(&f.from, "from", nil, "Literal text to replace (repeatable, pairs with --to by position).")
	fs.StringSliceVar(&f.to, "to", nil, "Replacement text (repeatable, pairs with --from by position).")
	fs.BoolVar(&f.caseSensitive, "case-sensitive", true, "Match case-sensitively. Pass --case-sensitive=false to ignore case.")
	fs.BoolVar(&f.wholeWord, "whole-word", false, "Require whole-word boundaries around matches.")

	f.fs = fs
}

func (f *sharedFlags) walkerOptions() walker.Options {
	return walker.Options{
		IncludeGlobs:      f.include,
		ExcludeGlobs:      f.exclude,
		UseGitignore:      !f.noGitignore,
		FollowSymlinkDirs: f.followSymlinks,
	}
}

func (f *sharedFlags) applyOverrides(o config.Options) config.Options {
	if f.oversizeLimit > 0 {
		o.OversizeLimitBytes = f.oversizeLimit
	}
	if f.maxConcurrency > 0 {
		o.MaxConcurrency = f.maxConcurrency
	}
	o.DryRun = o.DryRun || f.dryRun
	if f.fs == nil || f.fs.Changed("case-sensitive") {
		o.CaseSensitive = f.caseSensitive
	}
	o.WholeWord = o.WholeWord || f.wholeWord
	o.UseGitignore = !f.noGitignore
	return o
}
