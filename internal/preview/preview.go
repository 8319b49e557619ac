// Package preview implements the Preview Engine: a dry-run over a
// bounded prefix of the file list that reports would-be changes, a risk
// assessment, and a projected full-run time (spec.md §4.7).
package preview

import (
	"context"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oxhq/multigrep/internal/content"
	"github.com/oxhq/multigrep/internal/fileio"
	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/walker"
)

// Risk is a qualitative assessment level. Thresholds that derive it are
// documented in assessRisk and are stable across runs, per spec.md §4.7.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Options controls sampling bounds and context window size. MaxSamplesPerFile
// bounds the change records content.Process keeps per rule per file
// (spec.md §4.7: "the number of change samples per file, default 5").
type Options struct {
	MaxFiles          int // default 10
	MaxSamplesPerFile int // default 5
	ContextLines      int // default 2
}

func (o Options) normalized() Options {
	if o.MaxFiles <= 0 {
		o.MaxFiles = 10
	}
	if o.MaxSamplesPerFile <= 0 {
		o.MaxSamplesPerFile = 5
	}
	if o.ContextLines <= 0 {
		o.ContextLines = 2
	}
	return o
}

// FileChange is one previewed file's would-be result, with a unified
// diff bounded to Options.ContextLines of surrounding context.
type FileChange struct {
	Path       string
	Modified   bool
	Total      int
	Diff       string
	Skipped    bool
	SkipReason string
}

// Report is the terminal output of a Preview run.
type Report struct {
	FilesConsidered    int
	FilesSampled       int
	FilesWouldChange   int
	MeanChangesPerFile float64
	Risk               Risk
	RiskFactors        []string
	EstimatedDuration  time.Duration
	Changes            []FileChange
}

// Run previews rules against a bounded prefix of files without writing
// anything: derive would-be output, never mutate, and build a unified
// diff (go-difflib) for each changed sample.
func Run(ctx context.Context, files []walker.FileDescriptor, set *rule.Set, opts Options) (*Report, error) {
	opts = opts.normalized()

	sampleCount := len(files)
	if sampleCount > opts.MaxFiles {
		sampleCount = opts.MaxFiles
	}
	sample := files[:sampleCount]

	report := &Report{FilesConsidered: len(files), FilesSampled: sampleCount}

	var totalChanges int
	var elapsed time.Duration

	for _, fd := range sample {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()

		text, _, err := fileio.Read(fd.Path, fileio.Options{})
		if err != nil {
			report.Changes = append(report.Changes, FileChange{Path: fd.Path, Skipped: true, SkipReason: skipReason(err)})
			continue
		}

		cres := content.Process(text, set, content.Options{SampleCap: opts.MaxSamplesPerFile})
		elapsed += time.Since(start)

		fc := FileChange{Path: fd.Path, Modified: cres.Modified, Total: cres.Total}
		if cres.Modified {
			fc.Diff = unifiedDiff(text, cres.NewContent, fd.Path, opts.ContextLines)
			report.FilesWouldChange++
		}
		totalChanges += cres.Total
		report.Changes = append(report.Changes, fc)
	}

	if sampleCount > 0 {
		report.MeanChangesPerFile = float64(totalChanges) / float64(sampleCount)
		perFile := elapsed / time.Duration(sampleCount)
		report.EstimatedDuration = perFile * time.Duration(len(files))
	}

	report.Risk, report.RiskFactors = assessRisk(set, report, sampleCount)

	return report, ctx.Err()
}

func skipReason(err error) string {
	return err.Error()
}

// unifiedDiff renders a ±context-line unified diff using difflib's
// UnifiedDiff shape.
func unifiedDiff(from, to, path string, context int) string {
	if from == to {
		return ""
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: path,
		ToFile:   path + " (modified)",
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "(diff error: " + err.Error() + ")"
	}
	return text
}

// assessRisk applies spec.md §4.7's documented, stable thresholds:
//   - proportion of sampled files that would change
//   - mean changes per file
//   - any rule with len(from) < 3 (short patterns over-match easily)
//   - cascading rules: a later rule's From is a substring of an earlier
//     rule's To, meaning rule N's output feeds rule M's input non-trivially
//
// Each contributing factor adds one point; 0 points is low, 1 is medium,
// 2+ is high. The point thresholds are the implementation-defined,
// documented constants this function encodes.
func assessRisk(set *rule.Set, report *Report, sampleCount int) (Risk, []string) {
	var factors []string
	points := 0

	if sampleCount > 0 {
		proportion := float64(report.FilesWouldChange) / float64(sampleCount)
		if proportion >= 0.75 {
			points++
			factors = append(factors, "most sampled files would change")
		}
	}

	if report.MeanChangesPerFile >= 20 {
		points++
		factors = append(factors, "high mean change count per file")
	}

	if set != nil {
		for _, r := range set.Rules {
			if r.Enabled && len(r.From) < 3 {
				points++
				factors = append(factors, "a rule has a very short pattern that may over-match")
				break
			}
		}

	cascade:
		for i, later := range set.Rules {
			if !later.Enabled {
				continue
			}
			for j := 0; j < i; j++ {
				earlier := set.Rules[j]
				if earlier.Enabled && len(later.From) > 0 &&
					contains(earlier.To, later.From) {
					points++
					factors = append(factors, "cascading rules: a later pattern matches an earlier replacement's output")
					break cascade
				}
			}
		}
	}

	switch {
	case points >= 2:
		return RiskHigh, factors
	case points == 1:
		return RiskMedium, factors
	default:
		return RiskLow, factors
	}
}

func contains(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
