// Package multigrep is the re-exported facade over the engine's internal
// packages, the Go API sketch of SPEC_FULL.md §7.
package multigrep

import (
	"context"

	"github.com/oxhq/multigrep/internal/executor"
	"github.com/oxhq/multigrep/internal/preview"
	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/walker"
)

// FindFiles discovers files under root according to opts.
func FindFiles(ctx context.Context, root string, opts walker.Options) ([]walker.FileDescriptor, error) {
	files, _, err := walker.New(opts).Walk(ctx, root)
	return files, err
}

// ValidateRules validates and normalizes raw rule input into a Set.
func ValidateRules(raw []rule.Input, defaults rule.Defaults) (*rule.Set, error) {
	return rule.NewSet(raw, defaults)
}

// Preview runs the Preview Engine over files without mutating anything.
func Preview(ctx context.Context, files []walker.FileDescriptor, rules *rule.Set, opts preview.Options) (*preview.Report, error) {
	return preview.Run(ctx, files, rules, opts)
}

// Batch re-exports executor.Batch so callers only need this package.
type Batch = executor.Batch

// NewBatch constructs an idle Batch for rules and opts.
func NewBatch(rules *rule.Set, opts executor.Options) *Batch {
	return executor.NewBatch(rules, opts)
}
