// Package config implements the Ambient Stack's configuration layer: an
// explicit Options struct with documented defaults, and a persisted,
// hand-editable rule Document format.
package config

import (
	"os"
	"strconv"
	"time"
)

// Options mirrors spec.md §6's engine options, adapted from the
// teacher's env-driven defaulting pattern (internal/config/config.go:
// LoadConfig) to a struct with explicit field-by-field env overrides.
type Options struct {
	CaseSensitive            bool
	WholeWord                bool
	DryRun                   bool
	MaxConcurrency           int
	StreamSizeThresholdBytes int64
	OversizeLimitBytes       int64
	StopOnError              bool
	MaxErrors                int
	PerFileTimeout           time.Duration
	ProgressIntervalItems    int
	UseGitignore             bool
}

// Default returns the documented baseline before any environment or
// flag override is applied.
func Default() Options {
	return Options{
		CaseSensitive:            true,
		WholeWord:                false,
		DryRun:                   false,
		MaxConcurrency:           10,
		StreamSizeThresholdBytes: 10 * 1024 * 1024,
		OversizeLimitBytes:       100 * 1024 * 1024,
		StopOnError:              false,
		MaxErrors:                50,
		PerFileTimeout:           0,
		ProgressIntervalItems:    1,
		UseGitignore:             true,
	}
}

// ApplyEnv overrides o with any MULTIGREP_* environment variables that
// parse successfully, leaving o untouched field-by-field otherwise.
func (o Options) ApplyEnv() Options {
	if v := os.Getenv("MULTIGREP_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			o.MaxConcurrency = n
		}
	}
	if v := os.Getenv("MULTIGREP_MAX_ERRORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			o.MaxErrors = n
		}
	}
	if v := os.Getenv("MULTIGREP_OVERSIZE_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			o.OversizeLimitBytes = n
		}
	}
	if v := os.Getenv("MULTIGREP_STREAM_THRESHOLD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			o.StreamSizeThresholdBytes = n
		}
	}
	if v := os.Getenv("MULTIGREP_DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.DryRun = b
		}
	}
	if v := os.Getenv("MULTIGREP_STOP_ON_ERROR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.StopOnError = b
		}
	}
	if v := os.Getenv("MULTIGREP_CASE_SENSITIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.CaseSensitive = b
		}
	}
	if v := os.Getenv("MULTIGREP_WHOLE_WORD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.WholeWord = b
		}
	}
	if v := os.Getenv("MULTIGREP_NO_GITIGNORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.UseGitignore = !b
		}
	}
	return o
}
