// Package executor implements the Batch Executor: the concurrent,
// cancellable, pausable pipeline that applies a rule.Set across a file
// list (spec.md §4.6).
package executor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oxhq/multigrep/internal/content"
	"github.com/oxhq/multigrep/internal/fileio"
	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/walker"
	"github.com/oxhq/multigrep/internal/xerr"
)

// State is a position in the executor's state machine (spec.md §4.6).
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCancelled State = "cancelled"
	StateDone      State = "done"
)

// Options configures one batch run. Zero values fall back to spec.md's
// documented defaults.
type Options struct {
	MaxConcurrency           int
	DryRun                   bool
	StopOnError              bool
	MaxErrors                int
	StreamSizeThresholdBytes int64
	OversizeLimitBytes       int64
	PerFileTimeout           time.Duration
	ProgressIntervalItems    int // emit a progress event at least this often; 1 means every file
	SampleCap                int
}

func (o Options) normalized() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 10
	}
	if o.MaxErrors <= 0 {
		o.MaxErrors = 50
	}
	if o.ProgressIntervalItems <= 0 {
		o.ProgressIntervalItems = 1
	}
	return o
}

// FileResult is the outcome of running the pipeline over one file.
type FileResult struct {
	Path          string
	Modified      bool
	TotalMatches  int
	PerRuleCounts map[string]int
	Samples       []content.Change
	Skipped       bool
	SkipReason    string
	Err           error
	Duration      time.Duration
}

// ProgressEvent reports incremental batch progress. Current is strictly
// increasing within a run, assigned by the aggregator goroutine
// regardless of which worker actually finished first (spec.md §4.6:
// "Progress events MUST be ordered by their current value").
type ProgressEvent struct {
	RunID   string
	Current int
	Total   int
	Result  FileResult
}

// Event is either a progress update or the terminal batch summary.
// Exactly one Event per Run carries a non-nil Summary, and it is always
// the last Event sent.
type Event struct {
	Progress *ProgressEvent
	Summary  *BatchSummary
}

// BatchSummary is the terminal report for one Run.
type BatchSummary struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	FilesTotal     int
	FilesProcessed int
	FilesModified  int
	FilesFailed    int
	FilesSkipped   int
	TotalMatches   int
	Cancelled      bool
	CancelReason   string
	Results        []FileResult
}

// Batch owns one run's lifecycle: state, the event stream, and the
// pause/cancel controls. Bounded concurrency via a semaphore, with a
// single aggregator goroutine owning the mutable summary and progress
// sequence per SPEC_FULL.md §5.6.
type Batch struct {
	rules *rule.Set
	opts  Options

	mu     sync.Mutex
	state  State
	gate   pauseGate
	cancel context.CancelFunc
	events chan Event
}

// NewBatch constructs an idle Batch for the given rule set and options.
// events is allocated here, not in Run, so a caller that wires up an
// Events() consumer goroutine before calling Run never reads a nil
// channel and blocks forever ranging over it.
func NewBatch(rules *rule.Set, opts Options) *Batch {
	return &Batch{
		rules:  rules,
		opts:   opts.normalized(),
		state:  StateIdle,
		events: make(chan Event, 64),
	}
}

// State returns the current lifecycle state.
func (b *Batch) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Events returns the channel of progress/terminal events for this run.
// It is safe to call before Run, so a consumer goroutine can start
// ranging over it ahead of the Run call without racing the channel's
// creation. It is closed when Run returns.
func (b *Batch) Events() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

// Pause stops new files from being dequeued. In-flight files complete
// normally (spec.md §4.6).
func (b *Batch) Pause() {
	b.mu.Lock()
	if b.state == StateRunning {
		b.state = StatePaused
	}
	b.mu.Unlock()
	b.gate.pause()
}

// Resume re-enables dequeueing after Pause.
func (b *Batch) Resume() {
	b.mu.Lock()
	if b.state == StatePaused {
		b.state = StateRunning
	}
	b.mu.Unlock()
	b.gate.resume()
}

// Cancel drains the queue, marking unstarted files skipped. An in-flight
// file finishes the read, process or write step it is in; one whose
// write has not started yet is marked skipped (cancelled) and left
// untouched on disk.
func (b *Batch) Cancel() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.gate.resume() // unblock a paused dispatcher so it can observe cancellation
}

// Run executes the pipeline over files and returns the terminal summary.
// Starting a Batch that is not Idle fails with xerr.AlreadyRunning.
func (b *Batch) Run(ctx context.Context, files []walker.FileDescriptor) (*BatchSummary, error) {
	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return nil, xerr.New(xerr.AlreadyRunning, "batch is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.state = StateRunning
	b.cancel = cancel
	b.mu.Unlock()

	runID := uuid.NewString()
	summary := &BatchSummary{
		RunID:      runID,
		StartedAt:  time.Now(),
		FilesTotal: len(files),
		Results:    make([]FileResult, 0, len(files)),
	}

	resultsCh := make(chan FileResult, b.opts.MaxConcurrency)
	sem := make(chan struct{}, b.opts.MaxConcurrency)
	var wg sync.WaitGroup

	aggDone := make(chan struct{})
	var cancelReason string
	var cancelReasonMu sync.Mutex
	setCancelReason := func(reason string) {
		cancelReasonMu.Lock()
		if cancelReason == "" {
			cancelReason = reason
		}
		cancelReasonMu.Unlock()
	}

	// Single serializing aggregator: owns summary mutation and the
	// monotone Current counter, so progress ordering holds regardless of
	// which worker finishes first (spec.md §5).
	go func() {
		defer close(aggDone)
		current := 0
		failed := 0
		for res := range resultsCh {
			current++
			summary.Results = append(summary.Results, res)
			if res.Skipped {
				summary.FilesSkipped++
			} else {
				summary.FilesProcessed++
				if res.Err != nil {
					summary.FilesFailed++
					failed++
				} else if res.Modified {
					summary.FilesModified++
				}
				summary.TotalMatches += res.TotalMatches
			}

			b.events <- Event{Progress: &ProgressEvent{
				RunID:   runID,
				Current: current,
				Total:   len(files),
				Result:  res,
			}}

			if res.Err != nil && b.opts.StopOnError {
				setCancelReason("stop-on-error")
				cancel()
			}
			if failed > b.opts.MaxErrors {
				setCancelReason("error-threshold")
				cancel()
			}
		}
	}()

	dispatch(runCtx, files, sem, &wg, &b.gate, resultsCh, func(fd walker.FileDescriptor) FileResult {
		return b.processOne(runCtx, fd)
	})

	wg.Wait()
	close(resultsCh)
	<-aggDone

	summary.FinishedAt = time.Now()
	if runCtx.Err() != nil {
		summary.Cancelled = true
		cancelReasonMu.Lock()
		summary.CancelReason = cancelReason
		cancelReasonMu.Unlock()
		if summary.CancelReason == "" {
			summary.CancelReason = "context-cancelled"
		}
	}

	// A cancelled run also ends in Done; summary.Cancelled records the
	// cancellation. State never reports StateCancelled.
	b.mu.Lock()
	b.state = StateDone
	events := b.events
	b.mu.Unlock()

	events <- Event{Summary: summary}
	close(events)

	return summary, nil
}

// dispatch walks files in order, respecting the pause gate and
// cancellation at the dequeue suspension point, and fans work out across
// up to cap(sem) concurrent workers.
func dispatch(
	ctx context.Context,
	files []walker.FileDescriptor,
	sem chan struct{},
	wg *sync.WaitGroup,
	gate *pauseGate,
	resultsCh chan<- FileResult,
	process func(walker.FileDescriptor) FileResult,
) {
	for _, fd := range files {
		if err := gate.wait(ctx); err != nil {
			resultsCh <- FileResult{Path: fd.Path, Skipped: true, SkipReason: "cancelled"}
			continue
		}
		select {
		case <-ctx.Done():
			resultsCh <- FileResult{Path: fd.Path, Skipped: true, SkipReason: "cancelled"}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(fd walker.FileDescriptor) {
			defer wg.Done()
			defer func() { <-sem }()
			resultsCh <- process(fd)
		}(fd)
	}
}

// processOne runs read -> process -> write (unless dry-run) for one
// file, the per-file pipeline of spec.md §4.6. Files at or above the
// stream threshold take the streaming path (processOneStreamed) instead,
// so the pipeline's memory use stays bounded for very large files.
func (b *Batch) processOne(ctx context.Context, fd walker.FileDescriptor) FileResult {
	start := time.Now()
	res := FileResult{Path: fd.Path}

	if ctx.Err() != nil {
		res.Skipped = true
		res.SkipReason = "cancelled"
		return res
	}

	fctx := ctx
	var cancel context.CancelFunc
	if b.opts.PerFileTimeout > 0 {
		fctx, cancel = context.WithTimeout(ctx, b.opts.PerFileTimeout)
		defer cancel()
	}

	ioOpts := fileio.Options{
		StreamThresholdBytes: b.opts.StreamSizeThresholdBytes,
		OversizeLimitBytes:   b.opts.OversizeLimitBytes,
	}
	normalized := ioOpts.Normalized()
	if fd.Size >= normalized.OversizeLimitBytes {
		res.Skipped = true
		res.SkipReason = string(xerr.Oversize)
		return res
	}
	if fd.Size >= normalized.StreamThresholdBytes {
		return b.processOneStreamed(fctx, fd, ioOpts, start)
	}

	text, stat, err := fileio.Read(fd.Path, ioOpts)
	if err != nil {
		if xe, ok := err.(xerr.Error); ok && (xe.Code == xerr.LikelyBinary || xe.Code == xerr.Oversize) {
			res.Skipped = true
			res.SkipReason = string(xe.Code)
			return res
		}
		res.Err = err
		return res
	}

	if fctx.Err() != nil {
		res.Skipped = true
		res.SkipReason = "cancelled"
		return res
	}

	cres := content.Process(text, b.rules, content.Options{SampleCap: b.opts.SampleCap})
	res.Modified = cres.Modified
	res.TotalMatches = cres.Total
	res.PerRuleCounts = cres.PerRuleCounts
	res.Samples = cres.Samples
	res.Duration = time.Since(start)

	if b.opts.DryRun || !cres.Modified {
		return res
	}

	if fctx.Err() != nil {
		res.Skipped = true
		res.SkipReason = "cancelled"
		return res
	}

	if err := fileio.Write(fd.Path, cres.NewContent, stat, ioOpts); err != nil {
		res.Err = fmt.Errorf("write %s: %w", fd.Path, err)
	}
	res.Duration = time.Since(start)
	return res
}

// processOneStreamed is processOne's counterpart for files at or above
// the stream threshold: it never holds the whole file in memory, at the
// cost of not collecting per-match Change samples (those require the
// surrounding content, which streaming deliberately never materializes
// as a single buffer).
func (b *Batch) processOneStreamed(ctx context.Context, fd walker.FileDescriptor, ioOpts fileio.Options, start time.Time) FileResult {
	res := FileResult{Path: fd.Path}

	binary, err := fileio.SniffBinary(fd.Path)
	if err != nil {
		res.Err = err
		return res
	}
	if binary {
		res.Skipped = true
		res.SkipReason = string(xerr.LikelyBinary)
		return res
	}

	if ctx.Err() != nil {
		res.Skipped = true
		res.SkipReason = "cancelled"
		return res
	}

	before := fileio.Stat{Size: fd.Size}
	if fi, statErr := os.Stat(fd.Path); statErr == nil {
		before = fileio.Stat{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}
	}

	// Always land the streamed result in a scratch file first, never
	// directly at fd.Path: that way an unmodified file's mtime is left
	// untouched, and a dry run never has a window where fd.Path holds
	// the transformed content.
	scratch := fd.Path + ".stream-out"
	total, perRule, modified, err := fileio.StreamApplySequential(fd.Path, scratch, b.rules, before, ioOpts)
	res.TotalMatches = total
	res.PerRuleCounts = perRule
	res.Modified = modified
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("stream process %s: %w", fd.Path, err)
		os.Remove(scratch)
		return res
	}

	if !modified || b.opts.DryRun {
		os.Remove(scratch)
		return res
	}

	if fi, statErr := os.Stat(fd.Path); statErr == nil && fileio.RaceDetected(before, fileio.Stat{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}) {
		os.Remove(scratch)
		res.Err = xerr.New(xerr.WriteError, "file changed on disk since it was read")
		return res
	}

	if err := os.Rename(scratch, fd.Path); err != nil {
		os.Remove(scratch)
		res.Err = fmt.Errorf("finalize stream write %s: %w", fd.Path, err)
	}
	return res
}
