package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oxhq/multigrep/internal/matcher"
	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/xerr"
)

const streamChunkSize = 1 << 20 // 1 MiB

// StreamReplace applies a single matcher to src, writing the result to
// dst, without ever holding more than one chunk plus a small overlap
// window in memory at once. The overlap window is sized at
// len(m.From)+1 bytes — enough to guarantee that any match spanning a
// chunk boundary, plus the one extra byte the whole-word boundary check
// needs to inspect, is always evaluated against data that's fully
// present in the buffer rather than split across reads. This resolves
// the streaming question described in SPEC_FULL.md §5.5: an overlap window, not
// whole-file buffering, once a file is large enough to stream.
func StreamReplace(src io.Reader, dst io.Writer, m *matcher.Literal) (int, error) {
	overlap := len(m.From) + 1
	if overlap < 1 {
		overlap = 1
	}

	var carry []byte
	chunk := make([]byte, streamChunkSize)
	total := 0

	for {
		n, readErr := src.Read(chunk)
		done := errors.Is(readErr, io.EOF)
		if readErr != nil && !done {
			return total, readErr
		}

		data := append(carry, chunk[:n]...)

		processLen := len(data)
		if !done {
			processLen = len(data) - overlap
			if processLen < 0 {
				processLen = 0
			}
		}

		// Matches may start anywhere in data[:processLen] and run on into
		// the overlap, which still holds at least one byte past any such
		// match for the trailing whole-word check. Output stops at
		// processLen, or at the end of the last match if that is later;
		// the rest of data becomes the next carry.
		searchLimit := processLen
		if !done && processLen > 0 && len(m.From) > 1 {
			searchLimit = processLen + len(m.From) - 1
		}
		out, spans := m.FindAndReplaceBounded(string(data), searchLimit)
		consumed := processLen
		if len(spans) > 0 && spans[len(spans)-1].End > consumed {
			consumed = spans[len(spans)-1].End
		}
		out = out[:len(out)-(searchLimit-consumed)]
		if _, err := dst.Write([]byte(out)); err != nil {
			return total, err
		}
		total += len(spans)

		carry = append([]byte{}, data[consumed:]...)

		if done {
			if len(carry) > 0 {
				// No more data will ever arrive; the remaining carry is
				// final content with no further matches to find against
				// it (it's shorter than a full pattern occurrence could
				// need headroom for), so it passes through unchanged.
				if _, err := dst.Write(carry); err != nil {
					return total, err
				}
			}
			return total, nil
		}
	}
}

// StreamApplySequential applies set.Enabled() to srcPath in list order
// using StreamReplace, chaining each rule's output through a temporary
// file so that rule N streams over rule N-1's output exactly as
// internal/content.Process does for buffered content — the only
// difference is that neither the input nor the intermediate results are
// ever materialized as a single in-memory buffer. before is a Stat
// snapshot of srcPath taken before streaming began; as in Write, the rename into dstPath
// is refused with a WriteError if srcPath changed on disk since then.
// The final output is written to dstPath via the same atomic rename used
// by Write.
func StreamApplySequential(srcPath, dstPath string, set *rule.Set, before Stat, opts Options) (totalMatches int, perRuleCounts map[string]int, modified bool, err error) {
	opts = opts.Normalized()
	current := srcPath
	perRuleCounts = make(map[string]int)

	rules := set.Enabled()
	if len(rules) == 0 {
		return 0, perRuleCounts, false, copyFile(srcPath, dstPath)
	}

	tmpFiles := make([]string, 0, len(rules))
	defer func() {
		for _, f := range tmpFiles {
			_ = os.Remove(f)
		}
	}()

	for i, r := range rules {
		in, openErr := os.Open(current)
		if openErr != nil {
			return totalMatches, perRuleCounts, modified, xerr.Wrap(xerr.ReadError, "cannot open intermediate file", openErr)
		}

		var outPath string
		if i == len(rules)-1 {
			outPath = dstPath + ".stream-tmp"
		} else {
			outPath = fmt.Sprintf("%s.stream-tmp-step%d", dstPath, i)
		}
		out, createErr := os.Create(outPath)
		if createErr != nil {
			in.Close()
			return totalMatches, perRuleCounts, modified, xerr.Wrap(xerr.WriteError, "cannot create intermediate file", createErr)
		}

		m := matcher.New(r.From, r.To, r.CaseSensitive, r.WholeWord)
		count, streamErr := StreamReplace(in, out, m)
		in.Close()
		if streamErr == nil && i == len(rules)-1 && opts.UseFsync {
			streamErr = out.Sync()
		}
		out.Close()
		if streamErr != nil {
			return totalMatches, perRuleCounts, modified, xerr.Wrap(xerr.ReadError, "stream replace failed", streamErr)
		}

		perRuleCounts[r.ID] = count
		totalMatches += count
		if count > 0 && r.From != r.To {
			modified = true
		}

		tmpFiles = append(tmpFiles, outPath)
		current = outPath
	}

	if fi, statErr := os.Stat(srcPath); statErr == nil && RaceDetected(before, statOf(fi)) {
		return totalMatches, perRuleCounts, modified, xerr.New(xerr.WriteError, "file changed on disk since it was read")
	}

	if err := os.Rename(current, dstPath); err != nil {
		return totalMatches, perRuleCounts, modified, xerr.Wrap(xerr.WriteError, "cannot finalize streamed output", err)
	}
	return totalMatches, perRuleCounts, modified, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return xerr.Wrap(xerr.ReadError, "cannot open source file", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return xerr.Wrap(xerr.WriteError, "cannot create destination file", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return xerr.Wrap(xerr.WriteError, "cannot copy file content", err)
	}
	return nil
}
