package fileio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/multigrep/internal/matcher"
	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/xerr"
)

func TestRead_Basic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	content, stat, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)
	assert.Equal(t, int64(len("hello world")), stat.Size)
}

func TestRead_NotFound(t *testing.T) {
	_, _, err := Read("/nonexistent/path/file.txt", Options{})
	require.Error(t, err)
	xe, ok := err.(xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.PathNotFound, xe.Code)
}

func TestRead_LikelyBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.dat")
	data := bytes.Repeat([]byte{0x00, 0x01, 0x02}, 100)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, _, err := Read(path, Options{})
	require.Error(t, err)
	xe, ok := err.(xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.LikelyBinary, xe.Code)
}

func TestRead_Oversize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	_, _, err := Read(path, Options{OversizeLimitBytes: 2})
	require.Error(t, err)
	xe, ok := err.(xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.Oversize, xe.Code)
}

func TestWrite_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, stat, err := Read(path, Options{})
	require.NoError(t, err)

	require.NoError(t, Write(path, "new", stat, Options{}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // no leftover temp file
}

func TestWrite_RaceDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, stat, err := Read(path, Options{})
	require.NoError(t, err)

	// Simulate a concurrent modification after the read.
	require.NoError(t, os.WriteFile(path, []byte("changed-by-someone-else"), 0o644))

	err = Write(path, "new", stat, Options{})
	require.Error(t, err)
	xe, ok := err.(xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.WriteError, xe.Code)
}

func TestStreamReplace_MatchAcrossChunkBoundary(t *testing.T) {
	// Build content where the matched pattern straddles where a naive
	// chunked reader would split: we simulate this with a reader that
	// returns bytes in small fixed-size pieces regardless of the
	// requested length.
	content := strings.Repeat("x", 10) + "NEEDLE" + strings.Repeat("y", 10)
	m := matcher.New("NEEDLE", "FOUND", true, false)

	src := &tinyReader{data: []byte(content), step: 3}
	var dst bytes.Buffer
	count, err := StreamReplace(src, &dst, m)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, strings.Repeat("x", 10)+"FOUND"+strings.Repeat("y", 10), dst.String())
}

func TestStreamReplace_WholeWordRejectsMatchContinuingAcrossBoundary(t *testing.T) {
	// "cat" lands right where a naive chunked reader would split, and the
	// carry bytes on the other side of that split ("s over the fence")
	// continue the word. A whole-word rule must not match here, even
	// though the chunk-local view alone would look like a boundary.
	content := strings.Repeat(" ", 10) + "cats over the fence"
	m := matcher.New("cat", "dog", true, true)

	src := &tinyReader{data: []byte(content), step: 3}
	var dst bytes.Buffer
	count, err := StreamReplace(src, &dst, m)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, content, dst.String())
}

func TestStreamReplace_WholeWordAcceptsMatchAtRealBoundary(t *testing.T) {
	content := strings.Repeat(" ", 10) + "cat. over the fence"
	m := matcher.New("cat", "dog", true, true)

	src := &tinyReader{data: []byte(content), step: 3}
	var dst bytes.Buffer
	count, err := StreamReplace(src, &dst, m)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, strings.Repeat(" ", 10)+"dog. over the fence", dst.String())
}

func TestStreamApplySequential_ChainsRulesThroughTempFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "a.txt.out")
	require.NoError(t, os.WriteFile(src, []byte("foo foo"), 0o644))

	set, err := rule.NewSet([]rule.Input{
		{From: "foo", To: "bar"},
		{From: "bar", To: "baz"},
	}, rule.Defaults{CaseSensitive: true})
	require.NoError(t, err)

	before := Stat{}
	if fi, statErr := os.Stat(src); statErr == nil {
		before = statOf(fi)
	}

	total, perRule, modified, err := StreamApplySequential(src, dst, set, before, Options{})
	require.NoError(t, err)
	assert.True(t, modified)
	assert.Equal(t, 4, total) // 2 matches for each of the 2 rules

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "baz baz", string(got))
	assert.Len(t, perRule, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // src + dst, no leftover intermediate temp files
}

func TestStreamApplySequential_RaceDetected(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "a.txt.out")
	require.NoError(t, os.WriteFile(src, []byte("foo"), 0o644))

	set, err := rule.NewSet([]rule.Input{{From: "foo", To: "bar"}}, rule.Defaults{CaseSensitive: true})
	require.NoError(t, err)

	stale := Stat{Size: 999999}

	_, _, _, err = StreamApplySequential(src, dst, set, stale, Options{})
	require.Error(t, err)
	xe, ok := err.(xerr.Error)
	require.True(t, ok)
	assert.Equal(t, xerr.WriteError, xe.Code)
}

// tinyReader returns at most `step` bytes per Read call, to exercise
// StreamReplace's carry/overlap logic regardless of the 1 MiB chunk
// constant.
type tinyReader struct {
	data []byte
	step int
}

func (r *tinyReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.step
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}
