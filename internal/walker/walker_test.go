package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.go"), "z")
	writeFile(t, filepath.Join(root, "a.go"), "a")
	writeFile(t, filepath.Join(root, "sub", "m.go"), "m")

	w := New(Options{})
	files, warnings, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, files, 3)

	for i := 1; i < len(files); i++ {
		require.Less(t, files[i-1].Path, files[i].Path)
	}
}

func TestWalk_ExcludesDominateIncludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "pkg.go"), "x")
	writeFile(t, filepath.Join(root, "keep.go"), "y")

	w := New(Options{IncludeGlobs: []string{"**/*.go"}})
	files, _, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "keep.go"), files[0].Path)
}

func TestWalk_IncludeFilterByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")

	w := New(Options{IncludeGlobs: []string{"**/*.go"}})
	files, _, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "a.go"), files[0].Path)
}

func TestWalk_EmptyIncludeMeansAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")

	w := New(Options{})
	files, _, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestWalk_GitignoreExclusion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "secret.txt\n")
	writeFile(t, filepath.Join(root, "secret.txt"), "s")
	writeFile(t, filepath.Join(root, "visible.txt"), "v")

	w := New(Options{UseGitignore: true})
	files, _, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 2) // .gitignore itself + visible.txt
	for _, f := range files {
		require.NotContains(t, f.Path, "secret.txt")
	}
}
