package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreSet is a minimal, stdlib-only .gitignore matcher: it loads
// every .gitignore found under root at walk start and matches entries
// with path/filepath.Match against the pattern anchored to the
// .gitignore's own directory. This is a deliberately smaller feature
// than a full gitignore implementation (no negation, no double-star
// semantics beyond filepath.Match) — see DESIGN.md for why this module
// does not carry a third-party gitignore dependency.
type gitignoreSet struct {
	rules []gitignoreRule
}

type gitignoreRule struct {
	baseDir string
	pattern string
	dirOnly bool
}

func newGitignoreSet(enabled bool, root string) *gitignoreSet {
	if !enabled {
		return &gitignoreSet{}
	}
	gs := &gitignoreSet{}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if d.Name() != ".gitignore" {
			return nil
		}
		gs.load(filepath.Dir(path), path)
		return nil
	})
	return gs
}

func (gs *gitignoreSet) load(baseDir, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dirOnly := strings.HasSuffix(line, "/")
		line = strings.TrimSuffix(line, "/")
		line = strings.TrimPrefix(line, "/")
		gs.rules = append(gs.rules, gitignoreRule{baseDir: baseDir, pattern: line, dirOnly: dirOnly})
	}
}

func (gs *gitignoreSet) matches(path string, isDir bool) bool {
	if gs == nil {
		return false
	}
	for _, r := range gs.rules {
		if r.dirOnly && !isDir {
			continue
		}
		rel, err := filepath.Rel(r.baseDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if ok, _ := filepath.Match(r.pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(r.pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
