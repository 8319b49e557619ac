package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/multigrep/internal/rule"
)

func TestResolveRules_FromToFlags(t *testing.T) {
	f := &sharedFlags{from: []string{"foo"}, to: []string{"bar"}}
	set, err := resolveRules(f, rule.Defaults{})
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, "foo", set.Rules[0].From)
}

func TestResolveRules_MismatchedCounts(t *testing.T) {
	f := &sharedFlags{from: []string{"foo", "baz"}, to: []string{"bar"}}
	_, err := resolveRules(f, rule.Defaults{})
	require.Error(t, err)
}

func TestResolveRules_Empty(t *testing.T) {
	f := &sharedFlags{}
	_, err := resolveRules(f, rule.Defaults{})
	require.Error(t, err)
}

func TestResolveRules_FromDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"metadata:\n  name: x\nreplacements:\n  - from: foo\n    to: bar\n"), 0o644))

	f := &sharedFlags{rulesPath: path}
	set, err := resolveRules(f, rule.Defaults{})
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, "bar", set.Rules[0].To)
}
