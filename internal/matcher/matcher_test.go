package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral_NoSelfMatch(t *testing.T) {
	m := New("a", "aa", true, false)
	out, spans := m.FindAndReplace("aaa")
	assert.Equal(t, "aaaaaa", out)
	require.Len(t, spans, 3)
}

func TestLiteral_CaseInsensitive(t *testing.T) {
	m := New("foo", "bar", false, false)
	out, spans := m.FindAndReplace("Foo FOO foo")
	assert.Equal(t, "bar bar bar", out)
	assert.Len(t, spans, 3)
}

func TestLiteral_CaseSensitive(t *testing.T) {
	m := New("foo", "bar", true, false)
	out, _ := m.FindAndReplace("Foo foo FOO")
	assert.Equal(t, "Foo bar FOO", out)
}

func TestLiteral_WholeWord(t *testing.T) {
	m := New("cat", "dog", true, true)
	out, spans := m.FindAndReplace("cat concatenate cat.cat")
	assert.Equal(t, "dog concatenate dog.dog", out)
	assert.Len(t, spans, 3)
}

func TestLiteral_WholeWord_RejectsPartial(t *testing.T) {
	m := New("cat", "dog", true, true)
	out, spans := m.FindAndReplace("concatenation")
	assert.Equal(t, "concatenation", out)
	assert.Empty(t, spans)
}

func TestLiteral_EmptyContent(t *testing.T) {
	m := New("a", "b", true, false)
	out, spans := m.FindAndReplace("")
	assert.Equal(t, "", out)
	assert.Nil(t, spans)
}

func TestLiteral_FromEqualsTo(t *testing.T) {
	m := New("a", "a", true, false)
	out, spans := m.FindAndReplace("banana")
	assert.Equal(t, "banana", out)
	assert.Len(t, spans, 3)
}

func TestLiteral_NonOverlapping(t *testing.T) {
	m := New("aa", "b", true, false)
	out, spans := m.FindAndReplace("aaaa")
	assert.Equal(t, "bb", out)
	assert.Len(t, spans, 2)
}

func TestLiteral_NoMatch(t *testing.T) {
	m := New("xyz", "q", true, false)
	out, spans := m.FindAndReplace("hello world")
	assert.Equal(t, "hello world", out)
	assert.Nil(t, spans)
}

func TestLiteral_FindAndReplaceBounded_RejectsWordContinuingPastLimit(t *testing.T) {
	m := New("cat", "dog", true, true)
	// "cat" ends exactly at the limit, but the carry beyond it ("s") is a
	// word character, so this isn't a whole-word match even though the
	// processed region alone would look like a boundary.
	out, spans := m.FindAndReplaceBounded("cats", 3)
	assert.Equal(t, "cat", out)
	assert.Empty(t, spans)
}

func TestLiteral_FindAndReplaceBounded_AcceptsWholeWordAtLimit(t *testing.T) {
	m := New("cat", "dog", true, true)
	// Carry beyond the limit is a non-word character, so the match at the
	// boundary is accepted.
	out, spans := m.FindAndReplaceBounded("cat. ", 3)
	assert.Equal(t, "dog", out)
	assert.Len(t, spans, 1)
}

func TestLiteral_FindAndReplaceBounded_DoesNotSeedMatchPastLimit(t *testing.T) {
	m := New("cat", "dog", true, false)
	// The full needle only appears starting past the limit; it must not
	// be matched here since those bytes belong to the next chunk's carry.
	out, spans := m.FindAndReplaceBounded("xxcat", 2)
	assert.Equal(t, "xx", out)
	assert.Empty(t, spans)
}
