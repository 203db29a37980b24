package linediff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoEqualTexts(t *testing.T) {
	t.Parallel()

	diffs := Do("a\nb\nc\n", "a\nb\nc\n")

	added, deleted := Counts(diffs)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, deleted)
}

func TestDoCountsChangedLines(t *testing.T) {
	t.Parallel()

	src := "a\nb\nc\n"
	dst := "a\nx\nc\nd\n"

	added, deleted := Counts(Do(src, dst))
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, deleted)
}

func TestDoInsertOnly(t *testing.T) {
	t.Parallel()

	added, deleted := Counts(Do("a\n", "a\nb\n"))
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, deleted)
}
