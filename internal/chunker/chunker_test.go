package chunker

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestSplitEmptyContent(t *testing.T) {
	c := New(1000, 50)

	chunks := c.Split("")

	assert.Equal(t, 1, len(chunks))
	assert.Equal(t, "", chunks[0])
}

func TestSplitShortContent(t *testing.T) {
	c := New(1000, 50)

	chunks := c.Split("Tesla shares rose on Tuesday.")

	assert.Equal(t, 1, len(chunks))
	assert.Equal(t, "Tesla shares rose on Tuesday.", chunks[0])
}

func TestSplitRespectsMaxLen(t *testing.T) {
	c := New(100, 10)
	content := strings.Repeat("a", 1000)

	chunks := c.Split(content)

	for i, chunk := range chunks {
		if len([]rune(chunk)) > 100 {
			t.Fatalf("chunk %d exceeds max length: %d", i, len(chunk))
		}
	}
}

func TestSplitCoversEveryCharacter(t *testing.T) {
	c := New(100, 10)
	content := strings.Repeat("abcdefghij", 95)

	chunks := c.Split(content)

	// With hard cuts every chunk starts overlap runes before the previous
	// end, so concatenating the non-overlapping suffixes restores the input.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		rebuilt.WriteString(string(runes[10:]))
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestSplitDeterministic(t *testing.T) {
	c := New(120, 20)
	content := strings.Repeat("Markets moved today. Investors reacted quickly. ", 30)

	first := c.Split(content)
	second := c.Split(content)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	c := New(60, 0)
	content := "First sentence here. Second sentence follows right after it. Third one."

	chunks := c.Split(content)

	// The window end falls mid-sentence; the cut should land after a
	// sentence end inside the lookback region instead.
	assert.Equal(t, true, strings.HasSuffix(strings.TrimSpace(chunks[0]), "."))
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	c := New(60, 0)
	content := strings.Repeat("a", 50) + "\n" + strings.Repeat("b", 50)

	chunks := c.Split(content)

	assert.Equal(t, true, strings.HasSuffix(chunks[0], "\n"))
}

func TestSplitChunkCount(t *testing.T) {
	c := New(100, 10)
	content := strings.Repeat("x", 450)

	chunks := c.Split(content)

	// Hard cuts advance 90 runes per chunk: 100, then 90 each.
	assert.Equal(t, 5, len(chunks))
}
