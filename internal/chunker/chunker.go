package chunker

import "unicode"

// Chunker slices article content into overlapping windows suitable for
// embedding. Splitting is deterministic: the same content always produces the
// same chunk boundaries.
type Chunker struct {
	maxLen  int
	overlap int
}

// New returns a Chunker producing windows of at most maxLen runes with
// overlap runes repeated at each boundary.
func New(maxLen, overlap int) *Chunker {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if overlap < 0 || overlap >= maxLen {
		overlap = 0
	}
	return &Chunker{maxLen: maxLen, overlap: overlap}
}

// Split greedily windows content, preferring paragraph and sentence
// boundaries near the window end and falling back to hard cuts. Empty content
// yields a single empty chunk so every article gets at least one index entry.
func (c *Chunker) Split(content string) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return []string{""}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.maxLen
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := boundaryBefore(runes, start, end)
		if cut <= start {
			cut = end
		}
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// boundaryBefore searches backwards from end for a paragraph break or a
// sentence end, looking at most a quarter-window back. Returns the cut
// position, or start when no boundary was found.
func boundaryBefore(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	if limit <= start {
		limit = start + 1
	}

	for i := end - 1; i >= limit; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= limit; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	return start
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
