// Package chunker normalizes extracted page text and splits it into
// overlapping chunks for embedding.
package chunker

import "strings"

// Defaults used by the index when no chunking config is given.
const (
	DefaultSize    = 800
	DefaultOverlap = 100
)

// Span is a chunk together with its rune offsets in the source text.
// Start and End describe the window before whitespace trimming.
type Span struct {
	Start int
	End   int
	Text  string
}

// Clean collapses every run of whitespace (including non-breaking spaces)
// into a single space and trims the result.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// Split breaks text into chunks of at most size runes, preferring to cut
// after a sentence terminator or at a space in the second half of each
// window. Consecutive chunks overlap by roughly overlap runes.
func Split(text string, size, overlap int) []string {
	spans := SplitSpans(text, size, overlap)
	if len(spans) == 0 {
		return nil
	}
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

// SplitSpans is Split, but also reports where each chunk came from.
func SplitSpans(text string, size, overlap int) []Span {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	runes := []rune(text)
	n := len(runes)
	if n <= size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []Span{{Start: 0, End: n, Text: trimmed}}
	}

	var spans []Span
	half := size / 2
	start := 0
	for start < n {
		end := start + size
		if end < n {
			if cut := lastIndex(runes, start, end, '.'); cut > start+half {
				end = cut + 1
			} else if cut := lastIndex(runes, start, end, ' '); cut > start+half {
				end = cut
			}
		} else {
			end = n
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			spans = append(spans, Span{Start: start, End: end, Text: chunk})
		}
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return spans
}

// lastIndex returns the index of the last r in runes[from:to], or -1.
func lastIndex(runes []rune, from, to int, r rune) int {
	for i := to - 1; i >= from; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
