// Package textutil provides the text sanitation primitives shared by the
// transcription, generation, and synthesis stages of the relay pipeline.
package textutil

import "strings"

// Normalize flattens carriage returns and newlines to spaces, collapses runs
// of whitespace into single spaces, and trims the result. It is idempotent.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Clamp returns the first max characters of s when it is longer, else s
// unchanged. Overflow is discarded on purpose: clamping is only applied to
// model prompts, where reconstructing a truncated prompt buys nothing.
func Clamp(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Split breaks text into pieces of at most max characters, preferring to cut
// at the last space inside each window so words stay intact. Pieces are
// trimmed and empty pieces dropped. The result is never empty: all-whitespace
// input yields a single empty string so callers never see a zero-length slice.
func Split(text string, max int) []string {
	if max < 1 {
		max = 1
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return []string{string(runes)}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		if end < len(runes) {
			if space := lastSpace(runes, start, end); space > start {
				end = space
			}
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
		start = end
	}
	if len(pieces) == 0 {
		return []string{""}
	}
	return pieces
}

// lastSpace returns the index of the last space in runes[start:end], or -1.
func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
