// Package chunker splits over-length document segments into pieces that
// fit the translation model's input window, preferring natural boundaries
// so sentences are never cut mid-way. The pipeline translates the pieces
// in order and rejoins them with Join.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// markerTail matches a truncated placeholder token at the end of a window,
// e.g. "[", "[GT" or "[GT1".
var markerTail = regexp.MustCompile(`^\[(G(T\d*)?)?$`)

// Split cuts text into pieces of at most maxChars unicode code points.
// Cut points are chosen in order of preference:
//
//  1. Paragraph boundary (blank line)
//  2. Sentence-ending punctuation (. ! ?) followed by a space
//  3. Whitespace word boundary
//  4. Hard cut at maxChars when nothing better exists, backed up so it
//     never lands inside a placeholder token
//
// Text that already fits is returned as a single-element slice.
// maxChars <= 0 means unlimited.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var pieces []string
	remaining := text
	for len([]rune(remaining)) > maxChars {
		cut := findCut(remaining, maxChars)
		piece := strings.TrimSpace(remaining[:cut])
		if piece != "" {
			pieces = append(pieces, piece)
		}
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if strings.TrimSpace(remaining) != "" {
		pieces = append(pieces, strings.TrimSpace(remaining))
	}
	return pieces
}

// Join reassembles translated pieces of one segment.
func Join(pieces []string) string {
	return strings.Join(pieces, " ")
}

// findCut returns the byte offset at which to split text so the first
// piece holds at most maxChars runes, searching backwards for the best
// boundary within that window.
func findCut(text string, maxChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}
	window := runes[:maxChars]
	candidate := string(window)

	if idx := strings.LastIndex(candidate, "\n\n"); idx > 0 {
		return idx + 2
	}
	if idx := strings.LastIndex(candidate, "\r\n\r\n"); idx > 0 {
		return idx + 4
	}

	for i := len(window) - 1; i > 0; i-- {
		r := window[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(window) && unicode.IsSpace(window[i+1]) {
			return len(string(window[:i+1]))
		}
	}

	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return len(string(window[:i]))
		}
	}

	// A hard cut must not sever a placeholder token; the spaced halves
	// would no longer unmask. Back up to the token's opening bracket.
	if idx := strings.LastIndexByte(candidate, '['); idx > 0 {
		if !strings.ContainsRune(candidate[idx:], ']') && markerTail.MatchString(candidate[idx:]) {
			return idx
		}
	}
	return len(candidate)
}
