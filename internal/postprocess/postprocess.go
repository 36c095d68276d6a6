// Package postprocess removes common model artifacts from translation
// output before placeholder restoration.
//
// NMT models tend to mangle synthetic tokens: spaces get inserted inside
// brackets, ASCII brackets come back as fullwidth variants, and some chat
// models wrap the whole output in quotes. Clean repairs what it can so
// that placeholder.Unmask finds its markers.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean repairs mangled placeholder markers and strips whole-output quote
// wrapping, returning the trimmed result.
func Clean(text string) string {
	text = repairMarkers(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// spacedMarkerRe matches a [GTn] marker with stray whitespace inside the
// brackets or between the letters and digits, e.g. "[ GT 0 ]" or "[GT 12]".
var spacedMarkerRe = regexp.MustCompile(`\[\s*GT\s*(\d+)\s*\]`)

// fullwidthMarkerRe matches markers whose brackets were replaced by the
// fullwidth forms some tokenizers emit for CJK/Indic scripts.
var fullwidthMarkerRe = regexp.MustCompile(`［\s*GT\s*(\d+)\s*］`)

func repairMarkers(text string) string {
	text = fullwidthMarkerRe.ReplaceAllString(text, "[GT$1]")
	text = spacedMarkerRe.ReplaceAllString(text, "[GT$1]")
	return text
}

// removeQuoteWrapping strips a matching pair of outer quotes when the
// entire text is wrapped in them (a common chat-model artifact).
// Supported pairs:
//
//	"…"  '…'  «…»  "…"  '…'
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
