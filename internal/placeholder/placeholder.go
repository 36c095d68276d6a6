// Package placeholder shields glossary terms from the translation model by
// replacing each matched span with a numbered marker ([GT0], [GT1], …)
// before translation. After translation, Unmask substitutes each marker
// with the glossary entry's target-language term, so domain vocabulary is
// never subjected to uncontrolled machine translation.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/saitejashb/context-translation/internal/glossary"
)

// marker reference in translated text
var reMarker = regexp.MustCompile(`\[GT(\d+)\]`)

// Map associates marker indices with the glossary entries masked in one
// segment. It is scoped to a single segment's mask/unmask cycle.
type Map struct {
	entries []glossary.Entry
}

// Len returns the number of markers issued.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entry returns the glossary entry behind marker index i.
func (m *Map) Entry(i int) (glossary.Entry, bool) {
	if m == nil || i < 0 || i >= len(m.entries) {
		return glossary.Entry{}, false
	}
	return m.entries[i], true
}

// Mask replaces each matched span in text with a numbered [GTn] marker, in
// order of appearance. Matches must be non-overlapping and sorted by start
// offset, as produced by glossary.Match.
func Mask(text string, matches []glossary.Match) (string, *Map) {
	if len(matches) == 0 {
		return text, &Map{}
	}

	var sb strings.Builder
	m := &Map{entries: make([]glossary.Entry, 0, len(matches))}

	last := 0
	for i, match := range matches {
		sb.WriteString(text[last:match.Start])
		fmt.Fprintf(&sb, "[GT%d]", i)
		m.entries = append(m.entries, match.Entry)
		last = match.End
	}
	sb.WriteString(text[last:])

	return sb.String(), m
}

// Unmask substitutes every [GTn] marker in text with the target term of the
// corresponding glossary entry. It returns the restored text together with
// the indices of markers that were expected but absent from text (the model
// may have dropped or garbled them). Missing markers are a reportable
// degradation, not an error; markers with unknown indices are left literal.
func Unmask(text string, m *Map) (string, []int) {
	restored := reMarker.ReplaceAllStringFunc(text, func(tok string) string {
		sub := reMarker.FindStringSubmatch(tok)
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		entry, ok := m.Entry(idx)
		if !ok {
			return tok
		}
		return entry.TargetTerm
	})

	var missing []int
	for i := 0; i < m.Len(); i++ {
		if !strings.Contains(text, fmt.Sprintf("[GT%d]", i)) {
			missing = append(missing, i)
		}
	}
	return restored, missing
}

// InstructionHint returns a sentence to append to an LLM prompt so the
// model knows to leave markers intact.
func InstructionHint() string {
	return "Preserve all [GTn] markers exactly as they appear; do not translate, move, or remove them."
}
