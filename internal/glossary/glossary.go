// Package glossary loads term→translation mappings and locates their
// occurrences in source text. Matching is case-insensitive and
// longest-match-first: when two terms start at the same position the longer
// one wins, and a match consumes its span so shorter overlapping candidates
// are skipped.
package glossary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrMalformed reports a glossary source that cannot be parsed (a row with
// fewer than two columns, or a CSV syntax error).
var ErrMalformed = errors.New("glossary: malformed source")

// Entry maps a source-language term to its authoritative target-language
// rendering.
type Entry struct {
	SourceTerm string
	TargetTerm string
}

// Match is one located occurrence of a glossary term in a text.
// Start and End are byte offsets into the scanned string.
type Match struct {
	Start int
	End   int
	Entry Entry
}

// Glossary holds deduplicated entries ordered longest source term first.
type Glossary struct {
	entries []Entry
}

// New builds a Glossary from entries. Source terms are deduplicated
// case-insensitively (first occurrence wins) and ordered by descending
// source-term length so scanning prefers longer phrases.
func New(entries []Entry) *Glossary {
	seen := make(map[string]bool, len(entries))
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		src := strings.TrimSpace(e.SourceTerm)
		tgt := strings.TrimSpace(e.TargetTerm)
		if src == "" || tgt == "" {
			continue
		}
		key := strings.ToLower(src)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, Entry{SourceTerm: src, TargetTerm: tgt})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i].SourceTerm) > len(kept[j].SourceTerm)
	})
	return &Glossary{entries: kept}
}

// Load reads a glossary from a CSV file with at least two columns
// (source term, target term); additional columns are ignored. A missing
// file is not an error: an empty glossary is returned so translation can
// proceed in degraded, no-glossary mode.
func Load(path string) (*Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("glossary: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads glossary entries from CSV data.
func Parse(r io.Reader) (*Glossary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var entries []Entry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		// Skip fully blank rows but reject rows missing the target column.
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: row %d has %d column(s), need 2", ErrMalformed, len(entries)+1, len(row))
		}
		entries = append(entries, Entry{
			SourceTerm: strings.Trim(strings.TrimSpace(row[0]), `"`),
			TargetTerm: strings.Trim(strings.TrimSpace(row[1]), `"`),
		})
	}
	return New(entries), nil
}

// Len returns the number of entries.
func (g *Glossary) Len() int {
	return len(g.entries)
}

// Entries returns a copy of the entries, longest source term first.
func (g *Glossary) Entries() []Entry {
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Merge returns a new Glossary containing g's entries plus extra ones.
// Existing terms keep their translation; extras only add new terms.
func (g *Glossary) Merge(extra []Entry) *Glossary {
	return New(append(g.Entries(), extra...))
}

// Match scans text and returns all non-overlapping glossary occurrences in
// order of appearance. At each position the longest matching term is chosen
// and its span consumed before scanning continues past it. A candidate is
// rejected when it sits inside a larger word, meaning the span is flanked by
// an ASCII letter or digit on either side; trailing punctuation (terms like
// "G.O.RT.NO.") still matches.
func (g *Glossary) Match(text string) []Match {
	if len(g.entries) == 0 || text == "" {
		return nil
	}

	// ASCII-only folding keeps byte offsets aligned with the input text;
	// full Unicode case mapping can change string length.
	lower := lowerASCII(text)
	var matches []Match

	pos := 0
	for pos < len(lower) {
		best := -1
		for i, e := range g.entries {
			term := lowerASCII(e.SourceTerm)
			if strings.HasPrefix(lower[pos:], term) && wholeWord(lower, pos, pos+len(term)) {
				// entries are sorted longest-first, so the first hit wins
				best = i
				break
			}
		}
		if best == -1 {
			pos++
			continue
		}
		end := pos + len(g.entries[best].SourceTerm)
		matches = append(matches, Match{Start: pos, End: end, Entry: g.entries[best]})
		pos = end
	}
	return matches
}

// wholeWord reports whether the span [start,end) is not flanked by ASCII
// letters or digits.
func wholeWord(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func lowerASCII(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if b == nil {
				b = []byte(s)
			}
			b[i] = c + ('a' - 'A')
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}
