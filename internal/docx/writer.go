package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
)

// splice is one byte-range replacement within a part.
type splice struct {
	start int64
	end   int64
	data  []byte
}

// Apply writes translated texts back into the document. translations must
// hold exactly one result per extracted segment, in extraction order;
// anything else indicates a broken positional correspondence and is fatal.
//
// Each segment's text lands in its node's first writable run; the
// character data of every other run in that node is cleared.
func (d *Document) Apply(translations []string) error {
	if len(translations) != len(d.segments) {
		return fmt.Errorf("%w: %d translations for %d segments", ErrStructure, len(translations), len(d.segments))
	}

	edits := make(map[string][]splice)
	for i, seg := range d.segments {
		node := d.nodes[seg.part][seg.node]
		part := d.parts[seg.part]

		target := writableSpan(part, node.spans)
		if target == -1 {
			return fmt.Errorf("%w: node %d in %s has no writable run", ErrStructure, seg.node, seg.part)
		}

		for j, span := range node.spans {
			if j == target {
				edits[seg.part] = append(edits[seg.part], writeSplice(part, span, translations[i]))
				continue
			}
			if span.end > span.start {
				edits[seg.part] = append(edits[seg.part], splice{start: span.start, end: span.end})
			}
		}
	}

	for part, list := range edits {
		d.parts[part] = applySplices(d.parts[part], list)
	}
	return nil
}

// writableSpan picks the span to receive the translated text: the first
// span that is a real element (not self-closing), else the first span.
func writableSpan(part []byte, spans []textSpan) int {
	for i, s := range spans {
		if !selfClosing(part, s) {
			return i
		}
	}
	if len(spans) > 0 {
		return 0
	}
	return -1
}

// selfClosing reports whether a span came from a <w:t/> element, which has
// no character-data position to splice into.
func selfClosing(part []byte, s textSpan) bool {
	return s.start == s.end && s.start >= 2 && part[s.start-2] == '/' && part[s.start-1] == '>'
}

// writeSplice builds the replacement for the target span. Self-closing
// elements are rewritten as open/close pairs so the text has somewhere to
// live.
func writeSplice(part []byte, s textSpan, text string) splice {
	var esc bytes.Buffer
	xml.EscapeText(&esc, []byte(text))

	if selfClosing(part, s) {
		// turn <w:t/> into <w:t>text</w:t>: replace the trailing "/>"
		var buf bytes.Buffer
		buf.WriteByte('>')
		buf.Write(esc.Bytes())
		buf.WriteString("</w:t>")
		return splice{start: s.start - 2, end: s.start, data: buf.Bytes()}
	}
	return splice{start: s.start, end: s.end, data: esc.Bytes()}
}

// applySplices rewrites data with the given non-overlapping replacements.
func applySplices(data []byte, list []splice) []byte {
	sort.Slice(list, func(i, j int) bool { return list[i].start < list[j].start })

	var out bytes.Buffer
	out.Grow(len(data))
	var pos int64
	for _, sp := range list {
		out.Write(data[pos:sp.start])
		out.Write(sp.data)
		pos = sp.end
	}
	out.Write(data[pos:])
	return out.Bytes()
}

// Save writes the document to path as a new archive. Unedited parts are
// copied verbatim; entry order is preserved.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range d.entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			zw.Close()
			return fmt.Errorf("%w: writing %s: %v", ErrStructure, e.name, err)
		}
		if _, err := w.Write(d.parts[e.name]); err != nil {
			zw.Close()
			return fmt.Errorf("%w: writing %s: %v", ErrStructure, e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
