// Package docx walks the text-bearing nodes of a Word (Office Open XML)
// document and writes translated text back in place.
//
// The archive is treated as an editable tree: body paragraphs, table-cell
// paragraphs (row-major, nested tables included), headers, and footers are
// extracted in a stable order, one segment per paragraph node. Write-back
// is positional and byte-preserving: only <w:t> character data is spliced,
// so styles, numbering, images, and everything else in the package survive
// untouched. Run-level formatting boundaries inside a paragraph do not:
// the translated text lands in the first run and the remaining runs are
// cleared, an accepted fidelity loss.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

const documentPart = "word/document.xml"

// ErrStructure reports a document whose required parts cannot be read or
// written. It is fatal for the translation run.
var ErrStructure = errors.New("docx: invalid document structure")

// NodeKind identifies the kind of text-bearing node a segment came from.
type NodeKind int

const (
	KindParagraph NodeKind = iota
	KindTableCell
	KindHeader
	KindFooter
)

func (k NodeKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTableCell:
		return "table_cell"
	case KindHeader:
		return "header"
	case KindFooter:
		return "footer"
	}
	return "unknown"
}

// Segment is one contiguous text unit extracted from a document node.
type Segment struct {
	Kind NodeKind
	Text string

	part string
	node int
}

// textSpan locates one <w:t> element's character data within a part.
type textSpan struct {
	start int64 // offset just past the start tag
	end   int64 // offset of '<' of the matching end tag
	text  string
}

// paragraphNode is one <w:p> with the spans of all its runs' text.
type paragraphNode struct {
	inTable bool
	spans   []textSpan
}

// Document is an opened DOCX archive with its text-bearing nodes indexed.
// It is exclusively owned by one translation run; mutate via Apply, then
// persist with Save.
type Document struct {
	entries []zipEntry
	parts   map[string][]byte
	nodes   map[string][]paragraphNode

	segments []Segment
}

type zipEntry struct {
	name   string
	method uint16
}

// Open reads a .docx file and indexes its paragraphs, tables, headers,
// and footers.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive: %v", ErrStructure, err)
	}
	defer zr.Close()

	d := &Document{
		parts: make(map[string][]byte),
		nodes: make(map[string][]paragraphNode),
	}

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrStructure, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrStructure, f.Name, err)
		}
		d.entries = append(d.entries, zipEntry{name: f.Name, method: f.Method})
		d.parts[f.Name] = data
	}

	if _, ok := d.parts[documentPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrStructure, documentPart)
	}

	for _, name := range d.textParts() {
		nodes, err := scanPart(d.parts[name])
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrStructure, name, err)
		}
		d.nodes[name] = nodes
	}

	d.buildSegments()
	return d, nil
}

// textParts returns the part names holding translatable text: the body
// first, then headers and footers in lexical order.
func (d *Document) textParts() []string {
	parts := []string{documentPart}
	var headers, footers []string
	for name := range d.parts {
		switch {
		case strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml"):
			headers = append(headers, name)
		case strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml"):
			footers = append(footers, name)
		}
	}
	sort.Strings(headers)
	sort.Strings(footers)
	parts = append(parts, headers...)
	return append(parts, footers...)
}

// buildSegments assembles the ordered segment list: body paragraphs in
// document order, then table-cell paragraphs, then headers, then footers.
// Only nodes with non-blank text become segments; the extraction order is
// the reinsertion order.
func (d *Document) buildSegments() {
	add := func(part string, kind NodeKind, table bool) {
		for i, n := range d.nodes[part] {
			if n.inTable != table {
				continue
			}
			text := nodeText(n)
			if strings.TrimSpace(text) == "" {
				continue
			}
			d.segments = append(d.segments, Segment{Kind: kind, Text: text, part: part, node: i})
		}
	}

	add(documentPart, KindParagraph, false)
	add(documentPart, KindTableCell, true)
	for _, name := range d.textParts()[1:] {
		kind := KindHeader
		if strings.HasPrefix(name, "word/footer") {
			kind = KindFooter
		}
		for i, n := range d.nodes[name] {
			text := nodeText(n)
			if strings.TrimSpace(text) == "" {
				continue
			}
			d.segments = append(d.segments, Segment{Kind: kind, Text: text, part: name, node: i})
		}
	}
}

func nodeText(n paragraphNode) string {
	var sb strings.Builder
	for _, s := range n.spans {
		sb.WriteString(s.text)
	}
	return sb.String()
}

// Segments returns the ordered list of extracted text segments.
func (d *Document) Segments() []Segment {
	out := make([]Segment, len(d.segments))
	copy(out, d.segments)
	return out
}

// scanPart walks one XML part and records every top-level paragraph with
// the byte spans of its <w:t> character data. Paragraphs inside tables are
// flagged; paragraphs nested in drawings or text boxes are skipped.
func scanPart(data []byte) ([]paragraphNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		nodes    []paragraphNode
		current  *paragraphNode
		curSpan  textSpan
		inText   bool
		pDepth   int
		tblDepth int
	)

	for {
		prevOff := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		off := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "p":
				if pDepth == 0 {
					current = &paragraphNode{inTable: tblDepth > 0}
				}
				pDepth++
			case "t":
				if pDepth == 1 && current != nil && !inText {
					inText = true
					curSpan = textSpan{start: off, end: off}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth--
			case "p":
				pDepth--
				if pDepth == 0 && current != nil {
					nodes = append(nodes, *current)
					current = nil
				}
			case "t":
				if inText {
					curSpan.end = prevOff
					current.spans = append(current.spans, curSpan)
					inText = false
				}
			}
		case xml.CharData:
			if inText {
				curSpan.text += string(t)
			}
		}
	}

	return nodes, nil
}
