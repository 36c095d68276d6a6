package docx_test

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saitejashb/context-translation/internal/docx"
)

const bodyXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First body paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>body</w:t></w:r><w:r><w:t> paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">   </w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Cell one.</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>Cell two.</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>After table.</w:t></w:r></w:p>
</w:body>
</w:document>`

const headerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:p><w:r><w:t>Header text.</w:t></w:r></w:p>
</w:hdr>`

const footerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:p><w:r><w:t>Footer text.</w:t></w:r></w:p>
</w:ftr>`

// writeArchive builds a minimal .docx on disk from part name -> XML.
func writeArchive(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func fullFixture(t *testing.T) string {
	return writeArchive(t, map[string]string{
		"word/document.xml": bodyXML,
		"word/header1.xml":  headerXML,
		"word/footer1.xml":  footerXML,
	})
}

func TestOpen_MissingDocumentPart(t *testing.T) {
	path := writeArchive(t, map[string]string{"word/header1.xml": headerXML})
	_, err := docx.Open(path)
	if !errors.Is(err, docx.ErrStructure) {
		t.Fatalf("expected ErrStructure, got %v", err)
	}
}

func TestOpen_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := docx.Open(path)
	if !errors.Is(err, docx.ErrStructure) {
		t.Fatalf("expected ErrStructure, got %v", err)
	}
}

func TestSegments_OrderAndKinds(t *testing.T) {
	doc, err := docx.Open(fullFixture(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	segs := doc.Segments()
	want := []struct {
		kind docx.NodeKind
		text string
	}{
		{docx.KindParagraph, "First body paragraph."},
		{docx.KindParagraph, "Second body paragraph."},
		{docx.KindParagraph, "After table."},
		{docx.KindTableCell, "Cell one."},
		{docx.KindTableCell, "Cell two."},
		{docx.KindHeader, "Header text."},
		{docx.KindFooter, "Footer text."},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(segs), segs)
	}
	for i, w := range want {
		if segs[i].Kind != w.kind {
			t.Errorf("segment %d: expected kind %s, got %s", i, w.kind, segs[i].Kind)
		}
		if segs[i].Text != w.text {
			t.Errorf("segment %d: expected %q, got %q", i, w.text, segs[i].Text)
		}
	}
}

func TestSegments_BlankParagraphSkipped(t *testing.T) {
	doc, err := docx.Open(fullFixture(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i, s := range doc.Segments() {
		if strings.TrimSpace(s.Text) == "" {
			t.Errorf("segment %d is blank", i)
		}
	}
}

func TestApply_CountMismatch(t *testing.T) {
	doc, err := docx.Open(fullFixture(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = doc.Apply([]string{"only one"})
	if !errors.Is(err, docx.ErrStructure) {
		t.Fatalf("expected ErrStructure for mismatched count, got %v", err)
	}
}

func TestApplySave_RoundTrip(t *testing.T) {
	doc, err := docx.Open(fullFixture(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	segs := doc.Segments()
	translations := make([]string, len(segs))
	for i := range segs {
		translations[i] = "అనువాదం " + segs[i].Text
	}
	if err := doc.Apply(translations); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.docx")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := docx.Open(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got := reopened.Segments()
	if len(got) != len(segs) {
		t.Fatalf("expected %d segments after round trip, got %d", len(segs), len(got))
	}
	for i := range got {
		if got[i].Text != translations[i] {
			t.Errorf("segment %d: expected %q, got %q", i, translations[i], got[i].Text)
		}
		if got[i].Kind != segs[i].Kind {
			t.Errorf("segment %d: kind changed from %s to %s", i, segs[i].Kind, got[i].Kind)
		}
	}
}

func TestApply_MultiRunParagraphWritesFirstRun(t *testing.T) {
	doc, err := docx.Open(fullFixture(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	segs := doc.Segments()
	translations := make([]string, len(segs))
	for i := range segs {
		translations[i] = segs[i].Text
	}
	// The multi-run paragraph gets a distinct value to inspect.
	translations[1] = "రెండవ పేరా"
	if err := doc.Apply(translations); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.docx")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reopened, err := docx.Open(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got := reopened.Segments()
	if got[1].Text != "రెండవ పేరా" {
		t.Errorf("multi-run paragraph: expected %q, got %q", "రెండవ పేరా", got[1].Text)
	}
	// No residue from the cleared runs.
	if strings.Contains(got[1].Text, "paragraph") {
		t.Errorf("cleared run text leaked: %q", got[1].Text)
	}
}

func TestApply_EscapesXMLSpecials(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>plain</w:t></w:r></w:p></w:body></w:document>`,
	})
	doc, err := docx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := doc.Apply([]string{`a < b & "c"`}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.docx")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reopened, err := docx.Open(out)
	if err != nil {
		t.Fatalf("reopen failed after writing specials: %v", err)
	}
	if got := reopened.Segments()[0].Text; got != `a < b & "c"` {
		t.Errorf("expected specials round-tripped, got %q", got)
	}
}

func TestApply_SelfClosingRun(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t/></w:r><w:r><w:t>visible</w:t></w:r></w:p></w:body></w:document>`,
	})
	doc, err := docx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	segs := doc.Segments()
	if len(segs) != 1 || segs[0].Text != "visible" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
	if err := doc.Apply([]string{"కనిపించే"}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.docx")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reopened, err := docx.Open(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reopened.Segments()[0].Text; got != "కనిపించే" {
		t.Errorf("expected %q, got %q", "కనిపించే", got)
	}
}

func TestSave_PreservesNonTextParts(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"word/document.xml":   bodyXML,
		"word/styles.xml":     `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		"[Content_Types].xml": `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	})
	doc, err := docx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.docx")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"word/document.xml", "word/styles.xml", "[Content_Types].xml"} {
		if !names[want] {
			t.Errorf("part %s missing from saved archive", want)
		}
	}
}
