package pipeline_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saitejashb/context-translation/internal/docx"
	"github.com/saitejashb/context-translation/internal/glossary"
	"github.com/saitejashb/context-translation/internal/pipeline"
	"github.com/saitejashb/context-translation/internal/translator"
)

// stubBackend returns whatever fn produces; calls counts invocations.
type stubBackend struct {
	calls int
	fn    func(batch []string) ([]string, error)
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Translate(ctx context.Context, batch []string, sourceLang, targetLang string, opts translator.Options) ([]string, error) {
	s.calls++
	return s.fn(batch)
}

func (s *stubBackend) IsAvailable(ctx context.Context) error { return nil }

func echoBackend() *stubBackend {
	return &stubBackend{fn: func(batch []string) ([]string, error) {
		out := make([]string, len(batch))
		copy(out, batch)
		return out, nil
	}}
}

func quietConfig() pipeline.Config {
	return pipeline.Config{RetryBackoff: time.Millisecond}
}

func TestTranslateTexts_GlossaryTermRestored(t *testing.T) {
	gloss := glossary.New([]glossary.Entry{
		{SourceTerm: "G.O.RT.NO.", TargetTerm: "జి.ఓ.ఆర్.టి.నెం."},
	})
	tr := pipeline.New(echoBackend(), gloss, quietConfig())
	tr.Logf = t.Logf

	results, report, err := tr.TranslateTexts(context.Background(),
		[]string{"As per G.O.RT.NO. 123, the department shall proceed."},
		"eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("TranslateTexts failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.Contains(results[0], "జి.ఓ.ఆర్.టి.నెం.") {
		t.Errorf("expected glossary target term in output, got %q", results[0])
	}
	if strings.Contains(results[0], "G.O.RT.NO.") {
		t.Errorf("source term leaked into output: %q", results[0])
	}
	if report.MaskedTerms != 1 {
		t.Errorf("expected 1 masked term, got %d", report.MaskedTerms)
	}
	if report.RestoreMisses != 0 {
		t.Errorf("expected 0 restore misses, got %d", report.RestoreMisses)
	}
}

func TestTranslateTexts_OrderPreserved(t *testing.T) {
	// Backend reverses case to prove each result maps to its input slot.
	backend := &stubBackend{fn: func(batch []string) ([]string, error) {
		out := make([]string, len(batch))
		for i, s := range batch {
			out[i] = strings.ToUpper(s)
		}
		return out, nil
	}}
	tr := pipeline.New(backend, nil, quietConfig())
	tr.Logf = t.Logf

	texts := []string{"one", "two", "three", "four"}
	results, _, err := tr.TranslateTexts(context.Background(), texts, "eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("TranslateTexts failed: %v", err)
	}
	for i, want := range []string{"ONE", "TWO", "THREE", "FOUR"} {
		if results[i] != want {
			t.Errorf("result %d: expected %q, got %q", i, want, results[i])
		}
	}
}

func TestTranslateTexts_BatchesBounded(t *testing.T) {
	backend := echoBackend()
	cfg := quietConfig()
	cfg.MaxBatchSize = 2
	tr := pipeline.New(backend, nil, cfg)
	tr.Logf = t.Logf

	texts := []string{"a", "b", "c", "d", "e"}
	_, _, err := tr.TranslateTexts(context.Background(), texts, "eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("TranslateTexts failed: %v", err)
	}
	if backend.calls != 3 {
		t.Errorf("expected 3 backend calls for 5 texts at batch size 2, got %d", backend.calls)
	}
}

func TestTranslateTexts_CountMismatchFatal(t *testing.T) {
	backend := &stubBackend{fn: func(batch []string) ([]string, error) {
		return batch[:len(batch)-1], nil
	}}
	tr := pipeline.New(backend, nil, quietConfig())
	tr.Logf = t.Logf

	_, _, err := tr.TranslateTexts(context.Background(), []string{"a", "b"}, "eng_Latn", "tel_Telu")
	if !errors.Is(err, translator.ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("count mismatch must not be retried, got %d calls", backend.calls)
	}
}

func TestTranslateTexts_RetriesBackendErrors(t *testing.T) {
	backend := &stubBackend{}
	backend.fn = func(batch []string) ([]string, error) {
		if backend.calls < 3 {
			return nil, &translator.BackendError{Backend: "stub", Err: errors.New("capacity")}
		}
		out := make([]string, len(batch))
		copy(out, batch)
		return out, nil
	}
	cfg := quietConfig()
	cfg.MaxAttempts = 3
	tr := pipeline.New(backend, nil, cfg)
	tr.Logf = t.Logf

	results, _, err := tr.TranslateTexts(context.Background(), []string{"hello"}, "eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if backend.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", backend.calls)
	}
	if results[0] != "hello" {
		t.Errorf("unexpected result %q", results[0])
	}
}

func TestTranslateTexts_ExhaustedRetriesFail(t *testing.T) {
	backend := &stubBackend{fn: func(batch []string) ([]string, error) {
		return nil, &translator.BackendError{Backend: "stub", Err: errors.New("down")}
	}}
	cfg := quietConfig()
	cfg.MaxAttempts = 2
	tr := pipeline.New(backend, nil, cfg)
	tr.Logf = t.Logf

	_, _, err := tr.TranslateTexts(context.Background(), []string{"hello"}, "eng_Latn", "tel_Telu")
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if backend.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", backend.calls)
	}
}

func TestTranslateTexts_RestoreMissIsNotFatal(t *testing.T) {
	// Backend swallows every marker, simulating a model that dropped them.
	backend := &stubBackend{fn: func(batch []string) ([]string, error) {
		out := make([]string, len(batch))
		for i := range batch {
			out[i] = "అనువాదం"
		}
		return out, nil
	}}
	gloss := glossary.New([]glossary.Entry{{SourceTerm: "G.O.RT.NO.", TargetTerm: "జి.ఓ.ఆర్.టి.నెం."}})
	tr := pipeline.New(backend, gloss, quietConfig())
	tr.Logf = t.Logf

	results, report, err := tr.TranslateTexts(context.Background(),
		[]string{"Refer to G.O.RT.NO. 9."}, "eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("restore miss must not fail the run: %v", err)
	}
	if report.RestoreMisses != 1 {
		t.Errorf("expected 1 restore miss, got %d", report.RestoreMisses)
	}
	if results[0] != "అనువాదం" {
		t.Errorf("unexpected result %q", results[0])
	}
}

func TestTranslateTexts_FailedRunReportsCounts(t *testing.T) {
	// Masking happens before the backend call, so a failed run's report
	// still carries the segment and masked-term counts for the job log.
	backend := &stubBackend{fn: func(batch []string) ([]string, error) {
		return nil, &translator.BackendError{Backend: "stub", Err: errors.New("down")}
	}}
	gloss := glossary.New([]glossary.Entry{{SourceTerm: "G.O.RT.NO.", TargetTerm: "జి.ఓ.ఆర్.టి.నెం."}})
	cfg := quietConfig()
	cfg.MaxAttempts = 1
	tr := pipeline.New(backend, gloss, cfg)
	tr.Logf = t.Logf

	_, report, err := tr.TranslateTexts(context.Background(),
		[]string{"Refer to G.O.RT.NO. 9."}, "eng_Latn", "tel_Telu")
	if err == nil {
		t.Fatal("expected failure")
	}
	if report == nil {
		t.Fatal("expected a report alongside the error")
	}
	if report.Segments != 1 {
		t.Errorf("expected 1 segment reported, got %d", report.Segments)
	}
	if report.MaskedTerms != 1 {
		t.Errorf("expected 1 masked term reported, got %d", report.MaskedTerms)
	}
}

func TestTranslateDocument_EndToEnd(t *testing.T) {
	input := filepath.Join(t.TempDir(), "order.docx")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Issued vide G.O.RT.NO. 45 dated today.</w:t></w:r></w:p>
<w:p><w:r><w:t>The department shall comply.</w:t></w:r></w:p>
</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	gloss := glossary.New([]glossary.Entry{{SourceTerm: "G.O.RT.NO.", TargetTerm: "జి.ఓ.ఆర్.టి.నెం."}})
	tr := pipeline.New(echoBackend(), gloss, quietConfig())
	tr.Logf = t.Logf

	output := filepath.Join(t.TempDir(), "order_te.docx")
	report, err := tr.TranslateDocument(context.Background(), input, output, "eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if report.Segments != 2 {
		t.Errorf("expected 2 segments, got %d", report.Segments)
	}
	if report.MaskedTerms != 1 {
		t.Errorf("expected 1 masked term, got %d", report.MaskedTerms)
	}

	doc, err := docx.Open(output)
	if err != nil {
		t.Fatalf("output is not a valid document: %v", err)
	}
	segs := doc.Segments()
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments in output, got %d", len(segs))
	}
	if !strings.Contains(segs[0].Text, "జి.ఓ.ఆర్.టి.నెం.") {
		t.Errorf("expected glossary term in output, got %q", segs[0].Text)
	}
}

func TestTranslateDocument_BackendFailureLeavesNoOutput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "order.docx")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Some text.</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	backend := &stubBackend{fn: func(batch []string) ([]string, error) {
		return batch[:0], nil
	}}
	tr := pipeline.New(backend, nil, quietConfig())
	tr.Logf = t.Logf

	output := filepath.Join(t.TempDir(), "out.docx")
	if _, err := tr.TranslateDocument(context.Background(), input, output, "eng_Latn", "tel_Telu"); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("no output file should be written on failure")
	}
}

func TestTranslateTexts_ChunkedSegmentsRejoined(t *testing.T) {
	backend := echoBackend()
	cfg := quietConfig()
	cfg.MaxSegmentChars = 30
	tr := pipeline.New(backend, nil, cfg)
	tr.Logf = t.Logf

	long := "First sentence is here. Second sentence follows it. Third one closes."
	results, _, err := tr.TranslateTexts(context.Background(), []string{long}, "eng_Latn", "tel_Telu")
	if err != nil {
		t.Fatalf("TranslateTexts failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	for _, word := range strings.Fields(long) {
		if !strings.Contains(results[0], strings.Trim(word, ".")) {
			t.Errorf("word %q missing from rejoined result %q", word, results[0])
		}
	}
}
