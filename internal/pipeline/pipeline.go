// Package pipeline runs the glossary-aware translation flow: segments are
// masked, sent to the backend in bounded batches, repaired, and unmasked,
// strictly in order. One document is one sequential run; the backend call
// is the only long-running step and batches never overlap, so a failure is
// attributable to exactly one batch.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/saitejashb/context-translation/internal/chunker"
	"github.com/saitejashb/context-translation/internal/docx"
	"github.com/saitejashb/context-translation/internal/glossary"
	"github.com/saitejashb/context-translation/internal/placeholder"
	"github.com/saitejashb/context-translation/internal/postprocess"
	"github.com/saitejashb/context-translation/internal/store"
	"github.com/saitejashb/context-translation/internal/translator"
	"github.com/saitejashb/context-translation/internal/validator"
)

// Config bounds and tunes one translation run.
type Config struct {
	// MaxBatchSize caps how many segments go to the backend per call.
	MaxBatchSize int
	// MaxSegmentChars splits longer segments at sentence boundaries
	// before dispatch. 0 disables splitting.
	MaxSegmentChars int
	// MaxAttempts is the total tries per batch including the first.
	MaxAttempts int
	// RetryBackoff is the initial delay between attempts; it doubles
	// after each failure.
	RetryBackoff time.Duration
	// Options are passed through to the backend.
	Options translator.Options

	// Cache, when set, serves repeated segments from translation memory.
	Cache *store.Store
	// Validator, when set, checks translated segments are in the target
	// language; mismatches are logged, never fatal.
	Validator *validator.Validator
	// ValidateISO is the ISO 639-1 code the validator compares against.
	ValidateISO string
}

// Report summarises one run's work and degradations.
type Report struct {
	Segments      int
	MaskedTerms   int
	RestoreMisses int
	CacheHits     int
}

// Translator drives the mask → translate → unmask cycle over a backend.
// The glossary and backend are read-only and safe to share across
// concurrent runs; each run's state lives on the stack.
type Translator struct {
	backend translator.Backend
	gloss   *glossary.Glossary
	cfg     Config

	// Logf receives progress and degradation lines; defaults to stderr.
	Logf func(format string, args ...interface{})
}

// New creates a Translator. A nil glossary means no-glossary mode.
func New(backend translator.Backend, gloss *glossary.Glossary, cfg Config) *Translator {
	if gloss == nil {
		gloss = glossary.New(nil)
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 16
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	return &Translator{
		backend: backend,
		gloss:   gloss,
		cfg:     cfg,
		Logf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

// TranslateTexts translates texts in order and returns one result per
// input. Backend call failures fail the whole run after retries; glossary
// restore misses degrade single segments and are reported, not fatal.
func (t *Translator) TranslateTexts(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, *Report, error) {
	report := &Report{Segments: len(texts)}
	results := make([]string, len(texts))

	// Resolve cache hits first so batches only carry real work.
	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		if t.cfg.Cache != nil {
			if cached, found, err := t.cfg.Cache.GetCachedTranslation(ctx, text, sourceLang, targetLang); err == nil && found {
				results[i] = cached
				report.CacheHits++
				continue
			}
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += t.cfg.MaxBatchSize {
		end := start + t.cfg.MaxBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := t.translateBatch(ctx, texts, results, pending[start:end], sourceLang, targetLang, report); err != nil {
			return nil, report, err
		}
	}

	return results, report, nil
}

// translateBatch handles one bounded batch: mask every segment, flatten
// over-length segments into chunks, call the backend once, then reassemble
// and unmask per segment.
func (t *Translator) translateBatch(ctx context.Context, texts, results []string, indices []int, sourceLang, targetLang string, report *Report) error {
	type maskedSegment struct {
		index  int
		pieces int
		phmap  *placeholder.Map
	}

	var (
		segments []maskedSegment
		flat     []string
	)
	for _, i := range indices {
		matches := t.gloss.Match(texts[i])
		masked, phmap := placeholder.Mask(texts[i], matches)
		report.MaskedTerms += phmap.Len()

		pieces := []string{masked}
		if t.cfg.MaxSegmentChars > 0 {
			pieces = chunker.Split(masked, t.cfg.MaxSegmentChars)
		}
		segments = append(segments, maskedSegment{index: i, pieces: len(pieces), phmap: phmap})
		flat = append(flat, pieces...)
	}

	translated, err := t.callBackend(ctx, flat, sourceLang, targetLang)
	if err != nil {
		return err
	}

	pos := 0
	for _, seg := range segments {
		joined := chunker.Join(translated[pos : pos+seg.pieces])
		pos += seg.pieces

		restored, missing := placeholder.Unmask(postprocess.Clean(joined), seg.phmap)
		if len(missing) > 0 {
			report.RestoreMisses += len(missing)
			t.Logf("segment %d: %d glossary placeholder(s) missing from translation, leaving untranslated terms", seg.index, len(missing))
		}

		if t.cfg.Validator != nil && t.cfg.ValidateISO != "" {
			if ok, verr := t.cfg.Validator.IsValid(restored, t.cfg.ValidateISO); !ok && verr != nil {
				t.Logf("segment %d: language check: %v", seg.index, verr)
			}
		}

		results[seg.index] = restored
		if t.cfg.Cache != nil {
			_ = t.cfg.Cache.SaveToMemory(ctx, texts[seg.index], sourceLang, targetLang, restored, t.backend.Name())
		}
	}
	return nil
}

// callBackend dispatches one batch with retry and exponential backoff.
// Count mismatches are a backend contract violation and are never retried
// or patched over.
func (t *Translator) callBackend(ctx context.Context, batch []string, sourceLang, targetLang string) ([]string, error) {
	backoff := t.cfg.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		out, err := t.backend.Translate(ctx, batch, sourceLang, targetLang, t.cfg.Options)
		if err == nil {
			if len(out) != len(batch) {
				return nil, translator.CountMismatchError(t.backend.Name(), len(batch), len(out))
			}
			return out, nil
		}
		if !translator.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		if attempt < t.cfg.MaxAttempts {
			t.Logf("batch attempt %d/%d failed: %v, retrying in %s", attempt, t.cfg.MaxAttempts, err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("batch failed after %d attempts: %w", t.cfg.MaxAttempts, lastErr)
}

// TranslateDocument translates a .docx file in place-preserving fashion
// and writes the result to outputPath. The document fails as a whole on
// any backend or structural error; no partially translated file is saved.
func (t *Translator) TranslateDocument(ctx context.Context, inputPath, outputPath, sourceLang, targetLang string) (*Report, error) {
	doc, err := docx.Open(inputPath)
	if err != nil {
		return nil, err
	}

	segments := doc.Segments()
	if len(segments) == 0 {
		t.Logf("no text found in document")
		if err := doc.Save(outputPath); err != nil {
			return nil, err
		}
		return &Report{}, nil
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	t.Logf("translating %d text segments...", len(texts))
	results, report, err := t.TranslateTexts(ctx, texts, sourceLang, targetLang)
	if err != nil {
		return report, err
	}

	if err := doc.Apply(results); err != nil {
		return report, err
	}
	if err := doc.Save(outputPath); err != nil {
		return report, err
	}
	return report, nil
}
