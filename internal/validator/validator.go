// Package validator checks that a translated segment is in the expected
// target language. Failures are advisory: the pipeline logs them per
// segment and keeps the result.
package validator

import (
	"fmt"
	"strings"

	"github.com/saitejashb/context-translation/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt
// language detection. Shorter segments (table cells, headers) produce
// unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks translated segments against a target language code.
// The underlying detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// IsValid returns true when text appears to be written in targetLang
// (an ISO 639-1 code).
//
// Short segments and segments whose language cannot be determined pass
// without error. When the detected language differs from targetLang the
// returned error names both codes.
func (v *Validator) IsValid(text, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}
