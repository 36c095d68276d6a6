/*
Copyright © 2025 The context-translation authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/saitejashb/context-translation/internal/glossary"
	"github.com/saitejashb/context-translation/internal/store"
	"github.com/saitejashb/context-translation/internal/translator"
)

// buildBackend constructs the translation backend named by engine.
func buildBackend(engine, backendURL, credentials, apiKey, model string, timeout time.Duration) (translator.Backend, error) {
	switch engine {
	case "indictrans2":
		return translator.NewIndicTransBackend(backendURL, timeout), nil
	case "google":
		if credentials == "" {
			return nil, fmt.Errorf("google engine requires --credentials")
		}
		return translator.NewGoogleBackend(credentials), nil
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai engine requires --api-key or OPENAI_API_KEY")
		}
		return translator.NewOpenAIBackend(apiKey, model, backendURL), nil
	default:
		return nil, fmt.Errorf("unknown engine: %s (want indictrans2, google, or openai)", engine)
	}
}

// loadGlossary combines the CSV glossary file (when present) with any terms
// stored for the language pair. A missing file is degraded mode, not an
// error; a malformed file aborts.
func loadGlossary(ctx context.Context, path string, db *store.Store, sourceLang, targetLang string) (*glossary.Glossary, error) {
	gloss, err := glossary.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load glossary %s: %w", path, err)
	}

	if db != nil {
		terms, err := db.GetGlossaryTerms(ctx, sourceLang, targetLang)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read stored glossary terms: %v\n", err)
			return gloss, nil
		}
		extra := make([]glossary.Entry, 0, len(terms))
		for src, tgt := range terms {
			extra = append(extra, glossary.Entry{SourceTerm: src, TargetTerm: tgt})
		}
		gloss = gloss.Merge(extra)
	}
	return gloss, nil
}
