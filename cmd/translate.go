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
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saitejashb/context-translation/internal"
	"github.com/saitejashb/context-translation/internal/detector"
	"github.com/saitejashb/context-translation/internal/pipeline"
	"github.com/saitejashb/context-translation/internal/store"
	"github.com/saitejashb/context-translation/internal/translator"
	"github.com/saitejashb/context-translation/internal/validator"
)

var (
	inputFile    string
	outputFile   string
	sourceLang   string
	targetLang   string
	engineName   string
	backendURL   string
	credentials  string
	apiKey       string
	modelName    string
	glossaryPath string

	dbPath     string
	noCache    bool
	batchSize  int
	maxChars   int
	maxRetries int
	maxLength  int
	numBeams   int
	validate   string

	backendTimeout time.Duration
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a DOCX document or text file",
	Long: `Translate a .docx document or a plain text file while enforcing the
terminology glossary.

Glossary terms are replaced with placeholders before the text reaches the
model and restored as their fixed target-language renderings afterwards.
Document structure (tables, headers, footers, formatting) is preserved;
only run text changes.

Engines:
  - indictrans2  IndicTrans2 REST service (default, self-hosted)
  - google       Google Cloud Translation (requires credentials)
  - openai       OpenAI chat models (requires API key)

Example:
  context-translation translate -i order.docx -o order_te.docx \
    -s eng_Latn -t tel_Telu --glossary glossary.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		ctx := context.Background()

		// Config file and environment fill in flags the user left at
		// their defaults.
		if !cmd.Flags().Changed("engine") && viper.GetString("engine") != "" {
			engineName = viper.GetString("engine")
		}
		if !cmd.Flags().Changed("backend-url") && viper.GetString("backend_url") != "" {
			backendURL = viper.GetString("backend_url")
		}
		if !cmd.Flags().Changed("glossary") && viper.GetString("glossary") != "" {
			glossaryPath = viper.GetString("glossary")
		}

		backend, err := buildBackend(engineName, backendURL, credentials, apiKey, modelName, backendTimeout)
		if err != nil {
			return err
		}

		var db *store.Store
		if dbPath != "" {
			db, err = store.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		gloss, err := loadGlossary(ctx, glossaryPath, db, sourceLang, targetLang)
		if err != nil {
			return err
		}
		if gloss.Len() == 0 {
			fmt.Fprintf(os.Stderr, "Warning: glossary is empty, translating without term enforcement\n")
		} else {
			fmt.Fprintf(os.Stderr, "Loaded %d glossary entries\n", gloss.Len())
		}

		cfg := pipeline.Config{
			MaxBatchSize:    batchSize,
			MaxSegmentChars: maxChars,
			MaxAttempts:     maxRetries,
			Options: translator.Options{
				MaxLength: maxLength,
				NumBeams:  numBeams,
			},
		}
		if db != nil && !noCache {
			cfg.Cache = db
		}
		if validate != "" {
			cfg.Validator = validator.New()
			cfg.ValidateISO = validate
		}

		engine := pipeline.New(backend, gloss, cfg)

		if strings.EqualFold(filepath.Ext(inputFile), ".docx") {
			return translateDocument(ctx, engine, db)
		}
		return translateTextFile(ctx, engine)
	},
}

// translateDocument runs the DOCX path and records the job when a database
// is open.
func translateDocument(ctx context.Context, engine *pipeline.Translator, db *store.Store) error {
	jobID := uuid.New().String()
	if db != nil {
		_ = db.CreateDocumentJob(ctx, internal.DocumentJob{
			ID:         jobID,
			InputFile:  inputFile,
			OutputFile: outputFile,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Engine:     engineName,
			Status:     "running",
			Timestamp:  time.Now(),
		})
	}

	report, err := engine.TranslateDocument(ctx, inputFile, outputFile, sourceLang, targetLang)
	if err != nil {
		if db != nil {
			segments, masked, misses := 0, 0, 0
			if report != nil {
				segments, masked, misses = report.Segments, report.MaskedTerms, report.RestoreMisses
			}
			_ = db.FinishDocumentJob(ctx, jobID, "failed", segments, masked, misses)
		}
		return fmt.Errorf("failed to translate document: %w", err)
	}

	if db != nil {
		_ = db.FinishDocumentJob(ctx, jobID, "done", report.Segments, report.MaskedTerms, report.RestoreMisses)
	}

	fmt.Printf("Successfully translated %s to %s\n", sourceLang, targetLang)
	fmt.Printf("Segments: %d, glossary terms enforced: %d, cache hits: %d\n",
		report.Segments, report.MaskedTerms, report.CacheHits)
	if report.RestoreMisses > 0 {
		fmt.Printf("Warning: %d glossary placeholder(s) were lost by the model; those terms remain in the source language\n",
			report.RestoreMisses)
	}
	return nil
}

// translateTextFile translates a plain text file paragraph by paragraph.
func translateTextFile(ctx context.Context, engine *pipeline.Translator) error {
	raw, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	text := string(raw)

	if sourceLang == "auto" {
		det := detector.New()
		if detected, ok := det.DetectISO(text); ok {
			sourceLang = detected
			fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
		}
	}

	paragraphs := splitParagraphs(text)
	results, report, err := engine.TranslateTexts(ctx, paragraphs, sourceLang, targetLang)
	if err != nil {
		return fmt.Errorf("failed to translate: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(strings.Join(results, "\n\n")+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Successfully translated %s to %s\n", sourceLang, targetLang)
	fmt.Printf("Segments: %d, glossary terms enforced: %d, cache hits: %d\n",
		report.Segments, report.MaskedTerms, report.CacheHits)
	return nil
}

// splitParagraphs breaks text on blank lines, dropping empty blocks so each
// segment carries real content.
func splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file, .docx or plain text (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (required)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "eng_Latn", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVarP(&engineName, "engine", "e", "indictrans2", "Translation engine: indictrans2, google, openai")
	translateCmd.Flags().StringVar(&backendURL, "backend-url", "", "Backend base URL (indictrans2, openai)")
	translateCmd.Flags().StringVarP(&credentials, "credentials", "c", "", "Path to Google Cloud credentials")
	translateCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the openai engine")
	translateCmd.Flags().StringVar(&modelName, "model", "", "Model name for the openai engine")
	translateCmd.Flags().StringVarP(&glossaryPath, "glossary", "g", "glossary.csv", "Glossary CSV file (source_term,target_term)")

	translateCmd.Flags().StringVar(&dbPath, "db", "./data/context-translation.db", "Database path for translation memory and job log")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory cache")
	translateCmd.Flags().IntVar(&batchSize, "batch-size", 16, "Segments per backend call")
	translateCmd.Flags().IntVar(&maxChars, "max-chars", 0, "Split segments longer than this before dispatch (0 = off)")
	translateCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Total attempts per batch including the first (1 = no retries)")
	translateCmd.Flags().IntVar(&maxLength, "max-length", 512, "Model max_length decoding parameter")
	translateCmd.Flags().IntVar(&numBeams, "num-beams", 5, "Model num_beams decoding parameter")
	translateCmd.Flags().StringVar(&validate, "validate", "", "ISO 639-1 code to verify translated language against (e.g. te)")
	translateCmd.Flags().DurationVar(&backendTimeout, "timeout", 60*time.Second, "Backend request timeout")

	viper.BindPFlag("engine", translateCmd.Flags().Lookup("engine"))
	viper.BindPFlag("backend_url", translateCmd.Flags().Lookup("backend-url"))
	viper.BindPFlag("glossary", translateCmd.Flags().Lookup("glossary"))

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
	translateCmd.MarkFlagRequired("target")
}
