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
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saitejashb/context-translation/internal/pipeline"
	"github.com/saitejashb/context-translation/internal/server"
	"github.com/saitejashb/context-translation/internal/store"
	"github.com/saitejashb/context-translation/internal/translator"
)

var (
	serveAddr         string
	serveSource       string
	serveTarget       string
	serveEngine       string
	serveBackendURL   string
	serveCredentials  string
	serveAPIKey       string
	serveModel        string
	serveGlossaryPath string
	serveDBPath       string
	serveNoCache      bool
	serveBatchSize    int
	serveMaxRetries   int
	serveMaxLength    int
	serveNumBeams     int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the translation REST API",
	Long: `Start an HTTP server exposing the translation pipeline.

Endpoints:
  GET  /healthz              Liveness and configured engine
  GET  /api/languages        Languages supported by the backend
  POST /api/translate        Translate text ({"text": ...} or {"texts": [...]})
  POST /api/translate/docx   Translate an uploaded .docx (multipart "file")

The glossary and backend are loaded once at startup and shared across
requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		backend, err := buildBackend(serveEngine, serveBackendURL, serveCredentials, serveAPIKey, serveModel, 60*time.Second)
		if err != nil {
			return err
		}
		if err := backend.IsAvailable(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: backend %s not reachable at startup: %v\n", backend.Name(), err)
		}

		var db *store.Store
		if serveDBPath != "" {
			db, err = store.New(serveDBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		gloss, err := loadGlossary(ctx, serveGlossaryPath, db, serveSource, serveTarget)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Loaded %d glossary entries\n", gloss.Len())

		cfg := pipeline.Config{
			MaxBatchSize: serveBatchSize,
			MaxAttempts:  serveMaxRetries,
			Options: translator.Options{
				MaxLength: serveMaxLength,
				NumBeams:  serveNumBeams,
			},
		}
		if db != nil && !serveNoCache {
			cfg.Cache = db
		}

		engine := pipeline.New(backend, gloss, cfg)
		srv := server.New(engine, backend, db, serveSource, serveTarget)

		fmt.Fprintf(os.Stderr, "Listening on %s (engine: %s, %s -> %s)\n",
			serveAddr, backend.Name(), serveSource, serveTarget)
		return http.ListenAndServe(serveAddr, srv.Handler())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVarP(&serveSource, "source", "s", "eng_Latn", "Default source language code")
	serveCmd.Flags().StringVarP(&serveTarget, "target", "t", "tel_Telu", "Default target language code")
	serveCmd.Flags().StringVarP(&serveEngine, "engine", "e", "indictrans2", "Translation engine: indictrans2, google, openai")
	serveCmd.Flags().StringVar(&serveBackendURL, "backend-url", "", "Backend base URL (indictrans2, openai)")
	serveCmd.Flags().StringVarP(&serveCredentials, "credentials", "c", "", "Path to Google Cloud credentials")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "API key for the openai engine")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Model name for the openai engine")
	serveCmd.Flags().StringVarP(&serveGlossaryPath, "glossary", "g", "glossary.csv", "Glossary CSV file")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "./data/context-translation.db", "Database path for translation memory")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "Disable translation memory cache")
	serveCmd.Flags().IntVar(&serveBatchSize, "batch-size", 16, "Segments per backend call")
	serveCmd.Flags().IntVar(&serveMaxRetries, "max-retries", 3, "Total attempts per batch including the first")
	serveCmd.Flags().IntVar(&serveMaxLength, "max-length", 512, "Model max_length decoding parameter")
	serveCmd.Flags().IntVar(&serveNumBeams, "num-beams", 5, "Model num_beams decoding parameter")
}
