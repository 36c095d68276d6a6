// Package server exposes the translation pipeline over HTTP. The engine,
// glossary, and backend handle are initialized once at startup and shared
// read-only across requests; each request runs its own pipeline state.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/saitejashb/context-translation/internal"
	"github.com/saitejashb/context-translation/internal/pipeline"
	"github.com/saitejashb/context-translation/internal/store"
	"github.com/saitejashb/context-translation/internal/translator"
)

// Server serves the REST translation API.
type Server struct {
	engine     *pipeline.Translator
	backend    translator.Backend
	store      *store.Store
	sourceLang string
	targetLang string
}

// New creates a Server around a ready pipeline. sourceLang and targetLang
// are the defaults applied when a request omits them. db may be nil; when
// set, document uploads are recorded in the job log.
func New(engine *pipeline.Translator, backend translator.Backend, db *store.Store, sourceLang, targetLang string) *Server {
	return &Server{
		engine:     engine,
		backend:    backend,
		store:      db,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/translate/docx", s.handleTranslateDocx)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": s.backend.Name()})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if lister, ok := s.backend.(*translator.IndicTransBackend); ok {
		langs, err := lister.Languages(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("backend unavailable: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, langs)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

type translateRequest struct {
	Text       string   `json:"text,omitempty"`
	Texts      []string `json:"texts,omitempty"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang,omitempty"`
}

type translateResponse struct {
	Translations []string `json:"translations"`
	MaskedTerms  int      `json:"masked_terms"`
	RestoreMiss  int      `json:"restore_miss"`
	CacheHits    int      `json:"cache_hits"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	texts := req.Texts
	if len(texts) == 0 && req.Text != "" {
		texts = []string{req.Text}
	}
	if len(texts) == 0 {
		writeError(w, http.StatusBadRequest, "text or texts is required")
		return
	}

	src, tgt := s.langs(req.SourceLang, req.TargetLang)
	results, report, err := s.engine.TranslateTexts(r.Context(), texts, src, tgt)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("translation failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{
		Translations: results,
		MaskedTerms:  report.MaskedTerms,
		RestoreMiss:  report.RestoreMisses,
		CacheHits:    report.CacheHits,
	})
}

// handleTranslateDocx accepts a multipart upload ("file"), translates it,
// and streams the translated document back.
func (s *Server) handleTranslateDocx(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	tmpDir, err := os.MkdirTemp("", "doctrans")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.docx")
	outputPath := filepath.Join(tmpDir, "output.docx")

	in, err := os.Create(inputPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	if _, err := io.Copy(in, file); err != nil {
		in.Close()
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	in.Close()

	src := r.URL.Query().Get("source_lang")
	tgt := r.URL.Query().Get("target_lang")
	src, tgt = s.langs(src, tgt)

	jobID := uuid.New().String()
	log.Printf("job %s: translating %s (%s -> %s)", jobID, header.Filename, src, tgt)
	if s.store != nil {
		_ = s.store.CreateDocumentJob(r.Context(), internal.DocumentJob{
			ID:         jobID,
			InputFile:  header.Filename,
			OutputFile: "translated_" + header.Filename,
			SourceLang: src,
			TargetLang: tgt,
			Engine:     s.backend.Name(),
			Status:     "running",
			Timestamp:  time.Now(),
		})
	}

	report, err := s.engine.TranslateDocument(r.Context(), inputPath, outputPath, src, tgt)
	if err != nil {
		if s.store != nil {
			segments, masked, misses := 0, 0, 0
			if report != nil {
				segments, masked, misses = report.Segments, report.MaskedTerms, report.RestoreMisses
			}
			_ = s.store.FinishDocumentJob(r.Context(), jobID, "failed", segments, masked, misses)
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("document translation failed: %v", err))
		return
	}
	if s.store != nil {
		_ = s.store.FinishDocumentJob(r.Context(), jobID, "done", report.Segments, report.MaskedTerms, report.RestoreMisses)
	}
	log.Printf("job %s: done, %d segments, %d restore misses", jobID, report.Segments, report.RestoreMisses)

	out, err := os.Open(outputPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read result")
		return
	}
	defer out.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "translated_"+header.Filename))
	io.Copy(w, out)
}

func (s *Server) langs(src, tgt string) (string, string) {
	if src == "" {
		src = s.sourceLang
	}
	if tgt == "" {
		tgt = s.targetLang
	}
	return src, tgt
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
