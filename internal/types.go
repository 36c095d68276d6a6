package internal

import "time"

// DocumentJob records one DOCX translation run.
type DocumentJob struct {
	ID          string    `json:"id"`
	InputFile   string    `json:"input_file"`
	OutputFile  string    `json:"output_file"`
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	Engine      string    `json:"engine"`
	Segments    int       `json:"segments"`
	MaskedTerms int       `json:"masked_terms"`
	RestoreMiss int       `json:"restore_miss"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}
