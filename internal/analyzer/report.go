package analyzer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/TobiSchelling/veritas/internal/analysis"
)

// Report is the combined outcome of one analysis request.
type Report struct {
	ID               string                            `json:"id"`
	OverallScore     int                               `json:"overallScore"`
	CredibilityLevel string                            `json:"credibilityLevel"`
	AnalysisResults  map[analysis.Type]analysis.Result `json:"analysisResults"`
	AnalysisStatus   map[analysis.Type]Status          `json:"analysisStatus"`
	AnalyzedText     string                            `json:"analyzedText"`
	URLInfo          *URLInfo                          `json:"urlInfo,omitempty"`
	FileInfo         *FileInfo                         `json:"fileInfo,omitempty"`
	Timestamp        time.Time                         `json:"timestamp"`
}

// Status records whether a type's result came from the model or is a fallback.
type Status struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type URLInfo struct {
	OriginalURL string `json:"originalUrl"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	WordCount   int    `json:"wordCount"`
}

type FileInfo struct {
	FileName       string    `json:"fileName"`
	FileType       string    `json:"fileType"`
	FileSize       int64     `json:"fileSize"`
	WordCount      int       `json:"wordCount"`
	CharacterCount int       `json:"characterCount"`
	ExtractedAt    time.Time `json:"extractedAt"`
}

// Failed returns the types whose result is a fallback.
func (r *Report) Failed() []analysis.Type {
	var out []analysis.Type
	for _, t := range analysis.AllTypes() {
		if st, ok := r.AnalysisStatus[t]; ok && !st.Success {
			out = append(out, t)
		}
	}
	return out
}

// UnmarshalJSON decodes each entry of analysisResults into its typed result.
func (r *Report) UnmarshalJSON(data []byte) error {
	type plain Report
	var aux struct {
		plain
		AnalysisResults map[analysis.Type]json.RawMessage `json:"analysisResults"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Report(aux.plain)
	r.AnalysisResults = make(map[analysis.Type]analysis.Result, len(aux.AnalysisResults))
	for t, raw := range aux.AnalysisResults {
		res, err := analysis.Decode(t, raw)
		if err != nil {
			return fmt.Errorf("decoding %s result: %w", t, err)
		}
		r.AnalysisResults[t] = res
	}
	return nil
}
