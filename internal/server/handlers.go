package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TobiSchelling/veritas/internal/analysis"
	"github.com/TobiSchelling/veritas/internal/analyzer"
	"github.com/TobiSchelling/veritas/internal/database"
	"github.com/TobiSchelling/veritas/internal/pipeline"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string, err error) {
	env := envelope{Success: false, Message: message}
	if err != nil {
		env.Error = err.Error()
	}
	writeJSON(w, code, env)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"message":    "Veritas backend running",
		"configured": s.pipeline.Analyzer().IsConfigured(),
		"history":    s.pipeline.DB() != nil,
	})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Analyzer().Probe(r.Context()))
}

type analyzeRequest struct {
	Text          json.RawMessage `json:"text"`
	URL           json.RawMessage `json:"url"`
	AnalysisTypes []string        `json:"analysisTypes"`
}

// decodeRequest reads a JSON body of at most maxBodyBytes. It writes the
// error response itself and reports whether decoding succeeded.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", err)
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "Request body is empty", nil)
	default:
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body", err)
	}
	return false
}

// stringField returns the string value of a raw JSON field, or false when
// the field is missing, empty or not a string.
func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	text, ok := stringField(req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, `Missing or invalid "text" field in request body`, nil)
		return
	}
	s.run(w, r, pipeline.Source{Kind: database.SourceText, Text: text}, req.AnalysisTypes)
}

func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	u, ok := stringField(req.URL)
	if !ok {
		writeError(w, http.StatusBadRequest, `Missing or invalid "url" field in request body`, nil)
		return
	}
	s.run(w, r, pipeline.Source{Kind: database.SourceURL, URL: u}, req.AnalysisTypes)
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	var names []string
	for _, v := range r.MultipartForm.Value["analysisTypes"] {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) != "" {
				names = append(names, name)
			}
		}
	}
	s.run(w, r, pipeline.Source{
		Kind:     database.SourceFile,
		FileName: up.name,
		MimeType: up.mimeType,
		Data:     up.data,
	}, names)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, src pipeline.Source, typeNames []string) {
	types, err := analysis.ParseTypes(typeNames)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), err)
		return
	}
	src.Types = types

	res, err := s.pipeline.Run(r.Context(), src)
	if err != nil {
		s.failRun(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    res.Report,
		"saved":   res.Saved,
	})
}

func (s *Server) failRun(w http.ResponseWriter, err error) {
	switch {
	case pipeline.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, analyzer.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Model API is not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Analysis timed out", err)
	default:
		s.logger.Error("analysis request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Analysis failed", err)
	}
}

type upload struct {
	name     string
	mimeType string
	data     []byte
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	limit := s.pipeline.Extractor().Options().MaxFileBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxBodyBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large", err)
		} else {
			writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		}
		return upload{}, false
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `Missing "file" field in form`, err)
		return upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Reading upload failed", err)
		return upload{}, false
	}
	return upload{name: header.Filename, mimeType: header.Header.Get("Content-Type"), data: data}, true
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	file, err := s.pipeline.Extractor().FromFile(up.name, up.mimeType, up.data)
	if err != nil {
		s.failRun(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"extractedText": file.ExtractedText,
		"wordCount":     file.WordCount,
		"fileInfo":      file,
	})
}

// history returns the report store, writing a 503 when history is off.
func (s *Server) history(w http.ResponseWriter) (*database.DB, bool) {
	db := s.pipeline.DB()
	if db == nil {
		writeError(w, http.StatusServiceUnavailable, "Report history is disabled", nil)
		return nil, false
	}
	return db, true
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	db, ok := s.history(w)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, `Invalid "limit" query parameter`, err)
			return
		}
		limit = n
	}

	reports, err := db.ListReports(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Listing reports failed", err)
		return
	}
	if reports == nil {
		reports = []database.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: reports})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	db, ok := s.history(w)
	if !ok {
		return
	}
	stored, err := db.GetReport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Loading report failed", err)
		return
	}
	if stored == nil {
		writeError(w, http.StatusNotFound, "Report not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: stored})
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	db, ok := s.history(w)
	if !ok {
		return
	}
	deleted, err := db.DeleteReport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Deleting report failed", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Report not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Report deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	db, ok := s.history(w)
	if !ok {
		return
	}
	stats, err := db.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Loading stats failed", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: stats})
}
