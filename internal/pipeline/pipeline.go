// Package pipeline runs one analysis request end to end: extract the text,
// analyze it and save the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/TobiSchelling/veritas/internal/analysis"
	"github.com/TobiSchelling/veritas/internal/analyzer"
	"github.com/TobiSchelling/veritas/internal/config"
	"github.com/TobiSchelling/veritas/internal/database"
	"github.com/TobiSchelling/veritas/internal/extract"
	"github.com/TobiSchelling/veritas/internal/llm"
)

// Source is the content to analyze. Kind selects which of Text, URL or
// the file fields is used.
type Source struct {
	Kind     database.SourceKind
	Text     string
	URL      string
	FileName string
	MimeType string
	Data     []byte
	Types    []analysis.Type
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a pipeline run.
type Result struct {
	Report *analyzer.Report
	Saved  bool
	Steps  []StepResult
}

// Pipeline wires extraction, analysis and the report history together.
type Pipeline struct {
	extractor *extract.Extractor
	analyzer  *analyzer.Analyzer
	db        *database.DB
	logger    *zap.Logger
}

// New builds a pipeline from config. db may be nil, in which case reports
// are not saved.
func New(cfg *config.Config, db *database.DB, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	ep := cfg.Endpoints()
	transport := llm.NewTransport(ep.APIKey, ep.Timeout, &http.Client{})
	provider := llm.NewFailover(ep, transport, logger.Named("llm"))

	return NewWithComponents(
		extract.New(cfg.ExtractOptions(), logger.Named("extract")),
		analyzer.New(provider, cfg.AnalyzerOptions(), logger.Named("analyzer")),
		db,
		logger,
	)
}

// NewWithComponents builds a pipeline from ready-made parts.
func NewWithComponents(ex *extract.Extractor, an *analyzer.Analyzer, db *database.DB, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{extractor: ex, analyzer: an, db: db, logger: logger}
}

func (p *Pipeline) Analyzer() *analyzer.Analyzer  { return p.analyzer }
func (p *Pipeline) Extractor() *extract.Extractor { return p.extractor }
func (p *Pipeline) DB() *database.DB              { return p.db }

// Run executes Extract, Analyze and Save. An extraction or analysis error
// ends the run and is returned; a failed save is only recorded in Steps.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Result, error) {
	r := &Result{}

	step, content := p.runExtract(ctx, src)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r, step.Err
	}

	step, report := p.runAnalyze(ctx, src, content)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r, step.Err
	}
	r.Report = report

	if p.db == nil {
		return r, nil
	}
	step = p.runSave(src, content, report)
	r.Steps = append(r.Steps, step)
	r.Saved = step.Err == nil
	return r, nil
}

// extracted is what the Extract step hands to Analyze.
type extracted struct {
	text string
	page *extract.Page
	file *extract.File
}

func (p *Pipeline) runExtract(ctx context.Context, src Source) (StepResult, extracted) {
	switch src.Kind {
	case database.SourceText:
		return StepResult{
			Name:    "Extract",
			Summary: fmt.Sprintf("Using %d words of pasted text", extract.CountWords(src.Text)),
		}, extracted{text: src.Text}

	case database.SourceURL:
		p.logger.Info("extracting url", zap.String("url", src.URL))
		page, err := p.extractor.FromURL(ctx, src.URL)
		if err != nil {
			return StepResult{Name: "Extract", Err: err}, extracted{}
		}
		return StepResult{
			Name:    "Extract",
			Summary: fmt.Sprintf("Extracted %d words from %s", page.WordCount, page.Source),
		}, extracted{text: page.Content, page: page}

	case database.SourceFile:
		p.logger.Info("extracting file", zap.String("name", src.FileName))
		file, err := p.extractor.FromFile(src.FileName, src.MimeType, src.Data)
		if err != nil {
			return StepResult{Name: "Extract", Err: err}, extracted{}
		}
		return StepResult{
			Name:    "Extract",
			Summary: fmt.Sprintf("Extracted %d words from %s (%s)", file.WordCount, file.FileName, file.FileType),
		}, extracted{text: file.ExtractedText, file: file}
	}
	return StepResult{Name: "Extract", Err: fmt.Errorf("unknown source kind %q", src.Kind)}, extracted{}
}

func (p *Pipeline) runAnalyze(ctx context.Context, src Source, in extracted) (StepResult, *analyzer.Report) {
	var report *analyzer.Report
	var err error

	switch {
	case in.page != nil:
		report, err = p.analyzer.AnalyzeURL(ctx, analyzer.URLInput{
			URL:       in.page.URL,
			Title:     in.page.Title,
			Source:    in.page.Source,
			Content:   in.page.Content,
			WordCount: in.page.WordCount,
		}, src.Types)
	case in.file != nil:
		types := src.Types
		if len(types) == 0 {
			types = analysis.TextTypes()
		}
		report, err = p.analyzer.Analyze(ctx, in.text, types)
		if err == nil {
			report.FileInfo = &analyzer.FileInfo{
				FileName:       in.file.FileName,
				FileType:       in.file.FileType,
				FileSize:       in.file.FileSize,
				WordCount:      in.file.WordCount,
				CharacterCount: in.file.CharacterCount,
				ExtractedAt:    in.file.ExtractedAt,
			}
		}
	default:
		report, err = p.analyzer.Analyze(ctx, in.text, src.Types)
	}
	if err != nil {
		return StepResult{Name: "Analyze", Err: err}, nil
	}

	summary := fmt.Sprintf("Score %d (%s) from %d analyses", report.OverallScore, report.CredibilityLevel, len(report.AnalysisResults))
	if failed := report.Failed(); len(failed) > 0 {
		summary += fmt.Sprintf(", %d used fallbacks", len(failed))
	}
	return StepResult{Name: "Analyze", Summary: summary}, report
}

func (p *Pipeline) runSave(src Source, in extracted, report *analyzer.Report) StepResult {
	ref := ""
	switch {
	case in.page != nil:
		ref = in.page.URL
	case in.file != nil:
		ref = in.file.FileName
	}
	if err := p.db.InsertReport(src.Kind, ref, report); err != nil {
		p.logger.Warn("saving report failed", zap.String("id", report.ID), zap.Error(err))
		return StepResult{Name: "Save", Err: err}
	}
	return StepResult{Name: "Save", Summary: "Saved report " + report.ID}
}

// IsInputError reports whether err was caused by the request's content
// rather than by the service.
func IsInputError(err error) bool {
	for _, target := range []error{
		analyzer.ErrTextTooShort,
		analyzer.ErrTextTooLong,
		analysis.ErrUnknownType,
		extract.ErrInvalidURL,
		extract.ErrNoContent,
		extract.ErrFileTooLarge,
		extract.ErrUnsupportedType,
		extract.ErrContentTooShort,
		extract.ErrContentTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var se *extract.StatusError
	return errors.As(err, &se)
}
