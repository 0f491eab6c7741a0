// Package analyzer runs analysis types concurrently against the model and
// combines their results into a credibility report.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/veritas/internal/analysis"
	"github.com/TobiSchelling/veritas/internal/llm"
)

var (
	ErrTextTooShort  = errors.New("text too short")
	ErrTextTooLong   = errors.New("text too long")
	ErrNotConfigured = errors.New("model API key or endpoints not configured")
)

// Options bounds the input and sizes the model calls.
type Options struct {
	MinTextLength        int
	MaxTextLength        int
	PreviewLength        int
	MaxURLWords          int
	MaxOutputTokens      int
	ExtendedOutputTokens int
}

// DefaultOptions returns the built-in limits.
func DefaultOptions() Options {
	return Options{
		MinTextLength:        50,
		MaxTextLength:        10000,
		PreviewLength:        200,
		MaxURLWords:          500,
		MaxOutputTokens:      2048,
		ExtendedOutputTokens: 4096,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinTextLength <= 0 {
		o.MinTextLength = d.MinTextLength
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = d.MaxTextLength
	}
	if o.PreviewLength <= 0 {
		o.PreviewLength = d.PreviewLength
	}
	if o.MaxURLWords <= 0 {
		o.MaxURLWords = d.MaxURLWords
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = d.MaxOutputTokens
	}
	if o.ExtendedOutputTokens <= 0 {
		o.ExtendedOutputTokens = d.ExtendedOutputTokens
	}
	return o
}

// Analyzer fans analysis types out to the model and aggregates the results.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	provider llm.Provider
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an analyzer. Zero option fields take their defaults.
func New(provider llm.Provider, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		provider: provider,
		opts:     opts.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// IsConfigured reports whether the model provider can be called.
func (a *Analyzer) IsConfigured() bool {
	return a.provider != nil && a.provider.IsConfigured()
}

// Analyze runs the requested types over text and returns the combined
// report. An empty types list means every type. Input validation errors are
// returned before any model call; per-type failures are replaced by fallback
// results and recorded in the report's status map.
func (a *Analyzer) Analyze(ctx context.Context, text string, types []analysis.Type) (*Report, error) {
	if err := a.validate(text); err != nil {
		return nil, err
	}
	types, err := normalizeTypes(types, analysis.AllTypes())
	if err != nil {
		return nil, err
	}
	if !a.IsConfigured() {
		return nil, ErrNotConfigured
	}
	return a.run(ctx, text, types, TextWeights())
}

func (a *Analyzer) validate(text string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < a.opts.MinTextLength {
		return fmt.Errorf("%w: text must be at least %d characters long, got %d", ErrTextTooShort, a.opts.MinTextLength, n)
	}
	if n := utf8.RuneCountInString(text); n > a.opts.MaxTextLength {
		return fmt.Errorf("%w: text must be at most %d characters long, got %d", ErrTextTooLong, a.opts.MaxTextLength, n)
	}
	return nil
}

func normalizeTypes(types []analysis.Type, defaults []analysis.Type) ([]analysis.Type, error) {
	if len(types) == 0 {
		return defaults, nil
	}
	seen := make(map[analysis.Type]bool, len(types))
	out := make([]analysis.Type, 0, len(types))
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", analysis.ErrUnknownType, string(t))
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

type outcome struct {
	result analysis.Result
	status Status
}

func (a *Analyzer) run(ctx context.Context, text string, types []analysis.Type, weights Weights) (*Report, error) {
	start := a.now()
	outcomes := make([]outcome, len(types))

	var g errgroup.Group
	for i, t := range types {
		g.Go(func() error {
			outcomes[i] = a.runOne(ctx, t, text)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	results := make(map[analysis.Type]analysis.Result, len(types))
	status := make(map[analysis.Type]Status, len(types))
	failed := 0
	for i, t := range types {
		results[t] = outcomes[i].result
		status[t] = outcomes[i].status
		if !outcomes[i].status.Success {
			failed++
		}
	}

	score := OverallScore(results, weights)
	report := &Report{
		ID:               uuid.NewString(),
		OverallScore:     score,
		CredibilityLevel: CredibilityLevel(score),
		AnalysisResults:  results,
		AnalysisStatus:   status,
		AnalyzedText:     preview(text, a.opts.PreviewLength),
		Timestamp:        a.now().UTC(),
	}

	a.logger.Info("analysis complete",
		zap.Int("types", len(types)),
		zap.Int("failed", failed),
		zap.Int("score", score),
		zap.Duration("elapsed", a.now().Sub(start)),
	)
	return report, nil
}

// runOne produces the result for one type. It never fails: any error yields
// the type's fallback result.
func (a *Analyzer) runOne(ctx context.Context, t analysis.Type, text string) outcome {
	result, err := a.obtain(ctx, t, text)
	if err != nil {
		a.logger.Warn("analysis failed, using fallback",
			zap.String("type", string(t)),
			zap.Stringer("kind", llm.FailureKind(err)),
			zap.Error(err),
		)
		return outcome{
			result: analysis.Fallback(t),
			status: Status{Success: false, Error: err.Error()},
		}
	}
	return outcome{result: result, status: Status{Success: true}}
}

func (a *Analyzer) obtain(ctx context.Context, t analysis.Type, text string) (analysis.Result, error) {
	prompt, err := analysis.Render(t, text)
	if err != nil {
		return nil, err
	}
	maxTokens := a.opts.MaxOutputTokens
	if t.LongOutput() {
		maxTokens = a.opts.ExtendedOutputTokens
	}
	raw, err := a.provider.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	return analysis.Parse(raw, t)
}

// preview returns the first n characters of text, with an ellipsis when
// text is longer.
func preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
