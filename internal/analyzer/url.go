package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/veritas/internal/analysis"
)

// URLInput is an extracted web page to analyze.
type URLInput struct {
	URL       string
	Title     string
	Source    string
	Content   string
	WordCount int
}

// AnalyzeURL analyzes an extracted page. The content is cut down to the
// configured word limit and framed with the page's URL, title and source.
// An empty types list means the URL types.
func (a *Analyzer) AnalyzeURL(ctx context.Context, in URLInput, types []analysis.Type) (*Report, error) {
	text := URLText(in, a.opts.MaxURLWords)
	if err := a.validate(text); err != nil {
		return nil, err
	}
	types, err := normalizeTypes(types, analysis.URLTypes())
	if err != nil {
		return nil, err
	}
	if !a.IsConfigured() {
		return nil, ErrNotConfigured
	}

	report, err := a.run(ctx, text, types, URLWeights())
	if err != nil {
		return nil, err
	}
	report.URLInfo = &URLInfo{
		OriginalURL: in.URL,
		Title:       in.Title,
		Source:      in.Source,
		WordCount:   in.WordCount,
	}
	return report, nil
}

// URLText renders the text sent to the model for a page.
func URLText(in URLInput, maxWords int) string {
	content := truncateWords(in.Content, maxWords)
	if content == "" {
		content = "No content extracted"
	}
	return strings.TrimSpace(fmt.Sprintf("URL: %s\nTitle: %s\nSource: %s\n\nContent:\n%s",
		in.URL, orUnknown(in.Title), orUnknown(in.Source), content))
}

// truncateWords keeps the first maxWords words of s. When it cuts, it backs
// up to the last full stop if that keeps more than 70% of the text, and
// appends an ellipsis otherwise.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if maxWords <= 0 || len(words) <= maxWords {
		return strings.TrimSpace(s)
	}
	cut := strings.Join(words[:maxWords], " ")
	if i := strings.LastIndexByte(cut, '.'); float64(i) > float64(len(cut))*0.7 {
		return cut[:i+1]
	}
	return strings.TrimSpace(cut) + "..."
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
