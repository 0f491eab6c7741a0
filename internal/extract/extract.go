package extract

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNoContent       = errors.New("no readable content found")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrContentTooShort = errors.New("extracted content too short")
	ErrContentTooLong  = errors.New("extracted content too long")
)

// StatusError is returned when a page responds with an HTTP error status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Options configures an Extractor.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxFileBytes int64
	MaxPageBytes int64
	MinFileWords int
	MaxFileWords int
}

// DefaultOptions returns the built-in extraction limits.
func DefaultOptions() Options {
	return Options{
		Timeout:      15 * time.Second,
		UserAgent:    "Veritas/1.0 (credibility analyzer)",
		MaxFileBytes: 10 << 20,
		MaxPageBytes: 5 << 20,
		MinFileWords: 10,
		MaxFileWords: 800,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = d.MaxFileBytes
	}
	if o.MaxPageBytes <= 0 {
		o.MaxPageBytes = d.MaxPageBytes
	}
	if o.MinFileWords <= 0 {
		o.MinFileWords = d.MinFileWords
	}
	if o.MaxFileWords <= 0 {
		o.MaxFileWords = d.MaxFileWords
	}
	return o
}

// Extractor fetches pages and reads uploaded files. It is safe for
// concurrent use.
type Extractor struct {
	client   *http.Client
	markdown *converter.Converter
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an extractor. Zero option fields take their defaults.
func New(opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Extractor{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}
