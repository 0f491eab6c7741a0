package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Page is the readable content of a fetched URL.
type Page struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	ContentType string    `json:"contentType"`
	WordCount   int       `json:"wordCount"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// FromURL fetches rawURL and extracts its main text. Feeds yield their
// newest item; anything else goes through readability.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (*Page, error) {
	u, err := parsePageURL(rawURL)
	if err != nil {
		return nil, err
	}

	body, contentType, err := e.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	var page *Page
	if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeUnknown {
		page, err = e.fromFeed(body, u)
	} else {
		page, err = fromArticle(body, u)
	}
	if err != nil {
		return nil, err
	}

	page.URL = u.String()
	page.ContentType = contentType
	if page.Source == "" {
		page.Source = sourceName(u)
	}
	page.WordCount = CountWords(page.Content)
	page.ExtractedAt = e.now().UTC()

	e.logger.Info("extracted page",
		zap.String("url", page.URL),
		zap.String("source", page.Source),
		zap.Int("words", page.WordCount),
	)
	return page, nil
}

func parsePageURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

func (e *Extractor) fetch(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", e.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/atom+xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", &StatusError{URL: u.String(), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.opts.MaxPageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", u, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func fromArticle(body []byte, u *url.URL) (*Page, error) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	content := tidyLines(article.TextContent)
	if content == "" {
		return nil, ErrNoContent
	}
	return &Page{
		Title:       strings.TrimSpace(article.Title),
		Description: strings.TrimSpace(article.Excerpt),
		Content:     content,
		Source:      strings.TrimSpace(article.SiteName),
	}, nil
}

func (e *Extractor) fromFeed(body []byte, u *url.URL) (*Page, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("%w: feed has no items", ErrNoContent)
	}

	item := newestItem(feed.Items)
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}
	content, err := e.markdown.ConvertString(raw, converter.WithDomain(u.String()))
	if err != nil {
		e.logger.Debug("feed item conversion failed, stripping markup", zap.Error(err))
		content = StripHTML(raw)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrNoContent
	}

	return &Page{
		Title:       strings.TrimSpace(item.Title),
		Description: StripHTML(item.Description),
		Content:     content,
		Source:      strings.TrimSpace(feed.Title),
	}, nil
}

// newestItem picks the most recently published item, or the first one when
// no item carries a date.
func newestItem(items []*gofeed.Item) *gofeed.Item {
	best := items[0]
	for _, item := range items[1:] {
		if published(item).After(published(best)) {
			best = item
		}
	}
	return best
}

func published(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func sourceName(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
