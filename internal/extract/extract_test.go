package extract

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	in := `<p>Hello <b>world</b></p><script>alert("x")</script><p>Tom &amp; Jerry</p>`
	assert.Equal(t, "Hello world Tom & Jerry", StripHTML(in))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("   \n\t"))
	assert.Equal(t, 4, CountWords("one two\nthree\tfour"))
}

const paragraph = "The regional council voted on Tuesday to approve a revised budget " +
	"that shifts funding from road maintenance toward public transport. Officials said " +
	"the change follows two years of consultation with residents and local businesses, " +
	"and that the first new bus routes should open before the end of next spring."

func articleHTML(extra string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Council approves transit budget</title></head><body>")
	b.WriteString("<nav><a href=\"/\">Home</a> <a href=\"/news\">News</a></nav><article>")
	b.WriteString("<h1>Council approves transit budget</h1>")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "<p>%s</p>", paragraph)
	}
	if extra != "" {
		fmt.Fprintf(&b, "<p>%s</p>", extra)
	}
	b.WriteString("</article><footer>Copyright</footer></body></html>")
	return b.String()
}

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Harbour Gazette</title>
  <link>https://gazette.example</link>
  <description>Local news</description>
  <item>
    <title>Older story</title>
    <link>https://gazette.example/older</link>
    <pubDate>Mon, 02 Jun 2025 08:00:00 GMT</pubDate>
    <description><![CDATA[<p>Older body</p>]]></description>
  </item>
  <item>
    <title>Newest story</title>
    <link>https://gazette.example/newest</link>
    <pubDate>Wed, 04 Jun 2025 08:00:00 GMT</pubDate>
    <description><![CDATA[<p>Newest <strong>story</strong> body</p>]]></description>
  </item>
</channel>
</rss>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML(""))
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	})
	mux.HandleFunc("/agent", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleHTML("Fetched by "+r.Header.Get("User-Agent")+" during the test run."))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFromURLArticle(t *testing.T) {
	srv := newTestServer(t)
	e := New(Options{}, nil)

	page, err := e.FromURL(t.Context(), srv.URL+"/article")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/article", page.URL)
	assert.Contains(t, page.Title, "Council approves transit budget")
	assert.Contains(t, page.Content, "shifts funding from road maintenance")
	assert.NotContains(t, page.Content, "<p>")
	assert.Equal(t, "127.0.0.1", page.Source)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
	assert.Equal(t, CountWords(page.Content), page.WordCount)
	assert.False(t, page.ExtractedAt.IsZero())
}

func TestFromURLFeedUsesNewestItem(t *testing.T) {
	srv := newTestServer(t)
	e := New(Options{}, nil)

	page, err := e.FromURL(t.Context(), srv.URL+"/feed")
	require.NoError(t, err)

	assert.Equal(t, "Newest story", page.Title)
	assert.Equal(t, "Harbour Gazette", page.Source)
	assert.Equal(t, "Newest story body", page.Description)
	assert.Contains(t, page.Content, "Newest **story** body")
	assert.NotContains(t, page.Content, "Older")
}

func TestFromURLSendsUserAgent(t *testing.T) {
	srv := newTestServer(t)
	e := New(Options{UserAgent: "veritas-test/2.0"}, nil)

	page, err := e.FromURL(t.Context(), srv.URL+"/agent")
	require.NoError(t, err)
	assert.Contains(t, page.Content, "veritas-test/2.0")
}

func TestFromURLErrors(t *testing.T) {
	srv := newTestServer(t)
	e := New(Options{}, nil)

	t.Run("http status", func(t *testing.T) {
		_, err := e.FromURL(t.Context(), srv.URL+"/missing")
		var se *StatusError
		require.True(t, errors.As(err, &se), "got %v", err)
		assert.Equal(t, http.StatusNotFound, se.Code)
	})

	t.Run("no content", func(t *testing.T) {
		_, err := e.FromURL(t.Context(), srv.URL+"/empty")
		assert.ErrorIs(t, err, ErrNoContent)
	})

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "http://", "javascript:alert(1)"} {
		t.Run("invalid "+raw, func(t *testing.T) {
			_, err := e.FromURL(t.Context(), raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestFromFile(t *testing.T) {
	e := New(Options{MaxFileBytes: 4096, MinFileWords: 10, MaxFileWords: 50}, nil)

	tests := []struct {
		name     string
		fileName string
		mimeType string
		data     string
		wantType string
		wantText string
		wantErr  error
	}{
		{
			name:     "plain text",
			fileName: "notes.txt",
			mimeType: "text/plain",
			data:     "  first line  of   the note\n\n\nsecond line with several more words ",
			wantType: "text/plain",
			wantText: "first line of the note\nsecond line with several more words",
		},
		{
			name:     "type guessed from extension",
			fileName: "data.csv",
			data:     "name,score\nalpha,1\nbeta,2\ngamma,3\ndelta,4\nepsilon,5\nzeta,6\neta,7\ntheta,8\niota,9",
			wantType: "text/csv",
		},
		{
			name:     "generic declared type is ignored",
			fileName: "page.html",
			mimeType: "application/octet-stream",
			data:     "<html><body><h1>Title</h1><p>" + words(12) + "</p></body></html>",
			wantType: "text/html",
			wantText: "Title " + words(12),
		},
		{
			name:     "image",
			fileName: "scan.png",
			mimeType: "image/png",
			data:     "\x89PNG\r\n\x1a\n",
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "unknown binary",
			fileName: "blob",
			data:     "\x00\x01\x02\x03",
			wantErr:  ErrUnsupportedType,
		},
		{
			name:     "too few words",
			fileName: "short.txt",
			data:     words(9),
			wantErr:  ErrContentTooShort,
		},
		{
			name:     "too many words",
			fileName: "long.txt",
			data:     words(51),
			wantErr:  ErrContentTooLong,
		},
		{
			name:     "too large",
			fileName: "big.txt",
			data:     strings.Repeat("x", 4097),
			wantErr:  ErrFileTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := e.FromFile(tt.fileName, tt.mimeType, []byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fileName, f.FileName)
			assert.Equal(t, tt.wantType, f.FileType)
			assert.Equal(t, int64(len(tt.data)), f.FileSize)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, f.ExtractedText)
			}
			assert.Equal(t, CountWords(f.ExtractedText), f.WordCount)
			assert.Equal(t, len([]rune(f.ExtractedText)), f.CharacterCount)
		})
	}
}

func TestFromFileRejectsBrokenPDF(t *testing.T) {
	e := New(Options{}, nil)
	_, err := e.FromFile("report.pdf", "application/pdf", []byte("%PDF-1.4\nnot really a pdf"))
	assert.Error(t, err)
}

func TestShowText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "show operators",
			stream: "BT /F1 12 Tf 72 712 Td (Hello) Tj 0 -14 Td [(Wor) -20 (ld)] TJ T* ET",
			want:   "Hello World",
		},
		{
			name:   "escapes and next line",
			stream: `BT (first) Tj (Esc\(aped\) \101) ' ET`,
			want:   "first\nEsc(aped) A",
		},
		{
			name:   "nested parentheses",
			stream: "BT (a (b) c) Tj ET",
			want:   "a (b) c",
		},
		{
			name:   "hex strings and comments are skipped",
			stream: "BT % comment (not text) Tj\n<00410042> Tj (kept) Tj ET",
			want:   "kept",
		},
		{
			name:   "strings outside show operators are dropped",
			stream: "(stray) BT (shown) Tj ET",
			want:   "shown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, showText([]byte(tt.stream)))
		})
	}
}
