package extract

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// File is the text extracted from an uploaded document.
type File struct {
	FileName       string    `json:"fileName"`
	FileType       string    `json:"fileType"`
	FileSize       int64     `json:"fileSize"`
	ExtractedText  string    `json:"extractedText"`
	WordCount      int       `json:"wordCount"`
	CharacterCount int       `json:"characterCount"`
	ExtractedAt    time.Time `json:"extractedAt"`
}

// FromFile extracts text from an uploaded document. mimeType may be empty,
// in which case it is guessed from the file name and content.
func (e *Extractor) FromFile(name, mimeType string, data []byte) (*File, error) {
	size := int64(len(data))
	if size > e.opts.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, size, e.opts.MaxFileBytes)
	}

	fileType := mediaType(name, mimeType, data)
	var text string
	switch {
	case strings.HasPrefix(fileType, "image/"):
		return nil, fmt.Errorf("%w: %s (image text recognition is not available)", ErrUnsupportedType, fileType)
	case fileType == "text/plain", fileType == "text/csv", fileType == "text/markdown":
		text = tidyLines(strings.ToValidUTF8(string(data), ""))
	case fileType == "text/html":
		text = StripHTML(string(data))
	case fileType == "application/pdf":
		var err error
		if text, err = pdfText(data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}

	words := CountWords(text)
	if words < e.opts.MinFileWords {
		return nil, fmt.Errorf("%w: %d words, need at least %d", ErrContentTooShort, words, e.opts.MinFileWords)
	}
	if words > e.opts.MaxFileWords {
		return nil, fmt.Errorf("%w: %d words, limit is %d", ErrContentTooLong, words, e.opts.MaxFileWords)
	}

	e.logger.Info("extracted file",
		zap.String("name", name),
		zap.String("type", fileType),
		zap.Int("words", words),
	)
	return &File{
		FileName:       name,
		FileType:       fileType,
		FileSize:       size,
		ExtractedText:  text,
		WordCount:      words,
		CharacterCount: utf8.RuneCountInString(text),
		ExtractedAt:    e.now().UTC(),
	}, nil
}

// mediaType resolves the bare media type of an upload. A declared type wins
// unless it is missing or generic.
func mediaType(name, declared string, data []byte) string {
	candidates := []string{declared, mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		candidates = append(candidates, "text/markdown")
	case ".csv":
		candidates = append(candidates, "text/csv")
	}
	candidates = append(candidates, http.DetectContentType(data))

	for _, c := range candidates {
		t, _, err := mime.ParseMediaType(c)
		if err != nil || t == "application/octet-stream" {
			continue
		}
		return strings.ToLower(t)
	}
	return "application/octet-stream"
}
