// Package extract turns web pages, feeds and uploaded files into the plain
// text the analyzer works on.
package extract

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// StripHTML removes all markup from s, decodes entities and collapses
// whitespace. Script and style bodies are dropped.
func StripHTML(s string) string {
	return collapseSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tidyLines collapses runs of spaces within each line and drops blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapseSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
