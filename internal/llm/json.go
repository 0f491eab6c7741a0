package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoJSON is returned when no JSON-looking span can be isolated from a response.
var ErrNoJSON = errors.New("no JSON found in response")

// RepairError is returned when a JSON span was isolated but could not be
// parsed even after repair. Source is the isolated span.
type RepairError struct {
	Source string
	Err    error
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("invalid JSON format: %v", e.Err)
}

func (e *RepairError) Unwrap() error {
	return e.Err
}

// Extraction is a JSON value recovered from free-form model output.
type Extraction struct {
	Value any
	// JSON is the text that finally parsed, after any repair.
	JSON string
	// Source is the span that was isolated from the response, before repair.
	Source   string
	Strategy string
	Repaired bool
}

var (
	widestObject     = regexp.MustCompile(`\{[\s\S]*\}`)
	trailingCommas   = regexp.MustCompile(`,(\s*[}\]])`)
	danglingComma    = regexp.MustCompile(`,\s*$`)
	openArrayString  = regexp.MustCompile(`\[([^\]]*),\s*"[^"]*$`)
	openArrayObject  = regexp.MustCompile(`\[([^\]]*),\s*\{[^}]*$`)
	openArrayArray   = regexp.MustCompile(`\[([^\]]*),\s*\[[^\]]*$`)
	openObjectMember = regexp.MustCompile(`\{([^}]*),\s*"[^"]*:\s*[^,}]*$`)
	danglingMember   = regexp.MustCompile(`,\s*"(?:[^"\\]|\\.)*"\s*:\s*$`)

	introPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Here[^:]*:\s*(\{[\s\S]*\})`),
		regexp.MustCompile(`(?i)Result[^:]*:\s*(\{[\s\S]*\})`),
		regexp.MustCompile(`(?i)Analysis[^:]*:\s*(\{[\s\S]*\})`),
		regexp.MustCompile(`(?i)JSON[^:]*:\s*(\{[\s\S]*\})`),
		regexp.MustCompile(`(?i)Response[^:]*:\s*(\{[\s\S]*\})`),
	}

	markdown = goldmark.New()
)

// maxCutDistance bounds how far before the parse error a comma may sit
// and still be used as the truncation point.
const maxCutDistance = 200

// ExtractJSON isolates a JSON value from model output. Strategies run in
// order and the first one that isolates a span wins:
//
//  1. the first fenced code block, if it starts with { or [
//  2. the first balanced {...} span, ignoring braces inside strings
//  3. the widest {...} span
//  4. the whole trimmed text
//  5. a {...} span after an introductory phrase ("Here is...:", "Result:")
//  6. an unterminated object running from the first { to the end
//
// An isolated span that fails to parse is repaired. ErrNoJSON means nothing
// was isolated; a *RepairError means the span was unrecoverable.
func ExtractJSON(response string) (*Extraction, error) {
	if strings.TrimSpace(response) == "" {
		return nil, ErrNoJSON
	}

	span, strategy := isolate(response)
	if strategy == "whole_text" {
		var v any
		_ = json.Unmarshal([]byte(span), &v)
		return &Extraction{Value: v, JSON: span, Source: span, Strategy: strategy}, nil
	}
	if span == "" {
		return nil, ErrNoJSON
	}

	var v any
	err := json.Unmarshal([]byte(span), &v)
	if err == nil {
		return &Extraction{Value: v, JSON: span, Source: span, Strategy: strategy}, nil
	}

	fixed := trailingCommas.ReplaceAllString(span, "${1}")
	if ferr := json.Unmarshal([]byte(fixed), &v); ferr != nil {
		fixed = RepairJSON(fixed, ferr)
		if rerr := json.Unmarshal([]byte(fixed), &v); rerr != nil {
			return nil, &RepairError{Source: span, Err: err}
		}
	}
	return &Extraction{Value: v, JSON: fixed, Source: span, Strategy: strategy, Repaired: true}, nil
}

func isolate(response string) (string, string) {
	if block, ok := fencedBlock(response); ok {
		return block, "fenced_block"
	}
	if span, ok := balancedObject(response); ok {
		return span, "balanced_braces"
	}
	if span := widestObject.FindString(response); span != "" {
		return span, "widest_braces"
	}

	trimmed := strings.TrimSpace(response)
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return trimmed, "whole_text"
		}
	}

	for _, re := range introPatterns {
		if m := re.FindStringSubmatch(response); m != nil && m[1] != "" {
			return m[1], "intro_phrase"
		}
	}

	if i := strings.IndexByte(response, '{'); i >= 0 {
		return strings.TrimSpace(response[i:]), "unterminated_object"
	}
	return "", ""
}

// fencedBlock returns the trimmed content of the first fenced code block when
// it looks like a JSON object or array.
func fencedBlock(response string) (string, bool) {
	src := []byte(response)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var block *ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fb, ok := n.(*ast.FencedCodeBlock); ok {
			block = fb
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if block == nil {
		return "", false
	}

	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	content := strings.TrimSpace(buf.String())
	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		return content, true
	}
	return "", false
}

// balancedObject finds the first top-level {...} span whose braces balance,
// skipping braces inside string literals.
func balancedObject(s string) (string, bool) {
	depth, start := 0, -1
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			if depth == 0 {
				start = i
			}
			depth++
		case c == '}':
			depth--
			if depth == 0 && start >= 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// RepairJSON attempts to turn truncated JSON into something parseable. Input
// that simply ends early loses only its unfinished member before open
// structures are closed. Otherwise it cuts back to the last complete element.
// parseErr is the error from the failed parse and is used to locate the
// truncation point.
func RepairJSON(s string, parseErr error) string {
	fixed := strings.TrimSpace(s)

	errPos := len(fixed)
	var syntaxErr *json.SyntaxError
	if errors.As(parseErr, &syntaxErr) && syntaxErr.Offset > 0 && int(syntaxErr.Offset) < errPos {
		errPos = int(syntaxErr.Offset)
	}

	before := fixed[:errPos]
	if errPos == len(fixed) {
		if closed, ok := closeTail(before); ok {
			return closed
		}
	}

	comma := lastStructuralComma(before)
	if comma > 0 && comma > errPos-maxCutDistance {
		cut := fixed[:comma]
		braces, brackets := balance(cut)
		if abs(braces) <= 2 && abs(brackets) <= 2 {
			fixed = cut
		}
	} else {
		fixed = before
		fixed = openArrayString.ReplaceAllString(fixed, "[${1}")
		fixed = openArrayObject.ReplaceAllString(fixed, "[${1}")
		fixed = openArrayArray.ReplaceAllString(fixed, "[${1}")
		fixed = openObjectMember.ReplaceAllString(fixed, "{${1}")
	}

	fixed = danglingComma.ReplaceAllString(fixed, "")
	fixed = strings.TrimSpace(fixed) + closers(fixed)
	fixed = trailingCommas.ReplaceAllString(fixed, "${1}")
	return strings.TrimSpace(fixed)
}

// closeTail closes JSON that simply stops early. An unterminated string at
// the end is dropped, along with its key when it was a member value, then
// every open structure is closed. It reports false when that does not yield
// valid JSON.
func closeTail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if open := openString(s); open >= 0 {
		s = danglingMember.ReplaceAllString(strings.TrimSpace(s[:open]), "")
	}
	s = danglingComma.ReplaceAllString(s, "")
	closed := strings.TrimSpace(s) + closers(s)
	return closed, json.Valid([]byte(closed))
}

// openString returns the index of the quote that opens a string literal left
// unterminated at the end of s, or -1.
func openString(s string) int {
	start, escaped := -1, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = start >= 0
		case c == '"' && start >= 0:
			start = -1
		case c == '"':
			start = i
		}
	}
	return start
}

// lastStructuralComma returns the index of the last comma outside string
// literals, or -1.
func lastStructuralComma(s string) int {
	last := -1
	scan(s, func(i int, c byte) {
		if c == ',' {
			last = i
		}
	})
	return last
}

func balance(s string) (braces, brackets int) {
	scan(s, func(_ int, c byte) {
		switch c {
		case '{':
			braces++
		case '}':
			braces--
		case '[':
			brackets++
		case ']':
			brackets--
		}
	})
	return braces, brackets
}

// closers returns the closing characters for every structure still open at
// the end of s, innermost first.
func closers(s string) string {
	var stack []byte
	scan(s, func(_ int, c byte) {
		switch c {
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	})
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

// scan calls fn for every byte of s that is outside a string literal.
func scan(s string, fn func(i int, c byte)) {
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if !inString {
			fn(i, c)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
