package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func pdfText(data []byte) (string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := showText(stream); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: pdf has no text layer", ErrNoContent)
	}
	return strings.Join(pages, "\n"), nil
}

// showText collects the strings painted by the text operators of a page
// content stream. Hex strings are skipped since they usually hold glyph ids.
func showText(stream []byte) string {
	var out strings.Builder
	var pending []string

	brk := func(sep byte) {
		if out.Len() > 0 {
			out.WriteByte(sep)
		}
	}

	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := literal(stream[i:])
			pending = append(pending, s)
			i += n
		case c == '<' && i+1 < len(stream) && stream[i+1] != '<':
			end := bytes.IndexByte(stream[i:], '>')
			if end < 0 {
				return tidyLines(out.String())
			}
			i += end + 1
		case isPDFSpace(c) || isPDFDelim(c):
			i++
		default:
			j := i
			for j < len(stream) && !isPDFSpace(stream[j]) && !isPDFDelim(stream[j]) {
				j++
			}
			switch op := string(stream[i:j]); op {
			case "Tj", "TJ":
				out.WriteString(strings.Join(pending, ""))
				pending = pending[:0]
			case "'", `"`:
				brk('\n')
				out.WriteString(strings.Join(pending, ""))
				pending = pending[:0]
			case "Td", "TD", "Tm":
				brk(' ')
			case "T*", "ET":
				brk('\n')
			default:
				if isOperator(op) {
					pending = pending[:0]
				}
			}
			i = j
		}
	}
	return tidyLines(out.String())
}

// literal decodes the string literal at the start of b and returns it with
// the number of bytes consumed.
func literal(b []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch c {
		case '(':
			depth++
			if depth > 1 {
				sb.WriteByte(c)
			}
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		case '\\':
			if i+1 >= len(b) {
				return sb.String(), len(b)
			}
			i++
			switch e := b[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\n':
			case '\r':
				if i+1 < len(b) && b[i+1] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < len(b) && b[i+1] >= '0' && b[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(b[i]-'0')
					}
					sb.WriteByte(byte(v))
				} else {
					sb.WriteByte(e)
				}
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), len(b)
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '%':
		return true
	}
	return false
}

// isOperator reports whether tok is a content stream operator rather than an
// operand such as a number or a name.
func isOperator(tok string) bool {
	if tok == "" || tok[0] == '/' {
		return false
	}
	c := tok[0]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '\'' || c == '"' || c == '*'
}
