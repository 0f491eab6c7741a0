package analysis

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts/*.txt
var promptFiles embed.FS

var prompts = loadPrompts()

func loadPrompts() map[Type]string {
	out := make(map[Type]string, len(allTypes))
	for _, t := range allTypes {
		data, err := promptFiles.ReadFile("prompts/" + string(t) + ".txt")
		if err != nil {
			panic(fmt.Sprintf("missing prompt for %s: %v", t, err))
		}
		out[t] = strings.TrimSpace(string(data))
	}
	return out
}

// Prompt returns the instruction template for t.
func Prompt(t Type) (string, error) {
	p, ok := prompts[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
	return p, nil
}

// Render returns the full prompt for analysing text as t.
func Render(t Type, text string) (string, error) {
	p, err := Prompt(t)
	if err != nil {
		return "", err
	}
	return p + "\n\n" + text, nil
}
