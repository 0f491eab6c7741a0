// Package analysis defines the analysis types, their typed results and the
// rules for turning raw model output into those results.
package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies one analysis perspective.
type Type string

const (
	FactCheck             Type = "fact_check"
	SourceVerification    Type = "source_verification"
	LanguageAnalysis      Type = "language_analysis"
	BiasDetection         Type = "bias_detection"
	EmotionalManipulation Type = "emotional_manipulation"
	URLSafety             Type = "url_safety"
	URLContent            Type = "url_content"
	ClickbaitDetection    Type = "clickbait_detection"
)

// ErrUnknownType is returned for an analysis type outside the known set.
var ErrUnknownType = errors.New("unknown analysis type")

var allTypes = []Type{
	FactCheck,
	SourceVerification,
	LanguageAnalysis,
	BiasDetection,
	EmotionalManipulation,
	URLSafety,
	URLContent,
	ClickbaitDetection,
}

// AllTypes returns every known type in canonical order.
func AllTypes() []Type {
	return append([]Type(nil), allTypes...)
}

// TextTypes returns the types used for plain text and file analysis.
func TextTypes() []Type {
	return []Type{FactCheck, SourceVerification, LanguageAnalysis, BiasDetection, EmotionalManipulation}
}

// URLTypes returns the types used for web page analysis.
func URLTypes() []Type {
	return []Type{URLContent, FactCheck, URLSafety, ClickbaitDetection}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// LongOutput reports whether t produces long structured output and needs
// the extended token budget.
func (t Type) LongOutput() bool {
	return t == FactCheck || t == URLContent
}

// Negative reports whether the primary score of t measures the amount of a
// negative trait, so that a high raw score means low credibility.
func (t Type) Negative() bool {
	switch t {
	case BiasDetection, EmotionalManipulation, ClickbaitDetection:
		return true
	}
	return false
}

// ParseType converts a type name, ignoring case and surrounding space.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// ParseTypes converts a list of type names, dropping duplicates and keeping
// first-seen order. An empty list yields nil.
func ParseTypes(names []string) ([]Type, error) {
	if len(names) == 0 {
		return nil, nil
	}
	seen := make(map[Type]bool, len(names))
	out := make([]Type, 0, len(names))
	for _, name := range names {
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
