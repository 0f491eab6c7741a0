package analysis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TobiSchelling/veritas/internal/llm"
)

// requiredFields lists the fields a parsed object must carry for each type.
// The first one holds the primary score.
var requiredFields = map[Type][]string{
	FactCheck:             {"overall_score", "credibility_level"},
	SourceVerification:    {"source_score", "source_quality"},
	LanguageAnalysis:      {"language_score", "language_quality"},
	BiasDetection:         {"bias_score", "overall_bias_level"},
	EmotionalManipulation: {"manipulation_score", "manipulation_level"},
	URLContent:            {"content_score", "content_quality"},
	URLSafety:             {"safety_score", "safety_level"},
	ClickbaitDetection:    {"clickbait_score", "clickbait_level"},
}

// Parse turns raw model output into a typed result for t. Output with no
// recoverable JSON falls back to partial field extraction where t allows it.
// Failures are *llm.Failure values of kind KindParse or KindValidation.
func Parse(raw string, t Type) (Result, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}

	ex, err := llm.ExtractJSON(raw)
	if err != nil {
		source := raw
		var rerr *llm.RepairError
		if errors.As(err, &rerr) {
			source = rerr.Source
		}
		if r, ok := ExtractPartial(source, t); ok {
			return r, nil
		}
		msg := err.Error()
		if errors.Is(err, llm.ErrNoJSON) {
			msg = "no JSON found in response: the API returned plain text instead of JSON"
		}
		return nil, &llm.Failure{Kind: llm.KindParse, Message: msg, Err: err}
	}

	obj, ok := ex.Value.(map[string]any)
	if !ok {
		return nil, &llm.Failure{Kind: llm.KindParse, Message: "parsed response is not an object"}
	}
	if err := validate(obj, t); err != nil {
		return nil, err
	}
	r, err := Decode(t, []byte(ex.JSON))
	if err != nil {
		return nil, err
	}
	if !r.PrimaryScore().Valid {
		primary := requiredFields[t][0]
		return nil, &llm.Failure{
			Kind:    llm.KindValidation,
			Field:   primary,
			Message: "invalid score in field: " + primary,
		}
	}
	return r, nil
}

// validate checks that obj carries the required fields for t. fact_check and
// url_content only need a non-null primary score.
func validate(obj map[string]any, t Type) error {
	for _, field := range requiredFields[t] {
		if _, ok := obj[field]; ok {
			continue
		}
		if lenient(t) {
			primary := requiredFields[t][0]
			if v, ok := obj[primary]; ok && v != nil {
				return nil
			}
		}
		return &llm.Failure{
			Kind:    llm.KindValidation,
			Field:   field,
			Message: "missing required field: " + field,
		}
	}
	return nil
}

func lenient(t Type) bool {
	return t == FactCheck || t == URLContent
}

// Decode unmarshals a JSON object into the result type for t.
func Decode(t Type, data []byte) (Result, error) {
	r, ok := newResult(t)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, &llm.Failure{Kind: llm.KindParse, Message: fmt.Sprintf("decoding %s result: %v", t, err), Err: err}
	}
	return r, nil
}
