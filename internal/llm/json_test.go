package llm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlain(t *testing.T) {
	ex, err := ExtractJSON(`{"key": "value", "num": 42}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": "value", "num": float64(42)}, ex.Value)
	assert.False(t, ex.Repaired)
}

func TestExtractJSONWithCodeFence(t *testing.T) {
	for _, text := range []string{
		"```json\n{\"key\": \"value\"}\n```",
		"```\n{\"key\": \"value\"}\n```",
		"Sure! Here you go:\n\n```json\n{\"key\": \"value\"}\n```\nLet me know.",
	} {
		ex, err := ExtractJSON(text)
		require.NoError(t, err, text)
		assert.Equal(t, "fenced_block", ex.Strategy)
		assert.Equal(t, map[string]any{"key": "value"}, ex.Value)
	}
}

func TestExtractJSONFenceWithoutJSONFallsThrough(t *testing.T) {
	text := "```\nnot json\n```\nthe answer is {\"a\": 1}"
	ex, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "balanced_braces", ex.Strategy)
	assert.Equal(t, map[string]any{"a": float64(1)}, ex.Value)
}

func TestExtractJSONProseMatchesPureInput(t *testing.T) {
	pure := `{"overall_score": 80, "claims": [{"claim": "a {b}", "status": "verified"}]}`
	want, err := ExtractJSON(pure)
	require.NoError(t, err)

	got, err := ExtractJSON("I analysed the text. " + pure + " Hope that helps {not json}.")
	require.NoError(t, err)
	assert.Equal(t, "balanced_braces", got.Strategy)
	if diff := cmp.Diff(want.Value, got.Value); diff != "" {
		t.Errorf("prose changed the result (-pure +prose):\n%s", diff)
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	ex, err := ExtractJSON(`prefix {"summary": "uses } and { and \"quotes\"", "n": 1} suffix`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"summary": `uses } and { and "quotes"`, "n": float64(1)}, ex.Value)
}

func TestExtractJSONWholeArray(t *testing.T) {
	ex, err := ExtractJSON(`  [1, 2, 3] `)
	require.NoError(t, err)
	assert.Equal(t, "whole_text", ex.Strategy)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, ex.Value)
}

func TestExtractJSONNone(t *testing.T) {
	for _, text := range []string{"", "   ", "not json at all", "42", `"just a string"`} {
		_, err := ExtractJSON(text)
		assert.ErrorIs(t, err, ErrNoJSON, text)
	}
}

func TestExtractJSONRepairsTruncatedString(t *testing.T) {
	text := `{"overall_score": 80, "credibility_level": "high", "summary": "The text cla`
	ex, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.True(t, ex.Repaired)
	assert.Equal(t, "unterminated_object", ex.Strategy)
	assert.Equal(t, map[string]any{"overall_score": float64(80), "credibility_level": "high"}, ex.Value)
}

func TestExtractJSONRepairsTruncatedFence(t *testing.T) {
	text := "```json\n{\"content_score\": 70, \"red_flags\": [\"one\", \"tw"
	ex, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.True(t, ex.Repaired)
	assert.Equal(t, map[string]any{"content_score": float64(70), "red_flags": []any{"one"}}, ex.Value)
}

func TestExtractJSONTrailingCommas(t *testing.T) {
	ex, err := ExtractJSON(`{"a": [1, 2,], "b": 3,}`)
	require.NoError(t, err)
	assert.True(t, ex.Repaired)
	assert.Equal(t, map[string]any{"a": []any{float64(1), float64(2)}, "b": float64(3)}, ex.Value)
}

func TestExtractJSONUnrecoverable(t *testing.T) {
	_, err := ExtractJSON(`{"summary": "never closed`)
	var rerr *RepairError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, `{"summary": "never closed`, rerr.Source)
	assert.False(t, errors.Is(err, ErrNoJSON))
}

func TestExtractJSONIsDeterministic(t *testing.T) {
	text := "Result: ```json\n{\"a\": [1, {\"b\": \"c\"}, 2"
	first, err1 := ExtractJSON(text)
	second, err2 := ExtractJSON(text)
	assert.Equal(t, err1, err2)
	assert.Equal(t, first, second)
}

func TestExtractJSONKeepsClosedNestedMembers(t *testing.T) {
	text := `{"overall_score": 80, "credibility_level": "high", "claims": [{"claim": "a"}], "summary": "The text cla`
	ex, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.True(t, ex.Repaired)
	want := map[string]any{
		"overall_score":     float64(80),
		"credibility_level": "high",
		"claims":            []any{map[string]any{"claim": "a"}},
	}
	if diff := cmp.Diff(want, ex.Value); diff != "" {
		t.Errorf("repaired value mismatch (-want +got):\n%s", diff)
	}
}

func TestRepairJSONClosesInnermostFirst(t *testing.T) {
	got := RepairJSON(`{"claims": [{"claim": "x", "sources": ["a"]}, {"claim": "y", "sources": ["b"`, nil)
	assert.Equal(t, `{"claims": [{"claim": "x", "sources": ["a"]}, {"claim": "y", "sources": ["b"]}]}`, got)
}

func TestRepairJSONDropsOnlyTheOpenMember(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1, "b": {"c": 2}, "note": "cut sh`, `{"a": 1, "b": {"c": 2}}`},
		{`{"a": 1, "b": {"c": 2}, "no`, `{"a": 1, "b": {"c": 2}}`},
		{`{"a": [1, 2], "tags": ["x", "y`, `{"a": [1, 2], "tags": ["x"]}`},
		{`{"a": 1, "b": tru`, `{"a": 1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RepairJSON(tt.in, nil), tt.in)
	}
}

func TestRepairJSONWithoutComma(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, RepairJSON(`{"a": {"b": 1`, nil))
}
