package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TobiSchelling/veritas/internal/analysis"
)

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name    string
		results map[analysis.Type]analysis.Result
		weights Weights
		want    int
	}{
		{
			name:    "empty",
			results: nil,
			weights: TextWeights(),
			want:    50,
		},
		{
			name: "single type carries full weight",
			results: map[analysis.Type]analysis.Result{
				analysis.LanguageAnalysis: &analysis.LanguageAnalysisResult{LanguageScore: analysis.NewScore(33)},
			},
			weights: TextWeights(),
			want:    33,
		},
		{
			name: "negative traits are inverted",
			results: map[analysis.Type]analysis.Result{
				analysis.EmotionalManipulation: &analysis.EmotionalManipulationResult{ManipulationScore: analysis.NewScore(90)},
			},
			weights: TextWeights(),
			want:    10,
		},
		{
			name: "out of range scores are clamped",
			results: map[analysis.Type]analysis.Result{
				analysis.FactCheck:     &analysis.FactCheckResult{OverallScore: analysis.NewScore(250)},
				analysis.BiasDetection: &analysis.BiasDetectionResult{BiasScore: analysis.NewScore(-40)},
			},
			weights: TextWeights(),
			want:    100,
		},
		{
			name: "invalid scores are skipped",
			results: map[analysis.Type]analysis.Result{
				analysis.FactCheck:          &analysis.FactCheckResult{},
				analysis.SourceVerification: &analysis.SourceVerificationResult{SourceScore: analysis.NewScore(math.Inf(1))},
			},
			weights: TextWeights(),
			want:    50,
		},
		{
			name: "unweighted types do not count",
			results: map[analysis.Type]analysis.Result{
				analysis.URLSafety:  &analysis.URLSafetyResult{SafetyScore: analysis.NewScore(0)},
				analysis.URLContent: &analysis.URLContentResult{ContentScore: analysis.NewScore(60)},
			},
			weights: URLWeights(),
			want:    60,
		},
		{
			name: "url content is ignored on the text path",
			results: map[analysis.Type]analysis.Result{
				analysis.URLContent: &analysis.URLContentResult{ContentScore: analysis.NewScore(10)},
			},
			weights: TextWeights(),
			want:    50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallScore(tt.results, tt.weights))
		})
	}
}

func TestOverallScoreStaysInRange(t *testing.T) {
	raw := []float64{-1e9, -1, 0, 0.5, 49.5, 50, 99.9, 100, 101, 1e9}
	for _, a := range raw {
		for _, b := range raw {
			results := map[analysis.Type]analysis.Result{
				analysis.FactCheck:     &analysis.FactCheckResult{OverallScore: analysis.NewScore(a)},
				analysis.BiasDetection: &analysis.BiasDetectionResult{BiasScore: analysis.NewScore(b)},
			}
			got := OverallScore(results, TextWeights())
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestCredibilityLevel(t *testing.T) {
	cases := map[int]string{
		100: "High Credibility",
		85:  "High Credibility",
		84:  "Moderate Credibility",
		70:  "Moderate Credibility",
		69:  "Low Credibility",
		50:  "Low Credibility",
		49:  "Very Low Credibility",
		0:   "Very Low Credibility",
	}
	for score, want := range cases {
		assert.Equal(t, want, CredibilityLevel(score), score)
	}
}
