package analyzer

import (
	"math"

	"github.com/TobiSchelling/veritas/internal/analysis"
)

// Weights maps an analysis type to its share of the overall score.
type Weights map[analysis.Type]float64

// TextWeights returns the weights for text and file analysis.
func TextWeights() Weights {
	return Weights{
		analysis.FactCheck:             0.35,
		analysis.SourceVerification:    0.30,
		analysis.LanguageAnalysis:      0.20,
		analysis.BiasDetection:         0.10,
		analysis.EmotionalManipulation: 0.05,
	}
}

// URLWeights returns the weights for web page analysis. url_safety and
// clickbait_detection are reported but do not count.
func URLWeights() Weights {
	w := TextWeights()
	w[analysis.URLContent] = 0.40
	return w
}

const neutralScore = 50

// OverallScore combines the primary scores of results into one 0-100 score.
// Scores of negative traits are inverted, every score is clamped to 0-100,
// and the weighted mean is taken over the types that reported a valid
// score. With nothing to combine the score is 50.
func OverallScore(results map[analysis.Type]analysis.Result, weights Weights) int {
	var sum, total float64
	for _, t := range analysis.AllTypes() {
		w := weights[t]
		r, ok := results[t]
		if !ok || r == nil || w <= 0 {
			continue
		}
		s := r.PrimaryScore()
		if !s.Valid {
			continue
		}
		v := s.Value
		if t.Negative() {
			v = 100 - v
		}
		sum += clamp(v) * w
		total += w
	}
	if total <= 0 {
		return neutralScore
	}
	return int(clamp(math.Round(sum / total)))
}

// CredibilityLevel returns the label for an overall score.
func CredibilityLevel(score int) string {
	switch {
	case score >= 85:
		return "High Credibility"
	case score >= 70:
		return "Moderate Credibility"
	case score >= 50:
		return "Low Credibility"
	default:
		return "Very Low Credibility"
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
