package analysis

import (
	"regexp"
	"strconv"
)

const truncatedRecommendation = "Response was truncated. Please verify information independently."

var (
	partialContentScore     = regexp.MustCompile(`"content_score"\s*:\s*(\d+)`)
	partialOverallScore     = regexp.MustCompile(`"overall_score"\s*:\s*(\d+)`)
	partialAnyScore         = regexp.MustCompile(`"score"\s*:\s*(\d+)`)
	partialContentQuality   = regexp.MustCompile(`"content_quality"\s*:\s*"([^"]*)`)
	partialCredibilityLevel = regexp.MustCompile(`"credibility_level"\s*:\s*"([^"]*)`)
	partialSummary          = regexp.MustCompile(`"summary"\s*:\s*"([^"]*)`)
)

// ExtractPartial pulls known score and label fields out of text that is not
// valid JSON. Only fact_check and url_content can be rebuilt this way; for
// every other type ok is false. Missing fields get conservative defaults.
func ExtractPartial(raw string, t Type) (Result, bool) {
	if raw == "" {
		return nil, false
	}

	switch t {
	case FactCheck:
		score := matchScore(raw, partialOverallScore)
		if !score.Valid {
			score = matchScore(raw, partialAnyScore)
		}
		if !score.Valid {
			score = NewScore(50)
		}
		return &FactCheckResult{
			OverallScore:     score,
			CredibilityLevel: Text(matchText(raw, partialCredibilityLevel, "moderate")),
			Summary:          Text(matchText(raw, partialSummary, "Analysis was truncated. Partial results only - please verify information independently.")),
			Claims:           List[Claim]{},
			Recommendations:  List[Text]{truncatedRecommendation},
		}, true

	case URLContent:
		score := matchScore(raw, partialContentScore)
		if !score.Valid {
			score = matchScore(raw, partialAnyScore)
		}
		if !score.Valid {
			score = NewScore(50)
		}
		return &URLContentResult{
			ContentScore:   score,
			ContentQuality: Text(matchText(raw, partialContentQuality, "unknown")),
			ContentPreview: ContentPreview{
				Title:       "Unknown",
				Description: "Response was truncated - partial data only",
				MainTopics:  List[Text]{},
				ContentType: "unknown",
			},
			CredibilityIndicators: List[CredibilityIndicator]{},
			RedFlags:              List[Text]{},
			Recommendations:       List[Text]{truncatedRecommendation},
		}, true
	}
	return nil, false
}

func matchScore(raw string, re *regexp.Regexp) Score {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return Score{}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Score{}
	}
	return NewScore(float64(n))
}

// matchText returns the first capture of re, or def when there is no match
// or the capture is empty.
func matchText(raw string, re *regexp.Regexp, def string) string {
	if m := re.FindStringSubmatch(raw); m != nil && m[1] != "" {
		return m[1]
	}
	return def
}
