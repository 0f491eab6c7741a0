package analysis

// Fallback returns the default result used when an analysis cannot be
// obtained. Each call returns a fresh value. Unknown types get the
// fact-check fallback.
func Fallback(t Type) Result {
	unknown := Text("unknown")

	switch t {
	case SourceVerification:
		return &SourceVerificationResult{
			SourceScore:      NewScore(50),
			SourceQuality:    unknown,
			QuestionsToAsk:   List[Text]{"What is the source of this information?", "Can this be verified elsewhere?"},
			SuggestedSources: List[SuggestedSource]{},
			RedFlags:         List[Text]{},
			Recommendations:  List[Text]{"Verify from official sources", "Check multiple news outlets"},
		}
	case LanguageAnalysis:
		return &LanguageAnalysisResult{
			LanguageScore:          NewScore(50),
			LanguageQuality:        unknown,
			EmotionalTone:          unknown,
			BiasIndicators:         List[BiasIndicator]{},
			ManipulationTechniques: List[Technique]{},
			Recommendations:        List[Text]{"Read critically", "Look for emotional language"},
		}
	case BiasDetection:
		return &BiasDetectionResult{
			BiasScore:        NewScore(50),
			OverallBiasLevel: unknown,
			BiasTypes:        List[BiasType]{},
			Recommendations:  List[Text]{"Consider multiple perspectives", "Check for confirmation bias"},
		}
	case EmotionalManipulation:
		return &EmotionalManipulationResult{
			ManipulationScore: NewScore(50),
			ManipulationLevel: unknown,
			TechniquesUsed:    List[Technique]{},
			EmotionalTriggers: List[Text]{},
			Recommendations:   List[Text]{"Stay objective", "Look for emotional appeals"},
		}
	case URLContent:
		return &URLContentResult{
			ContentScore:    NewScore(50),
			ContentQuality:  unknown,
			CardDescription: "Content analysis unavailable. Please verify independently.",
			ContentPreview: ContentPreview{
				Title:       "Unknown",
				Description: "Unable to analyze content",
				MainTopics:  List[Text]{},
				ContentType: unknown,
			},
			CredibilityIndicators: List[CredibilityIndicator]{},
			RedFlags:              List[Text]{},
			Recommendations:       List[Text]{"Verify content from multiple sources", "Check the source website directly"},
		}
	case URLSafety:
		return &URLSafetyResult{
			SafetyScore:     NewScore(50),
			SafetyLevel:     unknown,
			CardDescription: "URL safety analysis unavailable. Verify URL before accessing.",
			URLAnalysis: URLAnalysis{
				DomainReputation:   unknown,
				SSLCertificate:     unknown,
				RedirectChain:      List[Text]{},
				SuspiciousPatterns: List[Text]{},
			},
			SecurityFlags:   List[SecurityFlag]{},
			Recommendations: List[Text]{"Exercise caution", "Verify the URL before accessing"},
		}
	case ClickbaitDetection:
		return &ClickbaitDetectionResult{
			ClickbaitScore:         NewScore(50),
			ClickbaitLevel:         unknown,
			CardDescription:        "Clickbait analysis unavailable. Exercise caution with headlines.",
			ManipulationTechniques: List[Technique]{},
			EmotionalTriggers:      List[Text]{},
			MisleadingElements:     List[Text]{},
			Recommendations:        List[Text]{"Be cautious of sensational headlines", "Read the full content before sharing"},
		}
	}

	return &FactCheckResult{
		OverallScore:     NewScore(50),
		CredibilityLevel: "moderate",
		CardDescription:  "Fact-check analysis unavailable. Verify claims independently.",
		Summary:          "Analysis unavailable - please verify information independently",
		Claims:           List[Claim]{},
		Recommendations:  List[Text]{"Verify information from multiple sources", "Check for recent updates"},
	}
}
