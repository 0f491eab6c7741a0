package analysis

// Result is the typed outcome of one analysis.
type Result interface {
	Type() Type
	// PrimaryScore returns the field the overall score is computed from.
	PrimaryScore() Score
}

// FactCheckResult rates the factual accuracy of the text and lists the
// claims it checked.
type FactCheckResult struct {
	OverallScore     Score       `json:"overall_score"`
	CredibilityLevel Text        `json:"credibility_level"`
	CardDescription  Text        `json:"card_description,omitempty"`
	Summary          Text        `json:"summary"`
	Claims           List[Claim] `json:"claims"`
	Recommendations  List[Text]  `json:"recommendations"`
}

// Claim is one statement from the text and its verification status.
type Claim struct {
	Claim              Text       `json:"claim"`
	RedFlags           List[Text] `json:"red_flags"`
	VerificationStatus Text       `json:"verification_status"`
	Explanation        Text       `json:"explanation"`
}

// SourceVerificationResult rates the sources the text relies on and suggests
// where to verify it.
type SourceVerificationResult struct {
	SourceScore      Score                 `json:"source_score"`
	SourceQuality    Text                  `json:"source_quality"`
	QuestionsToAsk   List[Text]            `json:"questions_to_ask"`
	SuggestedSources List[SuggestedSource] `json:"suggested_sources"`
	RedFlags         List[Text]            `json:"red_flags"`
	Recommendations  List[Text]            `json:"recommendations"`
}

// SuggestedSource is a place to cross-check the text.
type SuggestedSource struct {
	Source             Text `json:"source"`
	Type               Text `json:"type"`
	Reliability        Text `json:"reliability"`
	VerificationMethod Text `json:"verification_method"`
}

// LanguageAnalysisResult rates how neutral and precise the wording is.
type LanguageAnalysisResult struct {
	LanguageScore          Score               `json:"language_score"`
	LanguageQuality        Text                `json:"language_quality"`
	EmotionalTone          Text                `json:"emotional_tone"`
	CardDescription        Text                `json:"card_description,omitempty"`
	BiasIndicators         List[BiasIndicator] `json:"bias_indicators"`
	ManipulationTechniques List[Technique]     `json:"manipulation_techniques"`
	Recommendations        List[Text]          `json:"recommendations"`
}

// BiasIndicator is a phrase that signals a slant.
type BiasIndicator struct {
	Type    Text `json:"type"`
	Example Text `json:"example"`
	Impact  Text `json:"impact"`
}

// Technique is a manipulation technique found in the text.
type Technique struct {
	Technique Text `json:"technique"`
	Example   Text `json:"example"`
	Severity  Text `json:"severity"`
	Impact    Text `json:"impact,omitempty"`
}

// BiasDetectionResult measures one-sidedness. A higher BiasScore means more
// bias, so it counts against credibility.
type BiasDetectionResult struct {
	BiasScore        Score          `json:"bias_score"`
	OverallBiasLevel Text           `json:"overall_bias_level"`
	CardDescription  Text           `json:"card_description,omitempty"`
	BiasTypes        List[BiasType] `json:"bias_types"`
	Recommendations  List[Text]     `json:"recommendations"`
}

// BiasType is one kind of bias found, with examples.
type BiasType struct {
	Type        Text       `json:"type"`
	Severity    Text       `json:"severity"`
	Examples    List[Text] `json:"examples"`
	Explanation Text       `json:"explanation"`
}

// EmotionalManipulationResult measures appeals to emotion. A higher
// ManipulationScore counts against credibility.
type EmotionalManipulationResult struct {
	ManipulationScore Score           `json:"manipulation_score"`
	ManipulationLevel Text            `json:"manipulation_level"`
	TechniquesUsed    List[Technique] `json:"techniques_used"`
	EmotionalTriggers List[Text]      `json:"emotional_triggers"`
	Recommendations   List[Text]      `json:"recommendations"`
}

// URLSafetyResult assesses the page address itself.
type URLSafetyResult struct {
	SafetyScore     Score              `json:"safety_score"`
	SafetyLevel     Text               `json:"safety_level"`
	CardDescription Text               `json:"card_description,omitempty"`
	URLAnalysis     URLAnalysis        `json:"url_analysis"`
	SecurityFlags   List[SecurityFlag] `json:"security_flags"`
	Recommendations List[Text]         `json:"recommendations"`
}

// URLAnalysis holds the domain and transport checks behind a safety score.
type URLAnalysis struct {
	DomainReputation   Text       `json:"domain_reputation"`
	SSLCertificate     Text       `json:"ssl_certificate"`
	RedirectChain      List[Text] `json:"redirect_chain"`
	SuspiciousPatterns List[Text] `json:"suspicious_patterns"`
}

func (u *URLAnalysis) UnmarshalJSON(data []byte) error {
	type plain URLAnalysis
	return decodeObject(data, (*plain)(u))
}

// SecurityFlag is a concern raised about a URL.
type SecurityFlag struct {
	Flag        Text `json:"flag"`
	Severity    Text `json:"severity"`
	Description Text `json:"description"`
}

// URLContentResult rates the quality of a web page's content.
type URLContentResult struct {
	ContentScore          Score                      `json:"content_score"`
	ContentQuality        Text                       `json:"content_quality"`
	CardDescription       Text                       `json:"card_description,omitempty"`
	ContentPreview        ContentPreview             `json:"content_preview"`
	CredibilityIndicators List[CredibilityIndicator] `json:"credibility_indicators"`
	RedFlags              List[Text]                 `json:"red_flags"`
	Recommendations       List[Text]                 `json:"recommendations"`
}

// ContentPreview summarises what a page is about.
type ContentPreview struct {
	Title       Text       `json:"title"`
	Description Text       `json:"description"`
	MainTopics  List[Text] `json:"main_topics"`
	ContentType Text       `json:"content_type"`
}

func (c *ContentPreview) UnmarshalJSON(data []byte) error {
	type plain ContentPreview
	return decodeObject(data, (*plain)(c))
}

// CredibilityIndicator records whether a trust signal is present on a page.
type CredibilityIndicator struct {
	Indicator Text `json:"indicator"`
	Present   bool `json:"present"`
	Impact    Text `json:"impact"`
}

// ClickbaitDetectionResult measures how much a headline overpromises.
type ClickbaitDetectionResult struct {
	ClickbaitScore         Score           `json:"clickbait_score"`
	ClickbaitLevel         Text            `json:"clickbait_level"`
	CardDescription        Text            `json:"card_description,omitempty"`
	ManipulationTechniques List[Technique] `json:"manipulation_techniques"`
	EmotionalTriggers      List[Text]      `json:"emotional_triggers"`
	MisleadingElements     List[Text]      `json:"misleading_elements"`
	Recommendations        List[Text]      `json:"recommendations"`
}

func (*FactCheckResult) Type() Type             { return FactCheck }
func (*SourceVerificationResult) Type() Type    { return SourceVerification }
func (*LanguageAnalysisResult) Type() Type      { return LanguageAnalysis }
func (*BiasDetectionResult) Type() Type         { return BiasDetection }
func (*EmotionalManipulationResult) Type() Type { return EmotionalManipulation }
func (*URLSafetyResult) Type() Type             { return URLSafety }
func (*URLContentResult) Type() Type            { return URLContent }
func (*ClickbaitDetectionResult) Type() Type    { return ClickbaitDetection }

func (r *FactCheckResult) PrimaryScore() Score             { return r.OverallScore }
func (r *SourceVerificationResult) PrimaryScore() Score    { return r.SourceScore }
func (r *LanguageAnalysisResult) PrimaryScore() Score      { return r.LanguageScore }
func (r *BiasDetectionResult) PrimaryScore() Score         { return r.BiasScore }
func (r *EmotionalManipulationResult) PrimaryScore() Score { return r.ManipulationScore }
func (r *URLSafetyResult) PrimaryScore() Score             { return r.SafetyScore }
func (r *URLContentResult) PrimaryScore() Score            { return r.ContentScore }
func (r *ClickbaitDetectionResult) PrimaryScore() Score    { return r.ClickbaitScore }

// newResult returns an empty result of the concrete type for t.
func newResult(t Type) (Result, bool) {
	switch t {
	case FactCheck:
		return &FactCheckResult{}, true
	case SourceVerification:
		return &SourceVerificationResult{}, true
	case LanguageAnalysis:
		return &LanguageAnalysisResult{}, true
	case BiasDetection:
		return &BiasDetectionResult{}, true
	case EmotionalManipulation:
		return &EmotionalManipulationResult{}, true
	case URLSafety:
		return &URLSafetyResult{}, true
	case URLContent:
		return &URLContentResult{}, true
	case ClickbaitDetection:
		return &ClickbaitDetectionResult{}, true
	}
	return nil, false
}
