package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is the interface the analyzer uses to obtain model text.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// Sender performs one model call against one endpoint.
type Sender interface {
	Send(ctx context.Context, endpoint, prompt string, maxTokens int) (string, error)
}

const maxResponseBytes = 4 << 20

var safetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
}

// blockingFinishReasons are the finish reasons that mean the output was withheld.
var blockingFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type candidate struct {
	Content       *candidateContent `json:"content"`
	FinishReason  string            `json:"finishReason"`
	SafetyRatings []safetyRating    `json:"safetyRatings"`
}

type candidateContent struct {
	Parts []part `json:"parts"`
}

type safetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked"`
}

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Transport sends prompts to generateContent-style endpoints and validates the envelope.
type Transport struct {
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewTransport creates a transport. A nil client gets a default one; the
// per-call timeout is applied through the request context.
func NewTransport(apiKey string, timeout time.Duration, client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Transport{apiKey: apiKey, timeout: timeout, client: client}
}

// Send posts prompt to endpoint and returns the first non-empty text part, trimmed.
func (t *Transport) Send(ctx context.Context, endpoint, prompt string, maxTokens int) (string, error) {
	target, err := withKey(endpoint, t.apiKey)
	if err != nil {
		return "", &Failure{Kind: KindTransport, Endpoint: endpoint, Message: fmt.Sprintf("invalid endpoint URL: %v", err), Err: err}
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			TopK:            1,
			TopP:            0.8,
			MaxOutputTokens: maxTokens,
		},
		SafetySettings: safetySettings,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return "", &Failure{Kind: KindTransport, Endpoint: endpoint, Message: fmt.Sprintf("creating request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Failure{Kind: KindTimeout, Endpoint: endpoint, Message: "request timeout - endpoint took too long to respond", Err: err}
		}
		return "", &Failure{Kind: KindTransport, Endpoint: endpoint, Message: fmt.Sprintf("request failed: %v", redact(err.Error(), t.apiKey)), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Failure{Kind: KindTimeout, Endpoint: endpoint, Message: "request timeout - endpoint took too long to respond", Err: err}
		}
		return "", &Failure{Kind: KindTransport, Endpoint: endpoint, Status: resp.StatusCode, Message: fmt.Sprintf("reading response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusFailure(endpoint, resp.StatusCode, respBody)
	}

	var envelope generateResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", &Failure{Kind: KindTransport, Endpoint: endpoint, Status: resp.StatusCode, Message: fmt.Sprintf("decoding response envelope: %v", err), Err: err}
	}
	return envelopeText(endpoint, &envelope)
}

// envelopeText validates the response envelope in a fixed order so that
// safety blocks are reported before generic missing-field errors.
func envelopeText(endpoint string, env *generateResponse) (string, error) {
	if len(env.Candidates) == 0 {
		if env.PromptFeedback != nil && env.PromptFeedback.BlockReason != "" {
			return "", &Failure{
				Kind:     KindContentBlocked,
				Endpoint: endpoint,
				Message:  fmt.Sprintf("API blocked the request: %s", env.PromptFeedback.BlockReason),
			}
		}
		return "", &Failure{Kind: KindEmptyResponse, Endpoint: endpoint, Message: "invalid response format from API: no candidates found"}
	}

	c := env.Candidates[0]
	blocked := blockedCategories(c.SafetyRatings)

	if blockingFinishReasons[c.FinishReason] {
		msg := fmt.Sprintf("API blocked the response due to %s", c.FinishReason)
		if len(blocked) > 0 {
			msg += ". Blocked categories: " + strings.Join(blocked, ", ")
		}
		return "", &Failure{Kind: KindContentBlocked, Endpoint: endpoint, Message: msg, Categories: blocked}
	}
	if c.FinishReason == "OTHER" {
		return "", &Failure{Kind: KindAbnormalStop, Endpoint: endpoint, Message: "API returned an abnormal finish reason (OTHER)"}
	}
	if len(blocked) > 0 {
		return "", safetyFailure(endpoint, blocked)
	}

	if c.Content == nil {
		return "", &Failure{Kind: KindNoContent, Endpoint: endpoint, Message: "invalid response format from API: no content found in candidate"}
	}
	if len(c.Content.Parts) == 0 {
		if len(blocked) > 0 {
			return "", safetyFailure(endpoint, blocked)
		}
		return "", &Failure{Kind: KindNoContentParts, Endpoint: endpoint, Message: "invalid response format from API: no content parts found"}
	}

	for _, p := range c.Content.Parts {
		if p.Text == "" {
			continue
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return "", &Failure{Kind: KindEmptyText, Endpoint: endpoint, Message: "invalid response format from API: text content is empty"}
		}
		return text, nil
	}
	if len(blocked) > 0 {
		return "", safetyFailure(endpoint, blocked)
	}
	return "", &Failure{Kind: KindNoTextContent, Endpoint: endpoint, Message: "invalid response format from API: no text content found in parts"}
}

func safetyFailure(endpoint string, categories []string) *Failure {
	return &Failure{
		Kind:       KindContentBlocked,
		Endpoint:   endpoint,
		Message:    "content was blocked by safety filters: " + strings.Join(categories, ", "),
		Categories: categories,
	}
}

func blockedCategories(ratings []safetyRating) []string {
	var out []string
	for _, r := range ratings {
		if r.Blocked {
			out = append(out, r.Category)
		}
	}
	return out
}

func statusFailure(endpoint string, status int, body []byte) *Failure {
	var apiErr apiError
	msg := ""
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		msg = apiErr.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 300 {
			msg = msg[:300]
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	var text string
	switch status {
	case http.StatusForbidden:
		text = fmt.Sprintf("API access denied (403): %s. Check the API key permissions.", msg)
	case http.StatusBadRequest:
		text = fmt.Sprintf("API request error (400): %s", msg)
	default:
		text = fmt.Sprintf("API request failed: %d - %s", status, msg)
	}
	return &Failure{Kind: KindTransport, Endpoint: endpoint, Status: status, Message: text}
}

func withKey(endpoint, key string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("missing scheme or host in %q", endpoint)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redact strips the API key from error text that may echo the request URL.
func redact(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "REDACTED")
}
