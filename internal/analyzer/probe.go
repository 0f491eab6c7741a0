package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const probePrompt = `Respond with exactly this JSON: {"test": "success", "message": "API connection working"}`

// ProbeResult reports whether the model endpoints answer.
type ProbeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Probe sends a minimal prompt through the normal endpoint failover. A reply
// that is JSON, or that mentions success, counts as a working connection.
func (a *Analyzer) Probe(ctx context.Context) ProbeResult {
	if !a.IsConfigured() {
		return probeFailure(ErrNotConfigured)
	}

	reply, err := a.provider.Generate(ctx, probePrompt, a.opts.MaxOutputTokens)
	if err != nil {
		a.logger.Warn("connection probe failed", zap.Error(err))
		return probeFailure(err)
	}

	var data any
	if err := json.Unmarshal([]byte(reply), &data); err != nil {
		lower := strings.ToLower(reply)
		if !strings.Contains(lower, "success") && !strings.Contains(lower, "working") {
			return probeFailure(fmt.Errorf("unexpected probe reply: %w", err))
		}
		data = map[string]any{"test": "success", "message": "API connection working"}
	}
	return ProbeResult{Success: true, Message: "API connection successful", Data: data}
}

func probeFailure(err error) ProbeResult {
	return ProbeResult{
		Success: false,
		Message: "API connection failed: " + err.Error(),
		Error:   err.Error(),
	}
}
