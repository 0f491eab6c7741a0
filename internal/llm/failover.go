package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrAllEndpointsFailed is returned when no endpoint produced a failure to report.
var ErrAllEndpointsFailed = errors.New("all configured endpoints failed")

// Failover tries primary endpoints in order, then secondary endpoints.
// Any primary failure moves on to the next primary. A secondary failure
// only moves on when it is a quota error; anything else is returned at once.
type Failover struct {
	endpoints Endpoints
	sender    Sender
	logger    *zap.Logger
}

// NewFailover creates a failover controller over the given endpoints.
func NewFailover(endpoints Endpoints, sender Sender, logger *zap.Logger) *Failover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Failover{endpoints: endpoints, sender: sender, logger: logger}
}

// IsConfigured reports whether the underlying endpoints can be called.
func (f *Failover) IsConfigured() bool {
	return f.endpoints.IsConfigured()
}

// Generate returns the first successful response text.
func (f *Failover) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var last error

	for _, endpoint := range f.endpoints.Primary {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := f.sender.Send(ctx, endpoint, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		last = err
		f.logger.Warn("endpoint failed",
			zap.String("endpoint", endpoint),
			zap.String("tier", "primary"),
			zap.Stringer("kind", FailureKind(err)),
			zap.Error(err),
		)
	}

	for _, endpoint := range f.endpoints.Secondary {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := f.sender.Send(ctx, endpoint, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		last = err
		quota := IsQuotaError(err)
		f.logger.Warn("endpoint failed",
			zap.String("endpoint", endpoint),
			zap.String("tier", "secondary"),
			zap.Stringer("kind", FailureKind(err)),
			zap.Bool("quota", quota),
			zap.Error(err),
		)
		if !quota {
			return "", err
		}
	}

	if last != nil {
		return "", last
	}
	return "", ErrAllEndpointsFailed
}
