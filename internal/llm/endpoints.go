package llm

import (
	"slices"
	"time"
)

// Endpoints is the resolved, read-only model endpoint configuration.
type Endpoints struct {
	Primary   []string
	Secondary []string
	APIKey    string
	Timeout   time.Duration
}

// NewEndpoints builds an Endpoints value. An empty primary or secondary list
// falls back to defaultURL so single-endpoint deployments keep working. The
// secondary list never repeats defaultURL when the primary list holds it.
func NewEndpoints(primary, secondary []string, defaultURL, apiKey string, timeout time.Duration) Endpoints {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := orDefault(primary, defaultURL)
	if slices.Contains(p, defaultURL) {
		defaultURL = ""
	}
	return Endpoints{
		Primary:   p,
		Secondary: orDefault(secondary, defaultURL),
		APIKey:    apiKey,
		Timeout:   timeout,
	}
}

// IsConfigured reports whether there is a key and at least one endpoint to call.
func (e Endpoints) IsConfigured() bool {
	return e.APIKey != "" && (len(e.Primary) > 0 || len(e.Secondary) > 0)
}

func orDefault(urls []string, defaultURL string) []string {
	var out []string
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	if len(out) == 0 && defaultURL != "" {
		out = []string{defaultURL}
	}
	return out
}
