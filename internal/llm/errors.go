package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies why a model call or its parsing failed.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindContentBlocked
	KindEmptyResponse
	KindAbnormalStop
	KindNoContent
	KindNoContentParts
	KindNoTextContent
	KindEmptyText
	KindParse
	KindValidation
)

var kindNames = map[Kind]string{
	KindTransport:      "transport_error",
	KindTimeout:        "timeout",
	KindContentBlocked: "content_blocked",
	KindEmptyResponse:  "empty_response",
	KindAbnormalStop:   "abnormal_stop",
	KindNoContent:      "no_content",
	KindNoContentParts: "no_content_parts",
	KindNoTextContent:  "no_text_content",
	KindEmptyText:      "empty_text",
	KindParse:          "parse_failure",
	KindValidation:     "validation_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Failure is a classified failure from the transport, failover or parsing layers.
type Failure struct {
	Kind     Kind
	Endpoint string
	// Status is the upstream HTTP status for KindTransport, zero otherwise.
	Status int
	Message string
	// Categories lists the safety categories that caused a KindContentBlocked.
	Categories []string
	// Field names the missing field for KindValidation.
	Field string
	Err   error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return f.Kind.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// FailureKind reports the Kind of err, or KindTransport if err carries no classification.
func FailureKind(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindTransport
}

var quotaMarkers = []string{
	"quota",
	"rate limit",
	"resource has been exhausted",
	"exceeded",
}

// IsQuotaError reports whether err looks like a quota or rate-limit rejection.
// Only quota errors let the failover move further down the secondary endpoints.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var f *Failure
	if errors.As(err, &f) && f.Status == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
