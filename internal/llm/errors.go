package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

// Kind groups upstream failures by how the caller must react.
type Kind int

const (
	// Unavailable covers timeouts, network errors and unexpected statuses.
	Unavailable Kind = iota
	// RateLimited is an upstream 429.
	RateLimited
	// QuotaExhausted is an upstream 402 (credits or billing).
	QuotaExhausted
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case QuotaExhausted:
		return "quota_exhausted"
	default:
		return "unavailable"
	}
}

// UpstreamError wraps a failed model call with its classification.
type UpstreamError struct {
	Kind       Kind
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Classify inspects err and returns its UpstreamError form, or nil for nil.
func Classify(err error) *UpstreamError {
	if err == nil {
		return nil
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return FromStatus(apiErr.StatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: Unavailable, Timeout: true, Err: err}
	}

	// Providers that only expose text (ark) are matched on the message.
	msg := strings.ToLower(err.Error())
	switch {
	case isRateLimitMessage(msg):
		return FromStatus(http.StatusTooManyRequests, err)
	case isQuotaMessage(msg):
		return FromStatus(http.StatusPaymentRequired, err)
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return &UpstreamError{Kind: Unavailable, Timeout: true, Err: err}
	}
	return &UpstreamError{Kind: Unavailable, Err: err}
}

// FromStatus builds an UpstreamError for a raw HTTP status.
func FromStatus(status int, err error) *UpstreamError {
	return &UpstreamError{Kind: kindFromStatus(status), StatusCode: status, Err: err}
}

func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusTooManyRequests:
		return RateLimited
	case http.StatusPaymentRequired:
		return QuotaExhausted
	default:
		return Unavailable
	}
}

func isRateLimitMessage(msg string) bool {
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

func isQuotaMessage(msg string) bool {
	return strings.Contains(msg, "402") ||
		strings.Contains(msg, "payment required") ||
		strings.Contains(msg, "insufficient_quota") ||
		strings.Contains(msg, "quota exceeded")
}
