package chat

import (
	"fmt"

	"github.com/zhouzirui/zenora/backend/internal/llm"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageClassify Stage = "classify"
	StageGenerate Stage = "generate"
)

// FailureKind is the terminal failure state of a chat turn.
type FailureKind int

const (
	FailureInternal FailureKind = iota
	FailureRateLimited
	FailureQuotaExhausted
	FailureUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	case FailureQuotaExhausted:
		return "quota_exhausted"
	case FailureUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// User-facing apologies. Raw upstream errors never reach the client.
const (
	RateLimitedResponse = "I'm experiencing high demand right now. Please try again in a moment."
	QuotaResponse       = "I'm temporarily unavailable. Please try again later."
	UnavailableResponse = "I'm having trouble connecting right now. Please try again in a moment."
)

// Failure is returned when a chat turn cannot produce a reply.
type Failure struct {
	Stage    Stage
	Kind     FailureKind
	IsCrisis bool
	// Response is safe to show to the user.
	Response string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("chat %s failed (%s): %v", f.Stage, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func kindOf(k llm.Kind) FailureKind {
	switch k {
	case llm.RateLimited:
		return FailureRateLimited
	case llm.QuotaExhausted:
		return FailureQuotaExhausted
	default:
		return FailureUnavailable
	}
}

func apology(k FailureKind) string {
	switch k {
	case FailureRateLimited:
		return RateLimitedResponse
	case FailureQuotaExhausted:
		return QuotaResponse
	default:
		return UnavailableResponse
	}
}
