package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		status  int
		timeout bool
	}{
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), kind: Unavailable, timeout: true},
		{name: "rate limit text", err: errors.New("ark: status code: 429, too many requests"), kind: RateLimited, status: http.StatusTooManyRequests},
		{name: "quota text", err: errors.New("request failed: 402 Payment Required"), kind: QuotaExhausted, status: http.StatusPaymentRequired},
		{name: "insufficient quota", err: errors.New("insufficient_quota"), kind: QuotaExhausted, status: http.StatusPaymentRequired},
		{name: "generic", err: errors.New("connection reset by peer"), kind: Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.timeout, got.Timeout)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyKeepsExistingClassification(t *testing.T) {
	inner := FromStatus(http.StatusTooManyRequests, errors.New("x"))
	got := Classify(fmt.Errorf("wrapped: %w", inner))
	assert.Same(t, inner, got)
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestFromStatus(t *testing.T) {
	assert.Equal(t, RateLimited, FromStatus(http.StatusTooManyRequests, nil).Kind)
	assert.Equal(t, QuotaExhausted, FromStatus(http.StatusPaymentRequired, nil).Kind)
	assert.Equal(t, Unavailable, FromStatus(http.StatusBadGateway, nil).Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "rate_limited", RateLimited.String())
	assert.Equal(t, "quota_exhausted", QuotaExhausted.String())
	assert.Equal(t, "unavailable", Unavailable.String())
}
