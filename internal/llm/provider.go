// Package llm builds the chat models used by the classifier and the reply
// generator, and normalises upstream failures.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by NewChatModel.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Options carries everything needed to construct a chat model.
type Options struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	MaxTokens   *int

	// Ark only.
	AccessKey string
	SecretKey string
	Region    string
}

// NewChatModel returns an eino chat model for the configured provider.
// Neither provider retries on its own; resends are left to the user.
func NewChatModel(ctx context.Context, opts Options) (model.BaseChatModel, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("llm model name is required")
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai-compatible provider requires an api key")
		}
		return NewOpenAIChatModel(OpenAIConfig{
			APIKey:      opts.APIKey,
			BaseURL:     opts.BaseURL,
			Model:       opts.Model,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}), nil
	case ProviderArk:
		return newArkChatModel(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

func newArkChatModel(ctx context.Context, opts Options) (model.BaseChatModel, error) {
	if opts.APIKey == "" && (opts.AccessKey == "" || opts.SecretKey == "") {
		return nil, fmt.Errorf("ark provider requires ARK_API_KEY or an AK/SK pair")
	}

	var temperature *float32
	if opts.Temperature != nil {
		val := float32(*opts.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     opts.BaseURL,
		Region:      opts.Region,
		APIKey:      opts.APIKey,
		AccessKey:   opts.AccessKey,
		SecretKey:   opts.SecretKey,
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: temperature,
	}
	return ark.NewChatModel(ctx, cfg)
}

// WithTimeout bounds a single upstream call. A non-positive d leaves ctx as is.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
