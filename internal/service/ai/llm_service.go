// Package ai generates the companion's replies and owns its system prompts.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/llm"
	"github.com/zhouzirui/zenora/backend/internal/model/chat"
)

var (
	// ErrModelRequired is returned by NewService without a chat model.
	ErrModelRequired = errors.New("response generator requires a chat model")
	// ErrEmptyReply means the upstream answered without any text.
	ErrEmptyReply = errors.New("model returned an empty reply")
	// ErrStreamingDisabled is returned by Stream when CHAT_STREAM is off.
	ErrStreamingDisabled = errors.New("streaming disabled in configuration")
)

// Config controls reply generation.
type Config struct {
	// HistoryLimit is the trailing window of turns forwarded to the model.
	HistoryLimit int
	// Timeout bounds one upstream call, streams included.
	Timeout time.Duration
	Stream  bool
}

// Service encapsulates reply generation.
type Service struct {
	chatModel model.BaseChatModel
	template  prompt.ChatTemplate
	cfg       Config
	log       *logrus.Entry
}

// NewService creates a generator on top of chatModel.
func NewService(chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	if chatModel == nil {
		return nil, ErrModelRequired
	}

	return &Service{
		chatModel: chatModel,
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
		cfg: cfg,
		log: logrus.WithField("component", "ai"),
	}, nil
}

// StreamingEnabled reports whether SSE replies are allowed.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.Stream
}

// Generate returns the assistant reply for message. Upstream failures are
// returned as *llm.UpstreamError.
func (s *Service) Generate(ctx context.Context, systemPrompt string, history []chat.Turn, message string) (string, error) {
	msgs, err := s.buildMessages(ctx, systemPrompt, history, message)
	if err != nil {
		return "", err
	}

	callCtx, cancel := llm.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.chatModel.Generate(callCtx, msgs)
	if err != nil {
		return "", llm.Classify(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", &llm.UpstreamError{Kind: llm.Unavailable, Err: ErrEmptyReply}
	}

	s.log.WithFields(logrus.Fields{
		"history":  len(msgs) - 2,
		"length":   len(resp.Content),
		"duration": time.Since(start).String(),
	}).Debug("generated reply")
	return resp.Content, nil
}

// Stream returns the reply as a stream of chunks. The timeout covers the
// whole stream; errors surfaced mid-stream are *llm.UpstreamError.
func (s *Service) Stream(ctx context.Context, systemPrompt string, history []chat.Turn, message string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, ErrStreamingDisabled
	}

	msgs, err := s.buildMessages(ctx, systemPrompt, history, message)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := llm.WithTimeout(ctx, s.cfg.Timeout)
	upstream, err := s.chatModel.Stream(callCtx, msgs)
	if err != nil {
		cancel()
		return nil, llm.Classify(err)
	}

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer cancel()
		defer upstream.Close()
		defer sw.Close()

		for {
			chunk, err := upstream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				sw.Send(nil, llm.Classify(err))
				return
			}
			if closed := sw.Send(chunk, nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

func (s *Service) buildMessages(ctx context.Context, systemPrompt string, history []chat.Turn, message string) ([]*schema.Message, error) {
	msgs, err := s.template.Format(ctx, map[string]any{
		"system":  systemPrompt,
		"history": historyMessages(chat.Window(history, s.cfg.HistoryLimit)),
		"query":   message,
	})
	if err != nil {
		return nil, fmt.Errorf("format reply prompt: %w", err)
	}
	return msgs, nil
}

func historyMessages(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(t.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(t.Content, nil))
		}
	}
	return history
}
