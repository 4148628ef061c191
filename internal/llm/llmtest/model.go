// Package llmtest provides a scripted eino chat model for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrNoReply is returned once every scripted reply has been consumed.
var ErrNoReply = errors.New("llmtest: no scripted reply left")

// Reply scripts one upstream call.
type Reply struct {
	Content string
	Err     error
	// Block waits for the call context to end and returns its error.
	Block bool
}

// Model replays Replies in order and records every input it receives.
type Model struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
}

var _ model.BaseChatModel = (*Model)(nil)

// New returns a Model that answers with replies in order.
func New(replies ...Reply) *Model {
	return &Model{replies: replies}
}

// Generate implements model.BaseChatModel.
func (m *Model) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	r, err := m.next(ctx, input)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(r.Content, nil), nil
}

// Stream implements model.BaseChatModel, splitting the content on spaces.
func (m *Model) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	r, err := m.next(ctx, input)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitAfter(r.Content, " ")
	chunks := make([]*schema.Message, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		chunks = append(chunks, schema.AssistantMessage(p, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

// Calls returns the inputs seen so far.
func (m *Model) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// SystemPrompt returns the system message content of call i, or "".
func (m *Model) SystemPrompt(i int) string {
	calls := m.Calls()
	if i < 0 || i >= len(calls) {
		return ""
	}
	for _, msg := range calls[i] {
		if msg.Role == schema.System {
			return msg.Content
		}
	}
	return ""
}

func (m *Model) next(ctx context.Context, input []*schema.Message) (Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return Reply{}, ErrNoReply
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()

	if r.Block {
		<-ctx.Done()
		return Reply{}, ctx.Err()
	}
	if r.Err != nil {
		return Reply{}, r.Err
	}
	return r, nil
}
