package chat_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/zenora/backend/internal/llm"
	"github.com/zhouzirui/zenora/backend/internal/llm/llmtest"
	chatmodel "github.com/zhouzirui/zenora/backend/internal/model/chat"
	"github.com/zhouzirui/zenora/backend/internal/model/companion"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
	"github.com/zhouzirui/zenora/backend/internal/service/ai"
	chat "github.com/zhouzirui/zenora/backend/internal/service/chat"
	"github.com/zhouzirui/zenora/backend/internal/service/emotion"
	moodsvc "github.com/zhouzirui/zenora/backend/internal/service/mood"
	"github.com/zhouzirui/zenora/backend/internal/store"
	"github.com/zhouzirui/zenora/backend/internal/store/db/memory"
)

type harness struct {
	svc        *chat.Service
	classifier *llmtest.Model
	generator  *llmtest.Model
	sink       *moodsvc.Sink
	store      *store.Store
}

func newHarness(t *testing.T, classify llmtest.Reply, generate ...llmtest.Reply) *harness {
	t.Helper()

	h := &harness{
		classifier: llmtest.New(classify),
		generator:  llmtest.New(generate...),
		store:      store.New(memory.NewDB()),
	}

	classifier, err := emotion.NewService(h.classifier, emotion.Config{Timeout: time.Second})
	require.NoError(t, err)
	generator, err := ai.NewService(h.generator, ai.Config{HistoryLimit: 5, Timeout: time.Second, Stream: true})
	require.NoError(t, err)

	h.sink = moodsvc.NewSink(h.store, moodsvc.Config{Threshold: 6, WriteTimeout: time.Second})
	h.svc = chat.NewService(classifier, generator, h.sink, companion.Default())
	return h
}

func (h *harness) moods(t *testing.T, userID string) []*mood.Record {
	t.Helper()
	h.sink.Wait()
	list, err := h.store.ListMoodEntries(context.Background(), &store.FindMoodEntry{UserID: userID})
	require.NoError(t, err)
	return list
}

func hasHelpline(text string) bool {
	for _, line := range ai.Helplines {
		if strings.Contains(text, line.Number) {
			return true
		}
	}
	return false
}

func TestRespondCrisisScenario(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"negative","emotions":["hopeless"],"intensity":9,"crisis_level":"medium"}`},
		llmtest.Reply{Content: "I'm so sorry you're carrying this. You matter."},
	)

	reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "I want to end my life", UserID: "user-1"})
	require.NoError(t, err)

	assert.True(t, reply.IsCrisis)
	assert.Equal(t, mood.CrisisHigh, reply.EmotionAnalysis.CrisisLevel)
	assert.True(t, hasHelpline(reply.Response), reply.Response)
	assert.Equal(t, ai.CrisisPrompt(companion.Default()), h.generator.SystemPrompt(0))

	list := h.moods(t, "user-1")
	require.Len(t, list, 1)
	assert.Equal(t, 9, list[0].StressLevel)
}

func TestRespondPositiveScenario(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"positive","emotions":["happy"],"intensity":3}`},
		llmtest.Reply{Content: "That's wonderful to hear!"},
	)

	reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "I had a great day, feeling good!", UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, reply.IsCrisis)
	assert.Equal(t, "That's wonderful to hear!", reply.Response)
	assert.Equal(t, mood.Analysis{Sentiment: mood.Positive, Emotions: []string{"happy"}, Intensity: 3, CrisisLevel: mood.CrisisNone}, reply.EmotionAnalysis)

	prompt := h.generator.SystemPrompt(0)
	assert.Equal(t, ai.CompanionPrompt(companion.Default(), reply.EmotionAnalysis), prompt)
	assert.Empty(t, h.moods(t, "user-1"))
}

func TestRespondAnxiousScenarioPersistsMood(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"negative","emotions":["anxious"],"intensity":8,"crisis_level":"low"}`},
		llmtest.Reply{Content: "Sleepless nights are exhausting."},
	)

	reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "I'm so anxious I can't sleep", UserID: "user-1"})
	require.NoError(t, err)
	assert.False(t, reply.IsCrisis)

	list := h.moods(t, "user-1")
	require.Len(t, list, 1)
	assert.Equal(t, 8, list[0].StressLevel)
	assert.Equal(t, 2, list[0].EnergyLevel)
	assert.Equal(t, "negative", list[0].Mood)
	assert.Equal(t, "Auto-detected from chat: anxious", list[0].Notes)
}

func TestRespondAnonymousSkipsPersistence(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"negative","emotions":["anxious"],"intensity":8}`},
		llmtest.Reply{Content: "I'm here."},
	)

	_, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "I'm so anxious I can't sleep"})
	require.NoError(t, err)
	h.sink.Wait()
	assert.Empty(t, h.moods(t, "user-1"))
}

func TestRespondMalformedClassifierOutput(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: "The user seems fine."},
		llmtest.Reply{Content: "Tell me more."},
	)

	reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "hello", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, mood.Fallback(false), reply.EmotionAnalysis)
	assert.False(t, reply.IsCrisis)
}

func TestRespondForwardsContextWindow(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"neutral","intensity":2}`},
		llmtest.Reply{Content: "ok"},
	)

	var turns []chatmodel.Turn
	for i := 0; i < 8; i++ {
		role := chatmodel.RoleUser
		if i%2 == 1 {
			role = chatmodel.RoleAssistant
		}
		turns = append(turns, chatmodel.Turn{Role: role, Content: string(rune('a' + i))})
	}

	_, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "hello", Context: turns})
	require.NoError(t, err)

	calls := h.generator.Calls()
	require.Len(t, calls, 1)
	// system + 5 history turns + user message
	require.Len(t, calls[0], 7)
	assert.Equal(t, "d", calls[0][1].Content)
	assert.Equal(t, "h", calls[0][5].Content)
}

func TestRespondUpstreamStatuses(t *testing.T) {
	tests := []struct {
		name     string
		classify llmtest.Reply
		generate []llmtest.Reply
		stage    chat.Stage
		kind     chat.FailureKind
		response string
	}{
		{
			name:     "classifier rate limited",
			classify: llmtest.Reply{Err: llm.FromStatus(http.StatusTooManyRequests, errors.New("429"))},
			stage:    chat.StageClassify,
			kind:     chat.FailureRateLimited,
			response: chat.RateLimitedResponse,
		},
		{
			name:     "classifier quota",
			classify: llmtest.Reply{Err: llm.FromStatus(http.StatusPaymentRequired, errors.New("402"))},
			stage:    chat.StageClassify,
			kind:     chat.FailureQuotaExhausted,
			response: chat.QuotaResponse,
		},
		{
			name:     "generator rate limited",
			classify: llmtest.Reply{Content: `{"sentiment":"neutral","intensity":3}`},
			generate: []llmtest.Reply{{Err: llm.FromStatus(http.StatusTooManyRequests, errors.New("429"))}},
			stage:    chat.StageGenerate,
			kind:     chat.FailureRateLimited,
			response: chat.RateLimitedResponse,
		},
		{
			name:     "generator quota",
			classify: llmtest.Reply{Content: `{"sentiment":"neutral","intensity":3}`},
			generate: []llmtest.Reply{{Err: llm.FromStatus(http.StatusPaymentRequired, errors.New("402"))}},
			stage:    chat.StageGenerate,
			kind:     chat.FailureQuotaExhausted,
			response: chat.QuotaResponse,
		},
		{
			name:     "generator unavailable",
			classify: llmtest.Reply{Content: `{"sentiment":"neutral","intensity":3}`},
			generate: []llmtest.Reply{{Err: llm.FromStatus(http.StatusBadGateway, errors.New("502"))}},
			stage:    chat.StageGenerate,
			kind:     chat.FailureUnavailable,
			response: chat.UnavailableResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.classify, tt.generate...)

			_, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "hello", UserID: "user-1"})

			var failure *chat.Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, tt.stage, failure.Stage)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Equal(t, tt.response, failure.Response)
			assert.False(t, failure.IsCrisis)

			// No retries.
			assert.Len(t, h.classifier.Calls(), 1)
			if tt.stage == chat.StageClassify {
				assert.Empty(t, h.generator.Calls())
			} else {
				assert.Len(t, h.generator.Calls(), 1)
			}
		})
	}
}

func TestRespondClassifierOutageDegrades(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Err: llm.FromStatus(http.StatusServiceUnavailable, errors.New("503"))},
		llmtest.Reply{Content: "I'm listening."},
	)

	reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "rough week", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, mood.Fallback(false), reply.EmotionAnalysis)
	assert.Equal(t, "I'm listening.", reply.Response)
}

func TestRespondCrisisSurvivesClassifierFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "quota", status: http.StatusPaymentRequired},
		{name: "unavailable", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t,
				llmtest.Reply{Err: llm.FromStatus(tt.status, errors.New("upstream"))},
				llmtest.Reply{Content: "Please stay with me. Call Tele-MANAS at 14416."},
			)

			reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "I have a SUICIDE plan"})
			require.NoError(t, err)

			assert.True(t, reply.IsCrisis)
			assert.Equal(t, mood.Fallback(true), reply.EmotionAnalysis)
			assert.Equal(t, "Please stay with me. Call Tele-MANAS at 14416.", reply.Response)
			assert.Equal(t, ai.CrisisPrompt(companion.Default()), h.generator.SystemPrompt(0))
		})
	}
}

func TestGenerationFailureLogsTimeout(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"neutral","intensity":3}`},
		llmtest.Reply{Err: fmt.Errorf("call: %w", context.DeadlineExceeded)},
	)

	_, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "hello"})
	var failure *chat.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, chat.FailureUnavailable, failure.Kind)

	var logged *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "reply generation failed" {
			logged = e
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, true, logged.Data["timeout"])
	assert.Equal(t, "unavailable", logged.Data["kind"])
}

func TestRespondCrisisGenerationFailureKeepsHelplines(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: "garbage"},
		llmtest.Reply{Err: llm.FromStatus(http.StatusTooManyRequests, errors.New("429"))},
	)

	_, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "i want to die"})

	var failure *chat.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, chat.FailureRateLimited, failure.Kind)
	assert.True(t, failure.IsCrisis)
	assert.Equal(t, ai.CrisisMessage(companion.Default()), failure.Response)
	assert.True(t, hasHelpline(failure.Response))
}

func TestRespondClassifierHighGradeTriggersCrisisPrompt(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"negative","emotions":["hopeless"],"intensity":9,"crisis_level":"high"}`},
		llmtest.Reply{Content: "I'm here with you."},
	)

	reply, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "nothing matters anymore"})
	require.NoError(t, err)
	assert.True(t, reply.IsCrisis)
	assert.True(t, hasHelpline(reply.Response))
	assert.Equal(t, ai.CrisisPrompt(companion.Default()), h.generator.SystemPrompt(0))
}

func TestRespondRequiresMessage(t *testing.T) {
	h := newHarness(t, llmtest.Reply{})

	_, err := h.svc.Respond(context.Background(), chatmodel.Request{Message: "   "})
	assert.ErrorIs(t, err, chat.ErrMessageRequired)
	assert.Empty(t, h.classifier.Calls())
}

func TestStreamThenFinish(t *testing.T) {
	h := newHarness(t,
		llmtest.Reply{Content: `{"sentiment":"negative","emotions":["anxious"],"intensity":7}`},
		llmtest.Reply{Content: "Breathe with me for a moment."},
	)
	ctx := context.Background()

	plan, err := h.svc.Prepare(ctx, chatmodel.Request{Message: "I feel anxious", UserID: "user-1"})
	require.NoError(t, err)

	sr, err := h.svc.Stream(ctx, plan)
	require.NoError(t, err)
	defer sr.Close()

	var b strings.Builder
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b.WriteString(chunk.Content)
	}

	reply := h.svc.Finish(ctx, plan, b.String())
	assert.Equal(t, "Breathe with me for a moment.", reply.Response)
	require.Len(t, h.moods(t, "user-1"), 1)
}

func TestFailureError(t *testing.T) {
	f := &chat.Failure{Stage: chat.StageGenerate, Kind: chat.FailureUnavailable, Err: errors.New("boom")}
	assert.Equal(t, "chat generate failed (unavailable): boom", f.Error())
	assert.Equal(t, "internal", chat.FailureInternal.String())
}
