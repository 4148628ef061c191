// Package chat runs one chat turn: crisis keyword scan, emotion
// classification, prompt selection, reply generation and mood persistence.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/analysis/crisis"
	"github.com/zhouzirui/zenora/backend/internal/llm"
	"github.com/zhouzirui/zenora/backend/internal/model/chat"
	"github.com/zhouzirui/zenora/backend/internal/model/companion"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
	"github.com/zhouzirui/zenora/backend/internal/service/ai"
)

// ErrMessageRequired is returned for an empty message.
var ErrMessageRequired = errors.New("message is required")

// Classifier produces the affect reading of a message.
type Classifier interface {
	Classify(ctx context.Context, message string, crisis bool) (mood.Analysis, error)
}

// Generator produces the companion's reply.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []chat.Turn, message string) (string, error)
	Stream(ctx context.Context, systemPrompt string, history []chat.Turn, message string) (*schema.StreamReader[*schema.Message], error)
}

// MoodSink records intense moods in the background.
type MoodSink interface {
	PersistIfWarranted(ctx context.Context, userID string, analysis mood.Analysis) bool
}

// Plan is everything decided before the reply is generated.
type Plan struct {
	Message  string
	UserID   string
	History  []chat.Turn
	Crisis   bool
	Analysis mood.Analysis
	// Degraded is set when the classifier failed and the fallback was used.
	Degraded     bool
	SystemPrompt string
}

// Service orchestrates a chat turn. It keeps no state between requests.
type Service struct {
	classifier Classifier
	generator  Generator
	sink       MoodSink
	profile    companion.Profile
	log        *logrus.Entry
}

// NewService wires the pipeline. sink may be nil to disable persistence.
func NewService(classifier Classifier, generator Generator, sink MoodSink, profile companion.Profile) *Service {
	return &Service{
		classifier: classifier,
		generator:  generator,
		sink:       sink,
		profile:    profile,
		log:        logrus.WithField("component", "chat"),
	}
}

// Profile returns the companion the service speaks as.
func (s *Service) Profile() companion.Profile {
	return s.profile
}

// Respond runs the full pipeline. Errors other than ErrMessageRequired are
// *Failure values.
func (s *Service) Respond(ctx context.Context, req chat.Request) (chat.Reply, error) {
	start := time.Now()

	plan, err := s.Prepare(ctx, req)
	if err != nil {
		return chat.Reply{}, err
	}

	text, err := s.Generate(ctx, plan)
	if err != nil {
		return chat.Reply{}, err
	}

	reply := s.Finish(ctx, plan, text)
	s.log.WithFields(logrus.Fields{
		"crisis":    reply.IsCrisis,
		"intensity": reply.EmotionAnalysis.Intensity,
		"sentiment": reply.EmotionAnalysis.Sentiment,
		"degraded":  plan.Degraded,
		"duration":  time.Since(start).String(),
	}).Info("chat turn completed")
	return reply, nil
}

// Prepare scans for crisis keywords, classifies the message and selects the
// system prompt.
//
// A rate limited or exhausted classifier ends the turn, except when the
// message matched a crisis keyword. Then the crisis protocol wins over the
// upstream status and the reply is generated from the fallback analysis.
func (s *Service) Prepare(ctx context.Context, req chat.Request) (Plan, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Plan{}, ErrMessageRequired
	}

	plan := Plan{
		Message: message,
		UserID:  strings.TrimSpace(req.UserID),
		History: req.Context,
	}

	matches := crisis.Matches(message)
	plan.Crisis = len(matches) > 0
	entry := s.log.WithField("message_length", len(message))
	if plan.Crisis {
		entry.WithField("matches", len(matches)).Warn("crisis keywords detected")
	}

	analysis, err := s.classifier.Classify(ctx, message, plan.Crisis)
	if err != nil {
		var upstream *llm.UpstreamError
		isUpstream := errors.As(err, &upstream)
		// Outside a crisis, rate limiting and exhausted quota end the turn.
		if !plan.Crisis && isUpstream && upstream.Kind != llm.Unavailable {
			entry.WithError(err).Warn("classifier rejected by upstream")
			return Plan{}, &Failure{
				Stage:    StageClassify,
				Kind:     kindOf(upstream.Kind),
				Response: apology(kindOf(upstream.Kind)),
				Err:      err,
			}
		}
		entry.WithError(err).WithField("timeout", isUpstream && upstream.Timeout).
			Warn("classifier failed, using fallback analysis")
		analysis = mood.Fallback(plan.Crisis)
		plan.Degraded = true
	}

	if plan.Crisis {
		analysis.CrisisLevel = mood.CrisisHigh
	}
	if analysis.CrisisLevel == mood.CrisisHigh {
		plan.Crisis = true
	}
	plan.Analysis = analysis
	plan.SystemPrompt = ai.SelectPrompt(s.profile, plan.Crisis, analysis)
	return plan, nil
}

// Generate produces the whole reply for plan. Errors are *Failure values.
func (s *Service) Generate(ctx context.Context, plan Plan) (string, error) {
	text, err := s.generator.Generate(ctx, plan.SystemPrompt, plan.History, plan.Message)
	if err != nil {
		return "", s.GenerationFailure(plan, err)
	}
	return text, nil
}

// Stream starts a streamed reply for plan. Errors are *Failure values.
func (s *Service) Stream(ctx context.Context, plan Plan) (*schema.StreamReader[*schema.Message], error) {
	sr, err := s.generator.Stream(ctx, plan.SystemPrompt, plan.History, plan.Message)
	if err != nil {
		return nil, s.GenerationFailure(plan, err)
	}
	return sr, nil
}

// Finish turns the generated text into the reply and schedules the mood
// entry. Crisis replies always carry helpline numbers.
func (s *Service) Finish(ctx context.Context, plan Plan, text string) chat.Reply {
	if plan.Crisis {
		text = ai.EnsureHelplines(text)
	}
	if s.sink != nil {
		s.sink.PersistIfWarranted(ctx, plan.UserID, plan.Analysis)
	}
	return chat.Reply{
		Response:        text,
		EmotionAnalysis: plan.Analysis,
		IsCrisis:        plan.Crisis,
	}
}

// GenerationFailure converts a generation error into a *Failure. During a
// crisis the safe response is the static crisis message.
func (s *Service) GenerationFailure(plan Plan, err error) *Failure {
	kind := FailureInternal
	timeout := false
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		kind = kindOf(upstream.Kind)
		timeout = upstream.Timeout
	}

	f := &Failure{
		Stage:    StageGenerate,
		Kind:     kind,
		IsCrisis: plan.Crisis,
		Response: apology(kind),
		Err:      err,
	}
	if plan.Crisis {
		f.Response = ai.CrisisMessage(s.profile)
	}

	s.log.WithError(err).WithFields(logrus.Fields{
		"kind":    kind.String(),
		"crisis":  plan.Crisis,
		"timeout": timeout,
	}).Error("reply generation failed")
	return f
}
