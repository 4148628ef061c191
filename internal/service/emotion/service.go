// Package emotion asks the language model for a structured affect reading of
// a single user message.
package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/llm"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
)

// ErrModelRequired is returned by NewService without a chat model.
var ErrModelRequired = errors.New("emotion classifier requires a chat model")

// Config controls the classifier.
type Config struct {
	// Timeout bounds the upstream call. Zero means no extra bound.
	Timeout time.Duration
}

// Service classifies messages into mood.Analysis values.
type Service struct {
	model        model.BaseChatModel
	template     prompt.ChatTemplate
	instructions string
	timeout      time.Duration
	log          *logrus.Entry
}

// NewService builds a classifier on top of chatModel.
func NewService(chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	if chatModel == nil {
		return nil, ErrModelRequired
	}

	schemaJSON, err := analysisSchema()
	if err != nil {
		return nil, fmt.Errorf("reflect analysis schema: %w", err)
	}

	return &Service{
		model: chatModel,
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{instructions}"),
			schema.UserMessage("{message}"),
		),
		instructions: instructionPrompt + "\n\nJSON schema:\n" + schemaJSON,
		timeout:      cfg.Timeout,
		log:          logrus.WithField("component", "emotion"),
	}, nil
}

// Classify returns the affect reading of message. crisis forces the crisis
// level to high.
//
// A reply that cannot be parsed is not an error: the neutral fallback is
// returned instead. Transport failures are returned as *llm.UpstreamError
// together with the fallback so callers may choose to degrade.
func (s *Service) Classify(ctx context.Context, message string, crisis bool) (mood.Analysis, error) {
	msgs, err := s.template.Format(ctx, map[string]any{
		"instructions": s.instructions,
		"message":      message,
	})
	if err != nil {
		return mood.Fallback(crisis), fmt.Errorf("format classifier prompt: %w", err)
	}

	callCtx, cancel := llm.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.model.Generate(callCtx, msgs)
	if err != nil {
		return mood.Fallback(crisis), llm.Classify(err)
	}
	if reply == nil {
		s.log.Warn("classifier returned no message, using fallback")
		return mood.Fallback(crisis), nil
	}

	analysis, err := Parse(reply.Content, crisis)
	if err != nil {
		s.log.WithError(err).WithField("reply_length", len(reply.Content)).Warn("classifier reply unparsable, using fallback")
		return mood.Fallback(crisis), nil
	}
	return analysis, nil
}

// Parse extracts the outermost JSON object from content and normalises it.
func Parse(content string, crisis bool) (mood.Analysis, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return mood.Analysis{}, fmt.Errorf("missing json object")
	}

	var payload classifierPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return mood.Analysis{}, err
	}

	intensity, err := payload.intensity()
	if err != nil {
		return mood.Analysis{}, err
	}

	return mood.Analysis{
		Sentiment:   mood.Sentiment(payload.Sentiment),
		Emotions:    payload.Emotions,
		Intensity:   intensity,
		CrisisLevel: mood.CrisisLevel(payload.CrisisLevel),
	}.Normalize(crisis), nil
}

// classifierPayload is looser than mood.Analysis: models occasionally send
// intensity as a float or a quoted number.
type classifierPayload struct {
	Sentiment   string   `json:"sentiment"`
	Emotions    []string `json:"emotions"`
	Intensity   any      `json:"intensity"`
	CrisisLevel string   `json:"crisis_level"`
}

func (p classifierPayload) intensity() (int, error) {
	switch v := p.Intensity.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(math.Round(v)), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("intensity %q is not a number", v)
		}
		return int(math.Round(f)), nil
	default:
		return 0, fmt.Errorf("intensity has unexpected type %T", v)
	}
}

func analysisSchema() (string, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&mood.Analysis{})
	s.Version = ""
	s.ID = ""

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const instructionPrompt = `Analyze the emotional content of the user's message.
Return ONLY a JSON object matching the schema below, with no prose and no code fences.
- sentiment: positive, neutral or negative
- emotions: short lower-case labels such as sad, anxious, hopeful
- intensity: integer from 1 (barely felt) to 10 (overwhelming)
- crisis_level: none, low, medium or high, grading any sign of self-harm risk`
