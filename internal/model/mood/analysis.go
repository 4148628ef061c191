package mood

import "strings"

// Sentiment is the coarse polarity of a user message.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// CrisisLevel grades the self-harm risk suggested by a message.
type CrisisLevel string

const (
	CrisisNone   CrisisLevel = "none"
	CrisisLow    CrisisLevel = "low"
	CrisisMedium CrisisLevel = "medium"
	CrisisHigh   CrisisLevel = "high"
)

const (
	MinIntensity     = 1
	MaxIntensity     = 10
	DefaultIntensity = 5
)

// Analysis is the per-message affect classification returned to the client.
type Analysis struct {
	Sentiment   Sentiment   `json:"sentiment" jsonschema:"enum=positive,enum=neutral,enum=negative"`
	Emotions    []string    `json:"emotions" jsonschema:"description=Short lower-case emotion labels such as sad or anxious or hopeful"`
	Intensity   int         `json:"intensity" jsonschema:"minimum=1,maximum=10"`
	CrisisLevel CrisisLevel `json:"crisis_level" jsonschema:"enum=none,enum=low,enum=medium,enum=high"`
}

// Fallback is used whenever the classifier reply cannot be trusted.
func Fallback(crisis bool) Analysis {
	a := Analysis{
		Sentiment:   Neutral,
		Emotions:    []string{},
		Intensity:   DefaultIntensity,
		CrisisLevel: CrisisNone,
	}
	if crisis {
		a.CrisisLevel = CrisisHigh
	}
	return a
}

// Normalize coerces model output into the closed value sets. A keyword
// detector hit always wins over the model's own crisis grading.
func (a Analysis) Normalize(crisis bool) Analysis {
	out := Analysis{
		Sentiment:   ParseSentiment(string(a.Sentiment)),
		Emotions:    cleanEmotions(a.Emotions),
		Intensity:   ClampIntensity(a.Intensity),
		CrisisLevel: ParseCrisisLevel(string(a.CrisisLevel)),
	}
	if crisis {
		out.CrisisLevel = CrisisHigh
	}
	return out
}

// ParseSentiment maps free text onto a Sentiment, defaulting to neutral.
func ParseSentiment(raw string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case Positive:
		return Positive
	case Negative:
		return Negative
	default:
		return Neutral
	}
}

// ParseCrisisLevel maps free text onto a CrisisLevel, defaulting to none.
func ParseCrisisLevel(raw string) CrisisLevel {
	switch CrisisLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case CrisisLow:
		return CrisisLow
	case CrisisMedium:
		return CrisisMedium
	case CrisisHigh:
		return CrisisHigh
	default:
		return CrisisNone
	}
}

// ClampIntensity keeps intensity inside 1..10; a missing value becomes 5.
func ClampIntensity(v int) int {
	switch {
	case v <= 0:
		return DefaultIntensity
	case v > MaxIntensity:
		return MaxIntensity
	default:
		return v
	}
}

func cleanEmotions(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
