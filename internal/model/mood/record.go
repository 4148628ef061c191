package mood

import (
	"fmt"
	"strings"
	"time"
)

// DefaultThreshold is the intensity at which a chat turn leaves a mood entry.
const DefaultThreshold = 6

// Record mirrors a mood_entries row.
type Record struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Mood        string    `json:"mood"`
	EnergyLevel int       `json:"energyLevel"`
	StressLevel int       `json:"stressLevel"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Warranted reports whether a chat turn should leave a mood entry.
func Warranted(userID string, a Analysis, threshold int) bool {
	if strings.TrimSpace(userID) == "" {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return a.Intensity >= threshold
}

// Derive builds the mood entry for an analysis. Energy falls as intensity
// rises and never drops below 1; stress equals intensity.
func Derive(userID string, a Analysis, now time.Time) Record {
	return Record{
		UserID:      strings.TrimSpace(userID),
		Mood:        string(a.Sentiment),
		EnergyLevel: max(1, 10-a.Intensity),
		StressLevel: a.Intensity,
		Notes:       fmt.Sprintf("Auto-detected from chat: %s", strings.Join(a.Emotions, ", ")),
		CreatedAt:   now.UTC(),
	}
}
