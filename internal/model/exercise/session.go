package exercise

import "time"

// Status values stored on exercise_sessions rows.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

// Session mirrors an exercise_sessions row.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ExerciseName    string    `json:"exerciseName"`
	DurationMinutes int       `json:"durationMinutes"`
	XPEarned        int       `json:"xpEarned"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
}
