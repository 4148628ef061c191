// Package exercise records the start of guided breathing and meditation
// sessions.
package exercise

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/model/exercise"
)

var (
	ErrNameRequired = errors.New("exercise name is required")
	ErrUserRequired = errors.New("user id is required")
	ErrInvalidValue = errors.New("duration and xp must not be negative")
)

// Repository persists exercise sessions.
type Repository interface {
	CreateExerciseSession(ctx context.Context, create *exercise.Session) (*exercise.Session, error)
}

// StartRequest is the body of POST /api/start-exercise.
type StartRequest struct {
	ExerciseName    string `json:"exerciseName"`
	DurationMinutes int    `json:"duration"`
	XP              int    `json:"xp"`
	UserID          string `json:"userId"`
}

// Service starts exercise sessions.
type Service struct {
	repo Repository
	log  *logrus.Entry
}

// NewService returns a service writing to repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logrus.WithField("component", "exercise")}
}

// Start validates req and stores a started session.
func (s *Service) Start(ctx context.Context, req StartRequest) (*exercise.Session, error) {
	name := strings.TrimSpace(req.ExerciseName)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrUserRequired
	}
	if req.DurationMinutes < 0 || req.XP < 0 {
		return nil, ErrInvalidValue
	}

	session, err := s.repo.CreateExerciseSession(ctx, &exercise.Session{
		UserID:          strings.TrimSpace(req.UserID),
		ExerciseName:    name,
		DurationMinutes: req.DurationMinutes,
		XPEarned:        req.XP,
		Status:          exercise.StatusStarted,
	})
	if err != nil {
		return nil, fmt.Errorf("create exercise session: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"session":  session.ID,
		"exercise": session.ExerciseName,
		"duration": session.DurationMinutes,
	}).Info("exercise session started")
	return session, nil
}

// StartedMessage is the confirmation shown to the user.
func StartedMessage(name string) string {
	return fmt.Sprintf("Started %s exercise!", strings.TrimSpace(name))
}
