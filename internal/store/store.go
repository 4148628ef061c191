// Package store persists the rows the backend writes: mood entries derived
// from chat turns and started exercise sessions.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/zenora/backend/internal/model/exercise"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
)

// DefaultListLimit caps ListMoodEntries when no limit is given.
const DefaultListLimit = 30

// ErrUserRequired is returned when a row has no owner.
var ErrUserRequired = errors.New("user id is required")

// FindMoodEntry filters ListMoodEntries. Results are newest first.
type FindMoodEntry struct {
	UserID string
	Limit  int
}

// Driver is implemented by each database backend.
type Driver interface {
	Migrate(ctx context.Context) error
	CreateMoodEntry(ctx context.Context, create *mood.Record) (*mood.Record, error)
	ListMoodEntries(ctx context.Context, find *FindMoodEntry) ([]*mood.Record, error)
	CreateExerciseSession(ctx context.Context, create *exercise.Session) (*exercise.Session, error)
	Close() error
}

// Store fronts a Driver, filling ids and timestamps.
type Store struct {
	driver Driver
	now    func() time.Time
}

// New wraps driver.
func New(driver Driver) *Store {
	return &Store{driver: driver, now: time.Now}
}

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// CreateMoodEntry inserts a mood entry.
func (s *Store) CreateMoodEntry(ctx context.Context, create *mood.Record) (*mood.Record, error) {
	if strings.TrimSpace(create.UserID) == "" {
		return nil, ErrUserRequired
	}
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedAt.IsZero() {
		create.CreatedAt = s.now().UTC()
	}
	return s.driver.CreateMoodEntry(ctx, create)
}

// ListMoodEntries returns a user's most recent mood entries.
func (s *Store) ListMoodEntries(ctx context.Context, find *FindMoodEntry) ([]*mood.Record, error) {
	if strings.TrimSpace(find.UserID) == "" {
		return nil, ErrUserRequired
	}
	if find.Limit <= 0 {
		find.Limit = DefaultListLimit
	}
	return s.driver.ListMoodEntries(ctx, find)
}

// CreateExerciseSession inserts an exercise session.
func (s *Store) CreateExerciseSession(ctx context.Context, create *exercise.Session) (*exercise.Session, error) {
	if strings.TrimSpace(create.UserID) == "" {
		return nil, ErrUserRequired
	}
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.StartedAt.IsZero() {
		create.StartedAt = s.now().UTC()
	}
	return s.driver.CreateExerciseSession(ctx, create)
}

// Close releases the driver.
func (s *Store) Close() error {
	return s.driver.Close()
}
