// Package memory is the default in-process store driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zhouzirui/zenora/backend/internal/model/exercise"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
	"github.com/zhouzirui/zenora/backend/internal/store"
)

// DB keeps rows in memory. Contents are lost on restart.
type DB struct {
	mu        sync.RWMutex
	moods     []mood.Record
	exercises []exercise.Session
}

var _ store.Driver = (*DB)(nil)

// NewDB returns an empty store.
func NewDB() *DB {
	return &DB{}
}

func (d *DB) Migrate(context.Context) error { return nil }

func (d *DB) CreateMoodEntry(_ context.Context, create *mood.Record) (*mood.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moods = append(d.moods, *create)
	out := *create
	return &out, nil
}

func (d *DB) ListMoodEntries(_ context.Context, find *store.FindMoodEntry) ([]*mood.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var list []*mood.Record
	for i := len(d.moods) - 1; i >= 0; i-- {
		if d.moods[i].UserID != find.UserID {
			continue
		}
		rec := d.moods[i]
		list = append(list, &rec)
	}
	// Newest first; insertion order breaks ties.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if find.Limit > 0 && len(list) > find.Limit {
		list = list[:find.Limit]
	}
	return list, nil
}

func (d *DB) CreateExerciseSession(_ context.Context, create *exercise.Session) (*exercise.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exercises = append(d.exercises, *create)
	out := *create
	return &out, nil
}

// ExerciseSessions returns a copy of every stored session.
func (d *DB) ExerciseSessions() []exercise.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]exercise.Session, len(d.exercises))
	copy(out, d.exercises)
	return out
}

func (d *DB) Close() error { return nil }
