// Package mood records significant emotional states detected in chat as
// mood entries, without holding up the chat reply.
package mood

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	moodmodel "github.com/zhouzirui/zenora/backend/internal/model/mood"
)

// Repository is the slice of the store the sink needs.
type Repository interface {
	CreateMoodEntry(ctx context.Context, create *moodmodel.Record) (*moodmodel.Record, error)
}

// Config controls when and how entries are written.
type Config struct {
	// Threshold is the minimum intensity that leaves an entry.
	Threshold    int
	WriteTimeout time.Duration
}

// Sink writes mood entries in the background.
type Sink struct {
	repo Repository
	cfg  Config
	now  func() time.Time
	log  *logrus.Entry

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewSink returns a sink writing to repo.
func NewSink(repo Repository, cfg Config) *Sink {
	if cfg.Threshold <= 0 {
		cfg.Threshold = moodmodel.DefaultThreshold
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Sink{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
		log:  logrus.WithField("component", "mood"),
	}
}

// PersistIfWarranted schedules a mood entry for userID when the analysis is
// intense enough, and reports whether a write was scheduled. The write
// outlives ctx's cancellation and its failure is only logged.
func (s *Sink) PersistIfWarranted(ctx context.Context, userID string, a moodmodel.Analysis) bool {
	if s == nil || s.repo == nil {
		return false
	}
	if !moodmodel.Warranted(userID, a, s.cfg.Threshold) {
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Warn("sink closed, dropping mood entry")
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	rec := moodmodel.Derive(userID, a, s.now())
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)

	go func() {
		defer s.wg.Done()
		defer cancel()

		created, err := s.repo.CreateMoodEntry(writeCtx, &rec)
		if err != nil {
			s.log.WithError(err).WithField("intensity", a.Intensity).Error("failed to persist mood entry")
			return
		}
		s.log.WithFields(logrus.Fields{
			"entry":     created.ID,
			"intensity": a.Intensity,
		}).Debug("persisted mood entry")
	}()
	return true
}

// Wait blocks until every scheduled write has finished.
func (s *Sink) Wait() {
	s.wg.Wait()
}

// Close stops accepting writes and waits for pending ones until ctx ends.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
