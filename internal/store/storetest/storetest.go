// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/zenora/backend/internal/model/exercise"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
	"github.com/zhouzirui/zenora/backend/internal/store"
)

// Run exercises driver through the Store facade. driver must be empty.
func Run(t *testing.T, driver store.Driver) {
	t.Helper()
	ctx := context.Background()
	s := store.New(driver)
	require.NoError(t, s.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, s.Migrate(ctx))

	t.Run("mood entries", func(t *testing.T) {
		base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		for i, intensity := range []int{6, 8, 9} {
			rec := mood.Derive("user-1", mood.Analysis{
				Sentiment: mood.Negative,
				Emotions:  []string{"anxious"},
				Intensity: intensity,
			}, base.Add(time.Duration(i)*time.Minute))
			created, err := s.CreateMoodEntry(ctx, &rec)
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
		}
		other := mood.Derive("user-2", mood.Analysis{Sentiment: mood.Positive, Intensity: 7}, base)
		_, err := s.CreateMoodEntry(ctx, &other)
		require.NoError(t, err)

		list, err := s.ListMoodEntries(ctx, &store.FindMoodEntry{UserID: "user-1", Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 9, list[0].StressLevel)
		assert.Equal(t, 1, list[0].EnergyLevel)
		assert.Equal(t, 8, list[1].StressLevel)
		assert.Equal(t, "negative", list[0].Mood)
		assert.Equal(t, "Auto-detected from chat: anxious", list[0].Notes)
		assert.True(t, list[0].CreatedAt.Equal(base.Add(2*time.Minute)))

		list, err = s.ListMoodEntries(ctx, &store.FindMoodEntry{UserID: "user-1"})
		require.NoError(t, err)
		assert.Len(t, list, 3)

		list, err = s.ListMoodEntries(ctx, &store.FindMoodEntry{UserID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("exercise sessions", func(t *testing.T) {
		created, err := s.CreateExerciseSession(ctx, &exercise.Session{
			UserID:          "user-1",
			ExerciseName:    "Box Breathing",
			DurationMinutes: 5,
			XPEarned:        20,
			Status:          exercise.StatusStarted,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.StartedAt.IsZero())
	})

	t.Run("owner required", func(t *testing.T) {
		_, err := s.CreateMoodEntry(ctx, &mood.Record{Mood: "neutral"})
		assert.ErrorIs(t, err, store.ErrUserRequired)
		_, err = s.CreateExerciseSession(ctx, &exercise.Session{ExerciseName: "x"})
		assert.ErrorIs(t, err, store.ErrUserRequired)
		_, err = s.ListMoodEntries(ctx, &store.FindMoodEntry{})
		assert.ErrorIs(t, err, store.ErrUserRequired)
	})

	require.NoError(t, s.Close())
}
