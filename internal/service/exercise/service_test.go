package exercise_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/zenora/backend/internal/model/exercise"
	"github.com/zhouzirui/zenora/backend/internal/service/exercise"
	"github.com/zhouzirui/zenora/backend/internal/store"
	"github.com/zhouzirui/zenora/backend/internal/store/db/memory"
)

type brokenRepo struct{}

func (brokenRepo) CreateExerciseSession(context.Context, *model.Session) (*model.Session, error) {
	return nil, errors.New("disk full")
}

func TestStart(t *testing.T) {
	db := memory.NewDB()
	svc := exercise.NewService(store.New(db))

	session, err := svc.Start(context.Background(), exercise.StartRequest{
		ExerciseName:    " Box Breathing ",
		DurationMinutes: 5,
		XP:              20,
		UserID:          "user-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Box Breathing", session.ExerciseName)
	assert.Equal(t, model.StatusStarted, session.Status)
	assert.Equal(t, 20, session.XPEarned)
	assert.False(t, session.StartedAt.IsZero())

	stored := db.ExerciseSessions()
	require.Len(t, stored, 1)
	assert.Equal(t, session.ID, stored[0].ID)
}

func TestStartValidation(t *testing.T) {
	svc := exercise.NewService(store.New(memory.NewDB()))
	ctx := context.Background()

	_, err := svc.Start(ctx, exercise.StartRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, exercise.ErrNameRequired)

	_, err = svc.Start(ctx, exercise.StartRequest{ExerciseName: "Body Scan"})
	assert.ErrorIs(t, err, exercise.ErrUserRequired)

	_, err = svc.Start(ctx, exercise.StartRequest{ExerciseName: "Body Scan", UserID: "user-1", XP: -1})
	assert.ErrorIs(t, err, exercise.ErrInvalidValue)
}

func TestStartRepositoryFailure(t *testing.T) {
	svc := exercise.NewService(brokenRepo{})

	_, err := svc.Start(context.Background(), exercise.StartRequest{ExerciseName: "Body Scan", UserID: "user-1"})
	assert.ErrorContains(t, err, "disk full")
}

func TestStartedMessage(t *testing.T) {
	assert.Equal(t, "Started Box Breathing exercise!", exercise.StartedMessage("Box Breathing"))
}
