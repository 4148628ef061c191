package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/zhouzirui/zenora/backend/internal/model/exercise"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
	"github.com/zhouzirui/zenora/backend/internal/store"
)

// DB is the SQLite driver. Timestamps are unix milliseconds.
type DB struct {
	db *sql.DB
}

var _ store.Driver = (*DB)(nil)

// NewDB opens the database file at dsn.
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mood_entries (
			id           TEXT    PRIMARY KEY,
			user_id      TEXT    NOT NULL,
			mood         TEXT    NOT NULL,
			energy_level INTEGER NOT NULL,
			stress_level INTEGER NOT NULL,
			notes        TEXT    NOT NULL DEFAULT '',
			created_ts   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_entries_user ON mood_entries(user_id, created_ts)`,
		`CREATE TABLE IF NOT EXISTS exercise_sessions (
			id               TEXT    PRIMARY KEY,
			user_id          TEXT    NOT NULL,
			exercise_name    TEXT    NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			xp_earned        INTEGER NOT NULL DEFAULT 0,
			status           TEXT    NOT NULL,
			started_ts       INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) CreateMoodEntry(ctx context.Context, create *mood.Record) (*mood.Record, error) {
	stmt := `INSERT INTO mood_entries (id, user_id, mood, energy_level, stress_level, notes, created_ts)
	         VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.UserID, create.Mood, create.EnergyLevel, create.StressLevel, create.Notes,
		create.CreatedAt.UnixMilli(),
	); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListMoodEntries(ctx context.Context, find *store.FindMoodEntry) ([]*mood.Record, error) {
	query := `SELECT id, user_id, mood, energy_level, stress_level, notes, created_ts
	          FROM mood_entries WHERE user_id = ? ORDER BY created_ts DESC, rowid DESC LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, find.UserID, find.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*mood.Record
	for rows.Next() {
		r := &mood.Record{}
		var createdTs int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Mood, &r.EnergyLevel, &r.StressLevel, &r.Notes, &createdTs); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdTs).UTC()
		list = append(list, r)
	}
	return list, rows.Err()
}

func (d *DB) CreateExerciseSession(ctx context.Context, create *exercise.Session) (*exercise.Session, error) {
	stmt := `INSERT INTO exercise_sessions (id, user_id, exercise_name, duration_minutes, xp_earned, status, started_ts)
	         VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.UserID, create.ExerciseName, create.DurationMinutes, create.XPEarned, create.Status,
		create.StartedAt.UnixMilli(),
	); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
