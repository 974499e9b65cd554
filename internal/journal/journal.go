// Package journal keeps a sqlite log of navigation transitions and worker
// launches so a viewer can resume where the last run left off.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Outcomes stored per transition.
const (
	OutcomeMoved    = "moved"
	OutcomeBoundary = "boundary"
)

// Journal records one viewer run. Scene tags every navigation event.
type Journal struct {
	Scene int
	RunID string
	Clock timeutil.Clock

	db *sql.DB
}

var _ navigation.Recorder = (*Journal)(nil)

// Open opens (creating if needed) the journal at path and applies pending
// migrations.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// one connection keeps :memory: databases coherent and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{
		RunID: uuid.NewString(),
		Clock: timeutil.RealClock{},
		db:    db,
	}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// m is not closed: that would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores one navigation transition.
func (j *Journal) Record(ctx context.Context, t navigation.Transition) error {
	outcome := OutcomeBoundary
	if t.Moved {
		outcome = OutcomeMoved
	}
	at := t.At
	if at.IsZero() {
		at = j.Clock.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO navigation_events
			(event_id, run_id, scene, event, from_token, to_token, outcome, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), j.RunID, j.Scene, t.Event.String(), t.From, t.To, outcome, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// Launch describes one worker process start, successful or not.
type Launch struct {
	Scene      int
	SensorType string
	WindowPos  string
	Token      string
	Pid        int
	Err        error
}

// RecordLaunch stores a worker launch.
func (j *Journal) RecordLaunch(ctx context.Context, l Launch) error {
	var (
		pid    sql.NullInt64
		errMsg sql.NullString
	)
	if l.Pid > 0 {
		pid = sql.NullInt64{Int64: int64(l.Pid), Valid: true}
	}
	if l.Err != nil {
		errMsg = sql.NullString{String: l.Err.Error(), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO worker_launches
			(launch_id, run_id, scene, sensor_type, window_pos, token, pid, error, launched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), j.RunID, l.Scene, l.SensorType, l.WindowPos, l.Token, pid, errMsg, j.Clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record launch: %w", err)
	}
	return nil
}

// LastToken returns the token the most recent transition in scene ended on.
// ok is false when the scene has no history.
func (j *Journal) LastToken(ctx context.Context, scene int) (token string, ok bool, err error) {
	err = j.db.QueryRowContext(ctx, `
		SELECT to_token FROM navigation_events
		WHERE scene = ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT 1`, scene).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query last token: %w", err)
	}
	return token, true, nil
}

// Entry is a stored navigation transition.
type Entry struct {
	ID      string
	RunID   string
	Scene   int
	Event   string
	From    string
	To      string
	Outcome string
	At      time.Time
}

// Recent returns up to limit transitions, newest first. A negative scene
// returns every scene.
func (j *Journal) Recent(ctx context.Context, scene, limit int) ([]Entry, error) {
	query := `
		SELECT event_id, run_id, scene, event, from_token, to_token, outcome, recorded_at
		FROM navigation_events`
	args := []any{}
	if scene >= 0 {
		query += ` WHERE scene = ?`
		args = append(args, scene)
	}
	query += ` ORDER BY recorded_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ns int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Scene, &e.Event, &e.From, &e.To, &e.Outcome, &ns); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		e.At = time.Unix(0, ns).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LaunchEntry is a stored worker launch.
type LaunchEntry struct {
	RunID      string
	Scene      int
	SensorType string
	WindowPos  string
	Token      string
	Pid        int
	Error      string
	At         time.Time
}

// RecentLaunches returns up to limit worker launches, newest first. A
// negative scene returns every scene.
func (j *Journal) RecentLaunches(ctx context.Context, scene, limit int) ([]LaunchEntry, error) {
	query := `
		SELECT run_id, scene, sensor_type, window_pos, token, pid, error, launched_at
		FROM worker_launches`
	args := []any{}
	if scene >= 0 {
		query += ` WHERE scene = ?`
		args = append(args, scene)
	}
	query += ` ORDER BY launched_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query launches: %w", err)
	}
	defer rows.Close()

	var out []LaunchEntry
	for rows.Next() {
		var (
			e      LaunchEntry
			pid    sql.NullInt64
			errMsg sql.NullString
			ns     int64
		)
		if err := rows.Scan(&e.RunID, &e.Scene, &e.SensorType, &e.WindowPos, &e.Token, &pid, &errMsg, &ns); err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		e.Pid = int(pid.Int64)
		e.Error = errMsg.String
		e.At = time.Unix(0, ns).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
