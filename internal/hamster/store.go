// Package hamster reads facts from a Hamster time tracker SQLite database.
//
// The store is opened read-only unless Writable is given; only the
// "stop current activity" operation ever writes.
package hamster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Tiliavir/gitlab-time-sync/internal/model"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// ErrNoRunningActivity is returned by StopCurrent when every fact is closed.
var ErrNoRunningActivity = errors.New("no running activity")

// Timestamps are cast to TEXT so the driver hands back the stored value
// instead of converting TIMESTAMP columns itself; malformed values then fail
// in toActivity.
const selectFacts = `
	SELECT
		activities.name,
		COALESCE(categories.name, ''),
		CAST(facts.start_time AS TEXT),
		CAST(facts.end_time AS TEXT),
		facts.description
	FROM activities
	JOIN facts ON activities.id = facts.activity_id
	LEFT JOIN categories ON activities.category_id = categories.id`

// Store is a handle on a Hamster database.
type Store struct {
	db       *sql.DB
	path     string
	loc      *time.Location
	writable bool
	log      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// Writable opens the database read-write.
func Writable() Option {
	return func(s *Store) { s.writable = true }
}

// WithLocation sets the zone timestamps are interpreted in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Open opens the Hamster database at path. The file must already exist.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{loc: time.Local, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	s.path = expanded

	if _, err := os.Stat(expanded); err != nil {
		return nil, fmt.Errorf("hamster database %s: %w", expanded, err)
	}

	mode := "ro"
	if s.writable {
		mode = "rw"
	}
	dsn := fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(5000)", expanded, mode)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening hamster database %s: %w", expanded, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening hamster database %s: %w", expanded, err)
	}
	s.db = db

	s.log.Debug("hamster database opened", "path", expanded, "mode", mode)
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchDay returns every fact whose start timestamp contains the day's
// YYYY-MM-DD text, ordered by start time.
func (s *Store) FetchDay(ctx context.Context, day time.Time) ([]model.Activity, error) {
	pattern := "%" + day.Format(timecalc.DayLayout) + "%"
	query := selectFacts + `
	WHERE facts.start_time LIKE ?
	ORDER BY facts.start_time`

	rows, err := s.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("hamster: querying facts for %s: %w", day.Format(timecalc.DayLayout), err)
	}
	defer rows.Close()

	activities, err := s.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("hamster: reading facts for %s: %w", day.Format(timecalc.DayLayout), err)
	}
	s.log.Debug("fetched facts", "date", day.Format(timecalc.DayLayout), "count", len(activities))
	return activities, nil
}

// Current returns the most recently started running fact, or nil.
func (s *Store) Current(ctx context.Context) (*model.Activity, error) {
	query := selectFacts + `
	WHERE facts.end_time IS NULL
	ORDER BY facts.start_time DESC
	LIMIT 1`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("hamster: querying running fact: %w", err)
	}
	defer rows.Close()

	activities, err := s.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("hamster: reading running fact: %w", err)
	}
	if len(activities) == 0 {
		return nil, nil
	}
	return &activities[0], nil
}

// StopCurrent closes the most recently started running fact at the given
// time and returns it with End set.
func (s *Store) StopCurrent(ctx context.Context, at time.Time) (*model.Activity, error) {
	if !s.writable {
		return nil, errors.New("hamster: store opened read-only")
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoRunningActivity
	}

	end := at.In(s.loc)
	res, err := s.db.ExecContext(ctx, `
		UPDATE facts SET end_time = ?
		WHERE id = (
			SELECT id FROM facts
			WHERE end_time IS NULL
			ORDER BY start_time DESC
			LIMIT 1
		)`, end.Format(timecalc.DBTimestampLayout))
	if err != nil {
		return nil, fmt.Errorf("hamster: stopping running fact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNoRunningActivity
	}

	current.End = &end
	s.log.Info("stopped running fact", "label", current.Label, "end", end.Format(timecalc.DBTimestampLayout))
	return current, nil
}

func (s *Store) scan(rows *sql.Rows) ([]model.Activity, error) {
	var activities []model.Activity
	for rows.Next() {
		var (
			label, category string
			start           sql.NullString
			end             sql.NullString
			note            sql.NullString
		)
		if err := rows.Scan(&label, &category, &start, &end, &note); err != nil {
			return nil, err
		}

		a, err := s.toActivity(label, category, start, end, note)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// toActivity validates a raw row. A missing or malformed start time means
// the database is damaged and is reported as an error.
func (s *Store) toActivity(label, category string, start, end, note sql.NullString) (model.Activity, error) {
	if !start.Valid {
		return model.Activity{}, fmt.Errorf("fact %q has no start time", label)
	}
	startT, err := time.ParseInLocation(timecalc.DBTimestampLayout, start.String, s.loc)
	if err != nil {
		return model.Activity{}, fmt.Errorf("fact %q: invalid start time %q: %w", label, start.String, err)
	}

	a := model.Activity{Label: label, Category: category, Start: startT}
	if end.Valid {
		endT, err := time.ParseInLocation(timecalc.DBTimestampLayout, end.String, s.loc)
		if err != nil {
			return model.Activity{}, fmt.Errorf("fact %q: invalid end time %q: %w", label, end.String, err)
		}
		a.End = &endT
	}
	if note.Valid && note.String != "" {
		n := note.String
		a.Note = &n
	}
	return a, nil
}
