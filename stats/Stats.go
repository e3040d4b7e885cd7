// Package stats persists completed episode outcomes to a local sqlite
// database so that runs can be inspected after the fact
package stats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id             TEXT PRIMARY KEY,
	ended_at       TIMESTAMP NOT NULL,
	steps          INTEGER NOT NULL,
	episode_return REAL NOT NULL,
	success        INTEGER NOT NULL,
	timeout        INTEGER NOT NULL,
	out_of_bounds  INTEGER NOT NULL,
	collision      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_ended_at ON episodes (ended_at);
`

// Episode is one completed episode's outcome
type Episode struct {
	ID          string    `db:"id"`
	EndedAt     time.Time `db:"ended_at"`
	Steps       int       `db:"steps"`
	Return      float64   `db:"episode_return"`
	Success     bool      `db:"success"`
	Timeout     bool      `db:"timeout"`
	OutOfBounds bool      `db:"out_of_bounds"`
	Collision   bool      `db:"collision"`
}

// Store is a sqlite-backed episode outcome store
type Store struct {
	db *sqlx.DB
}

// Open opens the store at path, creating the database and its schema
// if needed
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %v: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEpisode inserts one completed episode. An empty id is filled
// with a fresh one.
func (s *Store) RecordEpisode(ep Episode) error {
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	_, err := s.db.NamedExec(`INSERT INTO episodes
		(id, ended_at, steps, episode_return, success, timeout,
		 out_of_bounds, collision)
		VALUES (:id, :ended_at, :steps, :episode_return, :success,
		 :timeout, :out_of_bounds, :collision)`, ep)
	if err != nil {
		return fmt.Errorf("stats: record episode: %w", err)
	}
	return nil
}

// Recent returns the n most recently ended episodes, newest first
func (s *Store) Recent(n int) ([]Episode, error) {
	var eps []Episode
	err := s.db.Select(&eps, `SELECT * FROM episodes
		ORDER BY ended_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("stats: query recent: %w", err)
	}
	return eps, nil
}

// Count returns the total number of recorded episodes
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM episodes`); err != nil {
		return 0, fmt.Errorf("stats: count: %w", err)
	}
	return n, nil
}
