// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package analytics

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"grimm.is/yamato/internal/errors"
)

// Store archives connection events to SQLite so reports can span runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the event archive.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to open event archive"), "db", path)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to initialize event archive"), "db", path)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS connect_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		recorded_at INTEGER NOT NULL, -- Unix timestamp
		log_time TEXT,
		port TEXT NOT NULL,
		pid TEXT NOT NULL,
		destination TEXT NOT NULL,
		kind TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_connect_events_run ON connect_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_connect_events_dest ON connect_events(destination);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordEvents stores a batch of events under runID in one transaction.
func (s *Store) RecordEvents(runID string, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "failed to begin archive transaction")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO connect_events (run_id, recorded_at, log_time, port, pid, destination, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, errors.KindInternal, "failed to prepare archive insert")
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, e := range events {
		if _, err := stmt.Exec(runID, now, e.Time, e.Port, e.PID, e.Destination, e.Kind.String()); err != nil {
			tx.Rollback()
			return errors.Wrap(err, errors.KindInternal, "failed to archive event")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.KindInternal, "failed to commit archive transaction")
	}
	return nil
}

// CountEvents returns how many events were archived for runID, or across
// all runs when runID is empty.
func (s *Store) CountEvents(runID string) (int, error) {
	query := "SELECT COUNT(*) FROM connect_events"
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.KindInternal, "failed to count archived events")
	}
	return n, nil
}

// TopDestinations returns the most requested destinations across all runs.
func (s *Store) TopDestinations(limit int) ([]FrequencyEntry, error) {
	rows, err := s.db.Query(`
		SELECT destination, COUNT(*)
		FROM connect_events
		GROUP BY destination
		ORDER BY COUNT(*) DESC, destination ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "failed to query archive")
	}
	defer rows.Close()

	var result []FrequencyEntry
	for rows.Next() {
		var e FrequencyEntry
		if err := rows.Scan(&e.Key, &e.Count); err != nil {
			return nil, errors.Wrap(err, errors.KindInternal, "failed to read archive row")
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
