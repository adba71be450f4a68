// Package store records extraction sessions and their captures in a SQLite
// database, so a scanning project spread over many runs keeps an index of
// what was digitized when, from where, and with which settings.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session is one extraction run.
type Session struct {
	ID               string
	InputPath        string
	OutputPath       string
	MetricMode       string
	PrimingThreshold float64
	CaptureThreshold float64
	FramesProcessed  int
	CaptureCount     int
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// Capture is one emitted slide within a session.
type Capture struct {
	SessionID   string
	Ordinal     int
	SourceFrame int
	Metric      float64
	Path        string
}

// Store wraps the capture database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open capture database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// BeginSession inserts a new session row and returns its generated ID.
func (s *Store) BeginSession(sess *Session) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO sessions (
			session_id, input_path, output_path, metric_mode,
			priming_threshold, capture_threshold
		) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sess.InputPath, sess.OutputPath, sess.MetricMode,
		sess.PrimingThreshold, sess.CaptureThreshold,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	sess.ID = id
	return id, nil
}

// FinishSession records final counters and the completion time.
func (s *Store) FinishSession(id string, framesProcessed, captureCount int) error {
	res, err := s.db.Exec(`
		UPDATE sessions
		SET frames_processed = ?, capture_count = ?, finished_at = CURRENT_TIMESTAMP
		WHERE session_id = ?`,
		framesProcessed, captureCount, id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish session: no session %s", id)
	}
	return nil
}

// RecordCapture inserts one capture row.
func (s *Store) RecordCapture(c *Capture) error {
	_, err := s.db.Exec(`
		INSERT INTO captures (session_id, ordinal, source_frame, metric, path)
		VALUES (?, ?, ?, ?, ?)`,
		c.SessionID, c.Ordinal, c.SourceFrame, c.Metric, c.Path,
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

// GetSession loads one session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT session_id, input_path, output_path, metric_mode,
		       priming_threshold, capture_threshold,
		       frames_processed, capture_count, started_at, finished_at
		FROM sessions WHERE session_id = ?`, id)

	var sess Session
	var finished sql.NullTime
	err := row.Scan(
		&sess.ID, &sess.InputPath, &sess.OutputPath, &sess.MetricMode,
		&sess.PrimingThreshold, &sess.CaptureThreshold,
		&sess.FramesProcessed, &sess.CaptureCount, &sess.StartedAt, &finished,
	)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if finished.Valid {
		sess.FinishedAt = &finished.Time
	}
	return &sess, nil
}

// ListCaptures returns a session's captures in emission order.
func (s *Store) ListCaptures(sessionID string) ([]Capture, error) {
	rows, err := s.db.Query(`
		SELECT session_id, ordinal, source_frame, metric, path
		FROM captures WHERE session_id = ? ORDER BY ordinal`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.SessionID, &c.Ordinal, &c.SourceFrame, &c.Metric, &c.Path); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}
