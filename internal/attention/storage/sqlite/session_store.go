package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/monitoring"
	"github.com/banshee-data/attention.report/internal/timeutil"
)

var (
	// ErrSessionNotFound is returned when no session has the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSessionID is returned for ids that are not UUIDs.
	ErrInvalidSessionID = errors.New("invalid session id")
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Session is one analysed video.
type Session struct {
	ID              string               `json:"session_id"`
	CreatedAt       int64                `json:"created_at"` // unix nanoseconds
	VideoFilename   string               `json:"video_filename"`
	DurationSeconds *float64             `json:"duration_seconds,omitempty"`
	FPS             *float64             `json:"fps,omitempty"`
	Status          Status               `json:"status"`
	Summary         *l5aggregate.Summary `json:"summary"`
	ArtifactsPath   string               `json:"artifacts_path,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// Completion is everything recorded when a session finishes successfully.
type Completion struct {
	Summary       l5aggregate.Summary
	Heatmap       []l5aggregate.HeatmapBin
	Events        []l5aggregate.ConfusionEvent
	Notes         []l5aggregate.Note
	Frames        []l4scoring.ScoredFrame
	ArtifactsPath string
	FPS           float64 // 0 stores NULL
}

// SessionStore provides persistence for sessions and their child records.
type SessionStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewSessionStore creates a SessionStore using the system clock.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for created_at and busy backoff.
func (s *SessionStore) SetClock(c timeutil.Clock) {
	s.clock = c
}

// Create inserts a new session in the created state.
func (s *SessionStore) Create(videoFilename string) (*Session, error) {
	sess := &Session{
		ID:            uuid.New().String(),
		CreatedAt:     s.clock.Now().UnixNano(),
		VideoFilename: videoFilename,
		Status:        StatusCreated,
	}
	err := retryOnBusy(s.clock, func() error {
		_, err := s.db.Exec(`
			INSERT INTO sessions (id, created_at, video_filename, status)
			VALUES (?, ?, ?, ?)`,
			sess.ID, sess.CreatedAt, sess.VideoFilename, string(sess.Status),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	monitoring.Logf("[store] created session %s for %q", sess.ID, videoFilename)
	return sess, nil
}

// MarkProcessing moves a created session to the processing state.
func (s *SessionStore) MarkProcessing(id string) error {
	if _, err := parseID(id); err != nil {
		return err
	}
	return retryOnBusy(s.clock, func() error {
		res, err := s.db.Exec(`UPDATE sessions SET status = ? WHERE id = ? AND status = ?`,
			string(StatusProcessing), id, string(StatusCreated))
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			if _, err := s.Get(id); err != nil {
				return err
			}
			return fmt.Errorf("session %s is not in the %s state", id, StatusCreated)
		}
		return nil
	})
}

// Complete records the child rows and marks the session completed, in one
// transaction.
func (s *SessionStore) Complete(id string, c Completion) error {
	if _, err := parseID(id); err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(c.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	err = retryOnBusy(s.clock, func() error {
		return s.inTx(func(tx *sql.Tx) error {
			if err := insertChildren(tx, id, c); err != nil {
				return err
			}
			res, err := tx.Exec(`
				UPDATE sessions
				SET status = ?, summary_json = ?, artifacts_path = ?, duration_seconds = ?, fps = ?,
				    error_message = NULL
				WHERE id = ?`,
				string(StatusCompleted), string(summaryJSON), nullString(c.ArtifactsPath),
				c.Summary.DurationSeconds, nullFloat(c.FPS), id,
			)
			if err != nil {
				return fmt.Errorf("update session: %w", err)
			}
			return requireAffected(res, id)
		})
	})
	if err != nil {
		return err
	}
	monitoring.Logf("[store] session %s completed: %d events, %d bins, %d notes",
		id, len(c.Events), len(c.Heatmap), len(c.Notes))
	return nil
}

func insertChildren(tx *sql.Tx, id string, c Completion) error {
	for _, ev := range c.Events {
		if _, err := tx.Exec(`
			INSERT INTO confusion_events (session_id, start_ts, end_ts, score)
			VALUES (?, ?, ?, ?)`, id, ev.Start, ev.End, ev.Score); err != nil {
			return fmt.Errorf("insert confusion event: %w", err)
		}
	}
	for _, b := range c.Heatmap {
		if _, err := tx.Exec(`
			INSERT INTO heatmap_bins (session_id, bucket_start, bucket_end, avg_engagement)
			VALUES (?, ?, ?, ?)`, id, b.Start, b.End, b.AvgEngagement); err != nil {
			return fmt.Errorf("insert heatmap bin: %w", err)
		}
	}
	for _, n := range c.Notes {
		var source interface{}
		if n.SourceSegment != nil {
			source = *n.SourceSegment
		}
		if _, err := tx.Exec(`
			INSERT INTO notes (session_id, timestamp, text, source_segment, score)
			VALUES (?, ?, ?, ?, ?)`, id, n.Timestamp, n.Text, source, n.Score); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
	}
	if len(c.Frames) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO scored_frames (
			session_id, frame_index, timestamp, yaw, pitch, roll, gaze_x, gaze_y,
			blink, mouth_open, face_confidence, engagement, confusion
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare frame insert: %w", err)
	}
	defer stmt.Close()
	for i, f := range c.Frames {
		if _, err := stmt.Exec(id, i, f.Timestamp, f.Yaw, f.Pitch, f.Roll, f.GazeX, f.GazeY,
			f.Blink, f.MouthOpen, f.FaceConfidence, f.Engagement, f.Confusion); err != nil {
			return fmt.Errorf("insert frame %d: %w", i, err)
		}
	}
	return nil
}

// Fail marks the session failed and stores the cause.
func (s *SessionStore) Fail(id string, cause error) error {
	if _, err := parseID(id); err != nil {
		return err
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	err := retryOnBusy(s.clock, func() error {
		res, err := s.db.Exec(`UPDATE sessions SET status = ?, error_message = ? WHERE id = ?`,
			string(StatusFailed), nullString(msg), id)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return requireAffected(res, id)
	})
	if err != nil {
		return err
	}
	monitoring.Logf("[store] session %s failed: %s", id, msg)
	return nil
}

// Get returns a session by id.
func (s *SessionStore) Get(id string) (*Session, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`
		SELECT id, created_at, video_filename, duration_seconds, fps, status,
		       summary_json, artifacts_path, error_message
		FROM sessions
		WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, err
}

// List returns the most recent sessions, newest first. limit <= 0 means all.
func (s *SessionStore) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, video_filename, duration_seconds, fps, status,
		       summary_json, artifacts_path, error_message
		FROM sessions
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Delete removes a session and, through ON DELETE CASCADE, its children.
func (s *SessionStore) Delete(id string) error {
	if _, err := parseID(id); err != nil {
		return err
	}
	return retryOnBusy(s.clock, func() error {
		res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return requireAffected(res, id)
	})
}

// Events returns a session's confusion events in start order.
func (s *SessionStore) Events(id string) ([]l5aggregate.ConfusionEvent, error) {
	if err := s.requireSession(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT start_ts, end_ts, score FROM confusion_events
		WHERE session_id = ? ORDER BY start_ts, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query confusion events: %w", err)
	}
	defer rows.Close()

	out := []l5aggregate.ConfusionEvent{}
	for rows.Next() {
		var ev l5aggregate.ConfusionEvent
		if err := rows.Scan(&ev.Start, &ev.End, &ev.Score); err != nil {
			return nil, fmt.Errorf("scan confusion event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// HeatmapBins returns a session's bins in time order.
func (s *SessionStore) HeatmapBins(id string) ([]l5aggregate.HeatmapBin, error) {
	if err := s.requireSession(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT bucket_start, bucket_end, avg_engagement FROM heatmap_bins
		WHERE session_id = ? ORDER BY bucket_start, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query heatmap bins: %w", err)
	}
	defer rows.Close()

	out := []l5aggregate.HeatmapBin{}
	for rows.Next() {
		var b l5aggregate.HeatmapBin
		if err := rows.Scan(&b.Start, &b.End, &b.AvgEngagement); err != nil {
			return nil, fmt.Errorf("scan heatmap bin: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Notes returns a session's notes in time order.
func (s *SessionStore) Notes(id string) ([]l5aggregate.Note, error) {
	if err := s.requireSession(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT timestamp, text, source_segment, score FROM notes
		WHERE session_id = ? ORDER BY timestamp, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	out := []l5aggregate.Note{}
	for rows.Next() {
		var n l5aggregate.Note
		var source sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(&n.Timestamp, &n.Text, &source, &score); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if source.Valid {
			n.SourceSegment = &source.String
		}
		n.Score = score.Float64
		out = append(out, n)
	}
	return out, rows.Err()
}

// Frames returns a session's scored frames in index order.
func (s *SessionStore) Frames(id string) ([]l4scoring.ScoredFrame, error) {
	if err := s.requireSession(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT timestamp, yaw, pitch, roll, gaze_x, gaze_y, blink, mouth_open,
		       face_confidence, engagement, confusion
		FROM scored_frames
		WHERE session_id = ? ORDER BY frame_index`, id)
	if err != nil {
		return nil, fmt.Errorf("query scored frames: %w", err)
	}
	defer rows.Close()

	out := []l4scoring.ScoredFrame{}
	for rows.Next() {
		var f l4scoring.ScoredFrame
		ff := &f.FrameFeatures
		if err := rows.Scan(&ff.Timestamp, &ff.Yaw, &ff.Pitch, &ff.Roll, &ff.GazeX, &ff.GazeY,
			&ff.Blink, &ff.MouthOpen, &ff.FaceConfidence, &f.Engagement, &f.Confusion); err != nil {
			return nil, fmt.Errorf("scan scored frame: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// requireSession checks that id is a UUID naming a stored session. The
// existence query is fully read before the caller issues its own.
func (s *SessionStore) requireSession(id string) error {
	if _, err := parseID(id); err != nil {
		return err
	}
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("query session: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(r rowScanner) (*Session, error) {
	var sess Session
	var duration, fps sql.NullFloat64
	var status string
	var summary, artifacts, errMsg sql.NullString
	err := r.Scan(&sess.ID, &sess.CreatedAt, &sess.VideoFilename, &duration, &fps, &status,
		&summary, &artifacts, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = Status(status)
	if duration.Valid {
		sess.DurationSeconds = &duration.Float64
	}
	if fps.Valid {
		sess.FPS = &fps.Float64
	}
	if summary.Valid {
		var sum l5aggregate.Summary
		if err := json.Unmarshal([]byte(summary.String), &sum); err != nil {
			return nil, fmt.Errorf("decode summary for session %s: %w", sess.ID, err)
		}
		sess.Summary = &sum
	}
	sess.ArtifactsPath = artifacts.String
	sess.Error = errMsg.String
	return &sess, nil
}

func (s *SessionStore) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return u, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

func nullFloat(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
