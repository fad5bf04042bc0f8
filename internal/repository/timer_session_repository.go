package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/pomodoro-flow/internal/model"
)

const (
	DefaultSessionListLimit = 50
	MaxSessionListLimit     = 200
)

type TimerSessionRepo struct {
	DB  *sql.DB
	Now Clock
}

func NewTimerSessionRepo(db *sql.DB) *TimerSessionRepo { return &TimerSessionRepo{DB: db} }

// Start records a new, incomplete session beginning now.  A zero duration
// means "not supplied" and becomes DefaultSessionMinutes; negative values
// are rejected.
func (r *TimerSessionRepo) Start(ctx context.Context, userID uint64, kind string, duration int) (*model.TimerSession, error) {
	if !model.IsValidSessionKind(kind) {
		return nil, model.Invalid("Invalid session type. Use 'work' or 'break'")
	}
	if duration == 0 {
		duration = model.DefaultSessionMinutes
	}
	if duration < 0 {
		return nil, model.Invalid("Duration must be a positive number of minutes")
	}
	now := stamp(r.Now)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO timer_sessions (user_id, session_type, duration, completed, started_at) VALUES (?,?,?,?,?)",
		userID, kind, duration, false, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.TimerSession{
		ID:        uint64(id),
		UserID:    userID,
		Kind:      kind,
		Duration:  duration,
		StartedAt: now,
	}, nil
}

// Complete marks the session finished.  Only an incomplete session owned by
// userID is touched, so completing twice keeps the first completion time.
// It reports whether a row changed; a foreign or unknown id is not an error.
func (r *TimerSessionRepo) Complete(ctx context.Context, id, userID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE timer_sessions SET completed=?, completed_at=? WHERE id=? AND user_id=? AND completed=?",
		true, stamp(r.Now), id, userID, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns one session owned by userID.
func (r *TimerSessionRepo) Get(ctx context.Context, id, userID uint64) (*model.TimerSession, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, session_type, duration, completed, started_at, completed_at FROM timer_sessions WHERE id=? AND user_id=?",
		id, userID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List returns the user's most recent sessions first.
func (r *TimerSessionRepo) List(ctx context.Context, userID uint64, limit int) ([]model.TimerSession, error) {
	if limit <= 0 {
		limit = DefaultSessionListLimit
	}
	if limit > MaxSessionListLimit {
		limit = MaxSessionListLimit
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, session_type, duration, completed, started_at, completed_at FROM timer_sessions WHERE user_id=? ORDER BY started_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TimerSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Stats computes the three completed-session aggregates.  The weekly figure
// is a rolling seven days ending now.
func (r *TimerSessionRepo) Stats(ctx context.Context, userID uint64) (model.SessionStats, error) {
	var st model.SessionStats
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM timer_sessions WHERE user_id=? AND completed=?",
		userID, true).Scan(&st.TotalSessions); err != nil {
		return st, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(duration), 0) FROM timer_sessions WHERE user_id=? AND completed=? AND session_type=?",
		userID, true, model.SessionWork).Scan(&st.TotalStudyTime); err != nil {
		return st, err
	}
	since := stamp(r.Now).Add(-7 * 24 * time.Hour)
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM timer_sessions WHERE user_id=? AND completed=? AND started_at > ?",
		userID, true, since).Scan(&st.WeeklySessions); err != nil {
		return st, err
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.TimerSession, error) {
	var (
		s           model.TimerSession
		completedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Kind, &s.Duration, &s.Completed, &s.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}
