package model

import "time"

// Timer session kinds.
const (
    SessionWork  = "work"
    SessionBreak = "break"
)

// DefaultSessionMinutes is used when a session is started without a duration.
const DefaultSessionMinutes = 25

// TimerSession records one work or break interval for a user.  A session
// is created when the timer starts and mutated exactly once, when it is
// completed.  CompletedAt is set if and only if Completed is true.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the session.
//  Kind        – "work" or "break".
//  Duration    – planned length in minutes.
//  Completed   – whether the session ran to completion.
//  StartedAt   – when the session was started.
//  CompletedAt – when the session was completed (null until then).
type TimerSession struct {
    ID          uint64     `json:"id"`           // timer_sessions.id
    UserID      uint64     `json:"user_id"`      // timer_sessions.user_id
    Kind        string     `json:"session_type"` // timer_sessions.session_type
    Duration    int        `json:"duration"`     // timer_sessions.duration
    Completed   bool       `json:"completed"`    // timer_sessions.completed
    StartedAt   time.Time  `json:"started_at"`   // timer_sessions.started_at
    CompletedAt *time.Time `json:"completed_at"` // timer_sessions.completed_at (nullable)
}

// SessionStats aggregates a user's completed sessions.
type SessionStats struct {
    TotalSessions  int `json:"total_sessions"`   // completed sessions of any kind
    TotalStudyTime int `json:"total_study_time"` // minutes across completed work sessions
    WeeklySessions int `json:"weekly_sessions"`  // completed sessions started in the last 7 days
}

// IsValidSessionKind reports whether k names a known session kind.
func IsValidSessionKind(k string) bool {
    return k == SessionWork || k == SessionBreak
}
