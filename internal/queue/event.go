// Package queue defines the activity events exchanged over the message
// broker and the consumer that writes them to the activity log.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// ActivityQueueName is the durable queue every activity event is routed to.
const ActivityQueueName = "pomodoro.activity"

// Activity event types.
const (
    EventSessionCompleted   = "timer.session.completed"
    EventTimetableActivated = "timetable.activated"
)

// ActivityEvent is the envelope published for user activity.  Type selects
// which of the optional fields are populated.  Consumers must be able to
// log an event without querying the primary database.
type ActivityEvent struct {
    ID         string `json:"id"`
    Type       string `json:"type"`
    UserID     uint64 `json:"user_id"`
    OccurredAt string `json:"occurred_at"`

    SessionID   uint64 `json:"session_id,omitempty"`
    SessionType string `json:"session_type,omitempty"`
    Duration    int    `json:"duration,omitempty"`

    TimetableID    uint64 `json:"timetable_id,omitempty"`
    TimetableTitle string `json:"timetable_title,omitempty"`
}

// NewSessionCompleted builds the event for a finished timer session.
func NewSessionCompleted(userID, sessionID uint64, kind string, duration int, at time.Time) ActivityEvent {
    return ActivityEvent{
        ID:          uuid.NewString(),
        Type:        EventSessionCompleted,
        UserID:      userID,
        OccurredAt:  at.UTC().Format(time.RFC3339),
        SessionID:   sessionID,
        SessionType: kind,
        Duration:    duration,
    }
}

// NewTimetableActivated builds the event for a timetable made active.
func NewTimetableActivated(userID, timetableID uint64, title string, at time.Time) ActivityEvent {
    return ActivityEvent{
        ID:             uuid.NewString(),
        Type:           EventTimetableActivated,
        UserID:         userID,
        OccurredAt:     at.UTC().Format(time.RFC3339),
        TimetableID:    timetableID,
        TimetableTitle: title,
    }
}
