package model

import "time"

// Timetable is a named schedule owned by a single user.  A timetable is
// either tied to a calendar Date (YYYY-MM-DD) or is a weekly blueprint
// without one; in both cases its Schedule holds the blocks.  At most one
// timetable per user has IsActive set.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the timetable.
//  Title       – display name.
//  Description – optional free text.
//  Date        – optional calendar date the timetable applies to.
//  IsActive    – whether this is the user's reference timetable.
//  EntryCount  – number of blocks (filled by list queries).
//  Schedule    – blocks ordered by weekday, then start time.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Timetable struct {
    ID          uint64    `json:"id"`                    // timetables.id
    UserID      uint64    `json:"user_id"`               // timetables.user_id
    Title       string    `json:"title"`                 // timetables.title
    Description *string   `json:"description"`           // timetables.description (nullable)
    Date        *string   `json:"date"`                  // timetables.schedule_date (nullable)
    IsActive    bool      `json:"is_active"`             // timetables.is_active
    EntryCount  int       `json:"entry_count"`           // COUNT(timetable_entries.id)
    Schedule    []Block   `json:"schedule,omitempty"`    // timetable_entries rows
    CreatedAt   time.Time `json:"created_at"`            // timetables.created_at
    UpdatedAt   time.Time `json:"updated_at"`            // timetables.updated_at
}

// Block is one scheduled interval of a timetable.  Day is a lower-case
// weekday name and StartTime/EndTime are zero-padded "HH:MM" strings with
// StartTime strictly before EndTime.
type Block struct {
    ID        uint64 `json:"id,omitempty"` // timetable_entries.id
    Day       string `json:"day"`          // timetable_entries.day
    StartTime string `json:"start_time"`   // timetable_entries.start_time
    EndTime   string `json:"end_time"`     // timetable_entries.end_time
    Subject   string `json:"subject"`      // timetable_entries.subject
    IsBreak   bool   `json:"is_break"`     // timetable_entries.is_break
}

// TimetableInput carries the fields for creating a timetable.
type TimetableInput struct {
    Title       string
    Description *string
    Date        *string
    Schedule    []Block
}

// TimetablePatch carries the fields for updating a timetable.  Nil fields
// are left unchanged; a non-nil Schedule replaces every block.
type TimetablePatch struct {
    Title       *string
    Description *string
    Date        *string
    Schedule    *[]Block
}
