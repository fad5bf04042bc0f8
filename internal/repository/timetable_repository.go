package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/pomodoro-flow/internal/model"
	"github.com/iliyamo/pomodoro-flow/internal/schedule"
)

// ErrTimetableNotFound is returned when the timetable does not exist or
// belongs to another user.
var ErrTimetableNotFound = fmt.Errorf("timetable %w", ErrNotFound)

const dateLayout = "2006-01-02"

// TimetableRepo stores timetables and their blocks.  Every query filters on
// the owning user; every multi-statement write runs in one transaction.
type TimetableRepo struct {
	DB  *sql.DB
	Now Clock
}

func NewTimetableRepo(db *sql.DB) *TimetableRepo { return &TimetableRepo{DB: db} }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const timetableColumns = "id, user_id, title, description, schedule_date, is_active, created_at, updated_at"

// Create validates the whole input before writing anything, then inserts
// the timetable and its blocks in one transaction.
func (r *TimetableRepo) Create(ctx context.Context, userID uint64, in model.TimetableInput) (*model.Timetable, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || (in.Date == nil && in.Schedule == nil) {
		return nil, model.Invalid("Title and either a date or a schedule are required")
	}
	date, defaultDay, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	blocks, err := schedule.NormalizeBlocks(in.Schedule, defaultDay)
	if err != nil {
		return nil, err
	}

	now := stamp(r.Now)
	tt := &model.Timetable{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = inTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO timetables (user_id, title, description, schedule_date, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
			userID, title, nullableString(in.Description), nullableString(date), false, now, now)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		tt.ID = uint64(id)
		tt.Schedule, err = insertBlocks(ctx, tx, tt.ID, blocks)
		return err
	})
	if err != nil {
		return nil, err
	}
	schedule.Sort(tt.Schedule)
	tt.EntryCount = len(tt.Schedule)
	return tt, nil
}

// Get returns the timetable with its blocks ordered by weekday, then start
// time.
func (r *TimetableRepo) Get(ctx context.Context, id, userID uint64) (*model.Timetable, error) {
	return getTimetable(ctx, r.DB, id, userID)
}

// ListForUser returns the user's timetables, newest date first (undated
// ones last), each with its block count but without the blocks.
func (r *TimetableRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Timetable, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.title, t.description, t.schedule_date, t.is_active, t.created_at, t.updated_at,
		       COUNT(e.id)
		FROM timetables t
		LEFT JOIN timetable_entries e ON e.timetable_id = t.id
		WHERE t.user_id = ?
		GROUP BY t.id, t.user_id, t.title, t.description, t.schedule_date, t.is_active, t.created_at, t.updated_at
		ORDER BY t.schedule_date DESC, t.created_at DESC, t.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Timetable, 0)
	for rows.Next() {
		var (
			tt   model.Timetable
			desc sql.NullString
			date sql.NullString
		)
		if err := rows.Scan(&tt.ID, &tt.UserID, &tt.Title, &desc, &date, &tt.IsActive,
			&tt.CreatedAt, &tt.UpdatedAt, &tt.EntryCount); err != nil {
			return nil, err
		}
		tt.Description = stringPtr(desc)
		tt.Date = stringPtr(date)
		out = append(out, tt)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of p.  A supplied schedule is validated
// in full before any block is replaced.  An empty Date clears the date.
func (r *TimetableRepo) Update(ctx context.Context, id, userID uint64, p model.TimetablePatch) (*model.Timetable, error) {
	var out *model.Timetable
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		cur, err := getTimetable(ctx, tx, id, userID)
		if err != nil {
			return err
		}

		title := cur.Title
		if p.Title != nil {
			title = strings.TrimSpace(*p.Title)
			if title == "" {
				return model.Invalid("Title cannot be empty")
			}
		}
		desc := cur.Description
		if p.Description != nil {
			desc = p.Description
		}
		date := cur.Date
		if p.Date != nil {
			if strings.TrimSpace(*p.Date) == "" {
				date = nil
			} else {
				date = p.Date
			}
		}
		date, defaultDay, err := parseDate(date)
		if err != nil {
			return err
		}
		var blocks []model.Block
		if p.Schedule != nil {
			if blocks, err = schedule.NormalizeBlocks(*p.Schedule, defaultDay); err != nil {
				return err
			}
		}

		now := stamp(r.Now)
		if _, err := tx.ExecContext(ctx,
			"UPDATE timetables SET title=?, description=?, schedule_date=?, updated_at=? WHERE id=? AND user_id=?",
			title, nullableString(desc), nullableString(date), now, id, userID); err != nil {
			return err
		}
		if p.Schedule != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM timetable_entries WHERE timetable_id=?", id); err != nil {
				return err
			}
			if _, err := insertBlocks(ctx, tx, id, blocks); err != nil {
				return err
			}
		}
		out, err = getTimetable(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the timetable's blocks and then the timetable itself.
func (r *TimetableRepo) Delete(ctx context.Context, id, userID uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := ensureOwned(ctx, tx, id, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM timetable_entries WHERE timetable_id=?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM timetables WHERE id=? AND user_id=?", id, userID)
		return err
	})
}

// SetActive makes id the user's only active timetable.  The clear and the
// set commit together or not at all.
func (r *TimetableRepo) SetActive(ctx context.Context, userID, id uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := ensureOwned(ctx, tx, id, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE timetables SET is_active=? WHERE user_id=? AND id<>? AND is_active=?",
			false, userID, id, true); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE timetables SET is_active=? WHERE id=? AND user_id=?",
			true, id, userID)
		return err
	})
}

// GetActive returns the user's active timetable or ErrTimetableNotFound.
func (r *TimetableRepo) GetActive(ctx context.Context, userID uint64) (*model.Timetable, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM timetables WHERE user_id=? AND is_active=? ORDER BY id LIMIT 1",
		userID, true).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}
	return r.Get(ctx, id, userID)
}

func ensureOwned(ctx context.Context, q querier, id, userID uint64) error {
	var found uint64
	err := q.QueryRowContext(ctx,
		"SELECT id FROM timetables WHERE id=? AND user_id=?", id, userID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTimetableNotFound
	}
	return err
}

func getTimetable(ctx context.Context, q querier, id, userID uint64) (*model.Timetable, error) {
	var (
		tt   model.Timetable
		desc sql.NullString
		date sql.NullString
	)
	err := q.QueryRowContext(ctx,
		"SELECT "+timetableColumns+" FROM timetables WHERE id=? AND user_id=?", id, userID).
		Scan(&tt.ID, &tt.UserID, &tt.Title, &desc, &date, &tt.IsActive, &tt.CreatedAt, &tt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}
	tt.Description = stringPtr(desc)
	tt.Date = stringPtr(date)

	rows, err := q.QueryContext(ctx,
		"SELECT id, day, start_time, end_time, subject, is_break FROM timetable_entries WHERE timetable_id=? ORDER BY id",
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tt.Schedule = make([]model.Block, 0)
	for rows.Next() {
		var b model.Block
		if err := rows.Scan(&b.ID, &b.Day, &b.StartTime, &b.EndTime, &b.Subject, &b.IsBreak); err != nil {
			return nil, err
		}
		tt.Schedule = append(tt.Schedule, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	schedule.Sort(tt.Schedule)
	tt.EntryCount = len(tt.Schedule)
	return &tt, nil
}

func insertBlocks(ctx context.Context, tx *sql.Tx, timetableID uint64, blocks []model.Block) ([]model.Block, error) {
	out := make([]model.Block, 0, len(blocks))
	for _, b := range blocks {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO timetable_entries (timetable_id, day, start_time, end_time, subject, is_break) VALUES (?,?,?,?,?,?)",
			timetableID, b.Day, b.StartTime, b.EndTime, b.Subject, b.IsBreak)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		b.ID = uint64(id)
		out = append(out, b)
	}
	return out, nil
}

// parseDate validates an optional YYYY-MM-DD date and returns it normalized
// together with its weekday, used as the default day for blocks.
func parseDate(d *string) (*string, string, error) {
	if d == nil {
		return nil, "", nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*d))
	if err != nil {
		return nil, "", model.Invalid("Invalid date format. Use YYYY-MM-DD")
	}
	s := t.Format(dateLayout)
	return &s, schedule.DayOf(t), nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
