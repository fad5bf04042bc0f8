// Package schedule evaluates timetable blocks against a point in time.
// Everything here is pure: no storage, no clock.  Weekdays are compared by
// their canonical lower-case English name and times are minute precision.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/pomodoro-flow/internal/model"
)

// Days lists the canonical weekday names, Monday first.
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

const (
	msgInvalidDay   = "Invalid day. Use full day names (monday, tuesday, etc.)"
	msgInvalidTime  = "Invalid time format. Use HH:MM format"
	msgStartBefore  = "Start time must be before end time"
	msgBlockMissing = "Each schedule block must have day, start_time, end_time, and subject"
)

// ParseDay returns the canonical name for s, ignoring case and surrounding
// space.  Anything other than the seven weekday names is invalid input.
func ParseDay(s string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(s))
	if DayIndex(d) < 0 {
		return "", model.Invalid(msgInvalidDay)
	}
	return d, nil
}

// DayIndex returns the position of a canonical day in Days, or -1.
func DayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

// DayOf returns the canonical weekday name of t in t's location.
func DayOf(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// ParseClock parses "H:MM" or "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, model.Invalid(msgInvalidTime)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, model.Invalid(msgInvalidTime)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, model.Invalid(msgInvalidTime)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClockOf truncates t to the minute and returns minutes after midnight.
func ClockOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// NormalizeBlocks validates every block and returns normalized copies:
// canonical day, zero-padded times and trimmed subject.  Blocks without a
// day take defaultDay when it is non-empty.  The first invalid block fails
// the whole call so callers never persist a partial schedule.
func NormalizeBlocks(blocks []model.Block, defaultDay string) ([]model.Block, error) {
	out := make([]model.Block, 0, len(blocks))
	for _, b := range blocks {
		subject := strings.TrimSpace(b.Subject)
		day := b.Day
		if strings.TrimSpace(day) == "" {
			day = defaultDay
		}
		if strings.TrimSpace(day) == "" || strings.TrimSpace(b.StartTime) == "" ||
			strings.TrimSpace(b.EndTime) == "" || subject == "" {
			return nil, model.Invalid(msgBlockMissing)
		}
		d, err := ParseDay(day)
		if err != nil {
			return nil, err
		}
		start, err := ParseClock(b.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(b.EndTime)
		if err != nil {
			return nil, err
		}
		if start >= end {
			return nil, model.Invalid(msgStartBefore)
		}
		out = append(out, model.Block{
			Day:       d,
			StartTime: FormatClock(start),
			EndTime:   FormatClock(end),
			Subject:   subject,
			IsBreak:   b.IsBreak,
		})
	}
	return out, nil
}

// CurrentAndNext finds the block whose window contains now (both endpoints
// inclusive) and the block on the same day that starts soonest after now.
// When several blocks contain now the first one in input order wins; ties
// for next are broken the same way.  Blocks with unparsable times are
// skipped.
func CurrentAndNext(blocks []model.Block, now time.Time) (current, next *model.Block) {
	today := DayOf(now)
	clock := ClockOf(now)
	nextStart := 0
	for i := range blocks {
		b := blocks[i]
		if strings.ToLower(strings.TrimSpace(b.Day)) != today {
			continue
		}
		start, err := ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(b.EndTime)
		if err != nil {
			continue
		}
		switch {
		case start <= clock && clock <= end:
			if current == nil {
				current = &b
			}
		case start > clock:
			if next == nil || start < nextStart {
				next = &b
				nextStart = start
			}
		}
	}
	return current, next
}

// ForDay returns the blocks for day sorted ascending by start time.  A day
// without blocks yields an empty, non-nil slice.
func ForDay(blocks []model.Block, day string) ([]model.Block, error) {
	d, err := ParseDay(day)
	if err != nil {
		return nil, err
	}
	out := make([]model.Block, 0)
	for _, b := range blocks {
		if strings.ToLower(strings.TrimSpace(b.Day)) == d {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return clockOrMax(out[i].StartTime) < clockOrMax(out[j].StartTime)
	})
	return out, nil
}

// Sort orders blocks by weekday (Monday first), then by start time.  The
// sort is stable so equal blocks keep their stored order.
func Sort(blocks []model.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		di := DayIndex(strings.ToLower(blocks[i].Day))
		dj := DayIndex(strings.ToLower(blocks[j].Day))
		if di != dj {
			return di < dj
		}
		return clockOrMax(blocks[i].StartTime) < clockOrMax(blocks[j].StartTime)
	})
}

// clockOrMax sorts unparsable times last.
func clockOrMax(s string) int {
	m, err := ParseClock(s)
	if err != nil {
		return 24 * 60
	}
	return m
}
