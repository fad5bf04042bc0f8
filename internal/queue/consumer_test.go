package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"
)

func TestHandleMessageAppendsLines(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "logs")
    at := time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

    events := []ActivityEvent{
        NewSessionCompleted(1, 10, "work", 25, at),
        NewTimetableActivated(1, 3, "Exam week", at),
    }
    for _, ev := range events {
        body, err := json.Marshal(ev)
        if err != nil {
            t.Fatal(err)
        }
        if err := HandleMessage(dir, body); err != nil {
            t.Fatalf("HandleMessage(%s): %v", ev.Type, err)
        }
    }

    raw, err := os.ReadFile(filepath.Join(dir, ActivityLogFile))
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    if len(lines) != 2 {
        t.Fatalf("got %d lines: %q", len(lines), raw)
    }
    if !strings.Contains(lines[0], "Session completed") || !strings.Contains(lines[0], "duration=25 min") {
        t.Errorf("line 1 = %s", lines[0])
    }
    if !strings.Contains(lines[1], `title="Exam week"`) || !strings.HasPrefix(lines[1], "[2026-10-19T09:30:00Z]") {
        t.Errorf("line 2 = %s", lines[1])
    }
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
    dir := t.TempDir()
    for _, body := range []string{"not json", `{"type":""}`, `{"type":"x","user_id":0}`} {
        if err := HandleMessage(dir, []byte(body)); err == nil {
            t.Errorf("HandleMessage(%s) succeeded", body)
        }
    }
}

func TestEventIDsAreUnique(t *testing.T) {
    now := time.Now()
    a := NewSessionCompleted(1, 1, "work", 25, now)
    b := NewSessionCompleted(1, 1, "work", 25, now)
    if a.ID == "" || a.ID == b.ID {
        t.Fatalf("ids %q and %q", a.ID, b.ID)
    }
}
