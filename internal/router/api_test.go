package router

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/cookiejar"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/pomodoro-flow/internal/config"
    "github.com/iliyamo/pomodoro-flow/internal/database"
    "github.com/iliyamo/pomodoro-flow/internal/queue"
)

// monday0930 is 2026-10-19 09:30 UTC, a Monday.
var monday0930 = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

func (p *recordingPublisher) types() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    var out []string
    for _, ev := range p.events {
        out = append(out, ev.Type)
    }
    return out
}

func newTestServer(t *testing.T) (*httptest.Server, *recordingPublisher) {
    t.Helper()
    db, err := database.OpenSQLite(":memory:")
    if err != nil {
        t.Fatalf("open sqlite: %v", err)
    }
    t.Cleanup(func() { _ = db.Close() })
    if err := database.Migrate(context.Background(), db, config.DriverSQLite); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    pub := &recordingPublisher{}
    e := New(Deps{
        Cfg: config.Config{
            Timezone:        "UTC",
            JWTSecret:       "test-secret",
            AccessTTLMin:    5,
            SessionTTLHours: 1,
            BcryptCost:      4,
            LogLevel:        "off",
        },
        DB:     db,
        Events: pub,
        Now:    func() time.Time { return monday0930 },
    })
    srv := httptest.NewServer(e)
    t.Cleanup(srv.Close)
    return srv, pub
}

type client struct {
    t    *testing.T
    base string
    http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
    jar, _ := cookiejar.New(nil)
    return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the JSON response into a map.
func (c *client) do(method, path string, body any) (int, map[string]any) {
    c.t.Helper()
    var rd *bytes.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil {
            c.t.Fatal(err)
        }
        rd = bytes.NewReader(b)
    } else {
        rd = bytes.NewReader(nil)
    }
    req, err := http.NewRequest(method, c.base+path, rd)
    if err != nil {
        c.t.Fatal(err)
    }
    req.Header.Set("Content-Type", "application/json")
    res, err := c.http.Do(req)
    if err != nil {
        c.t.Fatalf("%s %s: %v", method, path, err)
    }
    defer res.Body.Close()
    out := map[string]any{}
    _ = json.NewDecoder(res.Body).Decode(&out)
    return res.StatusCode, out
}

func (c *client) expect(method, path string, body any, status int) map[string]any {
    c.t.Helper()
    got, out := c.do(method, path, body)
    if got != status {
        c.t.Fatalf("%s %s = %d %v, want %d", method, path, got, out, status)
    }
    return out
}

func num(v any) int {
    f, _ := v.(float64)
    return int(f)
}

func TestAliceEndToEnd(t *testing.T) {
    srv, pub := newTestServer(t)
    alice := newClient(t, srv)

    alice.expect("POST", "/api/auth/register", map[string]any{
        "username": "alice", "email": "a@x.com", "password": "secret1",
    }, http.StatusCreated)
    alice.expect("POST", "/api/auth/logout", nil, http.StatusOK)
    alice.expect("GET", "/api/stats", nil, http.StatusUnauthorized)

    out := alice.expect("POST", "/api/auth/login", map[string]any{
        "username": "alice", "password": "secret1",
    }, http.StatusOK)
    if user, _ := out["user"].(map[string]any); user["username"] != "alice" {
        t.Fatalf("login user = %v", out["user"])
    }

    out = alice.expect("POST", "/api/timer/sessions", map[string]any{"kind": "work", "duration": 25}, http.StatusCreated)
    id := num(out["session_id"])
    if id == 0 {
        t.Fatalf("no session_id in %v", out)
    }
    alice.expect("PUT", fmt.Sprintf("/api/timer/sessions/%d/complete", id), nil, http.StatusOK)

    stats := alice.expect("GET", "/api/stats", nil, http.StatusOK)
    if num(stats["total_sessions"]) != 1 || num(stats["total_study_time"]) != 25 || num(stats["weekly_sessions"]) != 1 {
        t.Fatalf("stats = %v", stats)
    }

    deadline := time.Now().Add(2 * time.Second)
    for len(pub.types()) == 0 && time.Now().Before(deadline) {
        time.Sleep(10 * time.Millisecond)
    }
    if got := pub.types(); len(got) != 1 || got[0] != queue.EventSessionCompleted {
        t.Fatalf("published events = %v", got)
    }
}

func TestAuthErrors(t *testing.T) {
    srv, _ := newTestServer(t)
    c := newClient(t, srv)

    c.expect("POST", "/api/auth/register", map[string]any{
        "username": "alice", "email": "a@x.com", "password": "secret1",
    }, http.StatusCreated)

    out := c.expect("POST", "/api/auth/register", map[string]any{
        "username": "alice", "email": "b@x.com", "password": "secret1",
    }, http.StatusBadRequest)
    if out["error"] != "Username or email already exists" {
        t.Errorf("duplicate error = %v", out["error"])
    }
    out = c.expect("POST", "/api/auth/register", map[string]any{
        "username": "bob", "email": "b@x.com", "password": "12345",
    }, http.StatusBadRequest)
    if out["error"] != "Password must be at least 6 characters long" {
        t.Errorf("short password error = %v", out["error"])
    }

    out = c.expect("POST", "/api/auth/login", map[string]any{"username": "alice", "password": "nope"}, http.StatusUnauthorized)
    if out["error"] != "Invalid username or password" {
        t.Errorf("bad login error = %v", out["error"])
    }
    c.expect("POST", "/api/auth/login", map[string]any{"username": "ghost", "password": "secret1"}, http.StatusUnauthorized)

    guest := newClient(t, srv)
    if out := guest.expect("GET", "/api/auth/check", nil, http.StatusOK); out["authenticated"] != false {
        t.Errorf("guest check = %v", out)
    }
    out = guest.expect("GET", "/api/auth/me", nil, http.StatusUnauthorized)
    if out["error"] != "Authentication required" {
        t.Errorf("me error = %v", out["error"])
    }
    if out := c.expect("GET", "/api/auth/check", nil, http.StatusOK); out["authenticated"] != true {
        t.Errorf("logged-in check = %v", out)
    }
}

func TestBearerTokenAuth(t *testing.T) {
    srv, _ := newTestServer(t)
    c := newClient(t, srv)
    out := c.expect("POST", "/api/auth/register", map[string]any{
        "username": "carol", "email": "c@x.com", "password": "secret1",
    }, http.StatusCreated)
    access, _ := out["access"].(map[string]any)
    token, _ := access["token"].(string)
    if token == "" {
        t.Fatalf("no access token in %v", out)
    }

    req, _ := http.NewRequest("GET", srv.URL+"/api/auth/me", nil)
    req.Header.Set("Authorization", "Bearer "+token)
    res, err := http.DefaultClient.Do(req)
    if err != nil {
        t.Fatal(err)
    }
    res.Body.Close()
    if res.StatusCode != http.StatusOK {
        t.Fatalf("bearer /me = %d", res.StatusCode)
    }
}

func TestTimerValidationAndOwnership(t *testing.T) {
    srv, _ := newTestServer(t)
    alice, bob := newClient(t, srv), newClient(t, srv)
    alice.expect("POST", "/api/auth/register", map[string]any{"username": "alice", "email": "a@x.com", "password": "secret1"}, http.StatusCreated)
    bob.expect("POST", "/api/auth/register", map[string]any{"username": "bob", "email": "b@x.com", "password": "secret1"}, http.StatusCreated)

    alice.expect("POST", "/api/timer/sessions", map[string]any{"session_type": "nap"}, http.StatusBadRequest)
    alice.expect("POST", "/api/timer/sessions", map[string]any{"duration": 0}, http.StatusBadRequest)

    out := alice.expect("POST", "/api/timer/sessions", map[string]any{"session_type": "break", "duration": 5}, http.StatusCreated)
    id := num(out["session_id"])

    // Completing someone else's session is a silent no-op.
    bob.expect("PUT", fmt.Sprintf("/api/timer/sessions/%d/complete", id), nil, http.StatusOK)
    list := alice.expect("GET", "/api/timer/sessions", nil, http.StatusOK)
    sessions, _ := list["sessions"].([]any)
    if len(sessions) != 1 {
        t.Fatalf("sessions = %v", list)
    }
    if s := sessions[0].(map[string]any); s["completed"] != false || s["completed_at"] != nil {
        t.Fatalf("session completed by another user: %v", s)
    }
    if s := bob.expect("GET", "/api/stats", nil, http.StatusOK); num(s["total_sessions"]) != 0 {
        t.Fatalf("bob stats = %v", s)
    }
    alice.expect("GET", "/api/timer/sessions?limit=0", nil, http.StatusBadRequest)
}

func TestTimetableFlow(t *testing.T) {
    srv, pub := newTestServer(t)
    alice, bob := newClient(t, srv), newClient(t, srv)
    alice.expect("POST", "/api/auth/register", map[string]any{"username": "alice", "email": "a@x.com", "password": "secret1"}, http.StatusCreated)
    bob.expect("POST", "/api/auth/register", map[string]any{"username": "bob", "email": "b@x.com", "password": "secret1"}, http.StatusCreated)

    if out := alice.expect("GET", "/api/timetables/active", nil, http.StatusOK); out["active_timetable"] != nil {
        t.Fatalf("active before any = %v", out)
    }

    out := alice.expect("POST", "/api/timetables", map[string]any{
        "name": "Week",
        "schedule": []map[string]any{
            {"day": "monday", "start_time": "10:00", "end_time": "11:00", "subject": "Break", "is_break": true},
            {"day": "monday", "start_time": "09:00", "end_time": "10:00", "subject": "Math"},
            {"day": "tuesday", "start_time": "09:00", "end_time": "10:00", "subject": "Physics"},
        },
    }, http.StatusCreated)
    id := num(out["timetable_id"])

    out = alice.expect("POST", "/api/timetables", map[string]any{
        "title": "Bad",
        "date":  "2026-10-19",
        "entries": []map[string]any{
            {"start_time": "10:00", "end_time": "09:00", "subject": "Backwards"},
        },
    }, http.StatusBadRequest)
    if out["error"] != "Start time must be before end time" {
        t.Errorf("backwards block error = %v", out["error"])
    }
    alice.expect("POST", "/api/timetables", map[string]any{"title": "Nothing"}, http.StatusBadRequest)

    list := alice.expect("GET", "/api/timetables", nil, http.StatusOK)
    if tts, _ := list["timetables"].([]any); len(tts) != 1 {
        t.Fatalf("timetables = %v", list)
    }

    cur := alice.expect("GET", fmt.Sprintf("/api/timetables/%d/current", id), nil, http.StatusOK)
    if s, _ := cur["current_session"].(map[string]any); s["subject"] != "Math" {
        t.Fatalf("current = %v", cur)
    }
    if s, _ := cur["next_session"].(map[string]any); s["subject"] != "Break" || s["is_break"] != true {
        t.Fatalf("next = %v", cur)
    }
    if cur["current_day"] != "monday" || cur["current_time"] != "09:30" {
        t.Fatalf("clock = %v %v", cur["current_day"], cur["current_time"])
    }

    day := alice.expect("GET", fmt.Sprintf("/api/timetables/%d/day/Monday", id), nil, http.StatusOK)
    blocks, _ := day["schedule"].([]any)
    if day["day"] != "monday" || len(blocks) != 2 || blocks[0].(map[string]any)["subject"] != "Math" {
        t.Fatalf("monday = %v", day)
    }
    empty := alice.expect("GET", fmt.Sprintf("/api/timetables/%d/day/sunday", id), nil, http.StatusOK)
    if blocks, ok := empty["schedule"].([]any); !ok || len(blocks) != 0 {
        t.Fatalf("sunday = %v", empty)
    }
    alice.expect("GET", fmt.Sprintf("/api/timetables/%d/day/someday", id), nil, http.StatusBadRequest)

    // Another user sees nothing and cannot touch it.
    path := fmt.Sprintf("/api/timetables/%d", id)
    bob.expect("GET", path, nil, http.StatusNotFound)
    bob.expect("PUT", path, map[string]any{"title": "Mine"}, http.StatusNotFound)
    bob.expect("DELETE", path, nil, http.StatusNotFound)
    bob.expect("POST", path+"/active", nil, http.StatusNotFound)
    bob.expect("GET", path+"/current", nil, http.StatusNotFound)

    alice.expect("POST", path+"/active", nil, http.StatusOK)
    active := alice.expect("GET", "/api/timetables/active", nil, http.StatusOK)
    if tt, _ := active["active_timetable"].(map[string]any); num(tt["id"]) != id {
        t.Fatalf("active = %v", active)
    }

    upd := alice.expect("PUT", path, map[string]any{
        "title":    "Renamed",
        "schedule": []map[string]any{{"day": "friday", "start_time": "8:00", "end_time": "9:00", "subject": "Art"}},
    }, http.StatusOK)
    tt, _ := upd["timetable"].(map[string]any)
    sched, _ := tt["schedule"].([]any)
    if tt["title"] != "Renamed" || len(sched) != 1 || sched[0].(map[string]any)["start_time"] != "08:00" {
        t.Fatalf("updated = %v", upd)
    }

    alice.expect("DELETE", path, nil, http.StatusOK)
    alice.expect("GET", path, nil, http.StatusNotFound)

    deadline := time.Now().Add(2 * time.Second)
    for len(pub.types()) == 0 && time.Now().Before(deadline) {
        time.Sleep(10 * time.Millisecond)
    }
    if got := strings.Join(pub.types(), ","); got != queue.EventTimetableActivated {
        t.Fatalf("published events = %s", got)
    }
}

func TestPublicEndpoints(t *testing.T) {
    srv, _ := newTestServer(t)
    res, err := http.Get(srv.URL + "/healthz")
    if err != nil {
        t.Fatal(err)
    }
    res.Body.Close()
    if res.StatusCode != http.StatusOK {
        t.Fatalf("healthz = %d", res.StatusCode)
    }
    if id := res.Header.Get("X-Request-Id"); id == "" {
        t.Fatal("missing X-Request-Id")
    }
    c := newClient(t, srv)
    if out := c.expect("GET", "/api/test", nil, http.StatusOK); out["message"] != "Backend is working!" {
        t.Fatalf("api test = %v", out)
    }
}
