package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pomodoro-flow/internal/model"
    "github.com/iliyamo/pomodoro-flow/internal/queue"
    "github.com/iliyamo/pomodoro-flow/internal/repository"
    "github.com/iliyamo/pomodoro-flow/internal/service"
)

// TimerHandler serves timer sessions and the stats derived from them.
type TimerHandler struct {
    Sessions *repository.TimerSessionRepo
    Events   service.Publisher
    Now      func() time.Time
}

func NewTimerHandler(s *repository.TimerSessionRepo, events service.Publisher) *TimerHandler {
    if events == nil {
        events = service.NopPublisher{}
    }
    return &TimerHandler{Sessions: s, Events: events, Now: time.Now}
}

// startSessionReq accepts the session kind under either name.
type startSessionReq struct {
    SessionType *string `json:"session_type"`
    Kind        *string `json:"kind"`
    Duration    *int    `json:"duration"`
}

// ListSessions handles GET /api/timer/sessions?limit=N.
func (h *TimerHandler) ListSessions(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    limit := repository.DefaultSessionListLimit
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
        }
        limit = n
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sessions, err := h.Sessions.List(ctx, uid, limit)
    if err != nil {
        return writeError(c, err, "Session not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"sessions": sessions})
}

// CreateSession handles POST /api/timer/sessions.
func (h *TimerHandler) CreateSession(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req startSessionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    kind := model.SessionWork
    switch {
    case req.SessionType != nil:
        kind = strings.ToLower(strings.TrimSpace(*req.SessionType))
    case req.Kind != nil:
        kind = strings.ToLower(strings.TrimSpace(*req.Kind))
    }
    duration := model.DefaultSessionMinutes
    if req.Duration != nil {
        if *req.Duration <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Duration must be a positive number of minutes"})
        }
        duration = *req.Duration
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    s, err := h.Sessions.Start(ctx, uid, kind, duration)
    if err != nil {
        return writeError(c, err, "Session not found")
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":    "Timer session created",
        "session_id": s.ID,
        "session":    s,
    })
}

// CompleteSession handles PUT /api/timer/sessions/:id/complete.  Unknown,
// foreign and already completed sessions are answered with 200 as well.
func (h *TimerHandler) CompleteSession(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    changed, err := h.Sessions.Complete(ctx, id, uid)
    if err != nil {
        return writeError(c, err, "Session not found")
    }
    if changed {
        if s, err := h.Sessions.Get(ctx, id, uid); err == nil {
            at := h.Now()
            if s.CompletedAt != nil {
                at = *s.CompletedAt
            }
            service.PublishAsync(h.Events, queue.NewSessionCompleted(uid, s.ID, s.Kind, s.Duration, at))
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Session completed"})
}

// Stats handles GET /api/stats.
func (h *TimerHandler) Stats(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    st, err := h.Sessions.Stats(ctx, uid)
    if err != nil {
        return writeError(c, err, "Session not found")
    }
    return c.JSON(http.StatusOK, st)
}
