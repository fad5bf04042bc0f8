package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pomodoro-flow/internal/model"
    "github.com/iliyamo/pomodoro-flow/internal/queue"
    "github.com/iliyamo/pomodoro-flow/internal/repository"
    "github.com/iliyamo/pomodoro-flow/internal/schedule"
    "github.com/iliyamo/pomodoro-flow/internal/service"
)

const timetableNotFound = "Timetable not found"

// TimetableHandler serves timetables and evaluates them against the clock
// in Location.
type TimetableHandler struct {
    Timetables *repository.TimetableRepo
    Events     service.Publisher
    Location   *time.Location
    Now        func() time.Time
}

func NewTimetableHandler(t *repository.TimetableRepo, events service.Publisher, loc *time.Location) *TimetableHandler {
    if events == nil {
        events = service.NopPublisher{}
    }
    if loc == nil {
        loc = time.Local
    }
    return &TimetableHandler{Timetables: t, Events: events, Location: loc, Now: time.Now}
}

// timetableReq accepts both the dated ("title", "entries") and the weekly
// ("name", "schedule") field names.
type timetableReq struct {
    Title       *string        `json:"title"`
    Name        *string        `json:"name"`
    Description *string        `json:"description"`
    Date        *string        `json:"date"`
    Schedule    *[]model.Block `json:"schedule"`
    Entries     *[]model.Block `json:"entries"`
}

func (r timetableReq) title() *string {
    if r.Title != nil {
        return r.Title
    }
    return r.Name
}

func (r timetableReq) blocks() *[]model.Block {
    if r.Schedule != nil {
        return r.Schedule
    }
    return r.Entries
}

// List handles GET /api/timetables.
func (h *TimetableHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Timetables.ListForUser(ctx, uid)
    if err != nil {
        return writeError(c, err, timetableNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"timetables": list})
}

// Create handles POST /api/timetables.
func (h *TimetableHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req timetableReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Schedule must be an array of time blocks"})
    }
    in := model.TimetableInput{Description: req.Description, Date: req.Date}
    if t := req.title(); t != nil {
        in.Title = *t
    }
    if b := req.blocks(); b != nil {
        in.Schedule = *b
        if in.Schedule == nil {
            in.Schedule = []model.Block{}
        }
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    tt, err := h.Timetables.Create(ctx, uid, in)
    if err != nil {
        return writeError(c, err, timetableNotFound)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":      "Timetable created successfully",
        "timetable_id": tt.ID,
        "timetable":    tt,
    })
}

// Get handles GET /api/timetables/:id.
func (h *TimetableHandler) Get(c echo.Context) error {
    tt, err := h.load(c)
    if err != nil {
        return err
    }
    if tt == nil {
        return nil
    }
    return c.JSON(http.StatusOK, echo.Map{"timetable": tt, "entries": tt.Schedule})
}

// Update handles PUT /api/timetables/:id.
func (h *TimetableHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": timetableNotFound})
    }
    var req timetableReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Schedule must be an array of time blocks"})
    }
    patch := model.TimetablePatch{
        Title:       req.title(),
        Description: req.Description,
        Date:        req.Date,
        Schedule:    req.blocks(),
    }
    if patch.Schedule != nil && *patch.Schedule == nil {
        empty := []model.Block{}
        patch.Schedule = &empty
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    tt, err := h.Timetables.Update(ctx, id, uid, patch)
    if err != nil {
        return writeError(c, err, timetableNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Timetable updated successfully", "timetable": tt})
}

// Delete handles DELETE /api/timetables/:id.
func (h *TimetableHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": timetableNotFound})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Timetables.Delete(ctx, id, uid); err != nil {
        return writeError(c, err, timetableNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Timetable deleted successfully"})
}

// Current handles GET /api/timetables/:id/current: the block running now
// and the next one today, in the configured timezone.
func (h *TimetableHandler) Current(c echo.Context) error {
    tt, err := h.load(c)
    if err != nil || tt == nil {
        return err
    }
    now := h.Now().In(h.Location)
    current, next := schedule.CurrentAndNext(tt.Schedule, now)
    return c.JSON(http.StatusOK, echo.Map{
        "current_session": current,
        "next_session":    next,
        "current_time":    schedule.FormatClock(schedule.ClockOf(now)),
        "current_day":     schedule.DayOf(now),
    })
}

// Day handles GET /api/timetables/:id/day/:day.
func (h *TimetableHandler) Day(c echo.Context) error {
    tt, err := h.load(c)
    if err != nil || tt == nil {
        return err
    }
    blocks, err := schedule.ForDay(tt.Schedule, c.Param("day"))
    if err != nil {
        return writeError(c, err, timetableNotFound)
    }
    day, _ := schedule.ParseDay(c.Param("day"))
    return c.JSON(http.StatusOK, echo.Map{"day": day, "schedule": blocks})
}

// SetActive handles POST /api/timetables/:id/active.
func (h *TimetableHandler) SetActive(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": timetableNotFound})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Timetables.SetActive(ctx, uid, id); err != nil {
        return writeError(c, err, timetableNotFound)
    }
    tt, err := h.Timetables.Get(ctx, id, uid)
    if err != nil {
        return writeError(c, err, timetableNotFound)
    }
    service.PublishAsync(h.Events, queue.NewTimetableActivated(uid, tt.ID, tt.Title, h.Now()))
    return c.JSON(http.StatusOK, echo.Map{"message": "Timetable set as active", "timetable": tt})
}

// GetActive handles GET /api/timetables/active.  No active timetable is not
// an error.
func (h *TimetableHandler) GetActive(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    tt, err := h.Timetables.GetActive(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrTimetableNotFound) {
            return c.JSON(http.StatusOK, echo.Map{"active_timetable": nil})
        }
        return writeError(c, err, timetableNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"active_timetable": tt})
}

// load fetches the timetable named by :id for the caller.  When it returns
// (nil, nil) the response has already been written.
func (h *TimetableHandler) load(c echo.Context) (*model.Timetable, error) {
    uid, err := getUserID(c)
    if err != nil {
        return nil, unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return nil, c.JSON(http.StatusNotFound, echo.Map{"error": timetableNotFound})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    tt, err := h.Timetables.Get(ctx, id, uid)
    if err != nil {
        return nil, writeError(c, err, timetableNotFound)
    }
    return tt, nil
}
