package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pomodoro-flow/internal/model"
    "github.com/iliyamo/pomodoro-flow/internal/repository"
)

func TestWriteErrorMapping(t *testing.T) {
    cases := []struct {
        name     string
        err      error
        wantCode int
        wantBody string
    }{
        {"validation", model.Invalid("Title cannot be empty"), http.StatusBadRequest, "Title cannot be empty"},
        {"not found", repository.ErrTimetableNotFound, http.StatusNotFound, "Timetable not found"},
        {"conflict", repository.ErrUserExists, http.StatusBadRequest, "Username or email already exists"},
        {"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "request timed out"},
        {"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
    }
    e := echo.New()
    for _, tc := range cases {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        if err := writeError(c, tc.err, "Timetable not found"); err != nil {
            t.Fatalf("%s: %v", tc.name, err)
        }
        if rec.Code != tc.wantCode || !strings.Contains(rec.Body.String(), tc.wantBody) {
            t.Errorf("%s: got %d %s", tc.name, rec.Code, rec.Body.String())
        }
        if strings.Contains(rec.Body.String(), "disk on fire") {
            t.Errorf("%s: internal error leaked to client", tc.name)
        }
    }
}

func TestParseID(t *testing.T) {
    e := echo.New()
    for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false} {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
        c.SetParamNames("id")
        c.SetParamValues(raw)
        if _, got := parseID(c, "id"); got != ok {
            t.Errorf("parseID(%q) = %v, want %v", raw, got, ok)
        }
    }
}
