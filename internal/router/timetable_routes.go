package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pomodoro-flow/internal/handler"
)

// RegisterTimetables registers the timetable endpoints under /api/timetables.
// Every route except /current goes through the per-user response cache:
// reads are served from it and successful writes purge it.  /current
// depends on the clock and is never cached.
func RegisterTimetables(e *echo.Echo, t *handler.TimetableHandler, authn, cache echo.MiddlewareFunc) {
	g := e.Group("/api/timetables", authn)

	// ---- Collection ----
	g.GET("", t.List, cache)
	g.POST("", t.Create, cache)

	// ---- Active timetable (static path, matched before /:id) ----
	g.GET("/active", t.GetActive, cache)

	// ---- Single timetable ----
	g.GET("/:id", t.Get, cache)
	g.PUT("/:id", t.Update, cache)
	g.DELETE("/:id", t.Delete, cache)
	g.POST("/:id/active", t.SetActive, cache)
	g.GET("/:id/day/:day", t.Day, cache)
	g.GET("/:id/current", t.Current)
}
