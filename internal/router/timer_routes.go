package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pomodoro-flow/internal/handler"
)

// RegisterTimer registers the timer session and stats endpoints.  All of
// them require an authenticated user.
func RegisterTimer(e *echo.Echo, t *handler.TimerHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/api", authn)

	g.GET("/timer/sessions", t.ListSessions)
	g.POST("/timer/sessions", t.CreateSession)
	g.PUT("/timer/sessions/:id/complete", t.CompleteSession)
	g.GET("/stats", t.Stats)
}
