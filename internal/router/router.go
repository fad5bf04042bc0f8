package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pomodoro-flow/internal/config"
	"github.com/iliyamo/pomodoro-flow/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/pomodoro-flow/internal/middleware" // import middleware for authentication, rate limiting and caching
	"github.com/iliyamo/pomodoro-flow/internal/repository"
	"github.com/iliyamo/pomodoro-flow/internal/service"
)

// Deps carries everything the HTTP layer needs.  Redis may be nil; Events
// defaults to a no-op publisher and Now to time.Now.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Events    service.Publisher
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Now       func() time.Time
}

// New builds the Echo instance with the global middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = service.NopPublisher{}
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(parseLevel(d.Cfg.LogLevel))

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infoj(log.JSON{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
			})
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
		// "*" reflects the caller's origin so the session cookie still works.
		UnsafeWildcardOriginWithAllowCredentials: hasWildcard(d.Cfg.CORSOrigins),
	}))

	users := &repository.UserRepo{DB: d.DB, Now: d.Now}
	// Login sessions expire in wall-clock time, whatever clock the rest uses.
	sessions := repository.NewAuthSessionRepo(d.DB)
	optional := middleware.OptionalIdentity(d.Cfg.JWTSecret, sessions)

	// Identity first so the limiter can key on the user.
	e.Use(optional)
	e.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis))
	timers := &repository.TimerSessionRepo{DB: d.DB, Now: d.Now}
	timetables := &repository.TimetableRepo{DB: d.DB, Now: d.Now}

	th := handler.NewTimerHandler(timers, d.Events)
	th.Now = d.Now
	tt := handler.NewTimetableHandler(timetables, d.Events, d.Cfg.Location())
	tt.Now = d.Now

	authn := middleware.Authenticate(d.Cfg.JWTSecret, sessions)

	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, users, sessions), optional, authn)
	RegisterTimer(e, th, authn)
	RegisterTimetables(e, tt, authn, middleware.NewRedisCache(d.Cache, d.Redis))
	return e
}

// RegisterRoutes registers routes that do not require authentication: the
// health check and the API smoke test.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	e.GET("/api/test", handler.Ping)
}

// RegisterAuth registers all authentication‑related routes.  Register,
// login and logout are open; check resolves the caller if it can; me
// requires a valid session or access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, optional, required echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.GET("/check", a.Check, optional)
	g.GET("/me", a.Me, required)
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
