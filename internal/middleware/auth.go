package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "errors"
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/pomodoro-flow/internal/repository"
    "github.com/iliyamo/pomodoro-flow/internal/utils"
)

// SessionCookieName is the cookie carrying the opaque login session token.
const SessionCookieName = "pomodoro_session"

// SessionValidator resolves a hashed session token to its user id.
// *repository.AuthSessionRepo satisfies it.
type SessionValidator interface {
    Validate(ctx context.Context, tokenHash string) (uint64, error)
}

// Authenticate returns an Echo middleware that resolves the caller from a
// Bearer access token or, failing that, from the session cookie.  The
// resulting Identity is stored in the context for handlers.  Requests with
// neither are rejected with 401.
func Authenticate(secret string, sessions SessionValidator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := IdentityFrom(c)
            if !ok {
                id, ok = resolveIdentity(c, secret, sessions)
            }
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
            }
            c.Set(identityKey, id)
            return next(c)
        }
    }
}

// OptionalIdentity resolves the caller like Authenticate but lets anonymous
// requests through untouched.  The router installs it ahead of the rate
// limiter so buckets can be keyed per user; both middlewares reuse an
// identity already in the context.
func OptionalIdentity(secret string, sessions SessionValidator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := IdentityFrom(c); !ok {
                if id, ok := resolveIdentity(c, secret, sessions); ok {
                    c.Set(identityKey, id)
                }
            }
            return next(c)
        }
    }
}

func resolveIdentity(c echo.Context, secret string, sessions SessionValidator) (Identity, bool) {
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
        if uid, err := utils.ParseAccessToken(secret, raw); err == nil {
            return Identity{UserID: uid, Method: MethodBearer}, true
        }
    }
    if sessions == nil {
        return Identity{}, false
    }
    ck, err := c.Cookie(SessionCookieName)
    if err != nil || ck.Value == "" {
        return Identity{}, false
    }
    uid, err := sessions.Validate(c.Request().Context(), utils.HashToken(ck.Value))
    if err != nil {
        if !errors.Is(err, repository.ErrNotFound) {
            c.Logger().Errorf("session lookup failed: %v", err)
        }
        return Identity{}, false
    }
    return Identity{UserID: uid, Method: MethodCookie}, true
}
