package middleware

// identity.go defines the authenticated identity that Authenticate and
// OptionalIdentity attach to the Echo context, plus small accessors used by
// handlers and by the rate limiter and cache key builders.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// How the caller proved who they are.
const (
    MethodBearer = "bearer"
    MethodCookie = "cookie"
)

const identityKey = "identity"

// Identity is the authentication context of one request.
type Identity struct {
    UserID uint64
    Method string
}

// IdentityFrom returns the identity stored by the auth middleware.
func IdentityFrom(c echo.Context) (Identity, bool) {
    id, ok := c.Get(identityKey).(Identity)
    return id, ok && id.UserID != 0
}

// CurrentUserID returns the authenticated user's id, or false for guests.
func CurrentUserID(c echo.Context) (uint64, bool) {
    id, ok := IdentityFrom(c)
    return id.UserID, ok
}

// userKey renders the user id for Redis keys; unauthenticated requests
// share the "anon" bucket.
func userKey(c echo.Context) string {
    if uid, ok := CurrentUserID(c); ok {
        return strconv.FormatUint(uid, 10)
    }
    return "anon"
}
