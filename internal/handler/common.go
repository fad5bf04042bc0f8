package handler // handler defines http handlers

import (
    "context"  // request-scoped timeouts for repository calls
    "errors"   // errors.Is/As map repository errors to status codes
    "net/http" // http defines status code constants
    "strconv"  // strconv parses URL parameters to numbers
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pomodoro-flow/internal/middleware"
    "github.com/iliyamo/pomodoro-flow/internal/model"
    "github.com/iliyamo/pomodoro-flow/internal/repository"
)

// dbTimeout bounds every repository call made by a handler.
const dbTimeout = 5 * time.Second

var errNoIdentity = errors.New("no authenticated user in context")

// getUserID returns the id of the user resolved by the auth middleware.
func getUserID(c echo.Context) (uint64, error) {
    if uid, ok := middleware.CurrentUserID(c); ok {
        return uid, nil
    }
    return 0, errNoIdentity
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
}

// reqCtx derives the repository context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// writeError maps repository and validation errors to the API's status
// codes.  Validation messages are shown as is; anything unexpected is
// logged and answered with a generic 500.
func writeError(c echo.Context, err error, notFoundMsg string) error {
    var ve *model.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username or email already exists"})
    case errors.Is(err, context.DeadlineExceeded):
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
    default:
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
    }
}
