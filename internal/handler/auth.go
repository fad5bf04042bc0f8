package handler

import (
    "errors"   // errors.Is distinguishes repository sentinels
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // cookie and token expirations

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/pomodoro-flow/internal/config"     // app configuration
    "github.com/iliyamo/pomodoro-flow/internal/middleware" // session cookie name and identity
    "github.com/iliyamo/pomodoro-flow/internal/model"      // user model
    "github.com/iliyamo/pomodoro-flow/internal/repository" // DB repositories
    "github.com/iliyamo/pomodoro-flow/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.AuthSessionRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.AuthSessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
type authResp struct {
	Message string    `json:"message"`
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
}

func userView(u *model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Register: create the user and log them in straight away.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No data provided"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return writeError(c, err, "User not found")
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return writeError(c, err, "User not found")
	}
	access, err := h.startSession(c, u)
	if err != nil {
		return writeError(c, err, "User not found")
	}
	return c.JSON(http.StatusCreated, authResp{
		Message: "Registration successful",
		User:    userView(u),
		Access:  access,
	})
}

// Login: verify credentials, set the session cookie and return an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No data provided"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username and password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err, "User not found")
	}
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid username or password"})
	}
	access, err := h.startSession(c, u)
	if err != nil {
		return writeError(c, err, "User not found")
	}
	return c.JSON(http.StatusOK, authResp{
		Message: "Login successful",
		User:    userView(u),
		Access:  access,
	})
}

// Logout: revoke the cookie's session if there is one.  Always 200.
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.SessionCookieName); err == nil && ck.Value != "" {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := h.Sessions.RevokeByHash(ctx, utils.HashToken(ck.Value)); err != nil {
			c.Logger().Warnf("logout: revoke session: %v", err)
		}
	}
	h.clearCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.clearCookie(c)
		}
		return writeError(c, err, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userView(u)})
}

// Check reports whether the caller is logged in without ever failing on
// absence.
func (h *AuthHandler) Check(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.clearCookie(c)
			return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
		}
		return writeError(c, err, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "user": userView(u)})
}

// startSession stores a new login session, sets its cookie and issues an
// access token for Bearer clients.
func (h *AuthHandler) startSession(c echo.Context, u *model.User) (tokenPart, error) {
	ttl := time.Duration(h.Cfg.SessionTTLHours) * time.Hour
	sess, err := utils.NewSessionToken(ttl)
	if err != nil {
		return tokenPart{}, err
	}
	if err := h.Sessions.Store(c.Request().Context(), u.ID, utils.HashToken(sess.Raw), sess.Exp); err != nil {
		return tokenPart{}, err
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Raw,
		Path:     "/",
		Expires:  sess.Exp,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPart{}, err
	}
	return tokenPart{Token: access.Token, Expires: access.Exp}, nil
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
