package middleware

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/pomodoro-flow/internal/config"
    "github.com/iliyamo/pomodoro-flow/internal/repository"
    "github.com/iliyamo/pomodoro-flow/internal/utils"
)

const testSecret = "test-secret"

type fakeSessions map[string]uint64

func (f fakeSessions) Validate(_ context.Context, hash string) (uint64, error) {
    if uid, ok := f[hash]; ok {
        return uid, nil
    }
    return 0, repository.ErrAuthSessionInvalid
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func whoami(c echo.Context) error {
    id, _ := IdentityFrom(c)
    return c.JSON(http.StatusOK, echo.Map{"user_id": id.UserID, "method": id.Method})
}

func TestAuthenticate(t *testing.T) {
    e := echo.New()
    sessions := fakeSessions{utils.HashToken("cookie-token"): 7}
    e.GET("/me", whoami, Authenticate(testSecret, sessions))

    tok, err := utils.NewAccessToken(testSecret, 42, "alice", 5)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }

    cases := []struct {
        name   string
        header string
        cookie string
        status int
        body   string
    }{
        {"bearer", "Bearer " + tok.Token, "", http.StatusOK, `"user_id":42`},
        {"cookie", "", "cookie-token", http.StatusOK, `"method":"cookie"`},
        {"bad bearer falls back to cookie", "Bearer junk", "cookie-token", http.StatusOK, `"user_id":7`},
        {"unknown cookie", "", "other", http.StatusUnauthorized, "Authentication required"},
        {"nothing", "", "", http.StatusUnauthorized, "Authentication required"},
    }
    for _, tc := range cases {
        req := httptest.NewRequest(http.MethodGet, "/me", nil)
        if tc.header != "" {
            req.Header.Set("Authorization", tc.header)
        }
        if tc.cookie != "" {
            req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tc.cookie})
        }
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        if rec.Code != tc.status {
            t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.status)
        }
        if !strings.Contains(rec.Body.String(), tc.body) {
            t.Errorf("%s: body %s, want it to contain %s", tc.name, rec.Body.String(), tc.body)
        }
    }
}

func TestOptionalIdentityLetsGuestsThrough(t *testing.T) {
    e := echo.New()
    e.GET("/check", whoami, OptionalIdentity(testSecret, fakeSessions{}))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check", nil))
    if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"user_id":0`) {
        t.Fatalf("guest check = %d %s", rec.Code, rec.Body.String())
    }
}

func rateCfg() config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            10 * time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
}

func hitN(e *echo.Echo, n int) []int {
    var codes []int
    for i := 0; i < n; i++ {
        req := httptest.NewRequest(http.MethodGet, "/ping", nil)
        req.RemoteAddr = "10.0.0.1:1234"
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        codes = append(codes, rec.Code)
    }
    return codes
}

func TestTokenBucketRedis(t *testing.T) {
    _, rdb := newRedis(t)
    e := echo.New()
    e.Use(NewTokenBucket(rateCfg(), rdb))
    e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

    codes := hitN(e, 3)
    want := []int{200, 200, 429}
    for i := range want {
        if codes[i] != want[i] {
            t.Fatalf("codes = %v, want %v", codes, want)
        }
    }
}

func TestTokenBucketFallsBackToLocal(t *testing.T) {
    e := echo.New()
    e.Use(NewTokenBucket(rateCfg(), nil))
    e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

    codes := hitN(e, 3)
    if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
        t.Fatalf("codes = %v", codes)
    }
}

func TestRedisCachePerUserAndPurge(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled:     true,
        Methods:     map[string]bool{http.MethodGet: true},
        TTL:         time.Minute,
        KeyStrategy: "route_query",
        Prefix:      "cache",
    }
    calls := 0
    e := echo.New()
    setUser := func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, _ := strconv.ParseUint(c.Request().Header.Get("X-User"), 10, 64)
            c.Set(identityKey, Identity{UserID: uid, Method: MethodBearer})
            return next(c)
        }
    }
    g := e.Group("", setUser, NewRedisCache(cfg, rdb))
    g.GET("/items", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    })
    g.POST("/items", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

    do := func(method, user string) *httptest.ResponseRecorder {
        req := httptest.NewRequest(method, "/items", nil)
        req.Header.Set("X-User", user)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        return rec
    }

    if rec := do(http.MethodGet, "1"); rec.Header().Get("X-Cache") != "MISS" {
        t.Fatalf("first read X-Cache = %q", rec.Header().Get("X-Cache"))
    }
    if rec := do(http.MethodGet, "1"); rec.Header().Get("X-Cache") != "HIT" || !strings.Contains(rec.Body.String(), `"calls":1`) {
        t.Fatalf("second read = %s %s", rec.Header().Get("X-Cache"), rec.Body.String())
    }
    if rec := do(http.MethodGet, "2"); rec.Header().Get("X-Cache") != "MISS" {
        t.Fatal("user 2 was served user 1's cached response")
    }

    if rec := do(http.MethodPost, "1"); rec.Code != http.StatusCreated {
        t.Fatalf("POST status %d", rec.Code)
    }
    if rec := do(http.MethodGet, "1"); rec.Header().Get("X-Cache") != "MISS" {
        t.Fatal("cache not purged after a successful write")
    }
    if rec := do(http.MethodGet, "2"); rec.Header().Get("X-Cache") != "HIT" {
        t.Fatal("user 1's write purged user 2's cache")
    }
}

func TestRedisCacheSkipsOversizedBodies(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "cache",
        MaxBodyBytes: 40,
    }
    e := echo.New()
    e.GET("/timetables", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"timetables": []string{
            "Monday lectures", "Tuesday labs", "Wednesday review", "Thursday",
        }})
    }, NewRedisCache(cfg, rdb))

    for i := 0; i < 2; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timetables", nil))
        if got := rec.Header().Get("X-Cache"); got != "MISS" {
            t.Fatalf("request %d: X-Cache = %q, oversized body must not be cached", i, got)
        }
        var out map[string][]string
        if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || len(out["timetables"]) != 4 {
            t.Fatalf("request %d: body %q is not the full response: %v", i, rec.Body.String(), err)
        }
    }
}

func TestRateLimitKeysOnResolvedUser(t *testing.T) {
    cfg := rateCfg()
    cfg.Capacity = 1
    cfg.KeyStrategy = "user"

    aliceTok, _ := utils.NewAccessToken(testSecret, 1, "alice", 5)
    bobTok, _ := utils.NewAccessToken(testSecret, 2, "bob", 5)

    _, shared := newRedis(t)
    for name, rdb := range map[string]*redis.Client{"redis": shared, "local": nil} {
        e := echo.New()
        e.Use(OptionalIdentity(testSecret, fakeSessions{}))
        e.Use(NewTokenBucket(cfg, rdb))
        e.GET("/me", whoami, Authenticate(testSecret, fakeSessions{}))

        call := func(tok string) int {
            req := httptest.NewRequest(http.MethodGet, "/me", nil)
            req.RemoteAddr = "10.0.0.1:1234"
            req.Header.Set("Authorization", "Bearer "+tok)
            rec := httptest.NewRecorder()
            e.ServeHTTP(rec, req)
            return rec.Code
        }
        if got := call(aliceTok.Token); got != http.StatusOK {
            t.Fatalf("%s: alice first = %d", name, got)
        }
        if got := call(aliceTok.Token); got != http.StatusTooManyRequests {
            t.Fatalf("%s: alice second = %d, want 429", name, got)
        }
        if got := call(bobTok.Token); got != http.StatusOK {
            t.Fatalf("%s: bob shares alice's bucket, got %d", name, got)
        }
    }
}
