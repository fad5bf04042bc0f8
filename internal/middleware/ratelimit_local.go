package middleware

import (
    "math"
    "strconv"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "golang.org/x/time/rate"

    "github.com/iliyamo/pomodoro-flow/internal/config"
)

type localBucket struct {
    lim      *rate.Limiter
    lastSeen time.Time
}

// NewLocalLimiter is the single-process counterpart of NewTokenBucket: one
// x/time/rate limiter per key with the same capacity and refill rate.  Keys
// idle for longer than cfg.TTL are dropped.
func NewLocalLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
    cfg = cfg.Normalized()
    every := rate.Limit(float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds())

    var (
        mu        sync.Mutex
        buckets   = map[string]*localBucket{}
        lastSweep = time.Now()
    )
    get := func(k string, now time.Time) *rate.Limiter {
        mu.Lock()
        defer mu.Unlock()
        if now.Sub(lastSweep) > cfg.TTL {
            for key, b := range buckets {
                if now.Sub(b.lastSeen) > cfg.TTL {
                    delete(buckets, key)
                }
            }
            lastSweep = now
        }
        b, ok := buckets[k]
        if !ok {
            b = &localBucket{lim: rate.NewLimiter(every, cfg.Capacity)}
            buckets[k] = b
        }
        b.lastSeen = now
        return b.lim
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            now := time.Now()
            lim := get(key, now)
            res := lim.ReserveN(now, 1)
            if !res.OK() {
                return tooManyRequests(c, 0)
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            if delay := res.DelayFrom(now); delay > 0 {
                res.CancelAt(now)
                c.Response().Header().Set("X-RateLimit-Remaining", "0")
                secs := int(math.Ceil(delay.Seconds()))
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                return tooManyRequests(c, secs)
            }
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.TokensAt(now))))
            return next(c)
        }
    }
}
