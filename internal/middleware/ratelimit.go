package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/invitame/wedding-invitation-service/internal/config"
)

// Token bucket, one Lua round trip per request so concurrent refill and
// take stay atomic. Returns {allowed, tokens_left, retry_after_ms}.
var bucketScript = redis.NewScript(`
    local bucket = KEYS[1]
    local now = tonumber(ARGV[1])
    local cap = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local every_ms = tonumber(ARGV[4])
    local ttl = tonumber(ARGV[5])

    local state = redis.call('HMGET', bucket, 'tokens', 'refilled_ms')
    local tokens = tonumber(state[1])
    local refilled = tonumber(state[2])
    if tokens == nil or refilled == nil then
        tokens = cap
        refilled = now
    end

    if every_ms > 0 and refill > 0 then
        local rounds = math.floor(math.max(0, now - refilled) / every_ms)
        if rounds > 0 then
            tokens = math.min(cap, tokens + rounds * refill)
            refilled = refilled + rounds * every_ms
        end
    end

    local allowed = 0
    local wait_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        wait_ms = math.max(0, every_ms - (now - refilled))
    end

    redis.call('HSET', bucket, 'tokens', tokens, 'refilled_ms', refilled)
    redis.call('EXPIRE', bucket, ttl)
    return { allowed, tokens, wait_ms }
`)

// NewTokenBucket rate limits by caller. It guards the public microsite
// routes (invitation page, RSVP form), which are reachable without a
// session, so the bucket key is IP based: plain "ip", or the default
// "ip_route" which gives each endpoint its own bucket per caller. When
// Redis is down the limiter fails open; a slow page beats a dead one.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            ctx := c.Request().Context()

            vals, err := bucketScript.Run(ctx, rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Result()
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                }
                return next(c)
            }
            arr, ok := vals.([]interface{})
            if !ok || len(arr) != 3 {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, vals)
                }
                return next(c)
            }
            allowed := asInt64(arr[0]) == 1
            remaining := asInt64(arr[1])
            waitMs := asInt64(arr[2])

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }

            if !allowed {
                secs := int(math.Ceil(float64(waitMs) / 1000.0))
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    c.Logger().Infof("[ratelimit] block key=%s remaining=%d retry=%dms", key, remaining, waitMs)
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too many requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// rateKey derives the bucket key. The route part uses the registered
// pattern, not the concrete path, so every invitation slug shares one
// bucket per caller.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        return strings.Join([]string{cfg.Prefix, "ip", ip}, ":")
    default: // "ip_route"
        route := c.Request().Method + " " + c.Path()
        return strings.Join([]string{cfg.Prefix, "ip", ip, "route", route}, ":")
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}
