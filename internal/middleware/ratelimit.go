package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/OptimisticPessimist/pscweb3/internal/config"
    "github.com/OptimisticPessimist/pscweb3/internal/logging"
)

// tokenBucket takes one token from the hash at KEYS[1] and returns
// {tokens left, ms until the next token}.  A zero wait means the request
// was admitted.  ARGV: capacity, refill period in ms, now in ms.
var tokenBucket = redis.NewScript(`
local cap, every, now = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3])
local t = tonumber(redis.call('HGET', KEYS[1], 't') or cap)
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts') or now)
local n = math.floor((now - ts) / every)
if n > 0 then
  t = math.min(cap, t + n)
  ts = ts + n * every
end
local wait = 0
if t > 0 then t = t - 1 else wait = every - (now - ts) end
redis.call('HSET', KEYS[1], 't', t, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], cap * every)
return {t, wait}
`)

// NewTokenBucket limits requests per key to cfg.Capacity in a burst,
// restoring one token every cfg.Every.  Without Redis, or when
// disabled, it passes everything through; Redis errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    log := logging.New("ratelimit")
    limit := strconv.Itoa(cfg.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
                cfg.Capacity, cfg.Every.Milliseconds(), time.Now().UnixMilli()).Int64Slice()
            if err != nil || len(res) != 2 {
                log.Warn("limiter unavailable, failing open", "key", key, "error", err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[0], 10))
            if res[1] == 0 {
                return next(c)
            }
            secs := int(math.Ceil(float64(res[1]) / 1000))
            h.Set("Retry-After", strconv.Itoa(secs))
            log.Debug("blocked", "key", key, "retry_after", secs)
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded", "retry_after": secs})
        }
    }
}

// buildRateKey derives the bucket key: "ip", "member", or by default
// member plus route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    var key string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        key = "ip:" + c.RealIP()
    case "member":
        key = "member:" + memberKey(c)
    default:
        key = "member:" + memberKey(c) + ":route:" + c.Request().Method + " " + c.Path()
    }
    return cfg.Prefix + ":" + key
}
