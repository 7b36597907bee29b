package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/config"
)

// takeScript refills the bucket continuously at rate tokens per millisecond
// and takes one token if available. Tokens are stored fractionally.
// Returns {allowed, whole tokens left, ms until the next token}.
var takeScript = redis.NewScript(`
local cap = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local now = tonumber(ARGV[1])
local b = redis.call('HMGET', KEYS[1], 'level', 'at')
local level = tonumber(b[1]) or cap
local at = tonumber(b[2]) or now
if now > at then
  level = math.min(cap, level + (now - at) * rate)
end
local ok, wait = 0, 0
if level >= 1 then
  ok = 1
  level = level - 1
elseif rate > 0 then
  wait = math.ceil((1 - level) / rate)
end
redis.call('HSET', KEYS[1], 'level', tostring(level), 'at', now)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {ok, math.floor(level), wait}
`)

var errBadReply = errors.New("rate limiter: unexpected script reply")

type verdict struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

type bucket struct {
	rdb  redis.Scripter
	cfg  config.RateLimitConfig
	rate float64
}

func newBucket(cfg config.RateLimitConfig, rdb redis.Scripter) *bucket {
	b := &bucket{rdb: rdb, cfg: cfg}
	if ms := cfg.RefillInterval.Milliseconds(); ms > 0 {
		b.rate = float64(cfg.RefillTokens) / float64(ms)
	}
	return b
}

func (b *bucket) take(ctx context.Context, key string, now time.Time) (verdict, error) {
	out, err := takeScript.Run(ctx, b.rdb, []string{key},
		now.UnixMilli(), b.cfg.Capacity, b.rate, b.cfg.TTL.Milliseconds()).Int64Slice()
	if err != nil {
		return verdict{}, err
	}
	if len(out) != 3 {
		return verdict{}, errBadReply
	}
	return verdict{
		allowed:    out[0] == 1,
		remaining:  out[1],
		retryAfter: time.Duration(out[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket throttles write routes with a Redis token bucket shared by
// every API instance. Keys follow cfg.KeyStrategy (see buildRateKey).
// Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := newBucket(cfg, rdb)
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			v, err := b.take(c.Request().Context(), key, time.Now())
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if v.allowed {
				return next(c)
			}

			secs := retrySeconds(v.retryAfter)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Debug("rate limited", zap.String("key", key), zap.Duration("retry_after", v.retryAfter))
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// retrySeconds rounds up so clients never retry before a token exists.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// buildRateKey composes the bucket key from the parts named in the strategy,
// e.g. "ip_route". Unknown or empty strategies key on ip, user and route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	want := map[string]bool{}
	for _, p := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		want[p] = true
	}
	if !want["ip"] && !want["user"] && !want["route"] {
		want = map[string]bool{"ip": true, "user": true, "route": true}
	}

	var sb strings.Builder
	sb.WriteString(cfg.Prefix)
	if want["ip"] {
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		sb.WriteString(":ip:" + ip)
	}
	if want["user"] {
		sb.WriteString(":user:" + subject(c))
	}
	if want["route"] {
		sb.WriteString(":route:" + c.Request().Method + " " + c.Path())
	}
	return sb.String()
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
