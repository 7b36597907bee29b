package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/config"
)

// Headers never replayed from a cached entry.
var volatileHeaders = []string{"X-Cache", "X-Trace-ID", echo.HeaderXRequestID, echo.HeaderContentLength}

// snapshot is what gets stored per cache key.
type snapshot struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

func (s snapshot) marshal() ([]byte, error) { return json.Marshal(s) }

func unmarshalSnapshot(bs []byte) (snapshot, bool) {
	var s snapshot
	if err := json.Unmarshal(bs, &s); err != nil || s.Status == 0 {
		return snapshot{}, false
	}
	return s, true
}

func (s snapshot) replay(c echo.Context) error {
	h := c.Response().Header()
	for k, vals := range s.Header {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(s.Status)
	_, err := c.Response().Write(s.Body)
	return err
}

// teeWriter copies up to max bytes of the body aside while writing through.
type teeWriter struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	max      int
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && w.body.Len()+len(b) > w.max {
			w.overflow = true
			w.body.Reset()
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// cacheKey hashes the request parts selected by cfg.KeyStrategy
// (route, method_route, method_route_query, default route_query).
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	strategy := strings.ToLower(cfg.KeyStrategy)
	h := sha1.New()
	if strings.HasPrefix(strategy, "method_") {
		h.Write([]byte(r.Method + "\n"))
	}
	h.Write([]byte(c.Path()))
	if strategy != "route" && strategy != "method_route" {
		h.Write([]byte("?" + r.URL.RawQuery))
	}
	return cfg.Prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// NewRedisCache serves repeated anonymous reads of the public venue
// endpoints from Redis. Only 200 responses within MaxBodyBytes are stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if !cfg.Methods[r.Method] || r.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			ctx := r.Context()
			key := cacheKey(cfg, c)

			bs, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if snap, ok := unmarshalSnapshot(bs); ok {
					return snap.replay(c)
				}
			case !errors.Is(err, redis.Nil):
				log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, max: cfg.MaxBodyBytes}
			c.Response().Writer = tw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tw.status != http.StatusOK || tw.overflow {
				return nil
			}

			snap := snapshot{Status: tw.status, Header: c.Response().Header().Clone(), Body: tw.body.Bytes()}
			for _, k := range volatileHeaders {
				snap.Header.Del(k)
			}
			payload, err := snap.marshal()
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
