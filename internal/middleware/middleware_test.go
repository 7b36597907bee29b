package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "go.uber.org/zap/zaptest/observer"

    "github.com/quickcourt/quickcourt-api/internal/config"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
    t.Helper()
    s, err := jwt.NewWithClaims(method, claims).SignedString(key)
    require.NoError(t, err)
    return s
}

func run(t *testing.T, mw []echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, echo.Context) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
    if authz != "" {
        req.Header.Set("Authorization", authz)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
    for i := len(mw) - 1; i >= 0; i-- {
        h = mw[i](h)
    }
    require.NoError(t, h(c))
    return rec, c
}

func TestJWTAuth(t *testing.T) {
    exp := time.Now().Add(time.Hour).Unix()
    valid := sign(t, jwt.MapClaims{"sub": 42, "role": "OWNER", "exp": exp}, jwt.SigningMethodHS256, []byte(secret))

    t.Run("valid token", func(t *testing.T) {
        rec, c := run(t, []echo.MiddlewareFunc{JWTAuth(secret)}, "Bearer "+valid)
        assert.Equal(t, http.StatusNoContent, rec.Code)
        uid, ok := UserID(c)
        assert.True(t, ok)
        assert.Equal(t, uint64(42), uid)
        role, _ := Role(c)
        assert.Equal(t, "OWNER", role)
    })

    cases := map[string]string{
        "missing header": "",
        "not bearer":     "Basic abc",
        "bad signature":  "Bearer " + sign(t, jwt.MapClaims{"sub": 1, "exp": exp}, jwt.SigningMethodHS256, []byte("other")),
        "expired":        "Bearer " + sign(t, jwt.MapClaims{"sub": 1, "exp": time.Now().Add(-time.Minute).Unix()}, jwt.SigningMethodHS256, []byte(secret)),
        "no expiry":      "Bearer " + sign(t, jwt.MapClaims{"sub": 1}, jwt.SigningMethodHS256, []byte(secret)),
        "wrong alg":      "Bearer " + sign(t, jwt.MapClaims{"sub": 1, "exp": exp}, jwt.SigningMethodHS384, []byte(secret)),
        "no subject":     "Bearer " + sign(t, jwt.MapClaims{"role": "USER", "exp": exp}, jwt.SigningMethodHS256, []byte(secret)),
    }
    for name, authz := range cases {
        t.Run(name, func(t *testing.T) {
            rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth(secret)}, authz)
            assert.Equal(t, http.StatusUnauthorized, rec.Code)
        })
    }
}

func TestRequireRole(t *testing.T) {
    owner := sign(t, jwt.MapClaims{"sub": 7, "role": "OWNER", "exp": time.Now().Add(time.Hour).Unix()},
        jwt.SigningMethodHS256, []byte(secret))

    rec, _ := run(t, []echo.MiddlewareFunc{JWTAuth(secret), RequireRole("OWNER", "ADMIN")}, "Bearer "+owner)
    assert.Equal(t, http.StatusNoContent, rec.Code)

    rec, _ = run(t, []echo.MiddlewareFunc{JWTAuth(secret), RequireRole("ADMIN")}, "Bearer "+owner)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec, _ = run(t, []echo.MiddlewareFunc{RequireRole("USER")}, "")
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestLoggerAndID(t *testing.T) {
    core, logs := observer.New(zapcore.InfoLevel)
    rec, c := run(t, []echo.MiddlewareFunc{RequestID(), RequestLogger(zap.New(core))}, "")

    id := rec.Header().Get(RequestIDHeader)
    assert.NotEmpty(t, id)
    assert.Equal(t, id, GetRequestID(c))

    entries := logs.FilterMessage("request completed").All()
    require.Len(t, entries, 1)
    assert.Equal(t, int64(http.StatusNoContent), entries[0].ContextMap()["status"])
    assert.Equal(t, id, entries[0].ContextMap()["request_id"])
}

func TestDisabledRedisMiddlewarePassThrough(t *testing.T) {
    rl := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)
    cache := NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil)
    rec, _ := run(t, []echo.MiddlewareFunc{rl, cache}, "")
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/bookings")
    c.Set(CtxUserID, uint64(5))

    cfg := config.RateLimitConfig{Prefix: "qc:rl", KeyStrategy: "ip_user_route"}
    assert.Equal(t, "qc:rl:ip:10.0.0.1:user:5:route:POST /v1/bookings", buildRateKey(cfg, c))

    cfg.KeyStrategy = "user"
    c.Set(CtxUserID, nil)
    assert.Equal(t, "qc:rl:user:anon", buildRateKey(cfg, c))

    cfg.KeyStrategy = "ip_route"
    assert.Equal(t, "qc:rl:ip:10.0.0.1:route:POST /v1/bookings", buildRateKey(cfg, c))
}

func TestCacheSnapshot(t *testing.T) {
    snap := snapshot{Status: http.StatusOK, Header: http.Header{"Content-Type": {"application/json"}}, Body: []byte(`{"ok":true}`)}
    bs, err := snap.marshal()
    require.NoError(t, err)
    got, ok := unmarshalSnapshot(bs)
    require.True(t, ok)

    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/venues", nil), rec)
    require.NoError(t, got.replay(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

    _, ok = unmarshalSnapshot([]byte("garbage"))
    assert.False(t, ok)
}

func TestCacheKeyStrategy(t *testing.T) {
    e := echo.New()
    ctx := func(target string) echo.Context {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/v1/venues")
        return c
    }
    cfg := config.CacheConfig{Prefix: "qc:cache", KeyStrategy: "route_query"}
    assert.NotEqual(t, cacheKey(cfg, ctx("/v1/venues?sport=tennis")), cacheKey(cfg, ctx("/v1/venues?sport=padel")))

    cfg.KeyStrategy = "route"
    assert.Equal(t, cacheKey(cfg, ctx("/v1/venues?sport=tennis")), cacheKey(cfg, ctx("/v1/venues?sport=padel")))
    assert.True(t, strings.HasPrefix(cacheKey(cfg, ctx("/v1/venues")), "qc:cache:"))
}

func TestTeeWriterOverflow(t *testing.T) {
    rec := httptest.NewRecorder()
    tw := &teeWriter{ResponseWriter: rec, status: http.StatusOK, max: 4}
    _, _ = tw.Write([]byte("abc"))
    assert.False(t, tw.overflow)
    _, _ = tw.Write([]byte("def"))
    assert.True(t, tw.overflow)
    assert.Equal(t, "abcdef", rec.Body.String())
}

func TestRetrySeconds(t *testing.T) {
    assert.Equal(t, 0, retrySeconds(0))
    assert.Equal(t, 1, retrySeconds(10*time.Millisecond))
    assert.Equal(t, 2, retrySeconds(1500*time.Millisecond))
}

func TestRecover(t *testing.T) {
    core, logs := observer.New(zapcore.ErrorLevel)
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/boom", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    h := Recover(zap.New(core))(func(echo.Context) error { panic("boom") })

    require.NoError(t, h(c))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
    require.Equal(t, 1, logs.Len())
    assert.Equal(t, "panic recovered", logs.All()[0].Message)
}
