package config

import (
    "os"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
    t.Helper()
    old, err := os.Getwd()
    require.NoError(t, err)
    require.NoError(t, os.Chdir(dir))
    t.Cleanup(func() { _ = os.Chdir(old) })
}

func setRequired(t *testing.T) {
    t.Helper()
    t.Setenv("APP_PORT", "8080")
    t.Setenv("DB_USER", "qc")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_NAME", "quickcourt")
    t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
    chdir(t, t.TempDir())
    setRequired(t)

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "3306", cfg.DBPort)
    assert.Equal(t, 2*time.Hour, cfg.CancelLeadTime)
    assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
    assert.Equal(t, 0.9, cfg.Payment.SuccessRate)
    assert.Equal(t, 5*time.Second, cfg.Payment.Timeout)
    assert.Equal(t, 60, cfg.RateLimit.Capacity)
    assert.True(t, cfg.Cache.Methods["GET"])
    assert.False(t, cfg.Rabbit.Enabled)
    assert.True(t, cfg.ReportsEnabled)
    assert.Equal(t, time.Minute, cfg.PendingTTL)
    assert.Equal(t, 30*time.Second, cfg.SweepInterval)
    assert.Equal(t, 25, cfg.Pool.MaxOpen)
    assert.Equal(t, 30*time.Minute, cfg.Pool.MaxLifetime)
    assert.Equal(t, "qc@tcp(127.0.0.1:3306)/quickcourt?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=true", cfg.DSN())
}

func TestLoadNestedOverrides(t *testing.T) {
    chdir(t, t.TempDir())
    setRequired(t)
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("PAYMENT_SUCCESS_RATE", "1")
    t.Setenv("BOOKING_CANCEL_LEAD_TIME", "30m")
    t.Setenv("CACHE_METHODS", "get, head")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "cache:6380", cfg.Redis.Address())
    assert.Equal(t, 5, cfg.RateLimit.Capacity)
    assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
    assert.Equal(t, 10*time.Minute, cfg.RateLimit.TTL)
    assert.Equal(t, 1.0, cfg.Payment.SuccessRate)
    assert.Equal(t, 30*time.Minute, cfg.CancelLeadTime)
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Cache.Methods)
}

func TestLoadMissingRequired(t *testing.T) {
    chdir(t, t.TempDir())
    setRequired(t)
    unsetenv(t, "JWT_SECRET")
    _, err := Load()
    assert.ErrorContains(t, err, "JWT_SECRET")
}

// unsetenv removes k for the duration of the test.
func unsetenv(t *testing.T, k string) {
    t.Helper()
    prev, ok := os.LookupEnv(k)
    require.NoError(t, os.Unsetenv(k))
    t.Cleanup(func() {
        if ok {
            _ = os.Setenv(k, prev)
        }
    })
}

func TestLoadBadTimezone(t *testing.T) {
    chdir(t, t.TempDir())
    setRequired(t)
    t.Setenv("APP_TIMEZONE", "Mars/Olympus")
    _, err := Load()
    assert.Error(t, err)
}
