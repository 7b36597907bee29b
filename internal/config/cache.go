package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache in front of the
// public venue listings.  When Enabled is false or no Redis client is
// available, caching is skipped.  Methods lists the HTTP methods to cache,
// TTL the lifetime of entries, and KeyStrategy which parts of the request
// contribute to the cache key.
type CacheConfig struct {
    Enabled      bool            `envconfig:"CACHE_ENABLED" default:"true"`
    MethodList   string          `envconfig:"CACHE_METHODS" default:"GET"`
    Methods      map[string]bool `ignored:"true"`
    TTL          time.Duration   `envconfig:"CACHE_TTL" default:"30s"`
    KeyStrategy  string          `envconfig:"CACHE_KEY_STRATEGY" default:"route_query"`
    Prefix       string          `envconfig:"CACHE_PREFIX" default:"qc:cache"`
    MaxBodyBytes int             `envconfig:"CACHE_MAX_BODY_BYTES" default:"1048576"`
}

func (c *CacheConfig) normalize() {
    c.Methods = parseMethods(c.MethodList)
    if c.TTL <= 0 {
        c.TTL = time.Second
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
