package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig controls the Redis-backed fixed-window limiter that
// guards the self-service submission routes. Disabled by default so local
// development works without Redis.
type RateLimitConfig struct {
	Enabled  bool          // master switch (RATE_LIMIT_ENABLED)
	Requests int           // allowed requests per window (RATE_LIMIT_REQUESTS)
	Window   time.Duration // window length (RATE_LIMIT_WINDOW_SEC)
	Prefix   string        // Redis key prefix (RATE_LIMIT_PREFIX)
}

// LoadRateLimit reads the limiter configuration from the environment,
// applying safe defaults for anything unset.
func LoadRateLimit() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:  false,
		Requests: 10,
		Window:   time.Minute,
		Prefix:   "rl",
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Enabled = true
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Requests = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Window = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("RATE_LIMIT_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	return cfg
}
