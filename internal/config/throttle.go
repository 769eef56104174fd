package config

import "time"

// CacheConfig controls the per-customer GET response cache. Entries expire
// after TTL or as soon as any write bumps the data version, whichever comes
// first.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
	MaxBody int64 // larger responses are served but not stored
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		Prefix:  getenv("CACHE_PREFIX", "travelco:cache"),
		MaxBody: int64(envInt("CACHE_MAX_BODY_BYTES", 1<<20)),
	}
}

// RateLimitConfig drives the API-wide token bucket: each caller holds up to
// Burst tokens and regains one every Every.
type RateLimitConfig struct {
	Enabled bool
	Burst   int
	Every   time.Duration
	Prefix  string
}

// IdleTTL is how long an untouched bucket is kept. A full refill takes
// Burst*Every, so anything idle longer is back at capacity anyway.
func (c RateLimitConfig) IdleTTL() time.Duration {
	return time.Duration(c.Burst)*c.Every + time.Minute
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Burst:   envInt("RATE_LIMIT_BURST", 60),
		Every:   envDur("RATE_LIMIT_EVERY", time.Second),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "travelco:rl"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return cfg
}
