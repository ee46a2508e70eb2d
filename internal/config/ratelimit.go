package config

import "time"

// RateLimitConfig drives the token-bucket limiter in front of answer
// writes.
type RateLimitConfig struct {
    Enabled     bool
    Capacity    int           // burst size
    Every       time.Duration // one token comes back per Every
    KeyStrategy string        // member_route, member or ip
    Prefix      string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:     envBool("RATE_LIMIT_ENABLED", true),
        Capacity:    envInt("RATE_LIMIT_BURST", 60),
        Every:       envDur("RATE_LIMIT_REFILL_EVERY", time.Second),
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "member_route"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.Every <= 0 {
        cfg.Every = time.Second
    }
    return cfg
}
