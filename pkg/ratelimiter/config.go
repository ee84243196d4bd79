package ratelimiter

import "time"

// Config for the inbound webhook limiter. A zero Limit disables it.
type Config struct {
	Limit  int           `env:"WEBHOOK_RATE_LIMIT" envDefault:"0"`
	Window time.Duration `env:"WEBHOOK_RATE_WINDOW" envDefault:"1m"`
}

// Enabled reports whether a limit is configured.
func (c Config) Enabled() bool {
	return c.Limit > 0
}
