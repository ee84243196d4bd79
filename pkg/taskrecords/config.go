package taskrecords

import "time"

// Config holds the search engine settings loaded from the environment.
type Config struct {
	UpstreamURL     string        `env:"TASKS_UPSTREAM_URL"`
	UpstreamToken   string        `env:"TASKS_UPSTREAM_TOKEN"`
	UpstreamTimeout time.Duration `env:"TASKS_UPSTREAM_TIMEOUT" envDefault:"30s"`
	CacheKey        string        `env:"TASKS_CACHE_KEY" envDefault:"tasks-records"`
	CacheTTL        time.Duration `env:"TASKS_CACHE_TTL" envDefault:"2m"`
}
