package redis

import "time"

// Config describes how to reach Redis. Field values come from the environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
	// SubscriptionBuffer is the channel size of each dedicated pub/sub subscription.
	SubscriptionBuffer int `env:"REDIS_SUBSCRIPTION_BUFFER" envDefault:"100"`
}
