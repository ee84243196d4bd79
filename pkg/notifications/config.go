package notifications

import "time"

// Config holds notification pipeline settings loaded from the environment.
type Config struct {
	Storage      string        `env:"NOTIFICATION_STORAGE" envDefault:"hash"`
	TTL          time.Duration `env:"NOTIFICATION_TTL" envDefault:"168h"`
	Workers      int           `env:"NOTIFICATION_WORKERS" envDefault:"4"`
	QueueSize    int           `env:"NOTIFICATION_QUEUE_SIZE" envDefault:"1024"`
	Retries      int           `env:"NOTIFICATION_RETRIES" envDefault:"0"`
	Heartbeat    time.Duration `env:"NOTIFICATION_HEARTBEAT" envDefault:"25s"`
	DrainTimeout time.Duration `env:"NOTIFICATION_DRAIN_TIMEOUT" envDefault:"10s"`
}

// DispatcherOptions translates cfg into dispatcher options.
func (c Config) DispatcherOptions() []DispatcherOption {
	return []DispatcherOption{
		WithWorkers(c.Workers),
		WithQueueSize(c.QueueSize),
		WithRetries(c.Retries),
	}
}
