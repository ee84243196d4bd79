package main

import (
	"fmt"

	notificationsmod "github.com/auditoria/auditoria/modules/notifications"
	"github.com/auditoria/auditoria/pkg/clientip"
	"github.com/auditoria/auditoria/pkg/config"
	"github.com/auditoria/auditoria/pkg/httpserver"
	"github.com/auditoria/auditoria/pkg/jwt"
	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/notifications"
	"github.com/auditoria/auditoria/pkg/ratelimiter"
	"github.com/auditoria/auditoria/pkg/redis"
	"github.com/auditoria/auditoria/pkg/taskrecords"
)

const (
	storeRedis  = "redis"
	storeMemory = "memory"
)

// serverConfig is everything `auditoria serve` reads from the environment.
type serverConfig struct {
	Logger    logger.Config
	HTTP      httpserver.Config
	Redis     redis.Config
	JWT       jwt.Config
	ClientIP  clientip.Config
	RateLimit ratelimiter.Config

	// StoreBackend selects the key-value store; memory keeps everything in
	// process and is meant for local development.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`
	// KeyPrefix namespaces every key and channel.
	KeyPrefix string `env:"KEY_PREFIX"`

	Notifications notifications.Config
	Routes        notificationsmod.Config
	Tasks         taskrecords.Config
}

func loadServerConfig() (serverConfig, error) {
	var cfg serverConfig
	if err := config.Load(&cfg); err != nil {
		return serverConfig{}, err
	}
	switch cfg.StoreBackend {
	case storeRedis, storeMemory:
	default:
		return serverConfig{}, fmt.Errorf("unknown STORE_BACKEND %q: must be %q or %q", cfg.StoreBackend, storeRedis, storeMemory)
	}
	return cfg, nil
}
