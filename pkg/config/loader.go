package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// registry caches one parsed value per config struct type.
type registry struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	cache = &registry{values: make(map[reflect.Type]any)}

	dotenvOnce sync.Once
)

// Load parses environment variables into v according to its `env` tags.
// The default .env file is read on first use if present. Each struct type is
// parsed once per process; later calls receive a copy of the cached value.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		// A missing .env is the normal case outside local development.
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cached, ok := cache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ForceReload drops the cached value for T and parses the environment again.
func ForceReload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	cache.mu.Lock()
	delete(cache.values, typeKey[T]())
	cache.mu.Unlock()
	return Load(v)
}

// ResetCache forgets every cached config. Intended for tests.
func ResetCache() {
	cache.mu.Lock()
	cache.values = make(map[reflect.Type]any)
	cache.mu.Unlock()
}

// LoadEnv reads the given .env files into the process environment. Later
// files take precedence over earlier ones; variables already set in the
// process are overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Overload(p); err != nil {
			return errors.Join(ErrEnvFile, fmt.Errorf("%s: %w", p, err))
		}
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
