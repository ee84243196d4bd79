// Package config loads typed configuration from environment variables.
//
// Structs are described with `env` / `envDefault` tags understood by
// github.com/caarlos0/env/v11. Load reads an optional .env file through
// github.com/joho/godotenv the first time it runs, parses the struct, and
// caches the result per type so every package asking for the same config
// sees the same values.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
// Tests can call ResetCache or ForceReload after changing the environment.
package config
