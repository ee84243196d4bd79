package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditoria/auditoria/pkg/config"
)

type serverConfig struct {
	Addr    string `env:"CFGTEST_ADDR" envDefault:":8080"`
	Workers int    `env:"CFGTEST_WORKERS" envDefault:"4"`
	Debug   bool   `env:"CFGTEST_DEBUG" envDefault:"false"`
}

type storeConfig struct {
	Prefix string `env:"CFGTEST_PREFIX" envDefault:"app:"`
}

type requiredConfig struct {
	Secret string `env:"CFGTEST_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 4, cfg.Workers)
		assert.False(t, cfg.Debug)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("CFGTEST_ADDR", ":9090")
		t.Setenv("CFGTEST_WORKERS", "8")
		t.Setenv("CFGTEST_DEBUG", "true")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 8, cfg.Workers)
		assert.True(t, cfg.Debug)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("CFGTEST_PREFIX", "first:")
		var a storeConfig
		require.NoError(t, config.Load(&a))

		t.Setenv("CFGTEST_PREFIX", "second:")
		var b storeConfig
		require.NoError(t, config.Load(&b))
		assert.Equal(t, "first:", b.Prefix)

		var c storeConfig
		require.NoError(t, config.ForceReload(&c))
		assert.Equal(t, "second:", c.Prefix)
	})

	t.Run("missing required", func(t *testing.T) {
		config.ResetCache()
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)

		assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *serverConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
		assert.ErrorIs(t, config.ForceReload(cfg), config.ErrNilPointer)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.env")
	override := filepath.Join(dir, "override.env")
	require.NoError(t, os.WriteFile(base, []byte("CFGTEST_SECRET=base\nCFGTEST_ADDR=:7000\n"), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("CFGTEST_SECRET=override\n"), 0o600))

	t.Setenv("CFGTEST_SECRET", "")
	t.Setenv("CFGTEST_ADDR", "")
	config.ResetCache()

	require.NoError(t, config.LoadEnv(base, override))

	var req requiredConfig
	require.NoError(t, config.Load(&req))
	assert.Equal(t, "override", req.Secret)

	var srv serverConfig
	require.NoError(t, config.Load(&srv))
	assert.Equal(t, ":7000", srv.Addr)

	err := config.LoadEnv(filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, config.ErrEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(dir, "missing.env")) })
}
