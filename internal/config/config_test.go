package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/agegate"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/stroppy-io/gatedfetch/internal/infrastructure/valkey"
)

func clearDefaultsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		logger.LogModEnvKey,
		logger.LevelEnvKey,
		logger.LogMappingEnvKey,
		logger.LogSkipCallerEnvKey,
		valkey.ValkeyUrlKey,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearDefaultsEnv(t)
	cfg, err := load(nil, nil)
	require.NoError(t, err)

	require.Equal(t, agegate.DefaultThreshold, cfg.Gate.Threshold)
	require.Equal(t, 20, cfg.Gate.Age)
	require.Equal(t, fetch.DefaultURL, cfg.Fetch.URL)
	require.Equal(t, fetch.DefaultTimeout, cfg.Fetch.Timeout)
	require.False(t, cfg.Valkey.Enabled())
	require.Equal(t, valkey.DefaultStream, cfg.Valkey.Stream)
	require.Equal(t, logger.ProductionMod, cfg.Logger.LogMod)
	require.Equal(t, logger.DefaultLevel, cfg.Logger.LogLevel)
	require.Equal(t, "gatedfetch-worker", cfg.Hatchet.WorkerName)
}

func TestLoad_EnvReplacesLists(t *testing.T) {
	clearDefaultsEnv(t)
	file := []byte(`
logger:
  mapping:
    fetch: warn
    journal: error
valkey:
  addresses: ["a:1", "b:2"]
`)
	cfg, err := load(file, []string{
		"GATEDFETCH_VALKEY__ADDRESSES=c:3",
		"GATEDFETCH_LOGGER__MAPPING__METRICS=error",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"c:3"}, cfg.Valkey.Addresses)
	require.Equal(t, map[string]logger.LogMod{"metrics": "error"}, cfg.Logger.LogMapping)
	// sections not named in the environment keep the file values
	require.Equal(t, valkey.DefaultStream, cfg.Valkey.Stream)
}

func TestLoad_LogAndValkeyEnvSeedDefaults(t *testing.T) {
	clearDefaultsEnv(t)
	t.Setenv(logger.LevelEnvKey, "debug")
	t.Setenv(logger.LogMappingEnvKey, "fetch=error")
	t.Setenv(valkey.ValkeyUrlKey, "redis://127.0.0.1:6379")

	cfg, err := load(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logger.LogLevel)
	require.Equal(t, map[string]logger.LogMod{"fetch": "error"}, cfg.Logger.LogMapping)
	require.Equal(t, "redis://127.0.0.1:6379", cfg.Valkey.Url)
	require.True(t, cfg.Valkey.Enabled())

	// GATEDFETCH_ variables and the file sit above LOG_*
	cfg, err = load([]byte("logger:\n  level: warn\n"), []string{"GATEDFETCH_LOGGER__LEVEL=error"})
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Logger.LogLevel)

	cfg, err = load([]byte("logger:\n  level: warn\n"), nil)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Logger.LogLevel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearDefaultsEnv(t)
	file := []byte(`
logger:
  mod: development
  level: debug
  mapping:
    journal: error
gate:
  threshold: 21
  age: 19
fetch:
  url: http://localhost:8080/todos/1
  timeout: 2s
valkey:
  addresses: ["127.0.0.1:6379"]
`)
	cfg, err := load(file, []string{
		"GATEDFETCH_GATE__AGE=25",
		"GATEDFETCH_FETCH__TIMEOUT=750ms",
		"UNRELATED=1",
	})
	require.NoError(t, err)

	require.Equal(t, logger.DevelopmentMod, cfg.Logger.LogMod)
	require.Equal(t, map[string]logger.LogMod{"journal": "error"}, cfg.Logger.LogMapping)
	require.Equal(t, 21, cfg.Gate.Threshold)
	require.Equal(t, 25, cfg.Gate.Age)
	require.Equal(t, "http://localhost:8080/todos/1", cfg.Fetch.URL)
	require.Equal(t, 750*time.Millisecond, cfg.Fetch.Timeout)
	require.Equal(t, []string{"127.0.0.1:6379"}, cfg.Valkey.Addresses)
	require.True(t, cfg.Valkey.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		environ []string
	}{
		{name: "broken yaml", file: "gate: [unterminated"},
		{name: "unknown key", file: "gate:\n  treshold: 18\n"},
		{name: "bad duration", environ: []string{"GATEDFETCH_FETCH__TIMEOUT=soon"}},
		{name: "bad number", environ: []string{"GATEDFETCH_GATE__AGE=old"}},
		{name: "negative threshold", file: "gate:\n  threshold: -1\n"},
		{name: "zero threshold", environ: []string{"GATEDFETCH_GATE__THRESHOLD=0"}},
		{name: "bad url scheme", environ: []string{"GATEDFETCH_FETCH__URL=ftp://example.com"}},
		{name: "bad log level", file: "logger:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load([]byte(tt.file), tt.environ)
			require.Error(t, err)
		})
	}
}

func TestLoad_FromPath(t *testing.T) {
	clearDefaultsEnv(t)
	path := filepath.Join(t.TempDir(), "gatedfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gate:\n  age: 40\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 40, cfg.Gate.Age)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFromEnv_IgnoresPathVariable(t *testing.T) {
	clearDefaultsEnv(t)
	path := filepath.Join(t.TempDir(), "gatedfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gate:\n  threshold: 30\n"), 0o600))
	t.Setenv(PathEnvKey, path)
	t.Setenv("GATEDFETCH_GATE__AGE", "31")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Equal(t, 30, cfg.Gate.Threshold)
	require.Equal(t, 31, cfg.Gate.Age)
}
