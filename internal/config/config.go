package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/stroppy-io/gatedfetch/internal/core/envs"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/agegate"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/stroppy-io/gatedfetch/internal/infrastructure/metrics"
	"github.com/stroppy-io/gatedfetch/internal/infrastructure/valkey"
	"sigs.k8s.io/yaml"
)

const (
	EnvPrefix = "GATEDFETCH_"
	// PathEnvKey names the YAML file; it is not a config key itself.
	PathEnvKey = EnvPrefix + "CONFIG"
)

type HatchetConfig struct {
	WorkerName string `mapstructure:"worker_name" default:"gatedfetch-worker"`
}

type Config struct {
	Logger  logger.Config  `mapstructure:"logger"`
	Gate    agegate.Config `mapstructure:"gate"`
	Fetch   fetch.Config   `mapstructure:"fetch"`
	Valkey  valkey.Config  `mapstructure:"valkey"`
	Metrics metrics.Config `mapstructure:"metrics"`
	Hatchet HatchetConfig  `mapstructure:"hatchet"`
}

// Default is the config before any file or GATEDFETCH_ variable is applied.
// The logger and valkey sections start from LOG_* and VALKEY_URL.
func Default() *Config {
	return &Config{
		Logger:  *logger.ConfigFromEnv(),
		Gate:    *agegate.DefaultConfig(),
		Fetch:   *fetch.DefaultConfig(),
		Valkey:  *valkey.NewConfigFromEnv(),
		Metrics: metrics.Config{Addr: ":9464"},
		Hatchet: HatchetConfig{WorkerName: "gatedfetch-worker"},
	}
}

func (c *Config) Validate() error {
	return errors.Join(
		c.Logger.Validate(),
		c.Gate.Validate(),
		c.Fetch.Validate(),
		c.Valkey.Validate(),
	)
}

// Load builds the config from defaults, the optional YAML file at path and
// GATEDFETCH_ prefixed environment variables, later sources winning.
func Load(path string) (*Config, error) {
	var file []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		file = data
	}
	return load(file, envs.Environ(PathEnvKey))
}

// LoadFromEnv loads the file named by GATEDFETCH_CONFIG, if any.
func LoadFromEnv() (*Config, error) {
	return Load(envs.Get(PathEnvKey, ""))
}

func load(file []byte, environ []string) (*Config, error) {
	cfg := Default()
	if len(file) > 0 {
		raw := map[string]any{}
		if err := yaml.Unmarshal(file, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if err := decode(raw, cfg); err != nil {
			return nil, err
		}
	}
	if err := decode(envs.Nested(EnvPrefix, environ), cfg); err != nil {
		return nil, fmt.Errorf("failed to apply %s environment: %w", EnvPrefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decode merges input into out field by field. Lists and maps given in input
// replace the previous value instead of being merged into it.
func decode(input map[string]any, out *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
