package valkey

import (
	"fmt"

	"github.com/stroppy-io/gatedfetch/internal/core/consts"
	"github.com/stroppy-io/gatedfetch/internal/core/envs"
)

const ValkeyUrlKey consts.EnvKey = "VALKEY_URL"

// Config selects the journal backend. Url takes precedence over Addresses.
type Config struct {
	Url       string   `mapstructure:"url"`
	Addresses []string `mapstructure:"addresses" validate:"dive,hostname_port"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Stream    string   `mapstructure:"stream" default:"gatedfetch:runs"`
	MaxLen    int64    `mapstructure:"max_len" default:"10000"`
}

func (c *Config) Enabled() bool {
	return c != nil && (c.Url != "" || len(c.Addresses) > 0)
}

func (c *Config) Validate() error {
	if c.MaxLen < 0 {
		return fmt.Errorf("valkey max_len must not be negative, got %d", c.MaxLen)
	}
	return nil
}

// NewConfigFromEnv enables the journal when VALKEY_URL is set.
func NewConfigFromEnv() *Config {
	return &Config{
		Url:    envs.Get(ValkeyUrlKey, ""),
		Stream: DefaultStream,
		MaxLen: DefaultMaxLen,
	}
}
