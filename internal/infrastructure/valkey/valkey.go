package valkey

import (
	"fmt"

	"github.com/stroppy-io/gatedfetch/internal/core/build"
	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/valkeyotel"
)

const (
	DefaultStream = "gatedfetch:runs"
	DefaultMaxLen = 10000

	streamStart = "-"
	streamEnd   = "+"
	autoId      = "*"
)

func clientOption(cfg *Config) (valkey.ClientOption, error) {
	if cfg.Url != "" {
		opt, err := valkey.ParseURL(cfg.Url)
		if err != nil {
			return valkey.ClientOption{}, fmt.Errorf("failed to parse Valkey URL: %w", err)
		}
		return opt, nil
	}
	return valkey.ClientOption{
		InitAddress: cfg.Addresses,
		Username:    cfg.Username,
		Password:    cfg.Password,
	}, nil
}

func NewValkey(cfg *Config) (valkey.Client, error) {
	opt, err := clientOption(cfg)
	if err != nil {
		return nil, err
	}
	opt.ClientName = fmt.Sprintf("%s.%s", build.ServiceName, build.GlobalInstanceId)
	client, err := valkeyotel.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}
	return client, nil
}
