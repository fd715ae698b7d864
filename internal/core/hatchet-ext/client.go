package hatchet_ext

import (
	"errors"

	v0Client "github.com/hatchet-dev/hatchet/pkg/client"
	hatchet "github.com/hatchet-dev/hatchet/sdks/go"
	"github.com/stroppy-io/gatedfetch/internal/core/consts"
	"github.com/stroppy-io/gatedfetch/internal/core/envs"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
)

const HatchetClientTokenKey consts.EnvKey = "HATCHET_CLIENT_TOKEN"

var ErrNoToken = errors.New(HatchetClientTokenKey + " is not set")

// HatchetClient creates a client authenticated from the environment and
// logging through the global logger.
func HatchetClient(opts ...v0Client.ClientOpt) (*hatchet.Client, error) {
	token := envs.Get(HatchetClientTokenKey, "")
	if token == "" {
		return nil, ErrNoToken
	}
	return hatchet.NewClient(append([]v0Client.ClientOpt{
		v0Client.WithLogger(logger.Zerolog()),
		v0Client.WithToken(token),
	}, opts...)...)
}
