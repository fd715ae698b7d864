package build

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Set with -ldflags "-X github.com/stroppy-io/gatedfetch/internal/core/build.Version=..."
var (
	ServiceName = "gatedfetch"
	Version     = "dev"
)

// GlobalInstanceId identifies this process in logs and journal entries.
var GlobalInstanceId = strings.ToLower(ulid.Make().String()) //nolint:gochecknoglobals // process identity
