package ids

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RunId identifies one orchestration run across logs, journal and hatchet metadata.
type RunId string

func NewRunId() RunId {
	return RunId(strings.ToLower(ulid.Make().String()))
}

// ParseRunId accepts an externally supplied id, generating a new one when empty.
func ParseRunId(s string) RunId {
	if s == "" {
		return NewRunId()
	}
	return RunId(strings.ToLower(s))
}

func (id RunId) String() string {
	return string(id)
}

// NewRequestId returns the value sent as X-Request-Id on outbound calls.
func NewRequestId() string {
	return uuid.NewString()
}
