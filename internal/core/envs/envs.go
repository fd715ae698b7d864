package envs

import (
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/stroppy-io/gatedfetch/internal/core/consts"
)

// Get returns the value of key, or defaultValue when it is unset or empty.
func Get(key consts.EnvKey, defaultValue consts.DefaultValue) string {
	return lo.CoalesceOrEmpty(os.Getenv(key), defaultValue)
}

// Environ returns the process environment without the given keys.
func Environ(exclude ...consts.EnvKey) []string {
	return lo.Reject(os.Environ(), func(kv string, _ int) bool {
		key, _, _ := strings.Cut(kv, "=")
		return lo.Contains(exclude, key)
	})
}

// Nested collects variables starting with prefix into a nested map.
// GATEDFETCH_FETCH__TIMEOUT=5s with prefix "GATEDFETCH_" becomes
// {"fetch": {"timeout": "5s"}}. Keys are lowercased.
func Nested(prefix string, environ []string) map[string]any {
	out := make(map[string]any)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(key, prefix)), "__")
		setPath(out, path, value)
	}
	return out
}

func setPath(m map[string]any, path []string, value string) {
	for i, part := range path {
		if part == "" {
			return
		}
		if i == len(path)-1 {
			m[part] = value
			return
		}
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
}
