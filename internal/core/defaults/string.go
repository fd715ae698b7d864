package defaults

import "time"

func StringOrDefault(s string, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}

func IntPtrOrDefault(i *int, defaultValue int) int {
	if i == nil {
		return defaultValue
	}
	return *i
}

func DurationOrDefault(d time.Duration, defaultValue time.Duration) time.Duration {
	if d <= 0 {
		return defaultValue
	}
	return d
}
