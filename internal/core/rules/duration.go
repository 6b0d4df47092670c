package rules

import (
	"fmt"
	"time"
)

// ParseMaxWindowAge parses a Go duration string ("90s", "5m") plus "Xd" for days.
func ParseMaxWindowAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("max_window_age must not be empty")
	}

	// time.ParseDuration has no day unit.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil {
			return 0, fmt.Errorf("invalid max_window_age %q: %w", s, err)
		}
		if days <= 0 {
			return 0, fmt.Errorf("max_window_age must be positive, got %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max_window_age %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("max_window_age must be positive, got %q", s)
	}
	return d, nil
}
