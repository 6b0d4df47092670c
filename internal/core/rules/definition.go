package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultField        = "a"
	DefaultWindowSize   = 10
	DefaultMaxWindowAge = 60 * time.Second
)

// DefaultThreshold is the comparison bound used when no rule file overrides it.
var DefaultThreshold = decimal.NewFromInt(5)

// Definition is the rule configuration surface shared by the instant and window rules.
// Both rules compare the same payload field against the same threshold.
type Definition struct {
	Field        string
	Threshold    decimal.Decimal
	WindowSize   int
	MaxWindowAge time.Duration

	// RefireWhileFull restores the legacy behaviour: the window rule fires on every
	// append while the window is full and satisfied, instead of once per fill.
	RefireWhileFull bool

	// Fingerprint is the SHA-256 of the rule file this definition was loaded from.
	// Empty for built-in defaults.
	Fingerprint string
}

// Default returns the built-in rule: payload.a > 5 over a 10-entry, 60s window.
func Default() Definition {
	return Definition{
		Field:        DefaultField,
		Threshold:    DefaultThreshold,
		WindowSize:   DefaultWindowSize,
		MaxWindowAge: DefaultMaxWindowAge,
	}
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Field) == "" {
		return fmt.Errorf("rule field must not be empty")
	}
	if d.WindowSize <= 0 {
		return fmt.Errorf("rule window_size must be > 0, got %d", d.WindowSize)
	}
	if d.MaxWindowAge <= 0 {
		return fmt.Errorf("rule max_window_age must be > 0, got %s", d.MaxWindowAge)
	}
	return nil
}

// InstantRuleID identifies the single-reading rule, e.g. "instant-a-gt-5".
func (d Definition) InstantRuleID() string {
	return fmt.Sprintf("instant-%s-gt-%s", d.Field, d.Threshold.String())
}

// WindowRuleID identifies the full-window rule, e.g. "window-a-gt-5-n-10".
func (d Definition) WindowRuleID() string {
	return fmt.Sprintf("window-%s-gt-%s-n-%d", d.Field, d.Threshold.String(), d.WindowSize)
}

// Condition is the human-readable predicate recorded on alerts.
func (d Definition) Condition() string {
	return fmt.Sprintf("payload.%s > %s", d.Field, d.Threshold.String())
}
