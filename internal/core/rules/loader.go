package rules

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// rawDefinition is the on-disk YAML shape. Every field is optional; absent
// fields keep their built-in default.
type rawDefinition struct {
	Field           string           `yaml:"field"`
	Threshold       *decimal.Decimal `yaml:"threshold"`
	WindowSize      *int             `yaml:"window_size"`
	MaxWindowAge    string           `yaml:"max_window_age"`
	RefireWhileFull bool             `yaml:"refire_while_full"`
}

// LoadFile reads a rule definition from a YAML file.
// A missing file is valid and yields Default().
func LoadFile(path string) (Definition, error) {
	def := Default()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return def, nil
	}
	if err != nil {
		return Definition{}, fmt.Errorf("reading rule file %s: %w", path, err)
	}

	def, err = Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("rule file %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a YAML rule definition on top of the defaults and validates it.
func Parse(data []byte) (Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("parsing rule definition: %w", err)
	}

	def := Default()
	if raw.Field != "" {
		def.Field = raw.Field
	}
	if raw.Threshold != nil {
		def.Threshold = *raw.Threshold
	}
	if raw.WindowSize != nil {
		def.WindowSize = *raw.WindowSize
	}
	if raw.MaxWindowAge != "" {
		age, err := ParseMaxWindowAge(raw.MaxWindowAge)
		if err != nil {
			return Definition{}, err
		}
		def.MaxWindowAge = age
	}
	def.RefireWhileFull = raw.RefireWhileFull
	def.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))

	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}
