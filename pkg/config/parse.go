package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/registry.yaml
var defaultRegistryYAML []byte

// ParseRegistryYAML parses a Registry from YAML bytes and validates it.
// This is used for APIs where the registry is provided as payload (not via filesystem).
func ParseRegistryYAML(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, &ConfigurationError{Reason: "failed to parse registry yaml", Err: err}
	}

	if err := validateRegistry(&reg); err != nil {
		return nil, err
	}

	reg.buildIndex()
	return &reg, nil
}

// DefaultRegistry returns the built-in product lines.
func DefaultRegistry() (*Registry, error) {
	reg, err := ParseRegistryYAML(defaultRegistryYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in registry: %w", err)
	}
	return reg, nil
}
