package compiler

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML loads a schema file written in YAML.
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load yaml: %w", err)
	}
	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("load yaml %s: %w", path, err)
	}
	return cfg, nil
}

// ParseYAML parses a YAML schema document. Unknown keys are rejected.
func ParseYAML(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.Schemas == nil {
		return nil, &CompileError{Field: "schema", Message: "schema is required"}
	}
	return &cfg, nil
}
