package model

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of a model file
type document struct {
	Packages []*Package `yaml:"packages"`
}

// Load reads a YAML model file
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML model and links it
func Parse(data []byte) (*Model, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if len(doc.Packages) == 0 {
		return nil, fmt.Errorf("model contains no packages")
	}
	return New(doc.Packages...)
}
