package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaggedValues maps tag names to their (possibly multiple) values
type TaggedValues map[string][]string

// Get returns the first value of tag, or "" when absent
func (tv TaggedValues) Get(tag string) string {
	if values := tv[tag]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// All returns all non-empty values of tag
func (tv TaggedValues) All(tag string) []string {
	var out []string
	for _, v := range tv[tag] {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether tag has at least one non-empty value
func (tv TaggedValues) Has(tag string) bool {
	return len(tv.All(tag)) > 0
}

// Bool reports whether the first value of tag is "true" (case-insensitive)
func (tv TaggedValues) Bool(tag string) bool {
	return strings.EqualFold(strings.TrimSpace(tv.Get(tag)), "true")
}

// UnmarshalYAML accepts scalar or sequence values per tag
func (tv *TaggedValues) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tagged values must be a mapping", node.Line)
	}
	out := make(TaggedValues, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch value.Kind {
		case yaml.ScalarNode:
			out[key] = []string{value.Value}
		case yaml.SequenceNode:
			values := make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				values = append(values, item.Value)
			}
			out[key] = values
		default:
			return fmt.Errorf("line %d: tagged value %q must be a string or a list", value.Line, key)
		}
	}
	*tv = out
	return nil
}

// UnmarshalYAML parses the category name
func (c *Category) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseCategory(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the category name
func (c Category) MarshalYAML() (any, error) {
	return c.String(), nil
}
