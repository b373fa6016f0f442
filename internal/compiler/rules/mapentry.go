package rules

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Characteristics a map entry can attach to its target type
const (
	CharacteristicGeometry = "geometry"
	CharacteristicPlace    = "place"
	CharacteristicTemporal = "temporal"
	CharacteristicMeasure  = "measure"
)

// Scalar JSON types a map entry may target
var scalarTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
}

// IsScalarType reports whether t is one of the scalar JSON Schema types
func IsScalarType(t string) bool {
	return scalarTypes[t]
}

// Keywords are JSON Schema keywords attached to a scalar map entry target
type Keywords struct {
	Format           string   `mapstructure:"format" yaml:"format,omitempty" json:"format,omitempty"`
	Pattern          string   `mapstructure:"pattern" yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Enum             []string `mapstructure:"enum" yaml:"enum,omitempty" json:"enum,omitempty"`
	MinLength        *int     `mapstructure:"minLength" yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength        *int     `mapstructure:"maxLength" yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Minimum          *float64 `mapstructure:"minimum" yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum          *float64 `mapstructure:"maximum" yaml:"maximum,omitempty" json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `mapstructure:"exclusiveMinimum" yaml:"exclusiveMinimum,omitempty" json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `mapstructure:"exclusiveMaximum" yaml:"exclusiveMaximum,omitempty" json:"exclusiveMaximum,omitempty"`
}

// IsEmpty reports whether no keyword is set
func (k Keywords) IsEmpty() bool {
	return k.Format == "" && k.Pattern == "" && len(k.Enum) == 0 &&
		k.MinLength == nil && k.MaxLength == nil &&
		k.Minimum == nil && k.Maximum == nil &&
		k.ExclusiveMinimum == nil && k.ExclusiveMaximum == nil
}

// EncodingInfo describes entity type and identifier members defined by an external schema
type EncodingInfo struct {
	EntityTypeMemberPath     string   `mapstructure:"entityTypeMemberPath" yaml:"entityTypeMemberPath,omitempty" json:"entityTypeMemberPath,omitempty"`
	EntityTypeMemberRequired bool     `mapstructure:"entityTypeMemberRequired" yaml:"entityTypeMemberRequired,omitempty" json:"entityTypeMemberRequired,omitempty"`
	IDMemberPath             string   `mapstructure:"idMemberPath" yaml:"idMemberPath,omitempty" json:"idMemberPath,omitempty"`
	IDMemberRequired         bool     `mapstructure:"idMemberRequired" yaml:"idMemberRequired,omitempty" json:"idMemberRequired,omitempty"`
	IDMemberTypes            []string `mapstructure:"idMemberTypes" yaml:"idMemberTypes,omitempty" json:"idMemberTypes,omitempty"`
	IDMemberFormats          []string `mapstructure:"idMemberFormats" yaml:"idMemberFormats,omitempty" json:"idMemberFormats,omitempty"`
}

// IsEmpty reports whether neither member is described
func (e *EncodingInfo) IsEmpty() bool {
	return e == nil || (e.EntityTypeMemberPath == "" && e.IDMemberPath == "")
}

// MapEntry maps a model type name to a JSON Schema representation
type MapEntry struct {
	// Type is the model type name
	Type string `mapstructure:"type" yaml:"type" json:"type"`
	// Rule is a glob over encoding rule names; empty matches every rule
	Rule string `mapstructure:"rule" yaml:"rule,omitempty" json:"rule,omitempty"`
	// TargetType is a scalar JSON type or a schema reference
	TargetType string `mapstructure:"targetType" yaml:"targetType" json:"targetType"`
	// Keywords are attached to scalar targets
	Keywords Keywords `mapstructure:"keywords" yaml:"keywords,omitempty" json:"keywords,omitempty"`
	// Characteristics flag geometry, place, temporal and measure types
	Characteristics []string `mapstructure:"characteristics" yaml:"characteristics,omitempty" json:"characteristics,omitempty"`
	// EncodingInfo describes members defined by the target schema
	EncodingInfo *EncodingInfo `mapstructure:"encodingInfo" yaml:"encodingInfo,omitempty" json:"encodingInfo,omitempty"`

	pattern glob.Glob
}

// compile prepares the rule pattern
func (e *MapEntry) compile() error {
	if e.Type == "" {
		return fmt.Errorf("map entry without type")
	}
	if e.TargetType == "" {
		return fmt.Errorf("map entry %q without target type", e.Type)
	}
	pattern := e.Rule
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("map entry %q: invalid rule pattern %q: %w", e.Type, e.Rule, err)
	}
	e.pattern = g
	return nil
}

// matches reports whether the entry applies under the encoding rule
func (e *MapEntry) matches(ruleName string) bool {
	if e.pattern == nil {
		return e.Rule == "" || e.Rule == "*" || e.Rule == ruleName
	}
	return e.pattern.Match(ruleName)
}

// IsScalar reports whether the target is a scalar JSON type
func (e *MapEntry) IsScalar() bool {
	return IsScalarType(e.TargetType)
}

// Has reports whether the entry carries characteristic c
func (e *MapEntry) Has(c string) bool {
	for _, have := range e.Characteristics {
		if have == c {
			return true
		}
	}
	return false
}

// Patterns is a list of globs, e.g. for schema selection
type Patterns []glob.Glob

// CompilePatterns compiles the given globs
func CompilePatterns(patterns []string) (Patterns, error) {
	out := make(Patterns, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Match reports whether s matches any pattern; an empty list matches everything
func (p Patterns) Match(s string) bool {
	if len(p) == 0 {
		return true
	}
	for _, g := range p {
		if g.Match(s) {
			return true
		}
	}
	return false
}
