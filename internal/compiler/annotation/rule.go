// Package annotation renders descriptive annotation keywords from model element
// documentation through configurable templates.
package annotation

import (
	"fmt"

	"github.com/conduit-lang/modelschema/internal/compiler/model"
)

// ValueKind is the JSON kind an annotation value is coerced to
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindBoolean ValueKind = "boolean"
	KindInteger ValueKind = "integer"
	KindNumber  ValueKind = "number"
)

// Scope restricts the elements a rule applies to
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeClass     Scope = "class"
	ScopeProperty  Scope = "property"
	ScopePackage   Scope = "package"
	ScopeAttribute Scope = "attribute"
	ScopeRole      Scope = "role"
)

// MultiValueBehavior controls placeholders yielding several values
type MultiValueBehavior string

const (
	// Connect joins the values of each placeholder into one string
	Connect MultiValueBehavior = "connect"
	// FanOut produces one output per combination of placeholder values
	FanOut MultiValueBehavior = "fanOut"
)

// NoValueBehavior controls placeholders yielding no value
type NoValueBehavior string

const (
	// Ignore substitutes the empty string; no output when every placeholder is empty
	Ignore NoValueBehavior = "ignore"
	// PopulateOnce substitutes NoValueValue once
	PopulateOnce NoValueBehavior = "populateOnce"
)

// Rule describes one annotation keyword. A simple rule names a single Descriptor, a
// template rule embeds [[descriptor]] placeholders in Template.
type Rule struct {
	Name                     string             `mapstructure:"name" yaml:"name" json:"name"`
	Descriptor               string             `mapstructure:"descriptor" yaml:"descriptor,omitempty" json:"descriptor,omitempty"`
	Template                 string             `mapstructure:"template" yaml:"template,omitempty" json:"template,omitempty"`
	Type                     ValueKind          `mapstructure:"type" yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=string,enum=boolean,enum=integer,enum=number"`
	AppliesTo                Scope              `mapstructure:"appliesTo" yaml:"appliesTo,omitempty" json:"appliesTo,omitempty" jsonschema:"enum=all,enum=class,enum=property,enum=package,enum=attribute,enum=role"`
	MultiValue               MultiValueBehavior `mapstructure:"multiValue" yaml:"multiValue,omitempty" json:"multiValue,omitempty" jsonschema:"enum=connect,enum=fanOut"`
	MultiValueConnectorToken string             `mapstructure:"multiValueConnectorToken" yaml:"multiValueConnectorToken,omitempty" json:"multiValueConnectorToken,omitempty"`
	NoValue                  NoValueBehavior    `mapstructure:"noValue" yaml:"noValue,omitempty" json:"noValue,omitempty" jsonschema:"enum=ignore,enum=populateOnce"`
	NoValueValue             string             `mapstructure:"noValueValue" yaml:"noValueValue,omitempty" json:"noValueValue,omitempty"`
	ArrayValue               bool               `mapstructure:"arrayValue" yaml:"arrayValue,omitempty" json:"arrayValue,omitempty"`
}

// Defaults are used when no annotation rules are configured
func Defaults() []Rule {
	return []Rule{
		{Name: "title", Descriptor: "alias"},
		{Name: "description", Descriptor: "definition"},
	}
}

// Validate checks that the rule is usable
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("annotation rule without name")
	}
	if r.Descriptor == "" && r.Template == "" {
		return fmt.Errorf("annotation %q: either descriptor or template is required", r.Name)
	}
	if r.Descriptor != "" && r.Template != "" {
		return fmt.Errorf("annotation %q: descriptor and template are mutually exclusive", r.Name)
	}
	switch r.Type {
	case "", KindString, KindBoolean, KindInteger, KindNumber:
	default:
		return fmt.Errorf("annotation %q: unknown value type %q", r.Name, r.Type)
	}
	switch r.AppliesTo {
	case "", ScopeAll, ScopeClass, ScopeProperty, ScopePackage, ScopeAttribute, ScopeRole:
	default:
		return fmt.Errorf("annotation %q: unknown scope %q", r.Name, r.AppliesTo)
	}
	switch r.MultiValue {
	case "", Connect, FanOut:
	default:
		return fmt.Errorf("annotation %q: unknown multi value behavior %q", r.Name, r.MultiValue)
	}
	switch r.NoValue {
	case "", Ignore, PopulateOnce:
	default:
		return fmt.Errorf("annotation %q: unknown no value behavior %q", r.Name, r.NoValue)
	}
	return nil
}

// AppliesToElement reports whether the rule is in scope for el
func (r Rule) AppliesToElement(el model.Element) bool {
	kind := el.ElementKind()
	switch r.AppliesTo {
	case "", ScopeAll:
		return true
	case ScopeClass:
		return kind == model.KindClass
	case ScopePackage:
		return kind == model.KindPackage
	case ScopeProperty:
		return kind == model.KindAttribute || kind == model.KindRole
	case ScopeAttribute:
		return kind == model.KindAttribute
	case ScopeRole:
		return kind == model.KindRole
	}
	return false
}

func (r Rule) template() string {
	if r.Template != "" {
		return r.Template
	}
	return "[[" + r.Descriptor + "]]"
}

func (r Rule) kind() ValueKind {
	if r.Type == "" {
		return KindString
	}
	return r.Type
}

// multiValue defaults to fan-out for simple rules and to connect for templates
func (r Rule) multiValue() MultiValueBehavior {
	if r.MultiValue != "" {
		return r.MultiValue
	}
	if r.Template == "" {
		return FanOut
	}
	return Connect
}

func (r Rule) connector() string {
	if r.MultiValueConnectorToken != "" {
		return r.MultiValueConnectorToken
	}
	return " "
}
