// Package rules answers which conversion rules are in effect for a model element and
// supplies the type mapping table consulted by the schema compiler.
package rules

import (
	"fmt"
	"sort"
)

// Conversion rules understood by the compiler
const (
	RuleBasicType                     = "rule-json-cls-basictype"
	RuleCodelistURIFormat             = "rule-json-cls-codelist-uri-format"
	RuleCodelistLink                  = "rule-json-cls-codelist-link"
	RuleDefaultGeometrySingle         = "rule-json-cls-defaultGeometry-singleGeometryProperty"
	RuleDefaultGeometryMultiple       = "rule-json-cls-defaultGeometry-multipleGeometryProperties"
	RulePrimaryPlace                  = "rule-json-cls-primaryPlace"
	RulePrimaryTime                   = "rule-json-cls-primaryTime"
	RuleEntityType                    = "rule-json-cls-name-as-entityType"
	RuleEntityTypeDataType            = "rule-json-cls-name-as-entityType-dataType"
	RuleIdentifierForTypeWithIdentity = "rule-json-cls-identifierForTypeWithIdentity"
	RuleIdentifierStereotype          = "rule-json-cls-identifierStereotype"
	RuleIgnoreIdentifier              = "rule-json-cls-ignoreIdentifier"
	RuleNestedProperties              = "rule-json-cls-nestedProperties"
	RuleUnionTypeDiscriminator        = "rule-json-cls-union-typeDiscriminator"
	RuleUnionPropertyCount            = "rule-json-cls-union-propertyCount"
	RuleVirtualGeneralization         = "rule-json-cls-virtualGeneralization"
	RuleValueTypeOptions              = "rule-json-cls-valueTypeOptions"
	RuleVoidable                      = "rule-json-prop-voidable"
	RuleInitialValueAsDefault         = "rule-json-prop-initialValueAsDefault"
	RuleDerivedAsReadOnly             = "rule-json-prop-derivedAsReadOnly"
	RuleInlineDataTypes               = "rule-json-prop-inlineDataTypes"
	RuleDocumentation                 = "rule-json-all-documentation"
	RuleNotEncoded                    = "rule-json-all-notEncoded"
)

// Names of the built-in encoding rules
const (
	EncodingDefault    = "default"
	EncodingGeoJSON    = "geojson"
	EncodingJSONFG     = "jsonfg"
	EncodingNotEncoded = "notEncoded"
)

// EncodingRule is a named set of conversion rules, optionally extending other encoding rules
type EncodingRule struct {
	Name    string   `mapstructure:"name" yaml:"name" json:"name"`
	Extends []string `mapstructure:"extends" yaml:"extends,omitempty" json:"extends,omitempty"`
	Rules   []string `mapstructure:"rules" yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Builtin returns the predefined encoding rules
func Builtin() []EncodingRule {
	return []EncodingRule{
		{
			Name: EncodingDefault,
			Rules: []string{
				RuleBasicType,
				RuleVoidable,
				RuleDocumentation,
				RuleUnionPropertyCount,
			},
		},
		{
			Name:    EncodingGeoJSON,
			Extends: []string{EncodingDefault},
			Rules: []string{
				RuleVirtualGeneralization,
				RuleNestedProperties,
				RuleDefaultGeometrySingle,
				RuleDefaultGeometryMultiple,
				RuleIdentifierForTypeWithIdentity,
			},
		},
		{
			Name:    EncodingJSONFG,
			Extends: []string{EncodingGeoJSON},
			Rules: []string{
				RuleEntityType,
				RulePrimaryPlace,
				RulePrimaryTime,
			},
		},
		{
			Name:  EncodingNotEncoded,
			Rules: []string{RuleNotEncoded},
		},
	}
}

// RuleSet is an encoding rule with its extensions flattened
type RuleSet struct {
	name  string
	rules map[string]bool
}

// NewRuleSet creates a flat rule set
func NewRuleSet(name string, rules ...string) *RuleSet {
	rs := &RuleSet{name: name, rules: make(map[string]bool, len(rules))}
	for _, r := range rules {
		rs.rules[r] = true
	}
	return rs
}

// Name returns the encoding rule name
func (rs *RuleSet) Name() string {
	return rs.name
}

// Has reports whether rule is in effect
func (rs *RuleSet) Has(rule string) bool {
	return rs != nil && rs.rules[rule]
}

// Rules returns the rules in effect, sorted
func (rs *RuleSet) Rules() []string {
	out := make([]string, 0, len(rs.rules))
	for r := range rs.rules {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// flatten resolves the extends chains of all encoding rules. User rules replace built-in
// rules of the same name.
func flatten(defs []EncodingRule) (map[string]*RuleSet, error) {
	byName := make(map[string]EncodingRule, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("encoding rule without name")
		}
		byName[d.Name] = d
	}

	sets := make(map[string]*RuleSet, len(byName))
	visiting := make(map[string]bool)

	var resolve func(name string) (*RuleSet, error)
	resolve = func(name string) (*RuleSet, error) {
		if rs, ok := sets[name]; ok {
			return rs, nil
		}
		def, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("encoding rule %q is not defined", name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("encoding rule %q extends itself", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		rs := NewRuleSet(name, def.Rules...)
		for _, parent := range def.Extends {
			base, err := resolve(parent)
			if err != nil {
				return nil, fmt.Errorf("encoding rule %q: %w", name, err)
			}
			for r := range base.rules {
				rs.rules[r] = true
			}
		}
		sets[name] = rs
		return rs, nil
	}

	for name := range byName {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return sets, nil
}
