// Package model defines the read-only application schema model consumed by the schema
// compiler: packages, classes and properties with categories, multiplicities, stereotypes,
// tagged values and descriptors.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies a class
type Category int

const (
	// CategoryUnknown is any class the compiler does not encode
	CategoryUnknown Category = iota
	// CategoryFeature is a feature type
	CategoryFeature
	// CategoryObject is an object type with identity that is not a feature
	CategoryObject
	// CategoryMixin is an abstract type contributing properties to its subtypes
	CategoryMixin
	// CategoryDataType is a structured type without identity
	CategoryDataType
	// CategoryUnion is a choice between its properties
	CategoryUnion
	// CategoryEnumeration is a fixed list of literals
	CategoryEnumeration
	// CategoryCodelist is an open list of codes
	CategoryCodelist
)

var categoryNames = map[Category]string{
	CategoryUnknown:     "unknown",
	CategoryFeature:     "feature",
	CategoryObject:      "object",
	CategoryMixin:       "mixin",
	CategoryDataType:    "datatype",
	CategoryUnion:       "union",
	CategoryEnumeration: "enumeration",
	CategoryCodelist:    "codelist",
}

// String returns the lowercase category name
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory parses a category name, case-insensitively
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "datatype", "data_type", "data-type":
		return CategoryDataType, nil
	case "featuretype":
		return CategoryFeature, nil
	case "objecttype", "type":
		return CategoryObject, nil
	case "codelist", "code_list", "code-list":
		return CategoryCodelist, nil
	}
	for c, name := range categoryNames {
		if name == key && c != CategoryUnknown {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown class category %q", s)
}

// HasIdentity reports whether instances of the category carry an identity
func (c Category) HasIdentity() bool {
	return c == CategoryFeature || c == CategoryObject
}

// Model is an indexed set of packages
type Model struct {
	Packages []*Package

	classes []*Class
	byName  map[string][]*Class
	byID    map[string]*Class
}

// New links the given root packages into a model: owners, supertypes, subtypes and
// property value types are resolved. Unknown supertypes are an error.
func New(packages ...*Package) (*Model, error) {
	m := &Model{
		Packages: packages,
		byName:   make(map[string][]*Class),
		byID:     make(map[string]*Class),
	}

	for _, p := range packages {
		m.index(p, nil)
	}

	for _, c := range m.classes {
		if err := m.link(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Model) index(p *Package, owner *Package) {
	p.Owner = owner
	for _, c := range p.Classes {
		c.Package = p
		if c.ID == "" {
			c.ID = p.QualifiedName() + "::" + c.Name
		}
		for i, prop := range c.Properties {
			prop.Owner = c
			if prop.Sequence == 0 {
				prop.Sequence = i + 1
			}
		}
		m.classes = append(m.classes, c)
		m.byName[c.Name] = append(m.byName[c.Name], c)
		m.byID[c.ID] = c
	}
	for _, sub := range p.Packages {
		m.index(sub, p)
	}
}

func (m *Model) link(c *Class) error {
	c.Supertypes = c.Supertypes[:0]
	for _, name := range c.SupertypeNames {
		super := m.lookup(name, c.Package)
		if super == nil {
			return fmt.Errorf("class %s: unknown supertype %q", c.QualifiedName(), name)
		}
		c.Supertypes = append(c.Supertypes, super)
		super.Subtypes = append(super.Subtypes, c)
	}

	for _, prop := range c.Properties {
		var valueType *Class
		if prop.TypeID != "" {
			valueType = m.byID[prop.TypeID]
		}
		if valueType == nil && prop.TypeName != "" {
			valueType = m.lookup(prop.TypeName, c.Package)
		}
		prop.Type = valueType
		if valueType != nil {
			prop.TypeID = valueType.ID
		}
	}
	return nil
}

// lookup finds a class by id or name, preferring classes of the same application schema
// when a name is ambiguous
func (m *Model) lookup(name string, from *Package) *Class {
	if c, ok := m.byID[name]; ok {
		return c
	}
	candidates := m.byName[name]
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}
	if from != nil {
		schema := from.ApplicationSchemaPackage()
		for _, c := range candidates {
			if c.Package.ApplicationSchemaPackage() == schema {
				return c
			}
		}
	}
	return candidates[0]
}

// ClassByID returns the class with the given identity or nil
func (m *Model) ClassByID(id string) *Class {
	return m.byID[id]
}

// ClassByName returns the first class with the given name or nil
func (m *Model) ClassByName(name string) *Class {
	return m.lookup(name, nil)
}

// Classes returns all classes in declaration order
func (m *Model) Classes() []*Class {
	return m.classes
}

// ApplicationSchemas returns all packages flagged as application schema, sorted by name
func (m *Model) ApplicationSchemas() []*Package {
	var out []*Package
	var walk func(p *Package)
	walk = func(p *Package) {
		if p.ApplicationSchema {
			out = append(out, p)
		}
		for _, sub := range p.Packages {
			walk(sub)
		}
	}
	for _, p := range m.Packages {
		walk(p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
