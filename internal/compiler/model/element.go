package model

import "strings"

// ElementKind distinguishes the kinds of model elements
type ElementKind int

const (
	KindPackage ElementKind = iota
	KindClass
	KindAttribute
	KindRole
)

// Element is the common view on packages, classes and properties
type Element interface {
	ElementKind() ElementKind
	ElementName() string
	QualifiedName() string
	Descriptors() *Descriptors
	TaggedValues() TaggedValues
	Parent() Element
}

// Descriptors holds the documentation of a model element
type Descriptors struct {
	Alias                 string   `yaml:"alias,omitempty"`
	Definition            string   `yaml:"definition,omitempty"`
	Description           string   `yaml:"description,omitempty"`
	Examples              []string `yaml:"examples,omitempty"`
	LegalBasis            string   `yaml:"legalBasis,omitempty"`
	DataCaptureStatements []string `yaml:"dataCaptureStatements,omitempty"`
	PrimaryCode           string   `yaml:"primaryCode,omitempty"`
	GlobalIdentifier      string   `yaml:"globalIdentifier,omitempty"`
}

// Package groups classes; application schemas are compiled into documents
type Package struct {
	Name              string       `yaml:"name"`
	ApplicationSchema bool         `yaml:"applicationSchema,omitempty"`
	Version           string       `yaml:"version,omitempty"`
	TargetNamespace   string       `yaml:"targetNamespace,omitempty"`
	Docs              Descriptors  `yaml:",inline"`
	Tags              TaggedValues `yaml:"taggedValues,omitempty"`
	Packages          []*Package   `yaml:"packages,omitempty"`
	Classes           []*Class     `yaml:"classes,omitempty"`

	Owner *Package `yaml:"-"`
}

func (p *Package) ElementKind() ElementKind  { return KindPackage }
func (p *Package) ElementName() string       { return p.Name }
func (p *Package) Descriptors() *Descriptors { return &p.Docs }
func (p *Package) TaggedValues() TaggedValues {
	return p.Tags
}

// Parent returns the owning package or nil
func (p *Package) Parent() Element {
	if p.Owner == nil {
		return nil
	}
	return p.Owner
}

// QualifiedName returns the package path joined by "::"
func (p *Package) QualifiedName() string {
	if p.Owner == nil {
		return p.Name
	}
	return p.Owner.QualifiedName() + "::" + p.Name
}

// ApplicationSchemaPackage returns the nearest enclosing application schema, or the
// root package when there is none
func (p *Package) ApplicationSchemaPackage() *Package {
	cur := p
	for cur != nil {
		if cur.ApplicationSchema {
			return cur
		}
		if cur.Owner == nil {
			return cur
		}
		cur = cur.Owner
	}
	return nil
}

// Class is a model class
type Class struct {
	ID             string       `yaml:"id,omitempty"`
	Name           string       `yaml:"name"`
	Category       Category     `yaml:"category"`
	Abstract       bool         `yaml:"abstract,omitempty"`
	SupertypeNames []string     `yaml:"supertypes,omitempty"`
	Stereotypes    []string     `yaml:"stereotypes,omitempty"`
	Docs           Descriptors  `yaml:",inline"`
	Tags           TaggedValues `yaml:"taggedValues,omitempty"`
	Properties     []*Property  `yaml:"properties,omitempty"`

	Package    *Package `yaml:"-"`
	Supertypes []*Class `yaml:"-"`
	Subtypes   []*Class `yaml:"-"`
}

func (c *Class) ElementKind() ElementKind  { return KindClass }
func (c *Class) ElementName() string       { return c.Name }
func (c *Class) Descriptors() *Descriptors { return &c.Docs }
func (c *Class) TaggedValues() TaggedValues {
	return c.Tags
}

// Parent returns the owning package
func (c *Class) Parent() Element {
	if c.Package == nil {
		return nil
	}
	return c.Package
}

// QualifiedName returns package path and class name joined by "::"
func (c *Class) QualifiedName() string {
	if c.Package == nil {
		return c.Name
	}
	return c.Package.QualifiedName() + "::" + c.Name
}

// Schema returns the application schema the class belongs to
func (c *Class) Schema() *Package {
	if c.Package == nil {
		return nil
	}
	return c.Package.ApplicationSchemaPackage()
}

// HasStereotype reports whether the class carries stereotype s (case-insensitive)
func (c *Class) HasStereotype(s string) bool {
	return hasStereotype(c.Stereotypes, s)
}

// Property returns the own property with the given name or nil
func (c *Class) Property(name string) *Property {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PropertyInHierarchy returns the property with the given name from the class or one of
// its supertypes, depth-first
func (c *Class) PropertyInHierarchy(name string) *Property {
	if p := c.Property(name); p != nil {
		return p
	}
	for _, s := range c.Supertypes {
		if p := s.PropertyInHierarchy(name); p != nil {
			return p
		}
	}
	return nil
}

// IsSubtypeOf reports whether other is a direct or indirect supertype of c
func (c *Class) IsSubtypeOf(other *Class) bool {
	for _, s := range c.Supertypes {
		if s == other || s.IsSubtypeOf(other) {
			return true
		}
	}
	return false
}

// AllSubtypes returns direct and indirect subtypes, each once, depth-first
func (c *Class) AllSubtypes() []*Class {
	seen := make(map[*Class]bool)
	var out []*Class
	var walk func(cls *Class)
	walk = func(cls *Class) {
		for _, sub := range cls.Subtypes {
			if seen[sub] {
				continue
			}
			seen[sub] = true
			out = append(out, sub)
			walk(sub)
		}
	}
	walk(c)
	return out
}

// Property is an attribute or association role of a class
type Property struct {
	Name         string       `yaml:"name"`
	TypeName     string       `yaml:"type"`
	TypeID       string       `yaml:"typeId,omitempty"`
	Multiplicity Multiplicity `yaml:"multiplicity,omitempty"`
	Voidable     bool         `yaml:"voidable,omitempty"`
	Derived      bool         `yaml:"derived,omitempty"`
	Role         bool         `yaml:"role,omitempty"`
	Navigable    *bool        `yaml:"navigable,omitempty"`
	Stereotypes  []string     `yaml:"stereotypes,omitempty"`
	InitialValue string       `yaml:"initialValue,omitempty"`
	Sequence     int          `yaml:"sequence,omitempty"`
	Docs         Descriptors  `yaml:",inline"`
	Tags         TaggedValues `yaml:"taggedValues,omitempty"`

	Owner *Class `yaml:"-"`
	Type  *Class `yaml:"-"`
}

// ElementKind returns KindRole for association roles, KindAttribute otherwise
func (p *Property) ElementKind() ElementKind {
	if p.Role {
		return KindRole
	}
	return KindAttribute
}

func (p *Property) ElementName() string       { return p.Name }
func (p *Property) Descriptors() *Descriptors { return &p.Docs }
func (p *Property) TaggedValues() TaggedValues {
	return p.Tags
}

// Parent returns the owning class
func (p *Property) Parent() Element {
	if p.Owner == nil {
		return nil
	}
	return p.Owner
}

// QualifiedName returns the owner's qualified name and the property name joined by "."
func (p *Property) QualifiedName() string {
	if p.Owner == nil {
		return p.Name
	}
	return p.Owner.QualifiedName() + "." + p.Name
}

// HasStereotype reports whether the property carries stereotype s (case-insensitive)
func (p *Property) HasStereotype(s string) bool {
	return hasStereotype(p.Stereotypes, s)
}

// IsNavigable reports whether the property is navigable; attributes always are
func (p *Property) IsNavigable() bool {
	return p.Navigable == nil || *p.Navigable
}

func hasStereotype(list []string, s string) bool {
	for _, st := range list {
		if strings.EqualFold(st, s) {
			return true
		}
	}
	return false
}
