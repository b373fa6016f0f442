// Package schema provides an in-memory JSON Schema tree with typed keyword fields,
// deterministic serialization and the structural transformations used by the compiler.
//
// A Node owns its children exclusively. Definitions are shared only through $ref
// pointers, never by aliasing nodes.
package schema

// JSON types
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNull    = "null"
)

// Annotation is a custom or descriptive keyword with its value
type Annotation struct {
	Key   string
	Value any
}

// Node is a JSON Schema fragment
type Node struct {
	// Bool makes the node a boolean schema; all other fields are ignored
	Bool *bool

	Schema  string
	ID      string
	Anchor  string
	Ref     string
	Comment string

	Annotations []Annotation

	Types    []string
	Nullable bool
	Format   string
	Pattern  string
	Enum     []any
	Const    any

	MinLength        *int
	MaxLength        *int
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64

	Default  any
	ReadOnly bool

	Items    *Node
	MinItems *int
	MaxItems *int

	Properties           *Properties
	Required             []string
	AdditionalProperties *Node
	MinProperties        *int
	MaxProperties        *int

	AllOf []*Node
	OneOf []*Node
	AnyOf []*Node
	Not   *Node
	If    *Node
	Then  *Node
	Else  *Node

	// DefsKeyword is "$defs" or "definitions"; empty means "$defs"
	DefsKeyword string
	Defs        *Properties
}

// New returns an empty schema
func New() *Node {
	return &Node{}
}

// True returns the schema accepting everything
func True() *Node {
	b := true
	return &Node{Bool: &b}
}

// False returns the schema rejecting everything
func False() *Node {
	b := false
	return &Node{Bool: &b}
}

// Ref returns {"$ref": pointer}
func Ref(pointer string) *Node {
	return &Node{Ref: pointer}
}

// Type returns {"type": types}
func Type(types ...string) *Node {
	return &Node{Types: append([]string(nil), types...)}
}

// Object returns {"type": "object"}
func Object() *Node {
	return Type(TypeObject)
}

// Array returns {"type": "array", "items": items}
func Array(items *Node) *Node {
	return &Node{Types: []string{TypeArray}, Items: items}
}

// Const returns {"const": v}
func Const(v any) *Node {
	return &Node{Const: v}
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// IsBool reports whether n is the boolean schema b
func (n *Node) IsBool(b bool) bool {
	return n != nil && n.Bool != nil && *n.Bool == b
}

// HasType reports whether t is one of the node's types
func (n *Node) HasType(t string) bool {
	for _, have := range n.Types {
		if have == t {
			return true
		}
	}
	return false
}

// AddType appends t unless present
func (n *Node) AddType(t string) *Node {
	if !n.HasType(t) {
		n.Types = append(n.Types, t)
	}
	return n
}

// SetProperty adds or replaces the property schema, keeping insertion order
func (n *Node) SetProperty(name string, s *Node) *Node {
	if n.Properties == nil {
		n.Properties = NewProperties()
	}
	n.Properties.Set(name, s)
	return n
}

// Property returns the property schema or nil
func (n *Node) Property(name string) *Node {
	if n.Properties == nil {
		return nil
	}
	return n.Properties.Get(name)
}

// AddRequired appends names not yet listed as required
func (n *Node) AddRequired(names ...string) *Node {
	for _, name := range names {
		if !n.IsRequired(name) {
			n.Required = append(n.Required, name)
		}
	}
	return n
}

// IsRequired reports whether name is listed as required
func (n *Node) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Annotate adds an annotation keyword; an existing key is replaced in place
func (n *Node) Annotate(key string, value any) *Node {
	for i := range n.Annotations {
		if n.Annotations[i].Key == key {
			n.Annotations[i].Value = value
			return n
		}
	}
	n.Annotations = append(n.Annotations, Annotation{Key: key, Value: value})
	return n
}

// Annotation returns the value of an annotation keyword
func (n *Node) Annotation(key string) (any, bool) {
	for _, a := range n.Annotations {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// SetDef adds or replaces a definition
func (n *Node) SetDef(name string, s *Node) *Node {
	if n.Defs == nil {
		n.Defs = NewProperties()
	}
	n.Defs.Set(name, s)
	return n
}

// Def returns the named definition or nil
func (n *Node) Def(name string) *Node {
	if n.Defs == nil {
		return nil
	}
	return n.Defs.Get(name)
}

// IsPureScalar reports whether the node consists of nothing but a "type" keyword with
// scalar or null types
func (n *Node) IsPureScalar() bool {
	if n == nil || len(n.Types) == 0 {
		return false
	}
	for _, t := range n.Types {
		switch t {
		case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeNull:
		default:
			return false
		}
	}
	rest := *n
	rest.Types = nil
	return rest.isEmpty()
}

// IsEmpty reports whether the node has no keywords
func (n *Node) IsEmpty() bool {
	return n == nil || n.isEmpty()
}

func (n *Node) isEmpty() bool {
	return n.Bool == nil && n.Schema == "" && n.ID == "" && n.Anchor == "" && n.Ref == "" &&
		n.Comment == "" && len(n.Annotations) == 0 && len(n.Types) == 0 && !n.Nullable &&
		n.Format == "" && n.Pattern == "" && len(n.Enum) == 0 && n.Const == nil &&
		n.MinLength == nil && n.MaxLength == nil && n.Minimum == nil && n.Maximum == nil &&
		n.ExclusiveMinimum == nil && n.ExclusiveMaximum == nil && n.Default == nil &&
		!n.ReadOnly && n.Items == nil && n.MinItems == nil && n.MaxItems == nil &&
		n.Properties.Len() == 0 && len(n.Required) == 0 && n.AdditionalProperties == nil &&
		n.MinProperties == nil && n.MaxProperties == nil && len(n.AllOf) == 0 &&
		len(n.OneOf) == 0 && len(n.AnyOf) == 0 && n.Not == nil && n.If == nil &&
		n.Then == nil && n.Else == nil && n.Defs.Len() == 0
}

// Clone returns a deep copy
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Bool != nil {
		b := *n.Bool
		c.Bool = &b
	}
	c.Annotations = append([]Annotation(nil), n.Annotations...)
	c.Types = append([]string(nil), n.Types...)
	c.Enum = append([]any(nil), n.Enum...)
	c.MinLength = cloneInt(n.MinLength)
	c.MaxLength = cloneInt(n.MaxLength)
	c.Minimum = cloneFloat(n.Minimum)
	c.Maximum = cloneFloat(n.Maximum)
	c.ExclusiveMinimum = cloneFloat(n.ExclusiveMinimum)
	c.ExclusiveMaximum = cloneFloat(n.ExclusiveMaximum)
	c.Items = n.Items.Clone()
	c.MinItems = cloneInt(n.MinItems)
	c.MaxItems = cloneInt(n.MaxItems)
	c.Properties = n.Properties.Clone()
	c.Required = append([]string(nil), n.Required...)
	c.AdditionalProperties = n.AdditionalProperties.Clone()
	c.MinProperties = cloneInt(n.MinProperties)
	c.MaxProperties = cloneInt(n.MaxProperties)
	c.AllOf = cloneList(n.AllOf)
	c.OneOf = cloneList(n.OneOf)
	c.AnyOf = cloneList(n.AnyOf)
	c.Not = n.Not.Clone()
	c.If = n.If.Clone()
	c.Then = n.Then.Clone()
	c.Else = n.Else.Clone()
	c.Defs = n.Defs.Clone()
	return &c
}

// Equal reports whether both nodes serialize identically
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	a, errA := n.MarshalJSON()
	b, errB := other.MarshalJSON()
	return errA == nil && errB == nil && string(a) == string(b)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneList(list []*Node) []*Node {
	if list == nil {
		return nil
	}
	out := make([]*Node, len(list))
	for i, n := range list {
		out[i] = n.Clone()
	}
	return out
}
