package jsonschema

import (
	"strconv"
	"strings"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// ResolutionKind tells what a value type resolved to
type ResolutionKind int

const (
	// Unresolved means neither a map entry nor a compiled class exists
	Unresolved ResolutionKind = iota
	// Scalar is a JSON scalar type, possibly restricted by facets
	Scalar
	// Reference points at a definition
	Reference
)

// Resolution is the result of resolving a value type
type Resolution struct {
	Kind ResolutionKind
	// Type is the scalar JSON type
	Type string
	// Keywords come from a scalar map entry
	Keywords rules.Keywords
	// Facets restrict a basic type
	Facets *schema.Node
	// Pointer is the target of a non-scalar map entry
	Pointer string
	// Class is the model class, for references to compiled classes and basic types
	Class *model.Class
	// Entry is the map entry the resolution came from
	Entry *rules.MapEntry
}

// Has reports whether the map entry behind r carries characteristic c
func (r Resolution) Has(c string) bool {
	return r.Entry != nil && r.Entry.Has(c)
}

type resolutionKey struct {
	name  string
	id    string
	rules string
}

// resolve maps a value type to its JSON representation. Results are cached per type name,
// type identity and rule set; diagnostics for unresolved types are up to the caller.
func (ctx *Context) resolve(typeName, typeID string, rs *rules.RuleSet) Resolution {
	key := resolutionKey{name: typeName, id: typeID}
	if rs != nil {
		key.rules = rs.Name()
	}
	if res, ok := ctx.resolutions[key]; ok {
		return res
	}

	var cls *model.Class
	if typeID != "" {
		cls = ctx.model.ClassByID(typeID)
	}
	if cls == nil && typeName != "" {
		cls = ctx.model.ClassByName(typeName)
	}

	var res Resolution
	var entry *rules.MapEntry
	if cls != nil {
		entry = ctx.mapEntry(cls, rs)
	} else {
		entry = ctx.matcher.Lookup(typeName, rs)
	}

	switch {
	case entry != nil:
		res = fromMapEntry(entry)
	case cls == nil || !ctx.compiled[cls]:
		res = Resolution{Kind: Unresolved}
	default:
		if bt := ctx.basicType(cls); bt != nil {
			res = Resolution{Kind: Scalar, Type: bt.scalar, Keywords: bt.keywords, Facets: bt.facets, Class: cls}
		} else {
			res = Resolution{Kind: Reference, Class: cls}
		}
	}

	ctx.resolutions[key] = res
	return res
}

func fromMapEntry(e *rules.MapEntry) Resolution {
	if e.IsScalar() {
		return Resolution{Kind: Scalar, Type: e.TargetType, Keywords: e.Keywords, Entry: e}
	}
	return Resolution{Kind: Reference, Pointer: e.TargetType, Entry: e}
}

// node renders a resolution as schema seen from the current document
func (ctx *Context) node(res Resolution) *schema.Node {
	switch res.Kind {
	case Scalar:
		n := schema.Type(res.Type)
		applyKeywords(n, res.Keywords)
		mergeFacets(n, res.Facets)
		return n
	case Reference:
		if res.Class != nil {
			return schema.Ref(ctx.pointer(res.Class))
		}
		return schema.Ref(res.Pointer)
	default:
		return schema.Type(schema.TypeString)
	}
}

// valueNode resolves the value type of p and reports unresolved types. Unmapped geometry
// types fall back to the generic geometry schema.
func (ctx *Context) valueNode(p *model.Property, rs *rules.RuleSet) (*schema.Node, Resolution) {
	res := ctx.resolve(p.TypeName, p.TypeID, rs)
	if res.Kind != Unresolved {
		return ctx.node(res), res
	}
	if isGeometryTypeName(p.TypeName) && ctx.params.GenericGeometryURI != "" {
		ctx.reporter.Add(errors.WarnUnmappedGeometry, p.QualifiedName(), p.TypeName, ctx.params.GenericGeometryURI)
		return schema.Ref(ctx.params.GenericGeometryURI), res
	}
	ctx.reporter.Add(errors.ErrUnresolvedType, p.QualifiedName(), p.TypeName)
	return schema.Type(schema.TypeString), res
}

// isGeometryTypeName reports whether name is an ISO 19107 geometry type
func isGeometryTypeName(name string) bool {
	return strings.HasPrefix(name, "GM_")
}

func applyKeywords(n *schema.Node, k rules.Keywords) {
	n.Format = k.Format
	n.Pattern = k.Pattern
	for _, v := range k.Enum {
		n.Enum = append(n.Enum, v)
	}
	n.MinLength = k.MinLength
	n.MaxLength = k.MaxLength
	n.Minimum = k.Minimum
	n.Maximum = k.Maximum
	n.ExclusiveMinimum = k.ExclusiveMinimum
	n.ExclusiveMaximum = k.ExclusiveMaximum
}

// mergeFacets copies the facets set in f onto n
func mergeFacets(n, f *schema.Node) {
	if f == nil {
		return
	}
	if f.Format != "" {
		n.Format = f.Format
	}
	if f.Pattern != "" {
		n.Pattern = f.Pattern
	}
	if f.MinLength != nil {
		n.MinLength = schema.Int(*f.MinLength)
	}
	if f.MaxLength != nil {
		n.MaxLength = schema.Int(*f.MaxLength)
	}
	if f.Minimum != nil {
		n.Minimum = schema.Float(*f.Minimum)
	}
	if f.Maximum != nil {
		n.Maximum = schema.Float(*f.Maximum)
	}
	if f.ExclusiveMinimum != nil {
		n.ExclusiveMinimum = schema.Float(*f.ExclusiveMinimum)
	}
	if f.ExclusiveMaximum != nil {
		n.ExclusiveMaximum = schema.Float(*f.ExclusiveMaximum)
	}
}

// basicType describes a class encoded as restricted scalar
type basicType struct {
	scalar   string
	keywords rules.Keywords
	// facets accumulated along the supertype chain
	facets *schema.Node
	// own facets of the class
	own *schema.Node
	// super is the direct supertype when it is a basic type itself
	super *model.Class
	entry *rules.MapEntry
}

// basicType returns the basic type info of cls, or nil when cls is not a basic type.
// Diagnostics are reported once per class.
func (ctx *Context) basicType(cls *model.Class) *basicType {
	if bt, ok := ctx.basics[cls]; ok {
		return bt
	}
	ctx.basics[cls] = nil

	rs := ctx.ruleSetFor(cls)
	entry, ancestor := ctx.scalarAncestor(cls, rs)
	if entry == nil {
		return nil
	}
	eligible := rs.Has(rules.RuleBasicType) &&
		cls.Category == model.CategoryDataType &&
		len(cls.Supertypes) == 1 &&
		len(cls.Properties) == 0

	if !entry.IsScalar() {
		if eligible {
			ctx.reporter.Add(errors.ErrBasicTypeNonScalarAncestor, cls.QualifiedName(), cls.Name, ancestor.Name, entry.TargetType)
		}
		return nil
	}
	if !eligible {
		ctx.reporter.Add(errors.ErrBasicTypeNotEligible, cls.QualifiedName(), cls.Name, ancestor.Name)
		return nil
	}

	bt := &basicType{scalar: entry.TargetType, keywords: entry.Keywords, entry: entry}
	super := cls.Supertypes[0]
	inherited := schema.New()
	if ctx.mapEntry(super, ctx.ruleSetFor(super)) == nil {
		parent := ctx.basicType(super)
		if parent == nil {
			return nil
		}
		bt.super = super
		mergeFacets(inherited, parent.facets)
	}
	bt.own = ctx.facets(cls, bt.scalar)
	mergeFacets(inherited, bt.own)
	bt.facets = inherited

	ctx.basics[cls] = bt
	return bt
}

// scalarAncestor finds the first mapped ancestor, depth-first over the supertypes
func (ctx *Context) scalarAncestor(cls *model.Class, rs *rules.RuleSet) (*rules.MapEntry, *model.Class) {
	for _, s := range cls.Supertypes {
		if e := ctx.mapEntry(s, rs); e != nil {
			return e, s
		}
		if e, a := ctx.scalarAncestor(s, rs); e != nil {
			return e, a
		}
	}
	return nil, nil
}

// Tagged values holding basic type facets
const (
	tagLength                = "length"
	tagMaxLength             = "maxLength"
	tagMinLength             = "minLength"
	tagPattern               = "pattern"
	tagFormat                = "jsonFormat"
	tagRangeMinimum          = "rangeMinimum"
	tagRangeMaximum          = "rangeMaximum"
	tagRangeMinimumExclusive = "rangeMinimumExclusive"
	tagRangeMaximumExclusive = "rangeMaximumExclusive"
)

// facets reads the restricting facets of a basic type from its tagged values
func (ctx *Context) facets(cls *model.Class, scalar string) *schema.Node {
	n := schema.New()
	tv := cls.Tags
	isString := scalar == schema.TypeString
	isNumeric := scalar == schema.TypeNumber || scalar == schema.TypeInteger

	intFacet := func(tag string, dst **int) {
		v := strings.TrimSpace(tv.Get(tag))
		if v == "" {
			return
		}
		if !isString {
			ctx.reporter.Add(errors.WarnFacetNotApplicable, cls.QualifiedName(), tag, scalar)
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			ctx.reporter.Add(errors.ErrMalformedFacet, cls.QualifiedName(), tag, v)
			return
		}
		*dst = schema.Int(i)
	}
	numFacet := func(tag string, dst **float64) {
		v := strings.TrimSpace(tv.Get(tag))
		if v == "" {
			return
		}
		if !isNumeric {
			ctx.reporter.Add(errors.WarnFacetNotApplicable, cls.QualifiedName(), tag, scalar)
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			ctx.reporter.Add(errors.ErrMalformedFacet, cls.QualifiedName(), tag, v)
			return
		}
		*dst = schema.Float(f)
	}

	intFacet(tagLength, &n.MaxLength)
	intFacet(tagMaxLength, &n.MaxLength)
	intFacet(tagMinLength, &n.MinLength)

	if v := strings.TrimSpace(tv.Get(tagPattern)); v != "" {
		if isString {
			n.Pattern = v
		} else {
			ctx.reporter.Add(errors.WarnFacetNotApplicable, cls.QualifiedName(), tagPattern, scalar)
		}
	}
	if v := strings.TrimSpace(tv.Get(tagFormat)); v != "" {
		n.Format = v
	}

	numFacet(tagRangeMinimum, &n.Minimum)
	numFacet(tagRangeMaximum, &n.Maximum)
	numFacet(tagRangeMinimumExclusive, &n.ExclusiveMinimum)
	numFacet(tagRangeMaximumExclusive, &n.ExclusiveMaximum)

	return n
}
