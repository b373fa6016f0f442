package jsonschema

import (
	"strconv"
	"strings"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// literalEncodingTag selects the JSON type of codelist and enumeration literals
const literalEncodingTag = "literalEncodingType"

// compile builds the definition of cls
func (ctx *Context) compile(cls *model.Class) *schema.Node {
	ctx.cur = ctx.docOf[cls]
	rs := ctx.ruleSetFor(cls)

	var n *schema.Node
	switch cls.Category {
	case model.CategoryCodelist:
		n = ctx.compileCodelist(cls, rs)
		ctx.document(n, cls, rs)
	case model.CategoryEnumeration:
		n = ctx.compileEnumeration(cls, rs)
		ctx.document(n, cls, rs)
	case model.CategoryUnion:
		if rs.Has(rules.RuleUnionTypeDiscriminator) {
			n = ctx.compileTypeDiscriminatedUnion(cls)
			ctx.document(n, cls, rs)
		} else {
			n = ctx.compileObject(cls, []*model.Class{cls})
		}
	case model.CategoryDataType:
		if bt := ctx.basicType(cls); bt != nil {
			n = ctx.compileBasicType(cls, bt)
			ctx.document(n, cls, rs)
		} else {
			n = ctx.compileObject(cls, []*model.Class{cls})
		}
	case model.CategoryFeature, model.CategoryObject, model.CategoryMixin:
		n = ctx.compileObject(cls, []*model.Class{cls})
	case model.CategoryUnknown:
		return nil
	}

	if ctx.params.UseAnchorsInLinksToClasses && ctx.params.SchemaVersion.SupportsAnchors() {
		n.Anchor = cls.Name
	}
	return n
}

// document adds the annotations of el when documentation is encoded
func (ctx *Context) document(n *schema.Node, el model.Element, rs *rules.RuleSet) {
	if rs.Has(rules.RuleDocumentation) {
		ctx.renderer.Annotate(n, el)
	}
}

func (ctx *Context) compileBasicType(cls *model.Class, bt *basicType) *schema.Node {
	var base *schema.Node
	if bt.super != nil {
		base = schema.Ref(ctx.pointer(bt.super))
	} else {
		base = schema.Type(bt.scalar)
		applyKeywords(base, bt.keywords)
	}
	if bt.own.IsEmpty() {
		return base
	}
	return &schema.Node{AllOf: []*schema.Node{base, bt.own.Clone()}}
}

// literalType returns the JSON type of the literals of cls
func (ctx *Context) literalType(cls *model.Class, rs *rules.RuleSet) string {
	lt := strings.TrimSpace(cls.Tags.Get(literalEncodingTag))
	if lt == "" {
		return schema.TypeString
	}
	if rules.IsScalarType(lt) {
		return lt
	}
	if res := ctx.resolve(lt, "", rs); res.Kind == Scalar {
		return res.Type
	}
	ctx.reporter.Add(errors.WarnLiteralEncodingType, cls.QualifiedName(), lt)
	return schema.TypeString
}

func (ctx *Context) compileCodelist(cls *model.Class, rs *rules.RuleSet) *schema.Node {
	switch {
	case rs.Has(rules.RuleCodelistURIFormat):
		return &schema.Node{Types: []string{schema.TypeString}, Format: "uri"}
	case rs.Has(rules.RuleCodelistLink) && ctx.params.LinkObjectURI != "":
		return schema.Ref(ctx.params.LinkObjectURI)
	default:
		return schema.Type(ctx.literalType(cls, rs))
	}
}

func (ctx *Context) compileEnumeration(cls *model.Class, rs *rules.RuleSet) *schema.Node {
	kind := ctx.literalType(cls, rs)
	n := schema.Type(kind)
	for _, lit := range cls.Properties {
		raw := lit.InitialValue
		if raw == "" {
			raw = lit.Name
		}
		v, err := coerceLiteral(raw, kind)
		if err != nil {
			ctx.reporter.Add(errors.WarnEnumValue, lit.QualifiedName(), raw, kind)
			continue
		}
		n.Enum = append(n.Enum, v)
	}
	return n
}

// coerceLiteral converts an enumeration literal to the JSON type kind
func coerceLiteral(raw, kind string) (any, error) {
	s := strings.TrimSpace(raw)
	switch kind {
	case schema.TypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case schema.TypeNumber:
		return strconv.ParseFloat(s, 64)
	case schema.TypeBoolean:
		return strconv.ParseBool(s)
	default:
		return raw, nil
	}
}

// compileTypeDiscriminatedUnion merges the distinct value types of the union options
func (ctx *Context) compileTypeDiscriminatedUnion(cls *model.Class) *schema.Node {
	seen := make(map[string]bool)
	var candidates []*schema.Node
	for _, p := range cls.Properties {
		key := p.TypeID
		if key == "" {
			key = p.TypeName
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, ctx.valueCandidates(p, ctx.ruleSetFor(p), nil)...)
	}
	return ctx.mergeTypeDefinitions(candidates, false)
}

// compileObject builds the definition of a feature, object, mixin, data type or
// property-count union. stack holds the classes being inlined, outermost first.
func (ctx *Context) compileObject(cls *model.Class, stack []*model.Class) *schema.Node {
	rs := ctx.ruleSetFor(cls)
	top := schema.Object()

	var allOf []*schema.Node
	if bs := ctx.baseSchema(cls); bs != nil {
		allOf = append(allOf, schema.Ref(bs.URI))
	}
	for _, s := range cls.Supertypes {
		if e := ctx.mapEntry(s, ctx.ruleSetFor(s)); e != nil {
			if !e.IsScalar() {
				allOf = append(allOf, schema.Ref(e.TargetType))
			}
			continue
		}
		if !ctx.compiled[s] {
			ctx.reporter.Add(errors.ErrUnresolvedType, cls.QualifiedName(), s.Name)
			continue
		}
		allOf = append(allOf, schema.Ref(ctx.pointer(s)))
	}

	container := top
	nested := cls.Category != model.CategoryUnion && cls.Category != model.CategoryDataType &&
		rs.Has(rules.RuleNestedProperties)
	if nested {
		container = schema.Object()
	}

	special := ctx.specialMembers(cls)
	for _, sm := range special {
		top.SetProperty(sm.member, ctx.specialMemberNode(sm))
		top.AddRequired(sm.member)
	}

	own := ctx.ownEncodingInfo(cls)
	idProp := ctx.identifierProperty(cls)
	if own.HasEntityType() {
		target, name := ctx.memberTarget(top, container, nested, own.EntityTypeMemberPath)
		target.SetProperty(name, schema.Type(schema.TypeString))
		if own.EntityTypeMemberRequired {
			target.AddRequired(name)
		}
	}
	if own.HasID() && idProp == nil {
		target, name := ctx.memberTarget(top, container, nested, own.IDMemberPath)
		idNode := schema.Type(own.IDMemberTypes...)
		if len(own.IDMemberTypes) == 0 {
			idNode = schema.Type(schema.TypeString)
		}
		if len(own.IDMemberFormats) > 0 {
			idNode.Format = own.IDMemberFormats[0]
		}
		target.SetProperty(name, idNode)
		if own.IDMemberRequired {
			target.AddRequired(name)
		}
	}

	isUnion := cls.Category == model.CategoryUnion
	for _, p := range cls.Properties {
		if special.has(p) || ctx.skipProperty(p) {
			continue
		}
		target := container
		if p == idProp {
			target = top
		}
		target.SetProperty(p.Name, ctx.propertyNode(p, stack))
		if !isUnion && ctx.isRequired(p) {
			target.AddRequired(p.Name)
		}
	}

	ctx.applyValueTypeOptions(cls, rs, top, container)

	if isUnion {
		container.AdditionalProperties = schema.False()
		container.MinProperties = schema.Int(1)
		container.MaxProperties = schema.Int(1)
	}

	if nested && container.Properties.Len() > 0 {
		if len(container.Required) == 0 {
			container = ctx.mergeTypeDefinitions([]*schema.Node{container}, true)
		}
		top.SetProperty(ctx.params.NestedPropertiesMemberName, container)
	}

	ctx.document(top, cls, rs)
	top.AllOf = allOf
	return top
}

// memberTarget places a member path either at top level or in the nested properties
func (ctx *Context) memberTarget(top, container *schema.Node, nested bool, path string) (*schema.Node, string) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return top, path
	}
	name := parts[len(parts)-1]
	if nested && len(parts) == 2 && parts[0] == ctx.params.NestedPropertiesMemberName {
		return container, name
	}
	return top, name
}

// skipProperty reports whether p is not encoded
func (ctx *Context) skipProperty(p *model.Property) bool {
	rs := ctx.ruleSetFor(p)
	if rs.Has(rules.RuleNotEncoded) {
		return true
	}
	if p.Role && !p.IsNavigable() {
		return true
	}
	if p.HasStereotype("identifier") && rs.Has(rules.RuleIgnoreIdentifier) {
		return true
	}
	return false
}

// isVoidable reports whether nil values of p are encoded as null
func (ctx *Context) isVoidable(p *model.Property) bool {
	return p.Voidable && ctx.ruleSetFor(p).Has(rules.RuleVoidable)
}

// isRequired reports whether p must be present: at least one value and not voidable.
// Voidable properties are never required, whether or not null is encoded.
func (ctx *Context) isRequired(p *model.Property) bool {
	return p.Multiplicity.Lower() > 0 && !p.Voidable
}
