package jsonschema

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// Tagged values read from properties and classes
const (
	inlineOrByReferenceTag = "inlineOrByReference"
	unitTag                = "unit"
	valueTypeOptionsTag    = "valueTypeOptions"
	defaultGeometryTag     = "defaultGeometry"
	primaryPlaceTag        = "primaryPlace"
	primaryTimeTag         = "primaryTime"
)

// propertyNode compiles a property: value type, multiplicity, null values and
// property-level keywords
func (ctx *Context) propertyNode(p *model.Property, stack []*model.Class) *schema.Node {
	rs := ctx.ruleSetFor(p)
	candidates, res := ctx.valueTypeCandidates(p, rs, stack)
	voidable := ctx.isVoidable(p)

	var n *schema.Node
	if p.Multiplicity.IsMultiValued() {
		n = schema.Array(ctx.mergeTypeDefinitions(candidates, false))
		if lower := p.Multiplicity.Lower(); lower > 0 && !voidable {
			n.MinItems = schema.Int(lower)
		}
		if upper := p.Multiplicity.Upper(); upper != model.Unbounded {
			n.MaxItems = schema.Int(upper)
		}
		if voidable {
			n = ctx.mergeTypeDefinitions([]*schema.Node{n}, true)
		}
	} else {
		n = ctx.mergeTypeDefinitions(candidates, voidable)
	}

	if p.InitialValue != "" && !p.Multiplicity.IsMultiValued() && rs.Has(rules.RuleInitialValueAsDefault) {
		kind := schema.TypeString
		if res.Kind == Scalar {
			kind = res.Type
		}
		if v, err := coerceLiteral(p.InitialValue, kind); err == nil {
			n.Default = v
		} else {
			ctx.reporter.Add(errors.WarnAnnotationValue, p.QualifiedName(), p.InitialValue, "default", kind)
		}
	}
	if p.Derived && rs.Has(rules.RuleDerivedAsReadOnly) {
		n.ReadOnly = true
	}
	if res.Has(rules.CharacteristicMeasure) {
		if unit := strings.TrimSpace(p.Tags.Get(unitTag)); unit != "" {
			n.Annotate(unitTag, unit)
		}
	}
	ctx.document(n, p, rs)
	return n
}

// valueCandidates returns the representations of the value type of p
func (ctx *Context) valueCandidates(p *model.Property, rs *rules.RuleSet, stack []*model.Class) []*schema.Node {
	candidates, _ := ctx.valueTypeCandidates(p, rs, stack)
	return candidates
}

// valueTypeCandidates resolves the value type of p. Identity-bearing value types are
// encoded inline, by reference or both; data types are inlined when the rule applies
// unless that would create a cycle.
func (ctx *Context) valueTypeCandidates(p *model.Property, rs *rules.RuleSet, stack []*model.Class) ([]*schema.Node, Resolution) {
	node, res := ctx.valueNode(p, rs)
	if res.Kind != Reference || res.Class == nil {
		return []*schema.Node{node}, res
	}

	target := res.Class
	switch {
	case target.Category.HasIdentity():
		switch ctx.inlineOrByReference(p) {
		case Inline:
			return []*schema.Node{node}, res
		case InlineOrByReference:
			return append([]*schema.Node{node}, ctx.byReference(target)...), res
		default:
			return ctx.byReference(target), res
		}
	case target.Category == model.CategoryDataType && stack != nil && rs.Has(rules.RuleInlineDataTypes):
		if path, cyclic := cycle(stack, target); cyclic {
			ctx.reporter.Add(errors.ErrDataTypeCycle, p.QualifiedName(), target.Name, path)
			return []*schema.Node{node}, res
		}
		inner := append(append([]*model.Class(nil), stack...), target)
		return []*schema.Node{ctx.compileObject(target, inner)}, res
	}
	return []*schema.Node{node}, res
}

// cycle reports whether target is already being inlined and renders the owner path
func cycle(stack []*model.Class, target *model.Class) (string, bool) {
	for _, c := range stack {
		if c == target {
			names := make([]string, 0, len(stack)+1)
			for _, s := range stack {
				names = append(names, s.Name)
			}
			names = append(names, target.Name)
			return strings.Join(names, " -> "), true
		}
	}
	return "", false
}

func (ctx *Context) inlineOrByReference(p *model.Property) string {
	switch v := strings.TrimSpace(p.Tags.Get(inlineOrByReferenceTag)); v {
	case Inline, ByReference, InlineOrByReference:
		return v
	}
	return ctx.params.InlineOrByReferenceDefault
}

// byReference returns the by-reference encodings of a link to target
func (ctx *Context) byReference(target *model.Class) []*schema.Node {
	if ctx.params.ByReferenceJSONSchemaDefinition != "" {
		return []*schema.Node{schema.Ref(ctx.params.ByReferenceJSONSchemaDefinition)}
	}
	profiles := ctx.params.FeatureRefProfiles
	if len(profiles) == 0 {
		profiles = []RefProfile{RefAsURI}
	}
	keyTypes := ctx.params.ObjectIdentifierType
	if len(keyTypes) == 0 {
		keyTypes = []string{schema.TypeString}
	}

	var out []*schema.Node
	for _, profile := range profiles {
		switch profile {
		case RefAsKey:
			out = append(out, schema.Type(keyTypes...))
		case RefAsURI:
			out = append(out, &schema.Node{Types: []string{schema.TypeString}, Format: "uri"})
		case RefAsCollectionKey:
			collectionID := schema.Type(schema.TypeString)
			if !target.Abstract && len(target.Subtypes) == 0 && ctx.params.FeatureCollectionIDTemplate != "" {
				collectionID = schema.Const(strings.ReplaceAll(ctx.params.FeatureCollectionIDTemplate, "{{featureType}}", target.Name))
			}
			key := schema.Object().
				SetProperty("collectionId", collectionID).
				SetProperty("featureId", schema.Type(keyTypes...)).
				AddRequired("collectionId", "featureId")
			out = append(out, key)
		}
	}
	return out
}

// mergeTypeDefinitions combines candidate representations. Pure scalars collapse into one
// type keyword; otherwise the candidates become a oneOf with all scalars grouped into its
// first member. nullable adds null, as type or as nullable flag depending on the version.
func (ctx *Context) mergeTypeDefinitions(candidates []*schema.Node, nullable bool) *schema.Node {
	var scalars []string
	var others []*schema.Node
	for _, c := range candidates {
		if c.IsPureScalar() {
			for _, t := range c.Types {
				scalars = appendUnique(scalars, t)
			}
			continue
		}
		dup := false
		for _, o := range others {
			if o.Equal(c) {
				dup = true
				break
			}
		}
		if !dup {
			others = append(others, c)
		}
	}

	native := ctx.params.SchemaVersion.NullAsType()
	if nullable && native {
		if len(scalars) == 0 && len(others) == 1 && canCarryType(others[0]) {
			n := others[0].Clone()
			n.AddType(schema.TypeNull)
			return n
		}
		scalars = appendUnique(scalars, schema.TypeNull)
	}

	var n *schema.Node
	switch {
	case len(others) == 0:
		n = schema.Type(scalars...)
	case len(scalars) == 0 && len(others) == 1:
		n = others[0]
	default:
		n = schema.New()
		if len(scalars) > 0 {
			n.OneOf = append(n.OneOf, schema.Type(scalars...))
		}
		n.OneOf = append(n.OneOf, others...)
	}

	if nullable && !native {
		if n.Ref != "" {
			n = &schema.Node{AllOf: []*schema.Node{n}}
		}
		n.Nullable = true
	}
	return n
}

// canCarryType reports whether null can be added to the type keyword of n
func canCarryType(n *schema.Node) bool {
	return len(n.Types) > 0 && n.Ref == "" && len(n.AllOf) == 0 && len(n.OneOf) == 0 && len(n.AnyOf) == 0
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

type specialMember struct {
	prop   *model.Property
	member string
	kind   string
}

type specialMembers []specialMember

func (s specialMembers) has(p *model.Property) bool {
	_, ok := s.find(p)
	return ok
}

func (s specialMembers) find(p *model.Property) (specialMember, bool) {
	for _, sm := range s {
		if sm.prop == p {
			return sm, true
		}
	}
	return specialMember{}, false
}

// specialMembers selects the primary geometry, place and time properties of a feature
// type. An explicit tag takes precedence over inference from a single candidate.
func (ctx *Context) specialMembers(cls *model.Class) specialMembers {
	if cls == nil || cls.Category != model.CategoryFeature {
		return nil
	}
	if out, ok := ctx.special[cls]; ok {
		return out
	}
	out := ctx.selectSpecialMembers(cls)
	ctx.special[cls] = out
	return out
}

func (ctx *Context) selectSpecialMembers(cls *model.Class) specialMembers {
	rs := ctx.ruleSetFor(cls)
	var out specialMembers
	add := func(p *model.Property, member, kind string) {
		if p != nil && !out.has(p) {
			out = append(out, specialMember{prop: p, member: member, kind: kind})
		}
	}

	if rs.Has(rules.RuleDefaultGeometrySingle) || rs.Has(rules.RuleDefaultGeometryMultiple) {
		p := ctx.primary(cls, defaultGeometryTag, rules.CharacteristicGeometry, "geometry",
			rs.Has(rules.RuleDefaultGeometryMultiple), rs.Has(rules.RuleDefaultGeometrySingle))
		add(p, ctx.params.PrimaryGeometryMemberName, "geometry")
	}
	if rs.Has(rules.RulePrimaryPlace) {
		p := ctx.primary(cls, primaryPlaceTag, rules.CharacteristicPlace, "place", true, true)
		add(p, ctx.params.PrimaryPlaceMemberName, "place")
	}
	if rs.Has(rules.RulePrimaryTime) {
		p := ctx.primary(cls, primaryTimeTag, rules.CharacteristicTemporal, "time", true, true)
		add(p, ctx.params.PrimaryTimeMemberName, "time")
	}
	return out
}

func (ctx *Context) primary(cls *model.Class, tag, characteristic, kind string, useTag, infer bool) *model.Property {
	var tagged, candidates []*model.Property
	for _, p := range cls.Properties {
		if ctx.skipProperty(p) {
			continue
		}
		if p.Tags.Bool(tag) {
			tagged = append(tagged, p)
		}
		res := ctx.resolve(p.TypeName, p.TypeID, ctx.ruleSetFor(p))
		if res.Has(characteristic) ||
			(characteristic == rules.CharacteristicGeometry && res.Kind == Unresolved && isGeometryTypeName(p.TypeName)) {
			candidates = append(candidates, p)
		}
	}
	if useTag && len(tagged) > 0 {
		if len(tagged) > 1 {
			ctx.reporter.Add(errors.WarnMultiplePrimary, cls.QualifiedName(), kind, tagged[0].Name)
		}
		return tagged[0]
	}
	if infer && len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

// specialMemberNode encodes a primary member: a single value, null when optional
func (ctx *Context) specialMemberNode(sm specialMember) *schema.Node {
	p := sm.prop
	if p.Multiplicity.IsMultiValued() {
		ctx.reporter.Add(errors.WarnMultiplicityIgnored, p.QualifiedName(), p.Name, sm.member)
	}
	rs := ctx.ruleSetFor(p)
	optional := p.Multiplicity.Lower() == 0 || p.Voidable
	n := ctx.mergeTypeDefinitions(ctx.valueCandidates(p, rs, nil), optional)
	ctx.document(n, p, rs)
	return n
}

// applyValueTypeOptions narrows inherited properties to the value types listed in the
// class tag, e.g. "geometry=GM_Point,GM_Curve;status=Active". A property the supertype
// encodes as a primary member is narrowed at that top level member.
func (ctx *Context) applyValueTypeOptions(cls *model.Class, rs *rules.RuleSet, top, container *schema.Node) {
	if !rs.Has(rules.RuleValueTypeOptions) {
		return
	}
	raw := strings.TrimSpace(cls.Tags.Get(valueTypeOptionsTag))
	if raw == "" {
		return
	}

	for _, option := range strings.Split(raw, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		name, typeList, ok := strings.Cut(option, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			ctx.reporter.Add(errors.WarnValueTypeOption, cls.QualifiedName(), option, "expected property=Type,...")
			continue
		}

		var p *model.Property
		for _, s := range cls.Supertypes {
			if p = s.PropertyInHierarchy(name); p != nil {
				break
			}
		}
		if p == nil {
			ctx.reporter.Add(errors.WarnValueTypeOption, cls.QualifiedName(), option,
				fmt.Sprintf("no inherited property '%s'", name))
			continue
		}

		var candidates []*schema.Node
		for _, typeName := range strings.Split(typeList, ",") {
			typeName = strings.TrimSpace(typeName)
			if typeName == "" {
				continue
			}
			tc := ctx.model.ClassByName(typeName)
			if tc == nil || (p.Type != nil && tc != p.Type && !tc.IsSubtypeOf(p.Type)) {
				ctx.reporter.Add(errors.WarnValueTypeOption, cls.QualifiedName(), option,
					fmt.Sprintf("'%s' is not a subtype of '%s'", typeName, p.TypeName))
				continue
			}
			res := ctx.resolve(tc.Name, tc.ID, ctx.ruleSetFor(p))
			if res.Kind == Unresolved {
				ctx.reporter.Add(errors.WarnValueTypeOption, cls.QualifiedName(), option,
					fmt.Sprintf("'%s' is not encoded", typeName))
				continue
			}
			candidates = append(candidates, ctx.node(res))
		}
		if len(candidates) == 0 {
			continue
		}

		if sm, ok := ctx.specialMembers(p.Owner).find(p); ok {
			optional := p.Multiplicity.Lower() == 0 || p.Voidable
			top.SetProperty(sm.member, ctx.mergeTypeDefinitions(candidates, optional))
			continue
		}

		n := ctx.mergeTypeDefinitions(candidates, false)
		if p.Multiplicity.IsMultiValued() {
			n = schema.Array(n)
		}
		container.SetProperty(name, n)
	}
}
