package jsonschema

import (
	"sort"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// Source names where an encoding info member came from
type Source struct {
	Name string
	// External sources are base schemas and mapped supertypes
	External bool
}

// EncodingInfo describes the entity type and identifier members of a class encoding
type EncodingInfo struct {
	EntityTypeMemberPath     string
	EntityTypeMemberRequired bool
	IDMemberPath             string
	IDMemberRequired         bool
	IDMemberTypes            []string
	IDMemberFormats          []string

	EntityTypeSources []Source
	IDSources         []Source
}

// HasEntityType reports whether the entity type member is known
func (e *EncodingInfo) HasEntityType() bool {
	return e != nil && e.EntityTypeMemberPath != ""
}

// HasID reports whether the identifier member is known
func (e *EncodingInfo) HasID() bool {
	return e != nil && e.IDMemberPath != ""
}

// Clone returns a deep copy
func (e *EncodingInfo) Clone() *EncodingInfo {
	if e == nil {
		return nil
	}
	c := *e
	c.IDMemberTypes = append([]string(nil), e.IDMemberTypes...)
	c.IDMemberFormats = append([]string(nil), e.IDMemberFormats...)
	c.EntityTypeSources = append([]Source(nil), e.EntityTypeSources...)
	c.IDSources = append([]Source(nil), e.IDSources...)
	return &c
}

// withSource returns a copy attributing every member to src
func (e *EncodingInfo) withSource(src Source) *EncodingInfo {
	c := e.Clone()
	c.EntityTypeSources, c.IDSources = nil, nil
	if c.HasEntityType() {
		c.EntityTypeSources = []Source{src}
	}
	if c.HasID() {
		c.IDSources = []Source{src}
	}
	return c
}

// Merge takes over the members only other defines. Members both define must agree on
// path and required flag, identifiers also on types and formats; on disagreement e keeps
// its member and the corresponding conflict flag is set.
func (e *EncodingInfo) Merge(other *EncodingInfo) (entityConflict, idConflict bool) {
	if other == nil {
		return false, false
	}
	switch {
	case !other.HasEntityType():
	case !e.HasEntityType():
		e.EntityTypeMemberPath = other.EntityTypeMemberPath
		e.EntityTypeMemberRequired = other.EntityTypeMemberRequired
		e.EntityTypeSources = append([]Source(nil), other.EntityTypeSources...)
	case e.EntityTypeMemberPath == other.EntityTypeMemberPath &&
		e.EntityTypeMemberRequired == other.EntityTypeMemberRequired:
		e.EntityTypeSources = appendSources(e.EntityTypeSources, other.EntityTypeSources)
	default:
		entityConflict = true
	}

	switch {
	case !other.HasID():
	case !e.HasID():
		e.IDMemberPath = other.IDMemberPath
		e.IDMemberRequired = other.IDMemberRequired
		e.IDMemberTypes = append([]string(nil), other.IDMemberTypes...)
		e.IDMemberFormats = append([]string(nil), other.IDMemberFormats...)
		e.IDSources = append([]Source(nil), other.IDSources...)
	case e.IDMemberPath == other.IDMemberPath &&
		e.IDMemberRequired == other.IDMemberRequired &&
		sameSet(e.IDMemberTypes, other.IDMemberTypes) &&
		sameSet(e.IDMemberFormats, other.IDMemberFormats):
		e.IDSources = appendSources(e.IDSources, other.IDSources)
	default:
		idConflict = true
	}
	return entityConflict, idConflict
}

func appendSources(list, more []Source) []Source {
	for _, s := range more {
		found := false
		for _, have := range list {
			if have == s {
				found = true
				break
			}
		}
		if !found {
			list = append(list, s)
		}
	}
	return list
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// subset reports whether every element of a is in b
func subset(a, b []string) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func fromConfig(ei *rules.EncodingInfo) *EncodingInfo {
	if ei.IsEmpty() {
		return nil
	}
	return &EncodingInfo{
		EntityTypeMemberPath:     ei.EntityTypeMemberPath,
		EntityTypeMemberRequired: ei.EntityTypeMemberRequired,
		IDMemberPath:             ei.IDMemberPath,
		IDMemberRequired:         ei.IDMemberRequired,
		IDMemberTypes:            append([]string(nil), ei.IDMemberTypes...),
		IDMemberFormats:          append([]string(nil), ei.IDMemberFormats...),
	}
}

type member int

const (
	entityTypeMember member = iota
	identifierMember
)

type inheritKey struct {
	cls    *model.Class
	member member
}

// isVirtuallyGeneralized reports whether cls inherits from the base schema of its
// category. Classes with a non-mixin supertype that is mapped or virtually generalized
// receive the base schema through that supertype.
func (ctx *Context) isVirtuallyGeneralized(cls *model.Class) bool {
	if v, ok := ctx.vg[cls]; ok {
		return v
	}
	ctx.vg[cls] = false

	if !ctx.ruleSetFor(cls).Has(rules.RuleVirtualGeneralization) || ctx.baseSchemas[cls.Category] == nil {
		return false
	}
	for _, s := range cls.Supertypes {
		if s.Category == model.CategoryMixin {
			continue
		}
		if ctx.mapEntry(s, ctx.ruleSetFor(s)) != nil || ctx.isVirtuallyGeneralized(s) {
			return false
		}
	}
	ctx.vg[cls] = true
	return true
}

// baseSchema returns the base schema cls virtually generalizes, or nil
func (ctx *Context) baseSchema(cls *model.Class) *BaseSchema {
	if !ctx.isVirtuallyGeneralized(cls) {
		return nil
	}
	return ctx.baseSchemas[cls.Category]
}

// inheritsMember reports whether cls receives the member from a base schema or a
// supertype
func (ctx *Context) inheritsMember(cls *model.Class, m member) bool {
	key := inheritKey{cls, m}
	if v, ok := ctx.inherits[key]; ok {
		return v
	}
	ctx.inherits[key] = false

	has := func(info *EncodingInfo) bool {
		if m == entityTypeMember {
			return info.HasEntityType()
		}
		return info.HasID()
	}

	result := false
	if bs := ctx.baseSchema(cls); bs != nil && has(fromConfig(bs.EncodingInfo)) {
		result = true
	}
	for _, s := range cls.Supertypes {
		if result {
			break
		}
		if e := ctx.mapEntry(s, ctx.ruleSetFor(s)); e != nil {
			result = has(fromConfig(e.EncodingInfo))
			continue
		}
		if ctx.compiled[s] {
			result = has(ctx.ownEncodingInfo(s)) || ctx.inheritsMember(s, m)
		}
	}
	ctx.inherits[key] = result
	return result
}

// entityTypeApplies reports whether cls encodes an entity type member
func (ctx *Context) entityTypeApplies(cls *model.Class) bool {
	rs := ctx.ruleSetFor(cls)
	switch cls.Category {
	case model.CategoryFeature, model.CategoryObject:
		return rs.Has(rules.RuleEntityType)
	case model.CategoryDataType:
		return rs.Has(rules.RuleEntityTypeDataType)
	}
	return false
}

// entityTypePath returns the configured entity type member path
func (ctx *Context) entityTypePath() string {
	if ctx.params.EntityTypeMemberPath != "" {
		return ctx.params.EntityTypeMemberPath
	}
	return ctx.params.EntityTypeMemberName
}

// identifierProperty returns the property carrying the identifier stereotype, if
// identifier properties are encoded for cls
func (ctx *Context) identifierProperty(cls *model.Class) *model.Property {
	if p, ok := ctx.identifiers[cls]; ok {
		return p
	}
	ctx.identifiers[cls] = nil
	rs := ctx.ruleSetFor(cls)
	if !rs.Has(rules.RuleIdentifierStereotype) || rs.Has(rules.RuleIgnoreIdentifier) {
		return nil
	}
	var found *model.Property
	for _, p := range cls.Properties {
		if !p.HasStereotype("identifier") {
			continue
		}
		if found == nil {
			found = p
			continue
		}
		ctx.reporter.Add(errors.WarnMultipleIdentifiers, cls.QualifiedName(), found.Name)
		break
	}
	ctx.identifiers[cls] = found
	return found
}

// ownEncodingInfo returns the members cls defines itself: a synthesized entity type
// member, and an identifier property or synthesized identifier member
func (ctx *Context) ownEncodingInfo(cls *model.Class) *EncodingInfo {
	if info, ok := ctx.own[cls]; ok {
		return info
	}
	info := &EncodingInfo{}
	ctx.own[cls] = info
	self := Source{Name: cls.Name}

	if ctx.entityTypeApplies(cls) && !ctx.inheritsMember(cls, entityTypeMember) {
		info.EntityTypeMemberPath = ctx.entityTypePath()
		info.EntityTypeMemberRequired = ctx.params.EntityTypeMemberRequired
		info.EntityTypeSources = []Source{self}
	}

	if p := ctx.identifierProperty(cls); p != nil {
		info.IDMemberPath = p.Name
		info.IDMemberRequired = p.Multiplicity.Lower() > 0 && !p.Voidable
		if res := ctx.resolve(p.TypeName, p.TypeID, ctx.ruleSetFor(p)); res.Kind == Scalar {
			info.IDMemberTypes = []string{res.Type}
			if res.Keywords.Format != "" {
				info.IDMemberFormats = []string{res.Keywords.Format}
			}
		}
		info.IDSources = []Source{self}
	} else if cls.Category.HasIdentity() &&
		ctx.ruleSetFor(cls).Has(rules.RuleIdentifierForTypeWithIdentity) &&
		!ctx.inheritsMember(cls, identifierMember) {
		info.IDMemberPath = ctx.params.ObjectIdentifierName
		info.IDMemberRequired = ctx.params.ObjectIdentifierRequired
		info.IDMemberTypes = append([]string(nil), ctx.params.ObjectIdentifierType...)
		if ctx.params.ObjectIdentifierFormat != "" {
			info.IDMemberFormats = []string{ctx.params.ObjectIdentifierFormat}
		}
		info.IDSources = []Source{self}
	}
	return info
}

// computeEncodingInfo fills in the members cls does not define itself from the base
// schema it virtually generalizes and from its direct supertypes. Results are memoized.
func (ctx *Context) computeEncodingInfo(cls *model.Class) *EncodingInfo {
	if info, ok := ctx.infos[cls]; ok {
		return info
	}
	own := ctx.ownEncodingInfo(cls)
	info := own.Clone()
	ctx.infos[cls] = info

	add := func(incoming *EncodingInfo) {
		if incoming == nil {
			return
		}
		if own.HasEntityType() {
			incoming.EntityTypeMemberPath = ""
		}
		if own.HasID() {
			incoming.IDMemberPath = ""
		}
		existingEntity, existingID := info.EntityTypeSources, info.IDSources
		entityConflict, idConflict := info.Merge(incoming)
		if entityConflict {
			ctx.reporter.Add(errors.ErrInconsistentEntityType, cls.QualifiedName(),
				sourceName(existingEntity), sourceName(incoming.EntityTypeSources))
		}
		if idConflict {
			ctx.reporter.Add(errors.ErrInconsistentIdentifier, cls.QualifiedName(),
				sourceName(existingID), sourceName(incoming.IDSources))
		}
	}

	if bs := ctx.baseSchema(cls); bs != nil {
		if ei := fromConfig(bs.EncodingInfo); ei != nil {
			add(ei.withSource(Source{Name: bs.URI, External: true}))
		}
	}
	for _, s := range cls.Supertypes {
		if e := ctx.mapEntry(s, ctx.ruleSetFor(s)); e != nil {
			if ei := fromConfig(e.EncodingInfo); ei != nil {
				add(ei.withSource(Source{Name: s.Name, External: true}))
			}
			continue
		}
		if !ctx.compiled[s] {
			continue
		}
		add(ctx.computeEncodingInfo(s).withSource(Source{Name: s.Name}))
	}
	return info
}

func sourceName(list []Source) string {
	if len(list) == 0 {
		return "?"
	}
	return list[0].Name
}

// singleExternal reports whether the member was inherited from exactly one external source
func singleExternal(sources []Source) bool {
	return len(sources) == 1 && sources[0].External
}

// applyRestrictions narrows members inherited from exactly one external source when the
// local policy is stricter, and records the stronger constraint for all subtypes
func (ctx *Context) applyRestrictions(cls *model.Class) {
	node, info := ctx.defs[cls], ctx.infos[cls]
	if node == nil || info == nil {
		return
	}
	p := ctx.params
	var fragments []*schema.Node

	if info.HasEntityType() && singleExternal(info.EntityTypeSources) && ctx.entityTypeApplies(cls) &&
		p.EntityTypeMemberRequired && !info.EntityTypeMemberRequired {
		fragments = append(fragments, schema.RequiredFragment(splitPath(info.EntityTypeMemberPath)))
		info.EntityTypeMemberRequired = true
		ctx.propagate(cls, func(sub *EncodingInfo) {
			if sub.EntityTypeMemberPath == info.EntityTypeMemberPath {
				sub.EntityTypeMemberRequired = true
			}
		})
	}

	if info.HasID() && singleExternal(info.IDSources) && cls.Category.HasIdentity() {
		path := splitPath(info.IDMemberPath)
		if p.ObjectIdentifierRequired && !info.IDMemberRequired {
			fragments = append(fragments, schema.RequiredFragment(path))
			info.IDMemberRequired = true
		}

		var formats []string
		if p.ObjectIdentifierFormat != "" {
			formats = []string{p.ObjectIdentifierFormat}
		}
		narrowTypes := len(p.ObjectIdentifierType) > 0 &&
			(len(info.IDMemberTypes) == 0 || !subset(info.IDMemberTypes, p.ObjectIdentifierType))
		narrowFormats := len(formats) > 0 && !sameSet(info.IDMemberFormats, formats)
		if narrowTypes || narrowFormats {
			types := p.ObjectIdentifierType
			if !narrowTypes {
				types = info.IDMemberTypes
			}
			fragments = append(fragments, schema.TypeFragment(path, types, formats))
			info.IDMemberTypes = append([]string(nil), types...)
			if narrowFormats {
				info.IDMemberFormats = formats
			}
		}

		ctx.propagate(cls, func(sub *EncodingInfo) {
			if sub.IDMemberPath != info.IDMemberPath {
				return
			}
			sub.IDMemberRequired = sub.IDMemberRequired || info.IDMemberRequired
			sub.IDMemberTypes = append([]string(nil), info.IDMemberTypes...)
			sub.IDMemberFormats = append([]string(nil), info.IDMemberFormats...)
		})
	}

	for _, f := range fragments {
		node = schema.Restrict(node, f)
	}
	ctx.defs[cls] = node
}

func (ctx *Context) propagate(cls *model.Class, apply func(sub *EncodingInfo)) {
	for _, sub := range cls.AllSubtypes() {
		if info := ctx.infos[sub]; info != nil {
			apply(info)
		}
	}
}
