package jsonschema

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// defaultItemsMember holds the items of a wrapper collection
const defaultItemsMember = "features"

// BuildCollection returns an array schema whose items are discriminated by the entity
// type member of the members. Members without an entity type member are excluded; nil is
// returned when no member is left. unknown is used for items of no member type when
// validateUnknown is set; nil means any object.
func (ctx *Context) BuildCollection(name string, members []*model.Class, validateUnknown bool, unknown *schema.Node) *schema.Node {
	n, _ := ctx.buildCollection(name, members, validateUnknown, unknown)
	return n
}

type collectionMember struct {
	cls  *model.Class
	path []string
}

func (ctx *Context) buildCollection(name string, members []*model.Class, validateUnknown bool, unknown *schema.Node) (*schema.Node, []collectionMember) {
	var valid []collectionMember
	seen := make(map[*model.Class]bool)
	for _, cls := range members {
		if seen[cls] {
			continue
		}
		seen[cls] = true
		info := ctx.infos[cls]
		if !info.HasEntityType() {
			ctx.reporter.Add(errors.ErrCollectionMemberNoEntityType, name, cls.Name, name)
			continue
		}
		valid = append(valid, collectionMember{cls: cls, path: splitPath(info.EntityTypeMemberPath)})
	}
	if len(valid) == 0 {
		ctx.reporter.Add(errors.WarnCollectionEmpty, name, name)
		return nil, nil
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].cls.Name < valid[j].cls.Name })

	if len(valid) == 1 {
		return schema.Array(schema.Ref(ctx.pointer(valid[0].cls))), valid
	}

	items := schema.New()
	for _, m := range valid {
		items.AllOf = append(items.AllOf, &schema.Node{
			If:   memberTest(m.path, schema.Const(m.cls.Name)),
			Then: schema.Ref(ctx.pointer(m.cls)),
		})
	}

	if validateUnknown {
		if unknown == nil {
			unknown = schema.Type(schema.TypeObject)
		}
		var memberships []*schema.Node
		for _, g := range groupByPath(valid) {
			in := schema.New()
			for _, m := range g {
				in.Enum = append(in.Enum, m.cls.Name)
			}
			memberships = append(memberships, memberTest(g[0].path, in))
		}
		test := &schema.Node{Not: memberships[0]}
		// an item claiming membership under two paths also lands in the unknown branch
		if len(memberships) > 1 {
			test = &schema.Node{Not: &schema.Node{OneOf: memberships}}
		}
		items.AllOf = append(items.AllOf, &schema.Node{If: test, Then: unknown})
	}
	return schema.Array(items), valid
}

// groupByPath groups members by discriminator path, in order of first occurrence
func groupByPath(members []collectionMember) [][]collectionMember {
	var groups [][]collectionMember
	index := make(map[string]int)
	for _, m := range members {
		key := strings.Join(m.path, "/")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

// memberTest requires the member at path and applies leaf to its value
func memberTest(path []string, leaf *schema.Node) *schema.Node {
	cur := leaf
	for i := len(path) - 1; i >= 0; i-- {
		cur = schema.New().SetProperty(path[i], cur).AddRequired(path[i])
	}
	return cur
}

// buildCollections creates the configured collections and attaches them to documents
func (ctx *Context) buildCollections() {
	for _, spec := range ctx.opts.Collections {
		doc := ctx.documentByName(spec.Schema)

		var members []*model.Class
		if len(spec.Members) == 0 {
			members = ctx.concreteFeatures(doc)
		}
		for _, name := range spec.Members {
			cls := ctx.model.ClassByName(name)
			if cls == nil || !ctx.compiled[cls] {
				ctx.reporter.Add(errors.ErrCollectionMemberUnknown, spec.Name, name, spec.Name)
				continue
			}
			members = append(members, cls)
		}
		if doc == nil && len(members) > 0 {
			doc = ctx.docOf[members[0]]
		}
		if doc == nil {
			ctx.reporter.Add(errors.WarnCollectionEmpty, spec.Name, spec.Name)
			continue
		}
		ctx.cur = doc

		var unknown *schema.Node
		if spec.UnknownSchema != "" {
			unknown = schema.Ref(spec.UnknownSchema)
		}
		items, valid := ctx.buildCollection(spec.Name, members, spec.ValidateUnknown, unknown)
		if items == nil {
			continue
		}

		node := items
		if spec.Discriminator != "" || spec.ItemsMember != "" {
			node = ctx.wrapCollection(spec, items, valid)
		}
		doc.addCollection(spec.Name, node)
		ctx.logger.Debug("collection built",
			zap.String("collection", spec.Name),
			zap.Int("members", len(valid)))
	}
}

// wrapCollection places the items in an object member. With a collection discriminator,
// an if/then/else chain on the collection level narrows all items to one member type;
// the final else leaves the item level chain in charge.
func (ctx *Context) wrapCollection(spec CollectionSpec, items *schema.Node, members []collectionMember) *schema.Node {
	itemsMember := spec.ItemsMember
	if itemsMember == "" {
		itemsMember = defaultItemsMember
	}
	wrapper := schema.Object().SetProperty(itemsMember, items).AddRequired(itemsMember)
	if spec.Discriminator == "" || len(members) < 2 {
		return wrapper
	}

	wrapper.Properties.Set(spec.Discriminator, schema.Type(schema.TypeString))
	var chain *schema.Node
	for i := len(members) - 1; i >= 0; i-- {
		m := members[i]
		homogeneous := schema.New().SetProperty(itemsMember, schema.Array(schema.Ref(ctx.pointer(m.cls))))
		chain = &schema.Node{
			If:   memberTest([]string{spec.Discriminator}, schema.Const(m.cls.Name)),
			Then: homogeneous,
			Else: chain,
		}
	}
	wrapper.If, wrapper.Then, wrapper.Else = chain.If, chain.Then, chain.Else
	return wrapper
}

func (ctx *Context) documentByName(name string) *Document {
	if name == "" {
		return nil
	}
	for _, doc := range ctx.docs {
		if doc.Name == name {
			return doc
		}
	}
	return nil
}

// concreteFeatures returns the non-abstract feature types of doc, or of all documents
// when doc is nil
func (ctx *Context) concreteFeatures(doc *Document) []*model.Class {
	var out []*model.Class
	for _, cls := range ctx.classes {
		if doc != nil && ctx.docOf[cls] != doc {
			continue
		}
		if cls.Category == model.CategoryFeature && !cls.Abstract {
			out = append(out, cls)
		}
	}
	return out
}
