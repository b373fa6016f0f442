package jsonschema

import (
	"strings"

	"github.com/google/uuid"

	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// documentTag overrides the file name of the document of an application schema
const documentTag = "jsonDocument"

// Document is the JSON Schema document produced for one application schema
type Document struct {
	// Name is the application schema name
	Name string
	// FileName is the name of the output file
	FileName string
	// ID is the $id of the document
	ID      string
	Package *model.Package
	// Classes are the compiled classes in model order
	Classes []*model.Class
	// Root is set by the final phase
	Root *schema.Node

	collections []namedNode
}

type namedNode struct {
	name string
	node *schema.Node
}

func newDocument(pkg *model.Package, params Params) *Document {
	file := strings.TrimSpace(pkg.Tags.Get(documentTag))
	if file == "" {
		file = pkg.Name + ".json"
	}
	var id string
	if params.BaseURI != "" {
		id = strings.TrimRight(params.BaseURI, "/") + "/" + file
	} else {
		// stable across runs so cross-document references survive recompilation
		id = "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(pkg.QualifiedName()+"/"+file)).String()
	}
	return &Document{
		Name:     pkg.Name,
		FileName: file,
		ID:       id,
		Package:  pkg,
	}
}

// addCollection attaches a collection definition to the document
func (d *Document) addCollection(name string, n *schema.Node) {
	for i := range d.collections {
		if d.collections[i].name == name {
			d.collections[i].node = n
			return
		}
	}
	d.collections = append(d.collections, namedNode{name: name, node: n})
}

// Collection returns the named collection definition or nil
func (d *Document) Collection(name string) *schema.Node {
	for _, c := range d.collections {
		if c.name == name {
			return c.node
		}
	}
	return nil
}

// assembleDocuments builds the root node of every document: class definitions in model
// order followed by collections
func (ctx *Context) assembleDocuments() {
	v := ctx.params.SchemaVersion
	for _, doc := range ctx.docs {
		root := schema.New()
		root.Schema = v.URI()
		root.ID = doc.ID
		root.DefsKeyword = v.DefsKeyword()
		for _, cls := range doc.Classes {
			if def := ctx.defs[cls]; def != nil {
				root.SetDef(cls.Name, def)
			}
		}
		for _, c := range doc.collections {
			root.SetDef(c.name, c.node)
		}
		doc.Root = root
	}
}

// crossReferences returns a map entry per compiled class so that other runs can refer to
// the produced definitions. Basic types map to their scalar encoding.
func (ctx *Context) crossReferences() []rules.MapEntry {
	var out []rules.MapEntry
	for _, doc := range ctx.docs {
		for _, cls := range doc.Classes {
			if ctx.defs[cls] == nil {
				continue
			}
			entry := rules.MapEntry{Type: cls.Name, Rule: "*"}
			if bt := ctx.basicType(cls); bt != nil {
				entry.TargetType = bt.scalar
				entry.Keywords = keywordsOf(bt)
			} else {
				entry.TargetType = doc.ID + definitionPointer(ctx.params.SchemaVersion, cls.Name)
				entry.EncodingInfo = exportInfo(ctx.infos[cls])
			}
			out = append(out, entry)
		}
	}
	return out
}

func keywordsOf(bt *basicType) rules.Keywords {
	k := bt.keywords
	if f := bt.facets; f != nil {
		if f.Format != "" {
			k.Format = f.Format
		}
		if f.Pattern != "" {
			k.Pattern = f.Pattern
		}
		if f.MinLength != nil {
			k.MinLength = f.MinLength
		}
		if f.MaxLength != nil {
			k.MaxLength = f.MaxLength
		}
		if f.Minimum != nil {
			k.Minimum = f.Minimum
		}
		if f.Maximum != nil {
			k.Maximum = f.Maximum
		}
		if f.ExclusiveMinimum != nil {
			k.ExclusiveMinimum = f.ExclusiveMinimum
		}
		if f.ExclusiveMaximum != nil {
			k.ExclusiveMaximum = f.ExclusiveMaximum
		}
	}
	return k
}

func exportInfo(info *EncodingInfo) *rules.EncodingInfo {
	if info == nil || (!info.HasEntityType() && !info.HasID()) {
		return nil
	}
	return &rules.EncodingInfo{
		EntityTypeMemberPath:     info.EntityTypeMemberPath,
		EntityTypeMemberRequired: info.EntityTypeMemberRequired,
		IDMemberPath:             info.IDMemberPath,
		IDMemberRequired:         info.IDMemberRequired,
		IDMemberTypes:            append([]string(nil), info.IDMemberTypes...),
		IDMemberFormats:          append([]string(nil), info.IDMemberFormats...),
	}
}
