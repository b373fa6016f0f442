// Package jsonschema compiles an application schema model into JSON Schema documents.
//
// A compilation run executes five phases in order over all selected classes:
//
//  1. createDefinitions: one definition per class
//  2. computeEncodingInfos: entity type and identifier members inherited from supertypes
//     and base schemas
//  3. applyMemberRestrictions: allOf narrowing of externally inherited members
//  4. createCollectionDefinitions: collection schemas discriminated by entity type
//  5. createMapEntries: documents and the cross-reference table
//
// All state of a run lives in a Context; runs never share state.
package jsonschema

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/compiler/annotation"
	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// Options configure a compiler
type Options struct {
	Params        Params
	Schemas       []string
	EncodingRules []rules.EncodingRule
	MapEntries    []rules.MapEntry
	BaseSchemas   []BaseSchema
	Annotations   []annotation.Rule
	Collections   []CollectionSpec
}

// Compiler holds the validated inputs of compilation runs
type Compiler struct {
	model       *model.Model
	opts        Options
	logger      *zap.Logger
	patterns    rules.Patterns
	baseSchemas map[model.Category]*BaseSchema
}

// New validates the options and creates a compiler for m
func New(m *model.Model, opts Options, logger *zap.Logger) (*Compiler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if _, err := rules.NewMatcher(opts.Params.DefaultEncodingRule, opts.EncodingRules, opts.MapEntries); err != nil {
		return nil, err
	}
	for _, r := range opts.Annotations {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	if len(opts.Annotations) == 0 {
		opts.Annotations = annotation.Defaults()
	}

	patterns, err := rules.CompilePatterns(opts.Schemas)
	if err != nil {
		return nil, err
	}

	bases := make(map[model.Category]*BaseSchema)
	for i := range opts.BaseSchemas {
		bs := &opts.BaseSchemas[i]
		cat, err := model.ParseCategory(bs.Category)
		if err != nil {
			return nil, fmt.Errorf("base schema %q: %w", bs.URI, err)
		}
		if bs.URI == "" {
			return nil, fmt.Errorf("base schema for category %s without uri", cat)
		}
		bases[cat] = bs
	}

	for _, col := range opts.Collections {
		if col.Name == "" {
			return nil, fmt.Errorf("collection without name")
		}
	}

	return &Compiler{
		model:       m,
		opts:        opts,
		logger:      logger,
		patterns:    patterns,
		baseSchemas: bases,
	}, nil
}

// Context is the state of one compilation run
type Context struct {
	*Compiler

	params   Params
	matcher  *rules.Matcher
	reporter *errors.Reporter
	renderer *annotation.Renderer

	classes  []*model.Class
	compiled map[*model.Class]bool
	docs     []*Document
	docOf    map[*model.Class]*Document
	cur      *Document

	defs        map[*model.Class]*schema.Node
	resolutions map[resolutionKey]Resolution
	basics      map[*model.Class]*basicType
	own         map[*model.Class]*EncodingInfo
	infos       map[*model.Class]*EncodingInfo
	vg          map[*model.Class]bool
	inherits    map[inheritKey]bool
	identifiers map[*model.Class]*model.Property
	special     map[*model.Class]specialMembers
	unknownRule map[string]bool
}

// NewContext prepares a fresh run: classes are selected and assigned to documents
func (c *Compiler) NewContext() *Context {
	ctx := &Context{
		Compiler:    c,
		params:      c.opts.Params,
		reporter:    errors.NewReporter(c.logger),
		compiled:    make(map[*model.Class]bool),
		docOf:       make(map[*model.Class]*Document),
		defs:        make(map[*model.Class]*schema.Node),
		resolutions: make(map[resolutionKey]Resolution),
		basics:      make(map[*model.Class]*basicType),
		own:         make(map[*model.Class]*EncodingInfo),
		infos:       make(map[*model.Class]*EncodingInfo),
		vg:          make(map[*model.Class]bool),
		inherits:    make(map[inheritKey]bool),
		identifiers: make(map[*model.Class]*model.Property),
		special:     make(map[*model.Class]specialMembers),
		unknownRule: make(map[string]bool),
	}
	// options were validated by New
	ctx.matcher, _ = rules.NewMatcher(c.opts.Params.DefaultEncodingRule, c.opts.EncodingRules, c.opts.MapEntries)
	ctx.matcher.OnUnknownRule = func(el model.Element, name, fallback string) {
		key := el.QualifiedName() + "\x00" + name
		if ctx.unknownRule[key] {
			return
		}
		ctx.unknownRule[key] = true
		ctx.reporter.Add(errors.WarnUnknownEncodingRule, el.QualifiedName(), name, fallback)
	}
	ctx.renderer = annotation.NewRenderer(c.opts.Annotations, ctx.reporter)
	ctx.selectClasses()
	return ctx
}

func (ctx *Context) selectClasses() {
	docs := make(map[*model.Package]*Document)
	for _, cls := range ctx.model.Classes() {
		pkg := cls.Schema()
		if pkg == nil || !pkg.ApplicationSchema || !ctx.patterns.Match(pkg.Name) {
			continue
		}
		if cls.Category == model.CategoryUnknown {
			continue
		}
		rs := ctx.ruleSetFor(cls)
		if rs.Has(rules.RuleNotEncoded) {
			continue
		}
		// mapped classes are represented by their map entry
		if !ctx.params.IgnoreMapEntriesForSchemaTypes && ctx.matcher.Lookup(cls.Name, rs) != nil {
			continue
		}
		doc, ok := docs[pkg]
		if !ok {
			doc = newDocument(pkg, ctx.params)
			docs[pkg] = doc
			ctx.docs = append(ctx.docs, doc)
		}
		doc.Classes = append(doc.Classes, cls)
		ctx.docOf[cls] = doc
		ctx.compiled[cls] = true
		ctx.classes = append(ctx.classes, cls)
	}
}

// Reporter returns the diagnostics sink of the run
func (ctx *Context) Reporter() *errors.Reporter {
	return ctx.reporter
}

// Definition returns the current definition of a class
func (ctx *Context) Definition(cls *model.Class) *schema.Node {
	return ctx.defs[cls]
}

// EncodingInfo returns the computed encoding info of a class, nil before phase 2
func (ctx *Context) EncodingInfo(cls *model.Class) *EncodingInfo {
	return ctx.infos[cls]
}

func (ctx *Context) ruleSetFor(el model.Element) *rules.RuleSet {
	return ctx.matcher.RuleSetFor(el)
}

// mapEntry returns the map entry for a model class unless map entries are ignored for
// compiled classes
func (ctx *Context) mapEntry(cls *model.Class, rs *rules.RuleSet) *rules.MapEntry {
	if ctx.params.IgnoreMapEntriesForSchemaTypes && ctx.compiled[cls] {
		return nil
	}
	return ctx.matcher.Lookup(cls.Name, rs)
}

// pointer returns the reference to the definition of cls as seen from the current
// document
func (ctx *Context) pointer(cls *model.Class) string {
	doc := ctx.docOf[cls]
	var frag string
	if ctx.params.UseAnchorsInLinksToClasses && ctx.params.SchemaVersion.SupportsAnchors() {
		frag = "#" + cls.Name
	} else {
		frag = definitionPointer(ctx.params.SchemaVersion, cls.Name)
	}
	if doc == nil || doc == ctx.cur {
		return frag
	}
	return doc.ID + frag
}

// definitionPointer returns the JSON pointer fragment of a named definition
func definitionPointer(v SchemaVersion, name string) string {
	return "#/" + v.DefsKeyword() + "/" + escapePointer(name)
}

func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// splitPath splits a member path like "properties/entityType"
func splitPath(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
