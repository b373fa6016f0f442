package jsonschema

import (
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// Result is the outcome of a compilation run
type Result struct {
	// Documents in order of first selected class
	Documents []*Document
	// CrossReferences map every compiled class to its definition
	CrossReferences []rules.MapEntry
	Diagnostics     errors.DiagnosticList

	ctx *Context
}

// Compile runs all phases on a fresh context
func (c *Compiler) Compile() *Result {
	return c.NewContext().Run()
}

// Run executes the phases in order. A context runs once.
func (ctx *Context) Run() *Result {
	start := time.Now()
	log := ctx.logger

	// Phase 1: definitions
	for _, cls := range ctx.classes {
		if n := ctx.compile(cls); n != nil {
			ctx.defs[cls] = n
		}
	}
	log.Debug("definitions created", zap.Int("classes", len(ctx.defs)))

	// Phase 2: encoding infos
	for _, cls := range ctx.classes {
		ctx.computeEncodingInfo(cls)
	}
	log.Debug("encoding infos computed", zap.Int("classes", len(ctx.infos)))

	// Phase 3: member restrictions
	restricted := 0
	for _, cls := range ctx.classes {
		before := ctx.defs[cls]
		ctx.applyRestrictions(cls)
		if ctx.defs[cls] != before {
			restricted++
		}
	}
	log.Debug("member restrictions applied", zap.Int("restricted", restricted))

	// Phase 4: collections
	ctx.buildCollections()

	// Phase 5: documents and cross references
	ctx.assembleDocuments()
	refs := ctx.crossReferences()

	diags := ctx.reporter.Diagnostics()
	fatal, errs, warnings := diags.Count()
	log.Info("compilation finished",
		zap.Int("documents", len(ctx.docs)),
		zap.Int("definitions", len(ctx.defs)),
		zap.Int("errors", errs+fatal),
		zap.Int("warnings", warnings),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		Documents:       ctx.docs,
		CrossReferences: refs,
		Diagnostics:     diags,
		ctx:             ctx,
	}
}

// Document returns the document of the named application schema or nil
func (r *Result) Document(name string) *Document {
	return r.ctx.documentByName(name)
}

// Definition returns the final definition of the named class or nil
func (r *Result) Definition(class string) *schema.Node {
	cls := r.ctx.model.ClassByName(class)
	if cls == nil {
		return nil
	}
	return r.ctx.defs[cls]
}

// EncodingInfo returns the computed encoding info of the named class or nil
func (r *Result) EncodingInfo(class string) *EncodingInfo {
	cls := r.ctx.model.ClassByName(class)
	if cls == nil {
		return nil
	}
	return r.ctx.infos[cls]
}

// Context returns the context the result was produced with
func (r *Result) Context() *Context {
	return r.ctx
}
