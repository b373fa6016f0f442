package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

const externalSupertypeModel = `
packages:
  - name: External
    classes:
      - name: A
        category: feature
        abstract: true
  - name: App
    applicationSchema: true
    classes:
      - name: B
        category: feature
        supertypes: [A]
        properties:
          - name: label
            type: CharacterString
      - name: C
        category: feature
        supertypes: [B]
`

func withMappedA(required bool) func(*Options) {
	return func(o *Options) {
		o.MapEntries = append(o.MapEntries, rules.MapEntry{
			Type:       "A",
			TargetType: "https://example.org/a.json",
			EncodingInfo: &rules.EncodingInfo{
				IDMemberPath:     "id",
				IDMemberRequired: required,
				IDMemberTypes:    []string{"string"},
			},
		})
		o.Params.ObjectIdentifierRequired = true
	}
}

func TestRestrictionOfExternallyInheritedIdentifier(t *testing.T) {
	res := compileModel(t, externalSupertypeModel, withMappedA(false))

	assertSchema(t, `{"allOf": [
		{"$ref": "https://example.org/a.json"},
		{
			"type": "object",
			"properties": {"label": {"type": "string"}},
			"required": ["label"]
		},
		{"required": ["id"]}
	]}`, res.Definition("B"))

	info := res.EncodingInfo("B")
	require.NotNil(t, info)
	assert.Equal(t, "id", info.IDMemberPath)
	assert.True(t, info.IDMemberRequired)
	assert.Equal(t, []Source{{Name: "A", External: true}}, info.IDSources)

	// the stronger constraint is inherited, not restated
	sub := res.EncodingInfo("C")
	require.NotNil(t, sub)
	assert.True(t, sub.IDMemberRequired)
	assertSchema(t, `{"type": "object", "allOf": [{"$ref": "#/$defs/B"}]}`, res.Definition("C"))
}

func TestNoRestrictionWhenExternalMemberSatisfiesPolicy(t *testing.T) {
	res := compileModel(t, externalSupertypeModel, withMappedA(true))
	assert.False(t, schema.IsRestricted(res.Definition("B")))
	assert.True(t, res.EncodingInfo("B").IDMemberRequired)
}

func TestRestrictionOfIdentifierTypes(t *testing.T) {
	res := compileModel(t, externalSupertypeModel, func(o *Options) {
		withMappedA(true)(o)
		o.Params.ObjectIdentifierType = []string{"integer"}
		o.Params.ObjectIdentifierFormat = "int64"
	})

	def := res.Definition("B")
	require.Len(t, def.AllOf, 3)
	assertSchema(t, `{"properties": {"id": {"type": "integer", "format": "int64"}}}`, def.AllOf[2])
	info := res.EncodingInfo("B")
	assert.Equal(t, []string{"integer"}, info.IDMemberTypes)
	assert.Equal(t, []string{"int64"}, info.IDMemberFormats)
}

func TestRestrictionIsIdempotent(t *testing.T) {
	res := compileModel(t, externalSupertypeModel, withMappedA(false))
	def := res.Definition("B")

	again := schema.Restrict(def, schema.RequiredFragment([]string{"id"}))
	assert.True(t, def.Equal(again))

	// a second restriction phase on the same context changes nothing
	ctx := res.Context()
	cls := ctx.model.ClassByName("B")
	ctx.applyRestrictions(cls)
	assert.True(t, def.Equal(ctx.Definition(cls)))
}

func TestRestrictionOfBaseSchemaEntityType(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: App
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: name
            type: CharacterString
`, func(o *Options) {
		o.EncodingRules = []rules.EncodingRule{{
			Name:    "fg",
			Extends: []string{rules.EncodingDefault},
			Rules:   []string{rules.RuleVirtualGeneralization, rules.RuleEntityType},
		}}
		o.Params.DefaultEncodingRule = "fg"
		o.Params.EntityTypeMemberRequired = true
		o.BaseSchemas = []BaseSchema{{
			Category: "feature",
			URI:      "https://example.org/feature.json",
			EncodingInfo: &rules.EncodingInfo{
				EntityTypeMemberPath: "featureType",
			},
		}}
	})

	assertSchema(t, `{"allOf": [
		{"$ref": "https://example.org/feature.json"},
		{
			"type": "object",
			"properties": {"name": {"type": "string"}},
			"required": ["name"]
		},
		{"required": ["featureType"]}
	]}`, res.Definition("Road"))

	info := res.EncodingInfo("Road")
	assert.Equal(t, "featureType", info.EntityTypeMemberPath)
	assert.True(t, info.EntityTypeMemberRequired)
}

const conflictingSupertypesModel = `
packages:
  - name: External
    classes:
      - name: X
        category: feature
      - name: Y
        category: mixin
  - name: App
    applicationSchema: true
    classes:
      - name: Z
        category: feature
        supertypes: [X, Y]
`

func TestInconsistentSupertypes(t *testing.T) {
	tests := []struct {
		name  string
		x, y  rules.EncodingInfo
		code  errors.ErrorCode
		check func(t *testing.T, info *EncodingInfo)
	}{
		{
			name: "entity type paths differ",
			x:    rules.EncodingInfo{EntityTypeMemberPath: "type"},
			y:    rules.EncodingInfo{EntityTypeMemberPath: "featureType"},
			code: errors.ErrInconsistentEntityType,
			check: func(t *testing.T, info *EncodingInfo) {
				assert.Equal(t, "type", info.EntityTypeMemberPath)
				assert.Equal(t, []Source{{Name: "X", External: true}}, info.EntityTypeSources)
			},
		},
		{
			name: "identifier type sets differ",
			x:    rules.EncodingInfo{IDMemberPath: "id", IDMemberTypes: []string{"string"}},
			y:    rules.EncodingInfo{IDMemberPath: "id", IDMemberTypes: []string{"integer"}},
			code: errors.ErrInconsistentIdentifier,
			check: func(t *testing.T, info *EncodingInfo) {
				assert.Equal(t, "id", info.IDMemberPath)
				assert.Equal(t, []string{"string"}, info.IDMemberTypes)
				assert.Equal(t, []Source{{Name: "X", External: true}}, info.IDSources)
			},
		},
		{
			name: "identifier required flags differ",
			x:    rules.EncodingInfo{IDMemberPath: "id", IDMemberRequired: true},
			y:    rules.EncodingInfo{IDMemberPath: "id"},
			code: errors.ErrInconsistentIdentifier,
			check: func(t *testing.T, info *EncodingInfo) {
				assert.True(t, info.IDMemberRequired)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.x, tt.y
			res := compileModel(t, conflictingSupertypesModel, func(o *Options) {
				o.MapEntries = append(o.MapEntries,
					rules.MapEntry{Type: "X", TargetType: "https://example.org/x.json", EncodingInfo: &x},
					rules.MapEntry{Type: "Y", TargetType: "https://example.org/y.json", EncodingInfo: &y},
				)
			})

			conflicts := res.Diagnostics.WithCode(tt.code)
			require.Len(t, conflicts, 1)
			assert.Equal(t, "App::Z", conflicts[0].Element)
			assert.Equal(t, errors.SeverityError, conflicts[0].Severity)

			info := res.EncodingInfo("Z")
			require.NotNil(t, info)
			tt.check(t, info)
			assert.NotNil(t, res.Definition("Z"))
		})
	}
}

func TestOwnMembersAreNotDuplicated(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: App
    applicationSchema: true
    classes:
      - name: Base
        category: feature
        abstract: true
      - name: Road
        category: feature
        supertypes: [Base]
`, withRule("fg", rules.RuleEntityType, rules.RuleIdentifierForTypeWithIdentity))

	assertSchema(t, `{
		"type": "object",
		"properties": {
			"entityType": {"type": "string"},
			"id": {"type": "string"}
		}
	}`, res.Definition("Base"))
	assertSchema(t, `{"type": "object", "allOf": [{"$ref": "#/$defs/Base"}]}`, res.Definition("Road"))

	info := res.EncodingInfo("Road")
	assert.Equal(t, "entityType", info.EntityTypeMemberPath)
	assert.Equal(t, []Source{{Name: "Base"}}, info.EntityTypeSources)
}

func TestIdentifierStereotype(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: App
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: code
            type: CharacterString
            stereotypes: [identifier]
          - name: ref
            type: CharacterString
            stereotypes: [identifier]
`, withRule("ids", rules.RuleIdentifierStereotype, rules.RuleIdentifierForTypeWithIdentity))

	def := res.Definition("Road")
	assert.Nil(t, def.Property("id"), "identifier property replaces the synthesized member")
	assert.NotNil(t, def.Property("code"))
	info := res.EncodingInfo("Road")
	assert.Equal(t, "code", info.IDMemberPath)
	assert.True(t, info.IDMemberRequired)
	assert.Len(t, res.Diagnostics.WithCode(errors.WarnMultipleIdentifiers), 1)
}

func TestEncodingInfoMerge(t *testing.T) {
	a := &EncodingInfo{
		EntityTypeMemberPath: "type",
		IDMemberPath:         "id",
		IDMemberTypes:        []string{"string", "integer"},
		EntityTypeSources:    []Source{{Name: "A"}},
		IDSources:            []Source{{Name: "A"}},
	}

	t.Run("agreeing members collect sources", func(t *testing.T) {
		info := a.Clone()
		other := &EncodingInfo{
			EntityTypeMemberPath: "type",
			IDMemberPath:         "id",
			IDMemberTypes:        []string{"integer", "string"},
			EntityTypeSources:    []Source{{Name: "B", External: true}},
			IDSources:            []Source{{Name: "B", External: true}},
		}
		entity, id := info.Merge(other)
		assert.False(t, entity)
		assert.False(t, id)
		assert.Equal(t, []Source{{Name: "A"}, {Name: "B", External: true}}, info.IDSources)
	})

	t.Run("missing members are taken over", func(t *testing.T) {
		info := &EncodingInfo{}
		entity, id := info.Merge(a)
		assert.False(t, entity)
		assert.False(t, id)
		assert.Equal(t, "type", info.EntityTypeMemberPath)
		assert.Equal(t, a.IDMemberTypes, info.IDMemberTypes)
	})

	t.Run("disagreement keeps the existing member", func(t *testing.T) {
		info := a.Clone()
		entity, id := info.Merge(&EncodingInfo{
			EntityTypeMemberPath:     "type",
			EntityTypeMemberRequired: true,
			IDMemberPath:             "identifier",
		})
		assert.True(t, entity)
		assert.True(t, id)
		assert.Equal(t, "id", info.IDMemberPath)
		assert.False(t, info.EntityTypeMemberRequired)
	})

	t.Run("merge is order independent for agreeing members", func(t *testing.T) {
		x, y := a.Clone(), &EncodingInfo{EntityTypeMemberPath: "type"}
		left := x.Clone()
		left.Merge(y)
		right := y.Clone()
		right.Merge(x)
		assert.Equal(t, left.EntityTypeMemberPath, right.EntityTypeMemberPath)
		assert.Equal(t, left.IDMemberPath, right.IDMemberPath)
		assert.ElementsMatch(t, left.IDMemberTypes, right.IDMemberTypes)
	})
}
