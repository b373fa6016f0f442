package jsonschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/compiler/annotation"
	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

const testBaseURI = "https://example.org/schemas"

func standardEntries() []rules.MapEntry {
	return []rules.MapEntry{
		{Type: "CharacterString", TargetType: "string"},
		{Type: "Real", TargetType: "number"},
		{Type: "Integer", TargetType: "integer"},
		{Type: "Boolean", TargetType: "boolean"},
		{Type: "URI", TargetType: "string", Keywords: rules.Keywords{Format: "uri"}},
		{Type: "Measure", TargetType: "number", Characteristics: []string{rules.CharacteristicMeasure}},
		{Type: "GM_Point", TargetType: "https://geojson.org/schema/Point.json", Characteristics: []string{rules.CharacteristicGeometry}},
		{Type: "GM_Curve", TargetType: "https://geojson.org/schema/LineString.json", Characteristics: []string{rules.CharacteristicGeometry}},
	}
}

func testOptions() Options {
	params := DefaultParams()
	params.BaseURI = testBaseURI
	return Options{Params: params, MapEntries: standardEntries()}
}

// compileModel parses src and runs a full compilation; configure may adjust the options
func compileModel(t *testing.T, src string, configure func(*Options)) *Result {
	t.Helper()
	m, err := model.Parse([]byte(src))
	require.NoError(t, err)

	opts := testOptions()
	if configure != nil {
		configure(&opts)
	}
	c, err := New(m, opts, zap.NewNop())
	require.NoError(t, err)
	return c.Compile()
}

func assertSchema(t *testing.T, expected string, n *schema.Node) {
	t.Helper()
	require.NotNil(t, n)
	data, err := n.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, expected, string(data))
}

func withRule(name string, extra ...string) func(*Options) {
	return func(o *Options) {
		o.EncodingRules = append(o.EncodingRules, rules.EncodingRule{
			Name:    name,
			Extends: []string{rules.EncodingDefault},
			Rules:   extra,
		})
		o.Params.DefaultEncodingRule = name
	}
}

func TestRequiredAndOptionalProperties(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: name
            type: CharacterString
          - name: length
            type: Real
            multiplicity: "0..1"
`, nil)

	assertSchema(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"length": {"type": "number"}
		},
		"required": ["name"]
	}`, res.Definition("Road"))
	assert.Empty(t, res.Diagnostics)
}

func TestEnumerationLiteralsDefaultToString(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: RoadType
        category: enumeration
        properties:
          - name: paved
          - name: unpaved
`, nil)

	assertSchema(t, `{"type": "string", "enum": ["paved", "unpaved"]}`, res.Definition("RoadType"))
}

func TestEnumerationLiteralEncodingType(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Lanes
        category: enumeration
        taggedValues:
          literalEncodingType: Integer
        properties:
          - name: one
            initialValue: "1"
          - name: two
            initialValue: "2"
          - name: many
            initialValue: "many"
`, nil)

	assertSchema(t, `{"type": "integer", "enum": [1, 2]}`, res.Definition("Lanes"))
	require.Len(t, res.Diagnostics.WithCode(errors.WarnEnumValue), 1)
	assert.Equal(t, "Roads::Lanes.many", res.Diagnostics.WithCode(errors.WarnEnumValue)[0].Element)
}

func TestMultiplicityAndVoidable(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: names
            type: CharacterString
            multiplicity: "1..*"
          - name: aliases
            type: CharacterString
            multiplicity: "0..*"
          - name: lanes
            type: Integer
            multiplicity: "2..4"
          - name: surface
            type: CharacterString
            voidable: true
          - name: signs
            type: CharacterString
            multiplicity: "1..*"
            voidable: true
`, nil)

	assertSchema(t, `{
		"type": "object",
		"properties": {
			"names": {"type": "array", "items": {"type": "string"}, "minItems": 1},
			"aliases": {"type": "array", "items": {"type": "string"}},
			"lanes": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 4},
			"surface": {"type": ["string", "null"]},
			"signs": {"type": ["array", "null"], "items": {"type": "string"}}
		},
		"required": ["names", "lanes"]
	}`, res.Definition("Road"))
}

func TestVoidableNotRequiredWithoutNullEncoding(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: name
            type: CharacterString
          - name: surface
            type: CharacterString
            voidable: true
`, func(o *Options) {
		o.EncodingRules = append(o.EncodingRules, rules.EncodingRule{
			Name:  "plain",
			Rules: []string{rules.RuleBasicType},
		})
		o.Params.DefaultEncodingRule = "plain"
	})

	// no null type without the voidable rule, but never required either
	assertSchema(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"surface": {"type": "string"}
		},
		"required": ["name"]
	}`, res.Definition("Road"))
}

func TestNullableForOpenAPI(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: surface
            type: CharacterString
            voidable: true
          - name: next
            type: Road
            voidable: true
`, func(o *Options) {
		o.Params.SchemaVersion = VersionOpenAPI30
		o.Params.InlineOrByReferenceDefault = Inline
	})

	def := res.Definition("Road")
	assertSchema(t, `{"type": "string", "nullable": true}`, def.Property("surface"))
	assertSchema(t, `{"allOf": [{"$ref": "#/definitions/Road"}], "nullable": true}`, def.Property("next"))

	doc := res.Document("Roads")
	require.NotNil(t, doc)
	assert.Equal(t, "definitions", doc.Root.DefsKeyword)
	assert.Empty(t, doc.Root.Schema)
}

func TestUnresolvedTypes(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: kind
            type: Mystery
          - name: area
            type: GM_Surface
`, nil)

	def := res.Definition("Road")
	assertSchema(t, `{"type": "string"}`, def.Property("kind"))
	assertSchema(t, `{"$ref": "https://geojson.org/schema/Geometry.json"}`, def.Property("area"))

	unresolved := res.Diagnostics.WithCode(errors.ErrUnresolvedType)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Roads::Road.kind", unresolved[0].Element)
	assert.Len(t, res.Diagnostics.WithCode(errors.WarnUnmappedGeometry), 1)
	assert.True(t, res.Diagnostics.HasErrors())
}

const basicTypeModel = `
packages:
  - name: Base
    classes:
      - name: CharacterString
        category: datatype
      - name: Real
        category: datatype
  - name: Codes
    applicationSchema: true
    classes:
      - name: Code
        category: datatype
        supertypes: [CharacterString]
        taggedValues:
          maxLength: "5"
          pattern: "^[A-Z]+$"
      - name: ShortCode
        category: datatype
        supertypes: [Code]
        taggedValues:
          maxLength: "2"
      - name: Percent
        category: datatype
        supertypes: [Real]
        taggedValues:
          rangeMinimum: "0"
          rangeMaximum: "100"
          pattern: "x"
      - name: Holder
        category: object
        properties:
          - name: code
            type: ShortCode
          - name: share
            type: Percent
`

func TestBasicTypes(t *testing.T) {
	res := compileModel(t, basicTypeModel, nil)

	assertSchema(t, `{"allOf": [{"type": "string"}, {"pattern": "^[A-Z]+$", "maxLength": 5}]}`,
		res.Definition("Code"))
	assertSchema(t, `{"allOf": [{"$ref": "#/$defs/Code"}, {"maxLength": 2}]}`,
		res.Definition("ShortCode"))

	holder := res.Definition("Holder")
	assertSchema(t, `{"type": "string", "pattern": "^[A-Z]+$", "maxLength": 2}`, holder.Property("code"))
	assertSchema(t, `{"type": "number", "minimum": 0, "maximum": 100}`, holder.Property("share"))

	notApplicable := res.Diagnostics.WithCode(errors.WarnFacetNotApplicable)
	require.Len(t, notApplicable, 1)
	assert.Equal(t, "Codes::Percent", notApplicable[0].Element)

	// basic types map to their scalar encoding for other runs
	var code *rules.MapEntry
	for i := range res.CrossReferences {
		if res.CrossReferences[i].Type == "ShortCode" {
			code = &res.CrossReferences[i]
		}
	}
	require.NotNil(t, code)
	assert.Equal(t, "string", code.TargetType)
	require.NotNil(t, code.Keywords.MaxLength)
	assert.Equal(t, 2, *code.Keywords.MaxLength)
	assert.Equal(t, "^[A-Z]+$", code.Keywords.Pattern)
}

func TestBasicTypeEligibility(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Base
    classes:
      - name: CharacterString
        category: datatype
  - name: Codes
    applicationSchema: true
    classes:
      - name: Label
        category: datatype
        supertypes: [CharacterString]
        properties:
          - name: lang
            type: CharacterString
`, nil)

	diags := res.Diagnostics.WithCode(errors.ErrBasicTypeNotEligible)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Label")
	assert.NotNil(t, res.Definition("Label").Property("lang"))
}

func TestBasicTypeDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		classes  string
		code     errors.ErrorCode
		element  string
		class    string
		expected string
	}{
		{
			name: "ancestor maps to an object schema",
			classes: `
      - name: Location
        category: datatype
        supertypes: [GM_Point]`,
			code:     errors.ErrBasicTypeNonScalarAncestor,
			element:  "Codes::Location",
			class:    "Location",
			expected: `{"type": "object", "allOf": [{"$ref": "https://geojson.org/schema/Point.json"}]}`,
		},
		{
			name: "malformed length facet is ignored",
			classes: `
      - name: Code
        category: datatype
        supertypes: [CharacterString]
        taggedValues:
          maxLength: "five"
          pattern: "^[A-Z]+$"`,
			code:     errors.ErrMalformedFacet,
			element:  "Codes::Code",
			class:    "Code",
			expected: `{"allOf": [{"type": "string"}, {"pattern": "^[A-Z]+$"}]}`,
		},
		{
			name: "negative length facet is ignored",
			classes: `
      - name: Code
        category: datatype
        supertypes: [CharacterString]
        taggedValues:
          minLength: "-1"`,
			code:     errors.ErrMalformedFacet,
			element:  "Codes::Code",
			class:    "Code",
			expected: `{"type": "string"}`,
		},
		{
			name: "malformed range facet is ignored",
			classes: `
      - name: Percent
        category: datatype
        supertypes: [Real]
        taggedValues:
          rangeMinimum: "zero"
          rangeMaximum: "100"`,
			code:     errors.ErrMalformedFacet,
			element:  "Codes::Percent",
			class:    "Percent",
			expected: `{"allOf": [{"type": "number"}, {"maximum": 100}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileModel(t, `
packages:
  - name: Base
    classes:
      - name: CharacterString
        category: datatype
      - name: Real
        category: datatype
      - name: GM_Point
        category: datatype
  - name: Codes
    applicationSchema: true
    classes:`+tt.classes+"\n", nil)

			diags := res.Diagnostics.WithCode(tt.code)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.element, diags[0].Element)
			assert.Equal(t, errors.SeverityError, diags[0].Severity)
			assertSchema(t, tt.expected, res.Definition(tt.class))
		})
	}
}

func TestCodelists(t *testing.T) {
	src := `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: SurfaceCode
        category: codelist
`
	res := compileModel(t, src, nil)
	assertSchema(t, `{"type": "string"}`, res.Definition("SurfaceCode"))

	res = compileModel(t, src, withRule("uris", rules.RuleCodelistURIFormat))
	assertSchema(t, `{"type": "string", "format": "uri"}`, res.Definition("SurfaceCode"))

	res = compileModel(t, src, func(o *Options) {
		withRule("links", rules.RuleCodelistLink)(o)
		o.Params.LinkObjectURI = "https://example.org/link.json"
	})
	assertSchema(t, `{"$ref": "https://example.org/link.json"}`, res.Definition("SurfaceCode"))
}

const unionModel = `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Width
        category: union
        properties:
          - name: metres
            type: Real
          - name: lanes
            type: Integer
          - name: text
            type: CharacterString
`

func TestUnionPropertyCount(t *testing.T) {
	res := compileModel(t, unionModel, nil)
	assertSchema(t, `{
		"type": "object",
		"properties": {
			"metres": {"type": "number"},
			"lanes": {"type": "integer"},
			"text": {"type": "string"}
		},
		"additionalProperties": false,
		"minProperties": 1,
		"maxProperties": 1
	}`, res.Definition("Width"))
}

func TestUnionTypeDiscriminator(t *testing.T) {
	res := compileModel(t, unionModel, withRule("typed", rules.RuleUnionTypeDiscriminator))
	assertSchema(t, `{"type": ["number", "integer", "string"]}`, res.Definition("Width"))
}

const linkModel = `
packages:
  - name: Hydro
    applicationSchema: true
    classes:
      - name: River
        category: feature
        properties:
          - name: name
            type: CharacterString
      - name: Bridge
        category: feature
        properties:
          - name: crosses
            type: River
          - name: spans
            type: River
            multiplicity: "0..*"
            taggedValues:
              inlineOrByReference: inlineOrByReference
          - name: over
            type: River
            taggedValues:
              inlineOrByReference: inline
`

func TestIdentityValuesByReference(t *testing.T) {
	res := compileModel(t, linkModel, nil)
	def := res.Definition("Bridge")

	assertSchema(t, `{"type": "string", "format": "uri"}`, def.Property("crosses"))
	assertSchema(t, `{"type": "array", "items": {"oneOf": [
		{"$ref": "#/$defs/River"},
		{"type": "string", "format": "uri"}
	]}}`, def.Property("spans"))
	assertSchema(t, `{"$ref": "#/$defs/River"}`, def.Property("over"))
}

func TestReferenceProfiles(t *testing.T) {
	res := compileModel(t, linkModel, func(o *Options) {
		o.Params.FeatureRefProfiles = []RefProfile{RefAsKey, RefAsCollectionKey}
		o.Params.ObjectIdentifierType = []string{"string", "integer"}
	})
	def := res.Definition("Bridge")

	assertSchema(t, `{"oneOf": [
		{"type": ["string", "integer"]},
		{
			"type": "object",
			"properties": {
				"collectionId": {"const": "River"},
				"featureId": {"type": ["string", "integer"]}
			},
			"required": ["collectionId", "featureId"]
		}
	]}`, def.Property("crosses"))

	res = compileModel(t, linkModel, func(o *Options) {
		o.Params.ByReferenceJSONSchemaDefinition = "https://example.org/link.json"
	})
	assertSchema(t, `{"$ref": "https://example.org/link.json"}`, res.Definition("Bridge").Property("crosses"))
}

func TestDataTypeInliningStopsAtCycles(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Trees
    applicationSchema: true
    classes:
      - name: Tree
        category: feature
        properties:
          - name: root
            type: Node
      - name: Node
        category: datatype
        properties:
          - name: label
            type: CharacterString
          - name: child
            type: Node
            multiplicity: "0..1"
`, withRule("inline", rules.RuleInlineDataTypes))

	assertSchema(t, `{
		"type": "object",
		"properties": {
			"root": {
				"type": "object",
				"properties": {
					"label": {"type": "string"},
					"child": {"$ref": "#/$defs/Node"}
				},
				"required": ["label"]
			}
		},
		"required": ["root"]
	}`, res.Definition("Tree"))

	cycles := res.Diagnostics.WithCode(errors.ErrDataTypeCycle)
	require.NotEmpty(t, cycles)
	assert.Contains(t, cycles[0].Message, "Tree -> Node -> Node")
}

func TestPropertyKeywords(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: lanes
            type: Integer
            initialValue: "2"
          - name: length
            type: Measure
            derived: true
            taggedValues:
              unit: m
          - name: lit
            type: Boolean
            initialValue: "maybe"
`, withRule("props", rules.RuleInitialValueAsDefault, rules.RuleDerivedAsReadOnly))

	def := res.Definition("Road")
	assertSchema(t, `{"type": "integer", "default": 2}`, def.Property("lanes"))
	assertSchema(t, `{"unit": "m", "type": "number", "readOnly": true}`, def.Property("length"))
	assertSchema(t, `{"type": "boolean"}`, def.Property("lit"))
	assert.Len(t, res.Diagnostics.WithCode(errors.WarnAnnotationValue), 1)
}

func TestDocumentationAnnotations(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        alias: Street
        definition: A way for vehicles.
        properties:
          - name: name
            type: CharacterString
            definition: Official name.
`, nil)

	def := res.Definition("Road")
	title, ok := def.Annotation("title")
	require.True(t, ok)
	assert.Equal(t, "Street", title)
	description, _ := def.Annotation("description")
	assert.Equal(t, "A way for vehicles.", description)

	assertSchema(t, `{"description": "Official name.", "type": "string"}`, def.Property("name"))
}

func TestGeoJSONFeatureLayout(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: name
            type: CharacterString
          - name: centerline
            type: GM_Curve
            multiplicity: "0..1"
`, func(o *Options) { o.Params.DefaultEncodingRule = rules.EncodingGeoJSON })

	assertSchema(t, `{
		"type": "object",
		"properties": {
			"geometry": {"oneOf": [
				{"type": "null"},
				{"$ref": "https://geojson.org/schema/LineString.json"}
			]},
			"id": {"type": "string"},
			"properties": {
				"type": "object",
				"properties": {"name": {"type": "string"}},
				"required": ["name"]
			}
		},
		"required": ["geometry"]
	}`, res.Definition("Road"))
}

func TestDefaultGeometryTag(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Junction
        category: feature
        properties:
          - name: position
            type: GM_Point
          - name: outline
            type: GM_Curve
            taggedValues:
              defaultGeometry: "true"
`, func(o *Options) { o.Params.DefaultEncodingRule = rules.EncodingGeoJSON })

	def := res.Definition("Junction")
	assertSchema(t, `{"$ref": "https://geojson.org/schema/LineString.json"}`, def.Property("geometry"))
	nested := def.Property("properties")
	require.NotNil(t, nested)
	assert.NotNil(t, nested.Property("position"))
	assert.Nil(t, nested.Property("outline"))
}

func TestValueTypeOptions(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Shapes
    applicationSchema: true
    classes:
      - name: Shape
        category: datatype
        abstract: true
      - name: Circle
        category: datatype
        supertypes: [Shape]
        properties:
          - name: radius
            type: Real
      - name: Square
        category: datatype
        supertypes: [Shape]
        properties:
          - name: side
            type: Real
      - name: Drawing
        category: feature
        properties:
          - name: shape
            type: Shape
      - name: RoundDrawing
        category: feature
        supertypes: [Drawing]
        taggedValues:
          valueTypeOptions: "shape=Circle;colour=Square;shape2"
`, withRule("options", rules.RuleValueTypeOptions))

	def := res.Definition("RoundDrawing")
	assertSchema(t, `{"$ref": "#/$defs/Circle"}`, def.Property("shape"))
	assert.Len(t, res.Diagnostics.WithCode(errors.WarnValueTypeOption), 2)
}

func TestValueTypeOptionsNarrowPrimaryGeometry(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Geometry
    classes:
      - name: GM_Object
        category: object
        abstract: true
      - name: GM_Point
        category: object
        supertypes: [GM_Object]
  - name: Sites
    applicationSchema: true
    classes:
      - name: Site
        category: feature
        properties:
          - name: position
            type: GM_Object
          - name: label
            type: CharacterString
      - name: PointSite
        category: feature
        supertypes: [Site]
        taggedValues:
          valueTypeOptions: "position=GM_Point"
`, func(o *Options) {
		o.MapEntries = append(o.MapEntries, rules.MapEntry{
			Type:            "GM_Object",
			TargetType:      "https://geojson.org/schema/Geometry.json",
			Characteristics: []string{rules.CharacteristicGeometry},
		})
		o.EncodingRules = append(o.EncodingRules, rules.EncodingRule{
			Name:    "sites",
			Extends: []string{rules.EncodingGeoJSON},
			Rules:   []string{rules.RuleValueTypeOptions},
		})
		o.Params.DefaultEncodingRule = "sites"
	})

	site := res.Definition("Site")
	assertSchema(t, `{"$ref": "https://geojson.org/schema/Geometry.json"}`, site.Property("geometry"))

	def := res.Definition("PointSite")
	assertSchema(t, `{"$ref": "https://geojson.org/schema/Point.json"}`, def.Property("geometry"))
	if nested := def.Property("properties"); nested != nil {
		assert.Nil(t, nested.Property("position"))
	}
	assert.Empty(t, res.Diagnostics.WithCode(errors.WarnValueTypeOption))
}

func TestAnchors(t *testing.T) {
	res := compileModel(t, linkModel, func(o *Options) {
		o.Params.UseAnchorsInLinksToClasses = true
		o.Params.InlineOrByReferenceDefault = Inline
	})
	river := res.Definition("River")
	assert.Equal(t, "River", river.Anchor)
	assertSchema(t, `{"$ref": "#River"}`, res.Definition("Bridge").Property("crosses"))
}

func TestNotEncodedAndUnknownRules(t *testing.T) {
	res := compileModel(t, `
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        taggedValues:
          jsonEncodingRule: fancy
        properties:
          - name: name
            type: CharacterString
          - name: internal
            type: CharacterString
            taggedValues:
              jsonEncodingRule: notEncoded
      - name: Scratch
        category: feature
        taggedValues:
          jsonEncodingRule: notEncoded
`, nil)

	assert.Nil(t, res.Definition("Scratch"))
	def := res.Definition("Road")
	require.NotNil(t, def)
	assert.Nil(t, def.Property("internal"))

	unknown := res.Diagnostics.WithCode(errors.WarnUnknownEncodingRule)
	require.Len(t, unknown, 1)
	assert.Equal(t, "Roads::Road", unknown[0].Element)
}

func TestDocumentsAndCrossReferences(t *testing.T) {
	src := `
packages:
  - name: Hydro
    applicationSchema: true
    classes:
      - name: River
        category: feature
  - name: Roads
    applicationSchema: true
    taggedValues:
      jsonDocument: roads-v1.json
    classes:
      - name: Bridge
        category: feature
        properties:
          - name: over
            type: River
            taggedValues:
              inlineOrByReference: inline
`
	res := compileModel(t, src, nil)
	require.Len(t, res.Documents, 2)

	roads := res.Document("Roads")
	require.NotNil(t, roads)
	assert.Equal(t, "roads-v1.json", roads.FileName)
	assert.Equal(t, testBaseURI+"/roads-v1.json", roads.ID)
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", roads.Root.Schema)
	assert.Equal(t, []string{"Bridge"}, roads.Root.Defs.Keys())

	assertSchema(t, `{"$ref": "https://example.org/schemas/Hydro.json#/$defs/River"}`,
		res.Definition("Bridge").Property("over"))

	targets := make(map[string]string)
	for _, e := range res.CrossReferences {
		targets[e.Type] = e.TargetType
	}
	assert.Equal(t, testBaseURI+"/Hydro.json#/$defs/River", targets["River"])
	assert.Equal(t, testBaseURI+"/roads-v1.json#/$defs/Bridge", targets["Bridge"])

	// without a base URI the ids are stable name-based UUIDs
	first := compileModel(t, src, func(o *Options) { o.Params.BaseURI = "" })
	second := compileModel(t, src, func(o *Options) { o.Params.BaseURI = "" })
	id := first.Document("Hydro").ID
	assert.True(t, strings.HasPrefix(id, "urn:uuid:"))
	assert.Equal(t, id, second.Document("Hydro").ID)
	assert.NotEqual(t, id, first.Document("Roads").ID)
}

func TestSchemaSelection(t *testing.T) {
	src := `
packages:
  - name: Hydro
    applicationSchema: true
    classes:
      - name: River
        category: feature
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
`
	res := compileModel(t, src, func(o *Options) { o.Schemas = []string{"Ro*"} })
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "Roads", res.Documents[0].Name)
	assert.Nil(t, res.Definition("River"))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	m, err := model.Parse([]byte(`
packages:
  - name: Roads
    classes:
      - name: Road
        category: feature
`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		configure func(*Options)
	}{
		{"schema version", func(o *Options) { o.Params.SchemaVersion = "draft-04" }},
		{"default rule", func(o *Options) { o.Params.DefaultEncodingRule = "missing" }},
		{"annotation", func(o *Options) { o.Annotations = []annotation.Rule{{Name: "x"}} }},
		{"base schema category", func(o *Options) { o.BaseSchemas = []BaseSchema{{Category: "thing", URI: "x"}} }},
		{"map entry", func(o *Options) { o.MapEntries = append(o.MapEntries, rules.MapEntry{Type: "X"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.configure(&opts)
			_, err := New(m, opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestRunsDoNotShareState(t *testing.T) {
	m, err := model.Parse([]byte(`
packages:
  - name: Roads
    applicationSchema: true
    classes:
      - name: Road
        category: feature
        properties:
          - name: kind
            type: Mystery
`))
	require.NoError(t, err)
	c, err := New(m, testOptions(), nil)
	require.NoError(t, err)

	first := c.Compile()
	second := c.Compile()
	assert.Len(t, first.Diagnostics, 1)
	assert.Len(t, second.Diagnostics, 1)
	assert.True(t, first.Definition("Road").Equal(second.Definition("Road")))
	assert.NotSame(t, first.Definition("Road"), second.Definition("Road"))
}
