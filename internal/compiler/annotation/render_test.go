package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

func newRoad() *model.Class {
	return &model.Class{
		Name:     "Road",
		Category: model.CategoryFeature,
		Docs: model.Descriptors{
			Alias:      "Straße",
			Definition: "A way for vehicles.",
			Examples:   []string{"A1", "B2", "C3"},
		},
		Tags: model.TaggedValues{
			"keywords": {"transport", "network"},
			"codes":    {"a|b", " c "},
			"lanes":    {"4"},
			"width":    {"wide"},
			"public":   {"TRUE"},
		},
	}
}

func TestFanOutCardinality(t *testing.T) {
	r := NewRenderer(nil, nil)
	rule := Rule{Name: "x", Template: "[[example]]/[[TV:keywords]]", MultiValue: FanOut}

	values := r.Render(rule, newRoad())
	assert.Len(t, values, 3*2)
	assert.Equal(t, []any{
		"A1/transport", "A1/network",
		"B2/transport", "B2/network",
		"C3/transport", "C3/network",
	}, values)

	rule.MultiValue = Connect
	rule.MultiValueConnectorToken = ", "
	values = r.Render(rule, newRoad())
	assert.Equal(t, []any{"A1, B2, C3/transport, network"}, values)
}

func TestSimpleRuleProducesArrayForManyValues(t *testing.T) {
	r := NewRenderer([]Rule{
		{Name: "examples", Descriptor: "examples"},
		{Name: "title", Descriptor: "alias"},
		{Name: "tags", Descriptor: "TV:keywords", MultiValue: Connect},
		{Name: "aliases", Descriptor: "alias", ArrayValue: true},
	}, nil)

	n := schema.New()
	r.Annotate(n, newRoad())

	v, ok := n.Annotation("examples")
	require.True(t, ok)
	assert.Equal(t, []any{"A1", "B2", "C3"}, v)

	v, _ = n.Annotation("title")
	assert.Equal(t, "Straße", v)

	v, _ = n.Annotation("tags")
	assert.Equal(t, "transport network", v)

	v, _ = n.Annotation("aliases")
	assert.Equal(t, []any{"Straße"}, v)
}

func TestNoValueBehavior(t *testing.T) {
	r := NewRenderer(nil, nil)
	road := newRoad()

	ignore := Rule{Name: "d", Template: "[[description]] ([[legalBasis]])"}
	assert.Nil(t, r.Render(ignore, road), "all placeholders empty")

	partial := Rule{Name: "d", Template: "[[definition]] [[description]]"}
	assert.Equal(t, []any{"A way for vehicles. "}, r.Render(partial, road))

	once := Rule{Name: "d", Template: "[[description]]", NoValue: PopulateOnce, NoValueValue: "n/a"}
	assert.Equal(t, []any{"n/a"}, r.Render(once, road))

	literal := Rule{Name: "d", Template: "fixed"}
	assert.Equal(t, []any{"fixed"}, r.Render(literal, road))
}

func TestEmptyTaggedValuesCountAsNoValue(t *testing.T) {
	r := NewRenderer(nil, nil)
	road := newRoad()
	road.Tags["note"] = []string{"", "  "}

	assert.Nil(t, r.Render(Rule{Name: "note", Descriptor: "TV:note"}, road))
	assert.Nil(t, r.Render(Rule{Name: "note", Template: "see [[TV:note]]"}, road))

	once := Rule{Name: "note", Descriptor: "TV:note", NoValue: PopulateOnce, NoValueValue: "n/a"}
	assert.Equal(t, []any{"n/a"}, r.Render(once, road))
}

func TestTaggedValueSeparator(t *testing.T) {
	r := NewRenderer(nil, nil)
	values := r.Render(Rule{Name: "codes", Descriptor: "TV(|):codes"}, newRoad())
	assert.Equal(t, []any{"a", "b", "c"}, values)
}

func TestCoercion(t *testing.T) {
	reporter := errors.NewReporter(nil)
	r := NewRenderer(nil, reporter)
	road := newRoad()

	assert.Equal(t, []any{int64(4)}, r.Render(Rule{Name: "lanes", Descriptor: "TV:lanes", Type: KindInteger}, road))
	assert.Equal(t, []any{true}, r.Render(Rule{Name: "public", Descriptor: "TV:public", Type: KindBoolean}, road))
	assert.Empty(t, r.Render(Rule{Name: "width", Descriptor: "TV:width", Type: KindNumber}, road))

	diags := reporter.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, errors.WarnAnnotationValue, diags[0].Code)
	assert.Contains(t, diags[0].Message, "'wide'")

	v, err := Coerce("1", KindBoolean)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	v, err = Coerce(" 2.5 ", KindNumber)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
}

func TestUnknownDescriptorWarns(t *testing.T) {
	reporter := errors.NewReporter(nil)
	r := NewRenderer(nil, reporter)

	assert.Nil(t, r.Render(Rule{Name: "x", Template: "[[colour]]"}, newRoad()))
	diags := reporter.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, errors.WarnUnknownDescriptor, diags[0].Code)
}

func TestScope(t *testing.T) {
	prop := &model.Property{Name: "p", Role: true}
	pkg := &model.Package{Name: "P"}
	cls := newRoad()

	tests := []struct {
		scope               Scope
		onClass, onProp, on bool
	}{
		{ScopeAll, true, true, true},
		{ScopeClass, true, false, false},
		{ScopeProperty, false, true, false},
		{ScopeRole, false, true, false},
		{ScopeAttribute, false, false, false},
		{ScopePackage, false, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			rule := Rule{Name: "x", Descriptor: "name", AppliesTo: tt.scope}
			assert.Equal(t, tt.onClass, rule.AppliesToElement(cls))
			assert.Equal(t, tt.onProp, rule.AppliesToElement(prop))
			assert.Equal(t, tt.on, rule.AppliesToElement(pkg))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Rule{Name: "x", Descriptor: "name"}.Validate())
	assert.Error(t, Rule{Descriptor: "name"}.Validate())
	assert.Error(t, Rule{Name: "x"}.Validate())
	assert.Error(t, Rule{Name: "x", Descriptor: "name", Template: "[[name]]"}.Validate())
	assert.Error(t, Rule{Name: "x", Descriptor: "name", Type: "date"}.Validate())
	assert.Error(t, Rule{Name: "x", Descriptor: "name", MultiValue: "merge"}.Validate())
}
