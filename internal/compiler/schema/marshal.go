package schema

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes the keywords in a fixed order so that output is stable across runs
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	if n.Bool != nil {
		if *n.Bool {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	}

	w := &objectWriter{}
	w.buf.WriteByte('{')

	w.string("$schema", n.Schema)
	w.string("$id", n.ID)
	w.string("$anchor", n.Anchor)
	w.string("$ref", n.Ref)
	w.string("$comment", n.Comment)
	for _, a := range n.Annotations {
		w.value(a.Key, a.Value)
	}

	switch len(n.Types) {
	case 0:
	case 1:
		w.value("type", n.Types[0])
	default:
		w.value("type", n.Types)
	}
	if n.Nullable {
		w.value("nullable", true)
	}
	w.string("format", n.Format)
	w.string("pattern", n.Pattern)
	if len(n.Enum) > 0 {
		w.value("enum", n.Enum)
	}
	if n.Const != nil {
		w.value("const", n.Const)
	}
	w.intPtr("minLength", n.MinLength)
	w.intPtr("maxLength", n.MaxLength)
	w.floatPtr("minimum", n.Minimum)
	w.floatPtr("exclusiveMinimum", n.ExclusiveMinimum)
	w.floatPtr("maximum", n.Maximum)
	w.floatPtr("exclusiveMaximum", n.ExclusiveMaximum)
	if n.Default != nil {
		w.value("default", n.Default)
	}
	if n.ReadOnly {
		w.value("readOnly", true)
	}

	w.node("items", n.Items)
	w.intPtr("minItems", n.MinItems)
	w.intPtr("maxItems", n.MaxItems)

	w.properties("properties", n.Properties)
	if len(n.Required) > 0 {
		w.value("required", n.Required)
	}
	w.node("additionalProperties", n.AdditionalProperties)
	w.intPtr("minProperties", n.MinProperties)
	w.intPtr("maxProperties", n.MaxProperties)

	w.list("allOf", n.AllOf)
	w.list("oneOf", n.OneOf)
	w.list("anyOf", n.AnyOf)
	w.node("not", n.Not)
	w.node("if", n.If)
	w.node("then", n.Then)
	w.node("else", n.Else)

	defsKeyword := n.DefsKeyword
	if defsKeyword == "" {
		defsKeyword = "$defs"
	}
	w.properties(defsKeyword, n.Defs)

	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// MarshalIndent serializes n with two-space indentation
func MarshalIndent(n *Node) ([]byte, error) {
	raw, err := n.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

type objectWriter struct {
	buf   bytes.Buffer
	count int
	err   error
}

func (w *objectWriter) key(k string) {
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.count++
	kb, _ := json.Marshal(k)
	w.buf.Write(kb)
	w.buf.WriteByte(':')
}

func (w *objectWriter) value(k string, v any) {
	if w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.key(k)
	w.buf.Write(b)
}

func (w *objectWriter) string(k, v string) {
	if v != "" {
		w.value(k, v)
	}
}

func (w *objectWriter) intPtr(k string, v *int) {
	if v != nil {
		w.value(k, *v)
	}
}

func (w *objectWriter) floatPtr(k string, v *float64) {
	if v != nil {
		w.value(k, *v)
	}
}

func (w *objectWriter) node(k string, n *Node) {
	if n != nil {
		w.value(k, n)
	}
}

func (w *objectWriter) list(k string, list []*Node) {
	if len(list) > 0 {
		w.value(k, list)
	}
}

func (w *objectWriter) properties(k string, p *Properties) {
	if w.err != nil || p.Len() == 0 {
		return
	}
	w.key(k)
	w.buf.WriteByte('{')
	for i, name := range p.Keys() {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		kb, _ := json.Marshal(name)
		w.buf.Write(kb)
		w.buf.WriteByte(':')
		b, err := json.Marshal(p.Get(name))
		if err != nil {
			w.err = err
			return
		}
		w.buf.Write(b)
	}
	w.buf.WriteByte('}')
}
