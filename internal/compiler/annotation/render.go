package annotation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

var placeholderPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// segment is either literal text or a placeholder
type segment struct {
	literal     string
	placeholder string
}

// Renderer expands annotation rules against model elements
type Renderer struct {
	rules    []Rule
	reporter *errors.Reporter
}

// NewRenderer creates a renderer for the given rules; reporter receives coercion
// warnings and may be nil
func NewRenderer(rules []Rule, reporter *errors.Reporter) *Renderer {
	if reporter == nil {
		reporter = errors.NewReporter(nil)
	}
	return &Renderer{rules: rules, reporter: reporter}
}

// Annotate adds every applicable annotation of el to n
func (r *Renderer) Annotate(n *schema.Node, el model.Element) {
	for _, rule := range r.rules {
		if !rule.AppliesToElement(el) {
			continue
		}
		values := r.Render(rule, el)
		switch {
		case len(values) == 0:
		case len(values) == 1 && !rule.ArrayValue:
			n.Annotate(rule.Name, values[0])
		default:
			n.Annotate(rule.Name, values)
		}
	}
}

// Render expands rule against el and returns the coerced values
func (r *Renderer) Render(rule Rule, el model.Element) []any {
	segments := parse(rule.template())

	// per placeholder instance the substitution candidates
	var choices [][]string
	placeholders, empty := 0, 0
	for _, seg := range segments {
		if seg.placeholder == "" {
			choices = append(choices, []string{seg.literal})
			continue
		}
		placeholders++
		values, known := descriptorValues(seg.placeholder, el)
		if !known {
			r.reporter.Add(errors.WarnUnknownDescriptor, el.QualifiedName(), seg.placeholder, rule.Name)
		}
		switch {
		case len(values) == 0 && rule.NoValue == PopulateOnce:
			values = []string{rule.NoValueValue}
		case len(values) == 0:
			empty++
			values = []string{""}
		case len(values) > 1 && rule.multiValue() == Connect:
			values = []string{strings.Join(values, rule.connector())}
		}
		choices = append(choices, values)
	}
	if placeholders > 0 && empty == placeholders {
		return nil
	}

	var out []any
	for _, s := range product(choices) {
		if v, ok := r.coerce(rule, el, s); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *Renderer) coerce(rule Rule, el model.Element, s string) (any, bool) {
	kind := rule.kind()
	v, err := Coerce(s, kind)
	if err != nil {
		r.reporter.Add(errors.WarnAnnotationValue, el.QualifiedName(), s, rule.Name, string(kind))
		return nil, false
	}
	return v, true
}

// Coerce converts s to kind: booleans accept "true" and "1" case-insensitively, numbers
// must parse
func Coerce(s string, kind ValueKind) (any, error) {
	switch kind {
	case KindBoolean:
		t := strings.TrimSpace(s)
		return strings.EqualFold(t, "true") || t == "1", nil
	case KindInteger:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case KindNumber:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	default:
		return s, nil
	}
}

// product returns one string per combination of choices, in template order
func product(choices [][]string) []string {
	results := []string{""}
	for _, options := range choices {
		next := make([]string, 0, len(results)*len(options))
		for _, prefix := range results {
			for _, o := range options {
				next = append(next, prefix+o)
			}
		}
		results = next
	}
	return results
}

func parse(template string) []segment {
	var segments []segment
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(template, -1) {
		if loc[0] > last {
			segments = append(segments, segment{literal: template[last:loc[0]]})
		}
		segments = append(segments, segment{placeholder: strings.TrimSpace(template[loc[2]:loc[3]])})
		last = loc[1]
	}
	if last < len(template) {
		segments = append(segments, segment{literal: template[last:]})
	}
	return segments
}

// descriptorValues resolves a placeholder; known is false for unknown descriptors
func descriptorValues(placeholder string, el model.Element) (values []string, known bool) {
	if strings.HasPrefix(placeholder, "TV") {
		if tag, sep, ok := parseTaggedValueRef(placeholder); ok {
			return taggedValues(el, tag, sep), true
		}
	}

	d := el.Descriptors()
	switch placeholder {
	case "name":
		return nonEmpty(el.ElementName()), true
	case "alias":
		return nonEmpty(d.Alias), true
	case "definition":
		return nonEmpty(d.Definition), true
	case "description":
		return nonEmpty(d.Description), true
	case "example", "examples":
		return nonEmpty(d.Examples...), true
	case "legalBasis":
		return nonEmpty(d.LegalBasis), true
	case "dataCaptureStatement", "dataCaptureStatements":
		return nonEmpty(d.DataCaptureStatements...), true
	case "primaryCode":
		return nonEmpty(d.PrimaryCode), true
	case "globalIdentifier":
		return nonEmpty(d.GlobalIdentifier), true
	}
	return nil, false
}

// parseTaggedValueRef parses "TV:tag" and "TV(sep):tag"
func parseTaggedValueRef(s string) (tag, sep string, ok bool) {
	rest := strings.TrimPrefix(s, "TV")
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, "):")
		if end < 0 {
			return "", "", false
		}
		sep = rest[1:end]
		rest = rest[end+1:]
	}
	if !strings.HasPrefix(rest, ":") || len(rest) == 1 {
		return "", "", false
	}
	return rest[1:], sep, true
}

func taggedValues(el model.Element, tag, sep string) []string {
	raw := el.TaggedValues().All(tag)
	if sep == "" {
		return nonEmpty(raw...)
	}
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, sep) {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
