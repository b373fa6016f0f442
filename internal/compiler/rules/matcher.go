package rules

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/modelschema/internal/compiler/model"
)

// EncodingRuleTag is the tagged value selecting the encoding rule of an element
const EncodingRuleTag = "jsonEncodingRule"

// Matcher resolves rule sets for model elements and looks up map entries
type Matcher struct {
	sets        map[string]*RuleSet
	defaultRule string
	entries     map[string][]*MapEntry

	// OnUnknownRule is called when an element names an undefined encoding rule
	OnUnknownRule func(el model.Element, name, fallback string)
}

// NewMatcher builds a matcher from the built-in encoding rules, the user rules and the map
// entries. defaultRule is used for elements without an encoding rule tag.
func NewMatcher(defaultRule string, encodingRules []EncodingRule, entries []MapEntry) (*Matcher, error) {
	defs := append(Builtin(), encodingRules...)
	sets, err := flatten(defs)
	if err != nil {
		return nil, err
	}
	if defaultRule == "" {
		defaultRule = EncodingDefault
	}
	if _, ok := sets[defaultRule]; !ok {
		return nil, fmt.Errorf("default encoding rule %q is not defined", defaultRule)
	}

	m := &Matcher{
		sets:        sets,
		defaultRule: defaultRule,
		entries:     make(map[string][]*MapEntry),
	}
	for i := range entries {
		e := entries[i]
		if err := e.compile(); err != nil {
			return nil, err
		}
		m.entries[e.Type] = append(m.entries[e.Type], &e)
	}
	return m, nil
}

// RuleSet returns the named rule set
func (m *Matcher) RuleSet(name string) (*RuleSet, bool) {
	rs, ok := m.sets[name]
	return rs, ok
}

// Default returns the default rule set
func (m *Matcher) Default() *RuleSet {
	return m.sets[m.defaultRule]
}

// RuleSetFor returns the rule set in effect for el: the nearest encoding rule tag on the
// element or its owners, else the default rule
func (m *Matcher) RuleSetFor(el model.Element) *RuleSet {
	for cur := el; cur != nil; cur = cur.Parent() {
		name := strings.TrimSpace(cur.TaggedValues().Get(EncodingRuleTag))
		if name == "" {
			continue
		}
		if rs, ok := m.sets[name]; ok {
			return rs
		}
		if m.OnUnknownRule != nil {
			m.OnUnknownRule(cur, name, m.defaultRule)
		}
		break
	}
	return m.Default()
}

// Applies reports whether rule is in effect for el
func (m *Matcher) Applies(rule string, el model.Element) bool {
	return m.RuleSetFor(el).Has(rule)
}

// Lookup returns the map entry for typeName under rs. Entries naming the rule exactly win
// over pattern matches; among equals the last configured entry wins.
func (m *Matcher) Lookup(typeName string, rs *RuleSet) *MapEntry {
	var exact, pattern *MapEntry
	name := ""
	if rs != nil {
		name = rs.Name()
	}
	for _, e := range m.entries[typeName] {
		if !e.matches(name) {
			continue
		}
		if e.Rule == name {
			exact = e
		} else {
			pattern = e
		}
	}
	if exact != nil {
		return exact
	}
	return pattern
}

// Entries returns the number of configured map entries
func (m *Matcher) Entries() int {
	n := 0
	for _, list := range m.entries {
		n += len(list)
	}
	return n
}
