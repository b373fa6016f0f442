package schema

// Restrict returns a copy of n narrowed by fragment. The structural keywords of n
// (type, properties, required, additionalProperties, min/maxProperties) and a top-level
// $ref move into a nested allOf member, and fragment is appended to the allOf. n is not
// modified.
//
// Restricting a node that already contains an equal fragment returns an equal node.
func Restrict(n, fragment *Node) *Node {
	out := n.Clone()
	if out == nil {
		out = New()
	}
	if fragment.IsEmpty() {
		return out
	}
	for _, member := range out.AllOf {
		if member.Equal(fragment) {
			return out
		}
	}

	var members []*Node
	if out.Ref != "" {
		members = append(members, Ref(out.Ref))
		out.Ref = ""
	}
	members = append(members, out.AllOf...)
	if nested := extractStructure(out); nested != nil {
		members = append(members, nested)
	}
	out.AllOf = append(members, fragment.Clone())
	return out
}

// IsRestricted reports whether n carries no structural keywords of its own and composes
// its members through allOf
func IsRestricted(n *Node) bool {
	return n != nil && len(n.AllOf) > 0 && n.Ref == "" && !hasStructure(n)
}

func hasStructure(n *Node) bool {
	return len(n.Types) > 0 || n.Properties.Len() > 0 || len(n.Required) > 0 ||
		n.AdditionalProperties != nil || n.MinProperties != nil || n.MaxProperties != nil
}

// extractStructure moves the structural keywords of n into a new node
func extractStructure(n *Node) *Node {
	if !hasStructure(n) {
		return nil
	}
	nested := &Node{
		Types:                n.Types,
		Properties:           n.Properties,
		Required:             n.Required,
		AdditionalProperties: n.AdditionalProperties,
		MinProperties:        n.MinProperties,
		MaxProperties:        n.MaxProperties,
	}
	n.Types = nil
	n.Properties = nil
	n.Required = nil
	n.AdditionalProperties = nil
	n.MinProperties = nil
	n.MaxProperties = nil
	return nested
}

// RequiredFragment returns {"required": [member]}, or for a nested member path
// {"properties": {"a": {"required": ["b"]}}}
func RequiredFragment(path []string) *Node {
	if len(path) == 0 {
		return nil
	}
	leaf := New().AddRequired(path[len(path)-1])
	return nestUnder(path[:len(path)-1], leaf)
}

// TypeFragment returns the properties path constraining the member at path to the given
// types and, for strings, to one of formats
func TypeFragment(path []string, types, formats []string) *Node {
	if len(path) == 0 || (len(types) == 0 && len(formats) == 0) {
		return nil
	}
	var member *Node
	switch {
	case len(formats) == 1:
		member = &Node{Types: append([]string(nil), types...), Format: formats[0]}
	case len(formats) > 1:
		member = &Node{Types: append([]string(nil), types...)}
		for _, f := range formats {
			member.AnyOf = append(member.AnyOf, &Node{Format: f})
		}
	default:
		member = Type(types...)
	}
	leaf := New().SetProperty(path[len(path)-1], member)
	return nestUnder(path[:len(path)-1], leaf)
}

func nestUnder(parents []string, leaf *Node) *Node {
	cur := leaf
	for i := len(parents) - 1; i >= 0; i-- {
		cur = New().SetProperty(parents[i], cur)
	}
	return cur
}
