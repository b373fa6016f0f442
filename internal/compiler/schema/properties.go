package schema

// Properties is an insertion-ordered map of named schemas
type Properties struct {
	keys  []string
	nodes map[string]*Node
}

// NewProperties creates an empty ordered map
func NewProperties() *Properties {
	return &Properties{nodes: make(map[string]*Node)}
}

// Set adds or replaces name; replaced entries keep their position
func (p *Properties) Set(name string, n *Node) {
	if _, ok := p.nodes[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.nodes[name] = n
}

// Get returns the schema for name or nil
func (p *Properties) Get(name string) *Node {
	if p == nil {
		return nil
	}
	return p.nodes[name]
}

// Has reports whether name is present
func (p *Properties) Has(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.nodes[name]
	return ok
}

// Delete removes name
func (p *Properties) Delete(name string) {
	if p == nil {
		return
	}
	if _, ok := p.nodes[name]; !ok {
		return
	}
	delete(p.nodes, name)
	for i, k := range p.keys {
		if k == name {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the names in insertion order
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len returns the number of entries
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns a deep copy
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	c := NewProperties()
	for _, k := range p.keys {
		c.Set(k, p.nodes[k].Clone())
	}
	return c
}
