package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unbounded is the upper bound of a multiplicity without limit
const Unbounded = -1

// Multiplicity is the cardinality of a property; the zero value means 1..1
type Multiplicity struct {
	Min int
	Max int
	set bool
}

// NewMultiplicity returns min..max; use Unbounded for "*"
func NewMultiplicity(min, max int) Multiplicity {
	return Multiplicity{Min: min, Max: max, set: true}
}

// ParseMultiplicity parses "1", "0..1", "1..*", "*" and "0..n"
func ParseMultiplicity(s string) (Multiplicity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewMultiplicity(1, 1), nil
	}
	if s == "*" || s == "n" {
		return NewMultiplicity(0, Unbounded), nil
	}

	lower, upper, found := strings.Cut(s, "..")
	min, err := strconv.Atoi(strings.TrimSpace(lower))
	if err != nil || min < 0 {
		return Multiplicity{}, fmt.Errorf("invalid multiplicity %q", s)
	}
	if !found {
		return NewMultiplicity(min, min), nil
	}

	upper = strings.TrimSpace(upper)
	if upper == "*" || upper == "n" {
		return NewMultiplicity(min, Unbounded), nil
	}
	max, err := strconv.Atoi(upper)
	if err != nil || max < min || max == 0 {
		return Multiplicity{}, fmt.Errorf("invalid multiplicity %q", s)
	}
	return NewMultiplicity(min, max), nil
}

// Lower returns the lower bound
func (m Multiplicity) Lower() int {
	if !m.set {
		return 1
	}
	return m.Min
}

// Upper returns the upper bound or Unbounded
func (m Multiplicity) Upper() int {
	if !m.set {
		return 1
	}
	return m.Max
}

// IsMultiValued reports whether more than one value is allowed
func (m Multiplicity) IsMultiValued() bool {
	u := m.Upper()
	return u == Unbounded || u > 1
}

// IsOptional reports whether the lower bound is zero
func (m Multiplicity) IsOptional() bool {
	return m.Lower() == 0
}

// String returns the UML notation
func (m Multiplicity) String() string {
	lower, upper := m.Lower(), m.Upper()
	switch {
	case upper == Unbounded:
		return fmt.Sprintf("%d..*", lower)
	case lower == upper:
		return strconv.Itoa(lower)
	default:
		return fmt.Sprintf("%d..%d", lower, upper)
	}
}

// UnmarshalYAML accepts the UML notation as string or integer
func (m *Multiplicity) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseMultiplicity(node.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML writes the UML notation
func (m Multiplicity) MarshalYAML() (any, error) {
	return m.String(), nil
}
