// Package condition provides the filter algebra passed to paginators.
//
// A condition is an opaque tree for the layers that build it; paginators
// interpret it, e.g. the postgres package compiles it into a where clause.
package condition

import (
	"fmt"
	"strings"
)

// Condition is a boolean filter expression.
type Condition interface {
	fmt.Stringer
	condition()
}

type (
	// Constant is an always-true or always-false condition.
	Constant bool

	// And holds when every sub condition holds. An empty And is true.
	And struct {
		Conditions []Condition
	}

	// Or holds when any sub condition holds. An empty Or is false.
	Or struct {
		Conditions []Condition
	}

	// Not negates a condition.
	Not struct {
		Condition Condition
	}

	// Field applies a condition to the value of a named field.
	Field struct {
		Name      string
		Condition Condition
	}

	// Equal holds when the field value equals Value. A nil Value matches null.
	Equal struct {
		Value any
	}
)

// Constant conditions.
const (
	True  Constant = true
	False Constant = false
)

func (Constant) condition() {}
func (*And) condition()     {}
func (*Or) condition()      {}
func (*Not) condition()     {}
func (*Field) condition()   {}
func (*Equal) condition()   {}

// Combine returns the conjunction of the given conditions, skipping nils.
// A single condition is returned bare, none yields True.
func Combine(conds ...Condition) Condition {
	var cs []Condition
	for _, c := range conds {
		if c != nil {
			cs = append(cs, c)
		}
	}
	switch len(cs) {
	case 0:
		return True
	case 1:
		return cs[0]
	default:
		return &And{Conditions: cs}
	}
}

// FieldEquals returns Field{name, Equal{v}}.
func FieldEquals(name string, v any) *Field {
	return &Field{Name: name, Condition: &Equal{Value: v}}
}

func (c Constant) String() string {
	if c {
		return "true"
	}
	return "false"
}

func (c *And) String() string { return join("and", c.Conditions) }
func (c *Or) String() string  { return join("or", c.Conditions) }

func (c *Not) String() string {
	return "not(" + c.Condition.String() + ")"
}

func (c *Field) String() string {
	return fmt.Sprintf("%s %s", c.Name, c.Condition)
}

func (c *Equal) String() string {
	if c.Value == nil {
		return "is null"
	}
	return fmt.Sprintf("= %v", c.Value)
}

func join(op string, conds []Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}
