// Package types defines the abstract, storage agnostic type system.
//
// A Type is one of a closed set of variants:
//
//   - *Primitive: Boolean, Integer, Float, String and JSON.
//   - *Enum: a named, ordered set of variant tokens.
//   - *Object: a named, ordered set of fields.
//   - *List: a list of an item type.
//   - *Nullable: marks its inner type as accepting null.
//   - *Alias: a renamed base type.
//
// Every type is non-null unless wrapped with NewNullable. Consumers switch on
// the concrete variant and must treat an unknown variant as an error.
package types

import "fmt"

// Type is the sealed interface implemented by every type variant.
type Type interface {
	// Name returns the display name of the type. Wrapper types report the
	// name of the type they wrap.
	Name() string
	// Description returns the optional documentation of the type.
	Description() string

	sealed()
}

// PrimitiveKind identifies a primitive type.
type PrimitiveKind uint8

// Primitive kinds.
const (
	KindBoolean PrimitiveKind = iota + 1
	KindInteger
	KindFloat
	KindString
	KindJSON
)

// String returns the kind name.
func (k PrimitiveKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("PrimitiveKind(%d)", k)
	}
}

// Primitive is a scalar type with no structure.
type Primitive struct {
	kind        PrimitiveKind
	name        string
	description string
}

// The primitive singletons. Primitives are compared by identity.
var (
	Boolean = &Primitive{kind: KindBoolean, name: "boolean", description: "A true or false value."}
	Integer = &Primitive{kind: KindInteger, name: "integer", description: "A whole number."}
	Float   = &Primitive{kind: KindFloat, name: "float", description: "A floating point number."}
	String  = &Primitive{kind: KindString, name: "string", description: "A sequence of characters."}
	JSON    = &Primitive{kind: KindJSON, name: "json", description: "An arbitrary JSON document."}
)

func (p *Primitive) Name() string        { return p.name }
func (p *Primitive) Description() string { return p.description }
func (p *Primitive) Kind() PrimitiveKind { return p.kind }
func (*Primitive) sealed()               {}

// Enum is a named set of variant tokens. Variant order is preserved.
type Enum struct {
	name        string
	description string
	variants    []string
}

// NewEnum returns a new enum type with the given variants.
func NewEnum(name, description string, variants ...string) *Enum {
	return &Enum{name: name, description: description, variants: variants}
}

func (e *Enum) Name() string        { return e.name }
func (e *Enum) Description() string { return e.description }
func (*Enum) sealed()               {}

// Variants returns the variant tokens in declaration order.
func (e *Enum) Variants() []string {
	return e.variants
}

// HasVariant reports whether token is a declared variant.
func (e *Enum) HasVariant(token string) bool {
	for _, v := range e.variants {
		if v == token {
			return true
		}
	}
	return false
}

// List is a list of item values.
type List struct {
	item Type
}

// NewList returns a list of the given item type.
func NewList(item Type) *List {
	return &List{item: item}
}

func (l *List) Name() string        { return "[" + l.item.Name() + "]" }
func (l *List) Description() string { return "" }
func (*List) sealed()               {}

// Item returns the item type.
func (l *List) Item() Type {
	return l.item
}

// Nullable marks a type as accepting null.
type Nullable struct {
	of Type
}

// NewNullable returns the nullable variant of t. Wrapping a type that is
// already nullable returns it unchanged.
func NewNullable(t Type) *Nullable {
	if n, ok := t.(*Nullable); ok {
		return n
	}
	return &Nullable{of: t}
}

func (n *Nullable) Name() string        { return n.of.Name() }
func (n *Nullable) Description() string { return n.of.Description() }
func (*Nullable) sealed()               {}

// NonNull returns the wrapped non-null type.
func (n *Nullable) NonNull() Type {
	return n.of
}

// Alias renames a base type. It adopts the base nullability.
type Alias struct {
	name        string
	description string
	base        Type
}

// NewAlias returns a new alias of base.
func NewAlias(name, description string, base Type) *Alias {
	return &Alias{name: name, description: description, base: base}
}

func (a *Alias) Name() string        { return a.name }
func (a *Alias) Description() string { return a.description }
func (*Alias) sealed()               {}

// Base returns the aliased type.
func (a *Alias) Base() Type {
	return a.base
}

// IsNullable reports whether t accepts null.
func IsNullable(t Type) bool {
	switch t := t.(type) {
	case *Nullable:
		return true
	case *Alias:
		return IsNullable(t.base)
	default:
		return false
	}
}

// Unwrap strips Nullable and Alias wrappers and returns the core type.
func Unwrap(t Type) Type {
	for {
		switch u := t.(type) {
		case *Nullable:
			t = u.of
		case *Alias:
			t = u.base
		default:
			return t
		}
	}
}

// NonNullOf strips a top level Nullable wrapper.
func NonNullOf(t Type) Type {
	if n, ok := t.(*Nullable); ok {
		return n.of
	}
	return t
}
