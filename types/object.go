package types

import (
	"fmt"

	"github.com/syssam/postgraph"
)

// ObjectValue is an object instance keyed by field name.
type ObjectValue map[string]any

// ObjectField is a named, typed field of an Object.
type ObjectField struct {
	Name        string
	Description string
	Type        Type
	// HasDefault marks the field as optional on input: storage fills it.
	HasDefault bool
	// Accessor extracts the field value from an object instance.
	// When nil, the value is read by name from an ObjectValue.
	Accessor func(object any) any
}

// Value extracts the field value from object.
func (f *ObjectField) Value(object any) any {
	if f.Accessor != nil {
		return f.Accessor(object)
	}
	switch o := object.(type) {
	case ObjectValue:
		return o[f.Name]
	case map[string]any:
		return o[f.Name]
	}
	return nil
}

// Object is a named type with an ordered set of fields.
type Object struct {
	name        string
	description string
	fields      []*ObjectField
	index       map[string]int
}

// NewObject returns a new object type. Fields are added with AddField,
// which allows building recursive types.
func NewObject(name, description string) *Object {
	return &Object{name: name, description: description, index: make(map[string]int)}
}

func (o *Object) Name() string        { return o.name }
func (o *Object) Description() string { return o.description }
func (*Object) sealed()               {}

// AddField appends a field. A field name can only be declared once.
func (o *Object) AddField(f *ObjectField) error {
	if _, ok := o.index[f.Name]; ok {
		return &postgraph.SchemaError{
			Type:    o.name,
			Field:   f.Name,
			Message: "field already declared",
			Cause:   postgraph.ErrDuplicateField,
		}
	}
	o.index[f.Name] = len(o.fields)
	o.fields = append(o.fields, f)
	return nil
}

// MustAddField is like AddField but panics on error. It is intended for
// statically declared objects.
func (o *Object) MustAddField(f *ObjectField) *Object {
	if err := o.AddField(f); err != nil {
		panic(err)
	}
	return o
}

// Fields returns the fields in insertion order.
func (o *Object) Fields() []*ObjectField {
	return o.fields
}

// Field returns the named field, or nil.
func (o *Object) Field(name string) *ObjectField {
	if i, ok := o.index[name]; ok {
		return o.fields[i]
	}
	return nil
}

// NewValue builds an object value from m, validating every entry against the
// declared fields. Every non-null field must be present; missing nullable
// entries are left out and read as null.
func (o *Object) NewValue(m map[string]any) (ObjectValue, error) {
	for _, f := range o.fields {
		if _, ok := m[f.Name]; !ok && !IsNullable(f.Type) {
			return nil, fmt.Errorf("%w: object %s is missing non-null field %q", postgraph.ErrInvalidArgument, o.name, f.Name)
		}
	}
	v := make(ObjectValue, len(m))
	for name, value := range m {
		f := o.Field(name)
		if f == nil {
			return nil, fmt.Errorf("%w: object %s has no field %q", postgraph.ErrInvalidArgument, o.name, name)
		}
		if !IsTypeOf(f.Type, value) {
			return nil, fmt.Errorf("%w: value %v is not a %s for %s.%s", postgraph.ErrInvalidArgument, value, f.Type.Name(), o.name, name)
		}
		v[name] = value
	}
	return v, nil
}
