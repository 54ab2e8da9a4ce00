package schema

import (
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

type options struct {
	nodeIDFieldName  string
	disableMutations bool
	logger           *slog.Logger
}

// Option configures a BuildToken.
type Option func(*options)

// WithNodeIDFieldName sets the name of the global id field of collection
// types. Defaults to "nodeId".
func WithNodeIDFieldName(name string) Option {
	return func(o *options) {
		o.nodeIDFieldName = name
	}
}

// WithoutMutations builds a schema without a mutation type.
func WithoutMutations() Option {
	return func(o *options) {
		o.disableMutations = true
	}
}

// WithLogger sets the logger used while building.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// BuildToken holds the inventory, the options and the type caches of one
// schema build. Every abstract type is built once per token and per
// direction; scalar and enum types serve both directions.
type BuildToken struct {
	inv  *inventory.Inventory
	opts options

	output map[types.Type]graphql.Type
	input  map[types.Type]graphql.Type

	// names maps GraphQL field names back to type field names per object.
	names       map[*types.Object]map[string]string
	collections map[*inventory.Collection]*graphql.Object
	patches     map[*inventory.Collection]*graphql.InputObject
	connections map[string]*connectionTypes
	payloads    map[string]bool

	node     *graphql.Interface
	pageInfo *graphql.Object
	cursor   *graphql.Scalar
	json     *graphql.Scalar

	// errs collects errors raised inside field thunks, which run after the
	// builder returned.
	errs []error
}

// NewBuildToken returns a token for building types of inv.
func NewBuildToken(inv *inventory.Inventory, opts ...Option) *BuildToken {
	o := options{nodeIDFieldName: "nodeId", logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &BuildToken{
		inv:         inv,
		opts:        o,
		output:      make(map[types.Type]graphql.Type),
		input:       make(map[types.Type]graphql.Type),
		names:       make(map[*types.Object]map[string]string),
		collections: make(map[*inventory.Collection]*graphql.Object),
		patches:     make(map[*inventory.Collection]*graphql.InputObject),
		connections: make(map[string]*connectionTypes),
		payloads:    make(map[string]bool),
		cursor:      newCursorScalar(),
		json:        newJSONScalar(),
	}
}

// Inventory returns the inventory the token builds types for.
func (b *BuildToken) Inventory() *inventory.Inventory { return b.inv }

// Err returns the errors recorded while running field thunks.
func (b *BuildToken) Err() error {
	return postgraph.NewAggregateError(b.errs...)
}

func (b *BuildToken) fail(err error) {
	b.errs = append(b.errs, err)
}

// Type returns the GraphQL type of t for output, or for input when input
// is set. Types are non null unless t is nullable.
func (b *BuildToken) Type(t types.Type, input bool) (graphql.Type, error) {
	cache := b.output
	if input {
		cache = b.input
	}
	if gt, ok := cache[t]; ok {
		return gt, nil
	}
	gt, err := b.build(t, input)
	if err != nil {
		return nil, err
	}
	cache[t] = gt
	switch graphql.GetNamed(gt).(type) {
	case *graphql.Scalar, *graphql.Enum:
		b.output[t] = gt
		b.input[t] = gt
	}
	return gt, nil
}

// OutputType is Type for output.
func (b *BuildToken) OutputType(t types.Type) (graphql.Output, error) {
	gt, err := b.Type(t, false)
	if err != nil {
		return nil, err
	}
	return gt.(graphql.Output), nil
}

// InputType is Type for input.
func (b *BuildToken) InputType(t types.Type) (graphql.Input, error) {
	gt, err := b.Type(t, true)
	if err != nil {
		return nil, err
	}
	in, ok := gt.(graphql.Input)
	if !ok {
		return nil, &postgraph.SchemaError{Type: t.Name(), Message: fmt.Sprintf("%s is not an input type", gt.Name())}
	}
	return in, nil
}

func (b *BuildToken) build(t types.Type, input bool) (graphql.Type, error) {
	switch t := t.(type) {
	case *types.Nullable:
		gt, err := b.Type(t.NonNull(), input)
		if err != nil {
			return nil, err
		}
		return nullable(gt), nil
	case *types.Alias:
		return b.alias(t, input)
	case *types.Primitive, *types.Enum, *types.Object, *types.List:
		gt, err := b.nullableType(t, input)
		if err != nil {
			return nil, err
		}
		return graphql.NewNonNull(gt), nil
	default:
		return nil, &postgraph.SchemaError{Type: fmt.Sprintf("%T", t), Message: "unknown type variant"}
	}
}

func (b *BuildToken) nullableType(t types.Type, input bool) (graphql.Type, error) {
	switch t := t.(type) {
	case *types.Primitive:
		return b.primitive(t)
	case *types.Enum:
		return b.enum(t)
	case *types.List:
		item, err := b.Type(t.Item(), input)
		if err != nil {
			return nil, err
		}
		return graphql.NewList(item), nil
	case *types.Object:
		if input {
			return b.inputObject(t), nil
		}
		if c := b.inv.CollectionForType(t); c != nil {
			return b.collectionType(c), nil
		}
		return b.object(t), nil
	default:
		return nil, &postgraph.SchemaError{Type: t.Name(), Message: "unknown type variant"}
	}
}

func (b *BuildToken) primitive(p *types.Primitive) (graphql.Type, error) {
	switch p.Kind() {
	case types.KindBoolean:
		return graphql.Boolean, nil
	case types.KindInteger:
		return graphql.Int, nil
	case types.KindFloat:
		return graphql.Float, nil
	case types.KindString:
		return graphql.String, nil
	case types.KindJSON:
		return b.json, nil
	default:
		return nil, &postgraph.SchemaError{Type: p.Name(), Message: "unknown primitive kind " + p.Kind().String()}
	}
}

func (b *BuildToken) enum(e *types.Enum) (*graphql.Enum, error) {
	name := typeName(e.Name())
	values := make(graphql.EnumValueConfigMap, len(e.Variants()))
	for _, v := range e.Variants() {
		if err := addEnumValue(values, name, v, &graphql.EnumValueConfig{Value: v}); err != nil {
			return nil, err
		}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:        name,
		Description: e.Description(),
		Values:      values,
	}), nil
}

// addEnumValue adds the value of variant under its constant name. Variants
// such as "a-b" and "a_b" share a constant name.
func addEnumValue(values graphql.EnumValueConfigMap, typ, variant string, cfg *graphql.EnumValueConfig) error {
	name := constantName(variant)
	if _, ok := values[name]; ok {
		return &postgraph.SchemaError{
			Type:    typ,
			Field:   name,
			Message: fmt.Sprintf("value %q collides with another value named %s", variant, name),
			Cause:   postgraph.ErrDuplicateField,
		}
	}
	values[name] = cfg
	return nil
}

// object builds an output object reading every field through its accessor.
func (b *BuildToken) object(obj *types.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        typeName(obj.Name()),
		Description: obj.Description(),
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return b.objectFields(obj)
		}),
	})
}

func (b *BuildToken) objectFields(obj *types.Object) graphql.Fields {
	fields := make(graphql.Fields, len(obj.Fields()))
	for _, f := range obj.Fields() {
		t, err := b.OutputType(f.Type)
		if err != nil {
			b.fail(err)
			continue
		}
		fields[fieldName(f.Name)] = &graphql.Field{
			Type:        t,
			Description: f.Description,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return f.Value(unwrapSource(p.Source)), nil
			},
		}
	}
	return fields
}

// inputObject builds the input variant of obj. Fields with a default lose
// their non null wrapper.
func (b *BuildToken) inputObject(obj *types.Object) *graphql.InputObject {
	b.fieldNames(obj)
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        typeName(obj.Name()) + "Input",
		Description: obj.Description(),
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := make(graphql.InputObjectConfigFieldMap, len(obj.Fields()))
			for _, f := range obj.Fields() {
				t, err := b.InputType(f.Type)
				if err != nil {
					b.fail(err)
					continue
				}
				if f.HasDefault {
					t = nullable(t).(graphql.Input)
				}
				fields[fieldName(f.Name)] = &graphql.InputObjectFieldConfig{Type: t, Description: f.Description}
			}
			return fields
		}),
	})
}

// fieldNames returns the GraphQL to type field name mapping of obj.
func (b *BuildToken) fieldNames(obj *types.Object) map[string]string {
	if m, ok := b.names[obj]; ok {
		return m
	}
	m := make(map[string]string, len(obj.Fields()))
	for _, f := range obj.Fields() {
		m[fieldName(f.Name)] = f.Name
	}
	b.names[obj] = m
	return m
}

// alias builds a renamed copy of the named core of the base type, wrapped
// the same way as the base.
func (b *BuildToken) alias(a *types.Alias, input bool) (graphql.Type, error) {
	base, err := b.Type(a.Base(), input)
	if err != nil {
		return nil, err
	}
	return b.rewrap(base, func(named graphql.Type) (graphql.Type, error) {
		return b.rename(named, typeName(a.Name()), a.Description())
	})
}

func (b *BuildToken) rewrap(t graphql.Type, core func(graphql.Type) (graphql.Type, error)) (graphql.Type, error) {
	switch t := t.(type) {
	case *graphql.NonNull:
		of, err := b.rewrap(t.OfType, core)
		if err != nil {
			return nil, err
		}
		return graphql.NewNonNull(of), nil
	case *graphql.List:
		of, err := b.rewrap(t.OfType, core)
		if err != nil {
			return nil, err
		}
		return graphql.NewList(of), nil
	default:
		return core(t)
	}
}

func (b *BuildToken) rename(named graphql.Type, name, description string) (graphql.Type, error) {
	switch t := named.(type) {
	case *graphql.Scalar:
		return graphql.NewScalar(graphql.ScalarConfig{
			Name:         name,
			Description:  description,
			Serialize:    t.Serialize,
			ParseValue:   t.ParseValue,
			ParseLiteral: t.ParseLiteral,
		}), nil
	case *graphql.Enum:
		values := make(graphql.EnumValueConfigMap, len(t.Values()))
		for _, v := range t.Values() {
			values[v.Name] = &graphql.EnumValueConfig{Value: v.Value, Description: v.Description}
		}
		return graphql.NewEnum(graphql.EnumConfig{Name: name, Description: description, Values: values}), nil
	case *graphql.Object:
		return graphql.NewObject(graphql.ObjectConfig{
			Name:        name,
			Description: description,
			Fields: graphql.FieldsThunk(func() graphql.Fields {
				fields := make(graphql.Fields, len(t.Fields()))
				for n, f := range t.Fields() {
					args := make(graphql.FieldConfigArgument, len(f.Args))
					for _, a := range f.Args {
						args[a.Name()] = &graphql.ArgumentConfig{Type: a.Type, DefaultValue: a.DefaultValue, Description: a.Description()}
					}
					fields[n] = &graphql.Field{Type: f.Type, Args: args, Resolve: f.Resolve, Description: f.Description}
				}
				return fields
			}),
		}), nil
	case *graphql.InputObject:
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        name + "Input",
			Description: description,
			Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
				fields := make(graphql.InputObjectConfigFieldMap, len(t.Fields()))
				for n, f := range t.Fields() {
					fields[n] = &graphql.InputObjectFieldConfig{Type: f.Type, DefaultValue: f.DefaultValue, Description: f.Description()}
				}
				return fields
			}),
		}), nil
	default:
		return nil, &postgraph.SchemaError{Type: name, Message: fmt.Sprintf("can not alias %s", named.Name())}
	}
}

func nullable(t graphql.Type) graphql.Type {
	if nn, ok := t.(*graphql.NonNull); ok {
		return nn.OfType
	}
	return t
}
