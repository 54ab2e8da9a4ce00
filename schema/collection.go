package schema

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

// hasNodeID reports whether values of c can be fetched by global id.
func hasNodeID(c *inventory.Collection) bool {
	return c.PrimaryKey != nil && c.PrimaryKey.Read != nil
}

// collectionType returns the object type of a collection: a global id
// field followed by the fields of the collection type.
func (b *BuildToken) collectionType(c *inventory.Collection) *graphql.Object {
	if obj, ok := b.collections[c]; ok {
		return obj
	}
	cfg := graphql.ObjectConfig{
		Name:        typeName(c.Type.Name()),
		Description: c.Description,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields := b.objectFields(c.Type)
			if hasNodeID(c) {
				if _, ok := fields[b.opts.nodeIDFieldName]; ok {
					b.fail(&postgraph.SchemaError{Type: c.Type.Name(), Field: b.opts.nodeIDFieldName, Cause: postgraph.ErrDuplicateField, Message: "field collides with the node id field"})
				}
				fields[b.opts.nodeIDFieldName] = &graphql.Field{
					Type:        graphql.NewNonNull(graphql.ID),
					Description: "A globally unique identifier. Can be used in various places throughout the system to identify this single value.",
					Resolve: func(p graphql.ResolveParams) (any, error) {
						return EncodeNodeID(c, unwrapSource(p.Source))
					},
				}
			}
			return fields
		}),
	}
	if hasNodeID(c) {
		cfg.Interfaces = graphql.InterfacesThunk(func() []*graphql.Interface {
			return []*graphql.Interface{b.nodeInterface()}
		})
	}
	obj := graphql.NewObject(cfg)
	b.collections[c] = obj
	return obj
}

// collectionQueryFields returns the query fields of a collection.
func (b *BuildToken) collectionQueryFields(c *inventory.Collection) (graphql.Fields, error) {
	fields := graphql.Fields{}
	if c.Paginator != nil {
		f, err := b.ConnectionField(ConnectionConfig{
			Description:         fmt.Sprintf("Reads and enables pagination through a set of `%s`.", typeName(c.Type.Name())),
			Paginator:           c.Paginator,
			WithFieldsCondition: true,
		})
		if err != nil {
			return nil, err
		}
		fields[fieldName("all-"+c.Name)] = f
	}
	if hasNodeID(c) {
		fields[fieldName(c.Type.Name())] = &graphql.Field{
			Type:        b.collectionType(c),
			Description: fmt.Sprintf("Reads a single `%s` using its globally unique `ID`.", typeName(c.Type.Name())),
			Args: graphql.FieldConfigArgument{
				b.opts.nodeIDFieldName: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				id, _ := p.Args[b.opts.nodeIDFieldName].(string)
				key, err := b.nodeKey(c, id)
				if err != nil {
					return nil, err
				}
				return c.PrimaryKey.Read(p.Context, key)
			},
		}
	}
	for _, key := range c.Keys {
		if key.Read == nil {
			continue
		}
		args, err := b.keyArgs(key)
		if err != nil {
			return nil, err
		}
		fields[fieldName(c.Type.Name()+"-by-"+key.Name)] = &graphql.Field{
			Type:        b.collectionType(c),
			Description: fmt.Sprintf("Reads a single `%s` using its `%s` key.", typeName(c.Type.Name()), key.Name),
			Args:        args,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				k, err := b.keyValue(key, p.Args)
				if err != nil {
					return nil, err
				}
				return key.Read(p.Context, k)
			},
		}
	}
	return fields, nil
}

// nodeKey decodes a global id that must belong to c.
func (b *BuildToken) nodeKey(c *inventory.Collection, id string) (any, error) {
	owner, key, err := DecodeNodeID(b.inv, id)
	if err != nil {
		return nil, err
	}
	if owner != c {
		return nil, fmt.Errorf("%w: %q is not a %s id", postgraph.ErrInvalidNodeID, id, c.Name)
	}
	return key, nil
}

// keyArgs returns the arguments of a key: one per field of an object key,
// or a single argument named after the key.
func (b *BuildToken) keyArgs(key *inventory.CollectionKey) (graphql.FieldConfigArgument, error) {
	args := graphql.FieldConfigArgument{}
	if obj, ok := types.Unwrap(key.Type).(*types.Object); ok {
		for _, f := range obj.Fields() {
			t, err := b.InputType(f.Type)
			if err != nil {
				return nil, err
			}
			args[fieldName(f.Name)] = &graphql.ArgumentConfig{Type: t, Description: f.Description}
		}
		return args, nil
	}
	t, err := b.InputType(key.Type)
	if err != nil {
		return nil, err
	}
	args[fieldName(key.Name)] = &graphql.ArgumentConfig{Type: t}
	return args, nil
}

// keyValue reads a key from arguments built by keyArgs.
func (b *BuildToken) keyValue(key *inventory.CollectionKey, args map[string]any) (any, error) {
	obj, ok := types.Unwrap(key.Type).(*types.Object)
	if !ok {
		return b.inputValue(key.Type, args[fieldName(key.Name)])
	}
	m := make(types.ObjectValue, len(obj.Fields()))
	for _, f := range obj.Fields() {
		v, err := b.inputValue(f.Type, args[fieldName(f.Name)])
		if err != nil {
			return nil, err
		}
		m[f.Name] = v
	}
	return m, nil
}

// patchType returns the <Type>Patch input object, every field nullable.
func (b *BuildToken) patchType(c *inventory.Collection) *graphql.InputObject {
	if p, ok := b.patches[c]; ok {
		return p
	}
	b.fieldNames(c.Type)
	p := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        typeName(c.Type.Name()) + "Patch",
		Description: fmt.Sprintf("Represents an update to a `%s`. Fields that are set will be updated.", typeName(c.Type.Name())),
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := make(graphql.InputObjectConfigFieldMap, len(c.Type.Fields()))
			for _, f := range c.Type.Fields() {
				t, err := b.InputType(f.Type)
				if err != nil {
					b.fail(err)
					continue
				}
				fields[fieldName(f.Name)] = &graphql.InputObjectFieldConfig{
					Type:        nullable(t).(graphql.Input),
					Description: f.Description,
				}
			}
			return fields
		}),
	})
	b.patches[c] = p
	return p
}

// collectionMutationFields returns the create, update and delete mutations
// of a collection.
func (b *BuildToken) collectionMutationFields(c *inventory.Collection) (graphql.Fields, error) {
	fields := graphql.Fields{}
	name := c.Type.Name()
	valueField := fieldName(name)
	output := func() graphql.Fields {
		return graphql.Fields{
			valueField: &graphql.Field{
				Type: b.collectionType(c),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source, nil
				},
			},
		}
	}
	if c.Create != nil {
		in, err := b.InputType(c.Type)
		if err != nil {
			return nil, err
		}
		f, err := b.MutationField(MutationConfig{
			Name:         "create-" + name,
			Description:  fmt.Sprintf("Creates a single `%s`.", typeName(name)),
			InputFields:  graphql.InputObjectConfigFieldMap{valueField: {Type: in}},
			OutputFields: output(),
			Execute: func(ctx context.Context, input map[string]any) (any, error) {
				v, err := b.inputValue(c.Type, input[valueField])
				if err != nil {
					return nil, err
				}
				value, _ := v.(types.ObjectValue)
				return c.Create(ctx, value)
			},
		})
		if err != nil {
			return nil, err
		}
		fields[fieldName("create-"+name)] = f
	}
	for _, key := range c.Keys {
		if key.Update != nil {
			f, err := b.updateField(c, key, output())
			if err != nil {
				return nil, err
			}
			fields[fieldName("update-"+name+"-by-"+key.Name)] = f
		}
		if key.Delete != nil {
			f, err := b.deleteField(c, key, output())
			if err != nil {
				return nil, err
			}
			fields[fieldName("delete-"+name+"-by-"+key.Name)] = f
		}
	}
	return fields, nil
}

func (b *BuildToken) keyInputFields(key *inventory.CollectionKey) (graphql.InputObjectConfigFieldMap, error) {
	args, err := b.keyArgs(key)
	if err != nil {
		return nil, err
	}
	fields := make(graphql.InputObjectConfigFieldMap, len(args))
	for n, a := range args {
		fields[n] = &graphql.InputObjectFieldConfig{Type: a.Type, Description: a.Description}
	}
	return fields, nil
}

func (b *BuildToken) updateField(c *inventory.Collection, key *inventory.CollectionKey, output graphql.Fields) (*graphql.Field, error) {
	name := c.Type.Name()
	in, err := b.keyInputFields(key)
	if err != nil {
		return nil, err
	}
	patchField := fieldName(name + "-patch")
	in[patchField] = &graphql.InputObjectFieldConfig{
		Type:        graphql.NewNonNull(b.patchType(c)),
		Description: fmt.Sprintf("An object where the defined keys will be set on the `%s` identified by our unique key.", typeName(name)),
	}
	return b.MutationField(MutationConfig{
		Name:         "update-" + name + "-by-" + key.Name,
		Description:  fmt.Sprintf("Updates a single `%s` using its `%s` key and a patch.", typeName(name), key.Name),
		InputFields:  in,
		OutputFields: output,
		Execute: func(ctx context.Context, input map[string]any) (any, error) {
			k, err := b.keyValue(key, input)
			if err != nil {
				return nil, err
			}
			patch, err := b.patchValue(c.Type, input[patchField])
			if err != nil {
				return nil, err
			}
			return key.Update(ctx, k, patch)
		},
	})
}

func (b *BuildToken) deleteField(c *inventory.Collection, key *inventory.CollectionKey, output graphql.Fields) (*graphql.Field, error) {
	name := c.Type.Name()
	in, err := b.keyInputFields(key)
	if err != nil {
		return nil, err
	}
	if hasNodeID(c) {
		output[fieldName("deleted-"+name+"-"+b.opts.nodeIDFieldName)] = &graphql.Field{
			Type: graphql.ID,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if p.Source == nil {
					return nil, nil
				}
				return EncodeNodeID(c, p.Source)
			},
		}
	}
	return b.MutationField(MutationConfig{
		Name:         "delete-" + name + "-by-" + key.Name,
		Description:  fmt.Sprintf("Deletes a single `%s` using its `%s` key.", typeName(name), key.Name),
		InputFields:  in,
		OutputFields: output,
		Execute: func(ctx context.Context, input map[string]any) (any, error) {
			k, err := b.keyValue(key, input)
			if err != nil {
				return nil, err
			}
			return key.Delete(ctx, k)
		},
	})
}

// fieldConditions compiles present field arguments into equality leaves
// in declared field order.
func (b *BuildToken) fieldConditions(obj *types.Object, args map[string]any) ([]condition.Condition, error) {
	var conds []condition.Condition
	for _, f := range obj.Fields() {
		v, ok := args[fieldName(f.Name)]
		if !ok || v == nil {
			continue
		}
		value, err := b.inputValue(f.Type, v)
		if err != nil {
			return nil, err
		}
		conds = append(conds, condition.FieldEquals(f.Name, value))
	}
	return conds, nil
}
