package schema

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

// nodeValue is a collection value resolved through the Node interface.
type nodeValue struct {
	collection *inventory.Collection
	value      any
}

// unwrapSource returns the collection value of a resolver source.
func unwrapSource(source any) any {
	if n, ok := source.(*nodeValue); ok {
		return n.value
	}
	return source
}

// EncodeNodeID returns the global id of a collection value: the base64
// encoded JSON array [collectionName, ...primaryKeyValues].
func EncodeNodeID(c *inventory.Collection, value any) (string, error) {
	if c.PrimaryKey == nil {
		return "", postgraph.NewInvariantError("collection %s has no primary key", c.Name)
	}
	parts := []any{c.Name}
	key := c.PrimaryKey.KeyOf(value)
	if obj, ok := types.Unwrap(c.PrimaryKey.Type).(*types.Object); ok {
		m, _ := key.(types.ObjectValue)
		for _, f := range obj.Fields() {
			parts = append(parts, m[f.Name])
		}
	} else {
		parts = append(parts, key)
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeNodeID returns the collection and primary key a global id refers
// to.
func DecodeNodeID(inv *inventory.Inventory, id string) (*inventory.Collection, any, error) {
	b, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: %v", postgraph.ErrInvalidNodeID, id, err)
	}
	var parts []any
	if err := decodeJSON(b, &parts); err != nil || len(parts) < 2 {
		return nil, nil, fmt.Errorf("%w: %q", postgraph.ErrInvalidNodeID, id)
	}
	name, _ := parts[0].(string)
	c := inv.Collection(name)
	if c == nil || c.PrimaryKey == nil {
		return nil, nil, fmt.Errorf("%w: %q: no collection %q", postgraph.ErrInvalidNodeID, id, name)
	}
	values := parts[1:]
	obj, ok := types.Unwrap(c.PrimaryKey.Type).(*types.Object)
	if !ok {
		if len(values) != 1 {
			return nil, nil, fmt.Errorf("%w: %q", postgraph.ErrInvalidNodeID, id)
		}
		key, err := fromJSON(c.PrimaryKey.Type, values[0])
		if err != nil {
			return nil, nil, errors.Join(postgraph.ErrInvalidNodeID, err)
		}
		return c, key, nil
	}
	if len(values) != len(obj.Fields()) {
		return nil, nil, fmt.Errorf("%w: %q", postgraph.ErrInvalidNodeID, id)
	}
	key := make(types.ObjectValue, len(values))
	for i, f := range obj.Fields() {
		v, err := fromJSON(f.Type, values[i])
		if err != nil {
			return nil, nil, errors.Join(postgraph.ErrInvalidNodeID, err)
		}
		key[f.Name] = v
	}
	return c, key, nil
}

// fromJSON converts a decoded JSON scalar into a value of t.
func fromJSON(t types.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	p, ok := types.Unwrap(t).(*types.Primitive)
	if !ok {
		return v, nil
	}
	n, isNumber := v.(json.Number)
	switch p.Kind() {
	case types.KindInteger:
		if !isNumber {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
		i, err := n.Int64()
		return int(i), err
	case types.KindFloat:
		if !isNumber {
			return nil, fmt.Errorf("expected a number, got %v", v)
		}
		return n.Float64()
	}
	if isNumber {
		return n.String(), nil
	}
	return v, nil
}

// nodeInterface returns the Relay Node interface.
func (b *BuildToken) nodeInterface() *graphql.Interface {
	if b.node != nil {
		return b.node
	}
	b.node = graphql.NewInterface(graphql.InterfaceConfig{
		Name:        "Node",
		Description: "An object with a globally unique identifier.",
		Fields: graphql.Fields{
			b.opts.nodeIDFieldName: &graphql.Field{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "A globally unique identifier.",
			},
		},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			if n, ok := p.Value.(*nodeValue); ok {
				return b.collectionType(n.collection)
			}
			return nil
		},
	})
	return b.node
}

// nodeField returns the root node(nodeId: ID!) field.
func (b *BuildToken) nodeField() *graphql.Field {
	return &graphql.Field{
		Type:        b.nodeInterface(),
		Description: "Fetches an object given its globally unique identifier.",
		Args: graphql.FieldConfigArgument{
			b.opts.nodeIDFieldName: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			id, _ := p.Args[b.opts.nodeIDFieldName].(string)
			c, key, err := DecodeNodeID(b.inv, id)
			if err != nil {
				return nil, err
			}
			if c.PrimaryKey.Read == nil {
				return nil, fmt.Errorf("%w: %s can not be read", postgraph.ErrInvalidNodeID, c.Name)
			}
			v, err := c.PrimaryKey.Read(p.Context, key)
			if err != nil || v == nil {
				return nil, err
			}
			return &nodeValue{collection: c, value: v}, nil
		},
	}
}
