package inventory

import (
	"context"

	"github.com/syssam/postgraph/types"
)

// Collection is a named, typed set of storable values.
type Collection struct {
	Name        string
	Description string
	// Type is the object type of every value in the collection.
	Type *types.Object
	// Paginator lists the collection. Optional.
	Paginator Paginator
	// PrimaryKey identifies values globally. Optional; it is usually also
	// listed in Keys.
	PrimaryKey *CollectionKey
	Keys       []*CollectionKey
	// Create inserts a value and returns the stored value. Optional.
	Create func(ctx context.Context, value types.ObjectValue) (any, error)
}

func (c *Collection) keys() []*CollectionKey {
	keys := c.Keys
	if c.PrimaryKey != nil {
		found := false
		for _, k := range keys {
			if k == c.PrimaryKey {
				found = true
				break
			}
		}
		if !found {
			keys = append([]*CollectionKey{c.PrimaryKey}, keys...)
		}
	}
	return keys
}

// CollectionKey is a unique key of a collection.
type CollectionKey struct {
	// Collection is set when the owning collection is registered.
	Collection *Collection
	Name       string
	// Type is the key type: a primitive or an object of key fields.
	Type types.Type
	// Read returns the value for key, or nil when there is none. Optional.
	Read func(ctx context.Context, key any) (any, error)
	// Update applies patch to the value for key and returns the new value. Optional.
	Update func(ctx context.Context, key any, patch types.ObjectValue) (any, error)
	// Delete removes the value for key and returns it. Optional.
	Delete func(ctx context.Context, key any) (any, error)
	// Extract returns the key of a collection value. When nil, object keys
	// are read field by field from the collection type.
	Extract func(value any) any
}

// KeyOf returns the key of a collection value.
func (k *CollectionKey) KeyOf(value any) any {
	if k.Extract != nil {
		return k.Extract(value)
	}
	obj, ok := types.Unwrap(k.Type).(*types.Object)
	if !ok || k.Collection == nil {
		return nil
	}
	key := make(types.ObjectValue, len(obj.Fields()))
	for _, f := range obj.Fields() {
		if cf := k.Collection.Type.Field(f.Name); cf != nil {
			key[f.Name] = cf.Value(value)
		}
	}
	return key
}
