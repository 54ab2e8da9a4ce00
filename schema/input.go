package schema

import (
	"fmt"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/types"
)

// inputValue converts a coerced GraphQL input value of t into a value of
// the type system: object keys are mapped back to type field names.
func (b *BuildToken) inputValue(t types.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := t.(type) {
	case *types.Nullable:
		return b.inputValue(t.NonNull(), v)
	case *types.Alias:
		return b.inputValue(t.Base(), v)
	case *types.List:
		items, ok := v.([]any)
		if !ok {
			// A single value is coerced to a list of one.
			items = []any{v}
		}
		out := make([]any, len(items))
		for i, item := range items {
			x, err := b.inputValue(t.Item(), item)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case *types.Object:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected an input object for %s, got %T", postgraph.ErrInvalidArgument, t.Name(), v)
		}
		out := make(types.ObjectValue, len(m))
		for name, field := range b.fieldNames(t) {
			x, ok := m[name]
			if !ok {
				continue
			}
			value, err := b.inputValue(t.Field(field).Type, x)
			if err != nil {
				return nil, err
			}
			out[field] = value
		}
		return out, nil
	default:
		return v, nil
	}
}

// patchValue converts a patch input object; only the present fields are
// part of the result.
func (b *BuildToken) patchValue(obj *types.Object, v any) (types.ObjectValue, error) {
	if v == nil {
		return types.ObjectValue{}, nil
	}
	x, err := b.inputValue(obj, v)
	if err != nil {
		return nil, err
	}
	return x.(types.ObjectValue), nil
}
