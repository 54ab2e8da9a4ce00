package types

import (
	"encoding/json"
	"reflect"
)

// IsTypeOf reports whether v is a member of t.
func IsTypeOf(t Type, v any) bool {
	switch t := t.(type) {
	case *Nullable:
		return v == nil || IsTypeOf(t.of, v)
	case *Alias:
		return IsTypeOf(t.base, v)
	case *Primitive:
		return v != nil && isPrimitive(t.kind, v)
	case *Enum:
		s, ok := v.(string)
		return ok && t.HasVariant(s)
	case *List:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if !IsTypeOf(t.item, item) {
				return false
			}
		}
		return true
	case *Object:
		var m map[string]any
		switch o := v.(type) {
		case ObjectValue:
			m = o
		case map[string]any:
			m = o
		default:
			return false
		}
		for k := range m {
			if t.Field(k) == nil {
				return false
			}
		}
		for _, f := range t.fields {
			if !IsTypeOf(f.Type, m[f.Name]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isPrimitive(kind PrimitiveKind, v any) bool {
	switch kind {
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindInteger:
		if n, ok := v.(json.Number); ok {
			_, err := n.Int64()
			return err == nil
		}
		return isInt(v)
	case KindFloat:
		if n, ok := v.(json.Number); ok {
			_, err := n.Float64()
			return err == nil
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Float32, reflect.Float64:
			return true
		}
		return isInt(v)
	case KindString:
		_, ok := v.(string)
		return ok
	case KindJSON:
		switch v.(type) {
		case string, []byte, json.RawMessage:
			return true
		}
		return false
	default:
		return false
	}
}

func isInt(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
