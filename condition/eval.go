package condition

import (
	"encoding/json"
	"reflect"
)

// Eval evaluates c against a value whose fields are read with get.
// It backs in-memory paginators; storage paginators compile conditions instead.
func Eval(c Condition, get func(name string) any) bool {
	switch c := c.(type) {
	case Constant:
		return bool(c)
	case *And:
		for _, sub := range c.Conditions {
			if !Eval(sub, get) {
				return false
			}
		}
		return true
	case *Or:
		for _, sub := range c.Conditions {
			if Eval(sub, get) {
				return true
			}
		}
		return false
	case *Not:
		return !Eval(c.Condition, get)
	case *Field:
		v := get(c.Name)
		return Eval(c.Condition, func(string) any { return v })
	case *Equal:
		return equal(get(""), c.Value)
	default:
		return false
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
