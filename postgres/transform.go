package postgres

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lib/pq/oid"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/types"
)

// LiteralParser parses a value printed in PostgreSQL text format into the
// shape FromSQL reads, i.e. what to_json would have produced.
type LiteralParser func(literal string) (any, error)

type composite struct {
	namespace string
	name      string
}

type rangeType struct {
	namespace string
	name      string
	subtype   types.Type
	subtypeID oid.Oid
}

// Transformer converts values between the type system and SQL. Object
// values are only encodable when their type was registered as a storage
// composite or range.
type Transformer struct {
	composites map[*types.Object]composite
	ranges     map[*types.Object]rangeType
	parsers    map[oid.Oid]LiteralParser
}

// NewTransformer returns a transformer with the builtin literal parsers.
func NewTransformer() *Transformer {
	t := &Transformer{
		composites: make(map[*types.Object]composite),
		ranges:     make(map[*types.Object]rangeType),
		parsers:    make(map[oid.Oid]LiteralParser),
	}
	for _, id := range []oid.Oid{oid.T_int2, oid.T_int4, oid.T_int8, oid.T_float4, oid.T_float8, oid.T_numeric} {
		t.parsers[id] = parseNumber
	}
	t.parsers[oid.T_bool] = parseBool
	return t
}

// RegisterComposite marks obj as the storage composite namespace.name. Its
// fields must be declared in attribute order.
func (t *Transformer) RegisterComposite(obj *types.Object, namespace, name string) {
	t.composites[obj] = composite{namespace: namespace, name: name}
}

// RegisterRange marks obj as the range type namespace.name over subtype.
func (t *Transformer) RegisterRange(obj *types.Object, namespace, name string, subtype types.Type, subtypeID oid.Oid) {
	t.ranges[obj] = rangeType{namespace: namespace, name: name, subtype: subtype, subtypeID: subtypeID}
}

// RegisterParser sets the literal parser of a type.
func (t *Transformer) RegisterParser(id oid.Oid, p LiteralParser) {
	t.parsers[id] = p
}

// IsComposite reports whether obj is a registered storage composite.
func (t *Transformer) IsComposite(obj *types.Object) bool {
	_, ok := t.composites[obj]
	return ok
}

// ToSQL encodes v of type typ as an SQL expression. Scalars become bound
// parameters, lists array constructors, composites row tuples in declared
// field order and ranges range constructor calls.
func (t *Transformer) ToSQL(typ types.Type, v any) (sql.Fragment, error) {
	switch typ := typ.(type) {
	case *types.Nullable:
		if v == nil {
			return sql.Raw("null"), nil
		}
		return t.ToSQL(typ.NonNull(), v)
	case *types.Alias:
		return t.ToSQL(typ.Base(), v)
	case *types.Primitive, *types.Enum:
		return sql.Value(v), nil
	case *types.List:
		items, ok := v.([]any)
		if !ok {
			return sql.Fragment{}, fmt.Errorf("%w: expected a list for %s, got %T", postgraph.ErrInvalidArgument, typ.Name(), v)
		}
		if len(items) == 0 {
			return sql.Raw("'{}'"), nil
		}
		frags := make([]sql.Fragment, len(items))
		for i, item := range items {
			f, err := t.ToSQL(typ.Item(), item)
			if err != nil {
				return sql.Fragment{}, err
			}
			frags[i] = f
		}
		return sql.Concat(sql.Raw("array["), sql.Join(frags, ", "), sql.Raw("]")), nil
	case *types.Object:
		if c, ok := t.composites[typ]; ok {
			return t.compositeToSQL(typ, c, v)
		}
		if r, ok := t.ranges[typ]; ok {
			return t.rangeToSQL(r, v)
		}
		return sql.Fragment{}, postgraph.NewInvariantError("object %s is not a storage composite", typ.Name())
	default:
		return sql.Fragment{}, postgraph.NewInvariantError("unknown type variant %T", typ)
	}
}

func (t *Transformer) compositeToSQL(obj *types.Object, c composite, v any) (sql.Fragment, error) {
	m, err := objectMap(obj, v)
	if err != nil {
		return sql.Fragment{}, err
	}
	fields := obj.Fields()
	frags := make([]sql.Fragment, len(fields))
	for i, f := range fields {
		frag, err := t.ToSQL(f.Type, m[f.Name])
		if err != nil {
			return sql.Fragment{}, err
		}
		frags[i] = frag
	}
	return sql.Concat(sql.Raw("row("), sql.Join(frags, ", "), sql.Raw(")::"), sql.Ident(c.namespace, c.name)), nil
}

func (t *Transformer) rangeToSQL(r rangeType, v any) (sql.Fragment, error) {
	m, ok := asMap(v)
	if !ok {
		return sql.Fragment{}, fmt.Errorf("%w: expected a range object, got %T", postgraph.ErrInvalidArgument, v)
	}
	lower, lowerInc, err := t.boundToSQL(r.subtype, m["start"])
	if err != nil {
		return sql.Fragment{}, err
	}
	upper, upperInc, err := t.boundToSQL(r.subtype, m["end"])
	if err != nil {
		return sql.Fragment{}, err
	}
	bounds := "("
	if lowerInc {
		bounds = "["
	}
	if upperInc {
		bounds += "]"
	} else {
		bounds += ")"
	}
	return sql.Concat(
		sql.Ident(r.namespace, r.name), sql.Raw("("),
		lower, sql.Raw(", "), upper, sql.Raw(", "), sql.Literal(bounds),
		sql.Raw(")"),
	), nil
}

func (t *Transformer) boundToSQL(subtype types.Type, v any) (sql.Fragment, bool, error) {
	if v == nil {
		return sql.Raw("null"), false, nil
	}
	m, ok := asMap(v)
	if !ok {
		return sql.Fragment{}, false, fmt.Errorf("%w: expected a range bound, got %T", postgraph.ErrInvalidArgument, v)
	}
	f, err := t.ToSQL(subtype, m["value"])
	if err != nil {
		return sql.Fragment{}, false, err
	}
	inclusive, _ := m["inclusive"].(bool)
	return f, inclusive, nil
}

// FromSQL decodes a value selected with to_json and decoded with
// json.Decoder.UseNumber into a value of typ.
func (t *Transformer) FromSQL(typ types.Type, v any) (any, error) {
	switch typ := typ.(type) {
	case *types.Nullable:
		if v == nil {
			return nil, nil
		}
		return t.FromSQL(typ.NonNull(), v)
	case *types.Alias:
		return t.FromSQL(typ.Base(), v)
	case *types.Primitive:
		return primitiveFromSQL(typ, v)
	case *types.Enum:
		s, ok := v.(string)
		if !ok {
			return nil, readError(typ, v)
		}
		return s, nil
	case *types.List:
		items, ok := v.([]any)
		if !ok {
			return nil, readError(typ, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			x, err := t.FromSQL(typ.Item(), item)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case *types.Object:
		if r, ok := t.ranges[typ]; ok {
			return t.rangeFromSQL(r, v)
		}
		m, ok := asMap(v)
		if !ok {
			return nil, readError(typ, v)
		}
		out := make(types.ObjectValue, len(typ.Fields()))
		for _, f := range typ.Fields() {
			x, err := t.FromSQL(f.Type, m[f.Name])
			if err != nil {
				return nil, err
			}
			out[f.Name] = x
		}
		return out, nil
	default:
		return nil, postgraph.NewInvariantError("unknown type variant %T", typ)
	}
}

func (t *Transformer) rangeFromSQL(r rangeType, v any) (any, error) {
	literal, ok := v.(string)
	if !ok {
		return nil, postgraph.NewInvariantError("range literal is a %T", v)
	}
	if literal == "empty" {
		return types.ObjectValue{"start": nil, "end": nil}, nil
	}
	parsed, err := ParseRange(literal)
	if err != nil {
		return nil, err
	}
	start, err := t.boundFromSQL(r, parsed.Start)
	if err != nil {
		return nil, err
	}
	end, err := t.boundFromSQL(r, parsed.End)
	if err != nil {
		return nil, err
	}
	return types.ObjectValue{"start": start, "end": end}, nil
}

func (t *Transformer) boundFromSQL(r rangeType, b *Bound) (any, error) {
	if b == nil {
		return nil, nil
	}
	var raw any = b.Value
	if parse, ok := t.parsers[r.subtypeID]; ok {
		var err error
		if raw, err = parse(b.Value); err != nil {
			return nil, err
		}
	}
	value, err := t.FromSQL(r.subtype, raw)
	if err != nil {
		return nil, err
	}
	return types.ObjectValue{"value": value, "inclusive": b.Inclusive}, nil
}

func primitiveFromSQL(p *types.Primitive, v any) (any, error) {
	if v == nil {
		return nil, readError(p, v)
	}
	switch p.Kind() {
	case types.KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case types.KindInteger:
		switch n := v.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, readError(p, v)
			}
			return int(i), nil
		case float64:
			return int(n), nil
		case int:
			return n, nil
		}
	case types.KindFloat:
		switch n := v.(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, readError(p, v)
			}
			return f, nil
		case float64:
			return n, nil
		case string:
			// NaN and Infinity are printed as strings.
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, readError(p, v)
			}
			return f, nil
		}
	case types.KindString:
		switch s := v.(type) {
		case string:
			return s, nil
		case json.Number:
			return s.String(), nil
		case bool:
			return strconv.FormatBool(s), nil
		}
	case types.KindJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, readError(p, v)
}

func readError(t types.Type, v any) error {
	return postgraph.NewInvariantError("can not read %T as %s", v, t.Name())
}

func objectMap(obj *types.Object, v any) (map[string]any, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object for %s, got %T", postgraph.ErrInvalidArgument, obj.Name(), v)
	}
	return m, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case types.ObjectValue:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func parseNumber(literal string) (any, error) {
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		return nil, fmt.Errorf("postgres: invalid numeric literal %q", literal)
	}
	return json.Number(literal), nil
}

func parseBool(literal string) (any, error) {
	switch literal {
	case "t", "true":
		return true, nil
	case "f", "false":
		return false, nil
	}
	return nil, fmt.Errorf("postgres: invalid boolean literal %q", literal)
}
