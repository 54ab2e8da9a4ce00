package postgres

import (
	"github.com/lib/pq/oid"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/types"
)

// builtinArrays maps builtin array types to their element types.
var builtinArrays = map[oid.Oid]oid.Oid{
	oid.T__bool:        oid.T_bool,
	oid.T__int2:        oid.T_int2,
	oid.T__int4:        oid.T_int4,
	oid.T__int8:        oid.T_int8,
	oid.T__float4:      oid.T_float4,
	oid.T__float8:      oid.T_float8,
	oid.T__numeric:     oid.T_numeric,
	oid.T__text:        oid.T_text,
	oid.T__varchar:     oid.T_varchar,
	oid.T__uuid:        oid.T_uuid,
	oid.T__json:        oid.T_json,
	oid.T__jsonb:       oid.T_jsonb,
	oid.T__date:        oid.T_date,
	oid.T__timestamptz: oid.T_timestamptz,
}

// builtinRanges maps builtin range types to their name and subtype.
var builtinRanges = map[oid.Oid]struct {
	name    string
	subtype oid.Oid
}{
	oid.T_int4range: {"int4range", oid.T_int4},
	oid.T_int8range: {"int8range", oid.T_int8},
	oid.T_numrange:  {"numrange", oid.T_numeric},
	oid.T_tsrange:   {"tsrange", oid.T_timestamp},
	oid.T_tstzrange: {"tstzrange", oid.T_timestamptz},
	oid.T_daterange: {"daterange", oid.T_date},
}

// typeMapper maps PostgreSQL types to the type system. Every type is built
// once per OID; composite types are cached before their fields are added
// so self referencing composites terminate.
type typeMapper struct {
	cat    *Catalog
	tr     *Transformer
	byOID  map[oid.Oid]types.Type
	byName map[string]*types.Object
}

func newTypeMapper(cat *Catalog, tr *Transformer) *typeMapper {
	return &typeMapper{
		cat:    cat,
		tr:     tr,
		byOID:  make(map[oid.Oid]types.Type),
		byName: make(map[string]*types.Object),
	}
}

// attributeType returns the type of a class attribute.
func (m *typeMapper) attributeType(a *Attribute) (types.Type, error) {
	t, err := m.typ(a.TypeID)
	if err != nil {
		return nil, err
	}
	if a.NotNull {
		return t, nil
	}
	return types.NewNullable(t), nil
}

// typ returns the non null type of the given OID.
func (m *typeMapper) typ(id oid.Oid) (types.Type, error) {
	if t, ok := m.byOID[id]; ok {
		return t, nil
	}
	t, err := m.build(id)
	if err != nil {
		return nil, err
	}
	m.byOID[id] = t
	return t, nil
}

func (m *typeMapper) build(id oid.Oid) (types.Type, error) {
	switch id {
	case oid.T_bool:
		return types.Boolean, nil
	case oid.T_int2, oid.T_int4, oid.T_int8:
		return types.Integer, nil
	case oid.T_float4, oid.T_float8, oid.T_numeric:
		return types.Float, nil
	case oid.T_text, oid.T_varchar, oid.T_bpchar, oid.T_name:
		return types.String, nil
	case oid.T_json, oid.T_jsonb:
		return types.JSON, nil
	case oid.T_uuid:
		return types.NewAlias("uuid", "A universally unique identifier.", types.String), nil
	case oid.T_date:
		return types.NewAlias("date", "A calendar date.", types.String), nil
	case oid.T_time:
		return types.NewAlias("time", "A time of day.", types.String), nil
	case oid.T_timestamp:
		return types.NewAlias("timestamp", "A point in time without a time zone.", types.String), nil
	case oid.T_timestamptz:
		return types.NewAlias("datetime", "A point in time with a time zone.", types.String), nil
	case oid.T_interval:
		return types.NewAlias("interval", "A span of time.", types.String), nil
	}
	if item, ok := builtinArrays[id]; ok {
		return m.list(item)
	}
	if r, ok := builtinRanges[id]; ok {
		return m.rangeType(id, "pg_catalog", r.name, "", r.subtype)
	}
	pt := m.cat.typ(id)
	if pt == nil {
		return types.String, nil
	}
	if pt.Category == "A" {
		return m.list(pt.ItemID)
	}
	switch pt.Kind {
	case TypeEnum:
		return types.NewEnum(pt.Name, pt.Description, pt.EnumVariants...), nil
	case TypeDomain:
		base, err := m.typ(pt.BaseID)
		if err != nil {
			return nil, err
		}
		return types.NewAlias(pt.Name, pt.Description, base), nil
	case TypeComposite:
		return m.composite(id, pt)
	case TypeRange:
		return m.rangeType(id, pt.Namespace, pt.Name, pt.Description, pt.RangeSubTypeID)
	default:
		return types.String, nil
	}
}

func (m *typeMapper) list(item oid.Oid) (types.Type, error) {
	t, err := m.typ(item)
	if err != nil {
		return nil, err
	}
	return types.NewList(types.NewNullable(t)), nil
}

func (m *typeMapper) composite(id oid.Oid, pt *Type) (types.Type, error) {
	cls := m.cat.class(pt.Namespace, pt.Class)
	if cls == nil {
		return nil, postgraph.NewSchemaError(pt.Name, "composite type has no class "+pt.Class)
	}
	obj, err := m.classObject(cls, typeName(cls))
	if err != nil {
		return nil, err
	}
	m.byOID[id] = obj
	m.tr.RegisterComposite(obj, cls.Namespace, cls.Name)
	return obj, nil
}

// classObject returns the object type of a class, creating it on first use.
func (m *typeMapper) classObject(cls *Class, name string) (*types.Object, error) {
	key := cls.Namespace + "." + cls.Name
	if obj, ok := m.byName[key]; ok {
		return obj, nil
	}
	obj := types.NewObject(name, cls.Description)
	m.byName[key] = obj
	if cls.TypeID != 0 {
		m.byOID[cls.TypeID] = obj
	}
	for _, a := range cls.Attributes {
		t, err := m.attributeType(a)
		if err != nil {
			return nil, err
		}
		if err := obj.AddField(&types.ObjectField{
			Name:        a.Name,
			Description: a.Description,
			Type:        t,
			HasDefault:  a.HasDefault,
		}); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (m *typeMapper) rangeType(id oid.Oid, namespace, name, description string, subtypeID oid.Oid) (types.Type, error) {
	subtype, err := m.typ(subtypeID)
	if err != nil {
		return nil, err
	}
	bound := types.NewObject(name+"-bound", "A bound of a "+name+" range.").
		MustAddField(&types.ObjectField{Name: "value", Description: "The bound value.", Type: subtype}).
		MustAddField(&types.ObjectField{Name: "inclusive", Description: "Whether the bound value is part of the range.", Type: types.Boolean})
	obj := types.NewObject(name, description).
		MustAddField(&types.ObjectField{Name: "start", Description: "The lower bound; null when unbounded.", Type: types.NewNullable(bound)}).
		MustAddField(&types.ObjectField{Name: "end", Description: "The upper bound; null when unbounded.", Type: types.NewNullable(bound)})
	m.tr.RegisterRange(obj, namespace, name, subtype, subtypeID)
	m.byOID[id] = obj
	return obj, nil
}
