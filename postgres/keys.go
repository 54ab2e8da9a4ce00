package postgres

import (
	"context"
	"fmt"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/types"
)

// table issues single row statements against a class.
type table struct {
	entity string
	ident  sql.Fragment
	obj    *types.Object
	tr     *Transformer
}

// keyFilter compiles key equality on the given key fields.
func (t *table) keyFilter(fields []string, key any) (sql.Fragment, error) {
	m, ok := asMap(key)
	if !ok {
		return sql.Fragment{}, fmt.Errorf("%w: expected an object key, got %T", postgraph.ErrInvalidArgument, key)
	}
	conds := make([]sql.Fragment, len(fields))
	for i, name := range fields {
		f := t.obj.Field(name)
		v, ok := m[name]
		if f == nil || !ok || v == nil {
			return sql.Fragment{}, fmt.Errorf("%w: key field %s is required", postgraph.ErrInvalidArgument, name)
		}
		val, err := t.tr.ToSQL(types.NonNullOf(f.Type), v)
		if err != nil {
			return sql.Fragment{}, err
		}
		conds[i] = sql.Concat(local, sql.Raw("."), sql.Ident(name), sql.Raw(" = "), val)
	}
	return sql.Join(conds, " and "), nil
}

func (t *table) read(ctx context.Context, fields []string, key any) (any, error) {
	filter, err := t.keyFilter(fields, key)
	if err != nil {
		return nil, err
	}
	return t.one(ctx, "read", false, sql.Concat(
		sql.Raw("select to_json("), local, sql.Raw(") as value from "), t.ident, sql.Raw(" as "), local,
		sql.Raw(" where "), filter,
	))
}

func (t *table) update(ctx context.Context, fields []string, key any, patch types.ObjectValue) (any, error) {
	if len(patch) == 0 {
		v, err := t.read(ctx, fields, key)
		if err == nil && v == nil {
			err = postgraph.NewNotFoundError(t.entity, key)
		}
		return v, err
	}
	filter, err := t.keyFilter(fields, key)
	if err != nil {
		return nil, err
	}
	var sets []sql.Fragment
	for _, f := range t.obj.Fields() {
		v, ok := patch[f.Name]
		if !ok {
			continue
		}
		val, err := t.tr.ToSQL(f.Type, v)
		if err != nil {
			return nil, err
		}
		sets = append(sets, sql.Concat(sql.Ident(f.Name), sql.Raw(" = "), val))
	}
	if len(sets) != len(patch) {
		return nil, fmt.Errorf("%w: patch has fields unknown to %s", postgraph.ErrInvalidArgument, t.obj.Name())
	}
	return t.one(ctx, "update", true, sql.Concat(
		sql.Raw("update "), t.ident, sql.Raw(" as "), local,
		sql.Raw(" set "), sql.Join(sets, ", "),
		sql.Raw(" where "), filter,
		sql.Raw(" returning to_json("), local, sql.Raw(") as value"),
	), key)
}

func (t *table) delete(ctx context.Context, fields []string, key any) (any, error) {
	filter, err := t.keyFilter(fields, key)
	if err != nil {
		return nil, err
	}
	return t.one(ctx, "delete", true, sql.Concat(
		sql.Raw("delete from "), t.ident, sql.Raw(" as "), local,
		sql.Raw(" where "), filter,
		sql.Raw(" returning to_json("), local, sql.Raw(") as value"),
	), key)
}

func (t *table) create(ctx context.Context, value types.ObjectValue) (any, error) {
	var cols, vals []sql.Fragment
	for _, f := range t.obj.Fields() {
		v, ok := value[f.Name]
		if !ok {
			continue
		}
		val, err := t.tr.ToSQL(f.Type, v)
		if err != nil {
			return nil, err
		}
		cols = append(cols, sql.Ident(f.Name))
		vals = append(vals, val)
	}
	q := sql.Concat(sql.Raw("insert into "), t.ident, sql.Raw(" as "), local)
	if len(cols) == 0 {
		q = sql.Concat(q, sql.Raw(" default values"))
	} else {
		q = sql.Concat(q,
			sql.Raw(" "), sql.Parens(sql.Join(cols, ", ")),
			sql.Raw(" values "), sql.Parens(sql.Join(vals, ", ")),
		)
	}
	return t.one(ctx, "create", false, sql.Concat(q, sql.Raw(" returning to_json("), local, sql.Raw(") as value")))
}

// one runs a statement returning at most one row. A missing row is nil,
// or a not found error when required.
func (t *table) one(ctx context.Context, op string, required bool, q sql.Fragment, key ...any) (any, error) {
	rows, err := queryJSON(ctx, q)
	if err != nil {
		return nil, wrapError(t.entity, op, err)
	}
	if len(rows) == 0 {
		if required {
			var k any
			if len(key) > 0 {
				k = key[0]
			}
			return nil, postgraph.NewNotFoundError(t.entity, k)
		}
		return nil, nil
	}
	return t.tr.FromSQL(t.obj, rows[0])
}
