package postgres

import (
	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/types"
)

// whereSQL compiles a condition over the fields of obj, read from the
// local relation.
func (t *Transformer) whereSQL(obj *types.Object, c condition.Condition) (sql.Fragment, error) {
	if c == nil {
		return sql.Raw("true"), nil
	}
	switch c := c.(type) {
	case condition.Constant:
		return constantSQL(bool(c)), nil
	case *condition.And:
		return t.joinSQL(c.Conditions, " and ", true, func(c condition.Condition) (sql.Fragment, error) {
			return t.whereSQL(obj, c)
		})
	case *condition.Or:
		return t.joinSQL(c.Conditions, " or ", false, func(c condition.Condition) (sql.Fragment, error) {
			return t.whereSQL(obj, c)
		})
	case *condition.Not:
		f, err := t.whereSQL(obj, c.Condition)
		if err != nil {
			return sql.Fragment{}, err
		}
		return sql.Concat(sql.Raw("not "), sql.Parens(f)), nil
	case *condition.Field:
		field := obj.Field(c.Name)
		if field == nil {
			return sql.Fragment{}, postgraph.NewInvariantError("condition on unknown field %s of %s", c.Name, obj.Name())
		}
		return t.fieldSQL(sql.Concat(local, sql.Raw("."), sql.Ident(field.Name)), field.Type, c.Condition)
	default:
		return sql.Fragment{}, postgraph.NewInvariantError("condition %s is not a field condition", c)
	}
}

// fieldSQL compiles a condition applied to a single column.
func (t *Transformer) fieldSQL(col sql.Fragment, typ types.Type, c condition.Condition) (sql.Fragment, error) {
	switch c := c.(type) {
	case condition.Constant:
		return constantSQL(bool(c)), nil
	case *condition.Equal:
		if c.Value == nil {
			return sql.Concat(col, sql.Raw(" is null")), nil
		}
		v, err := t.ToSQL(types.NonNullOf(typ), c.Value)
		if err != nil {
			return sql.Fragment{}, err
		}
		return sql.Concat(col, sql.Raw(" = "), v), nil
	case *condition.Not:
		f, err := t.fieldSQL(col, typ, c.Condition)
		if err != nil {
			return sql.Fragment{}, err
		}
		return sql.Concat(sql.Raw("not "), sql.Parens(f)), nil
	case *condition.And:
		return t.joinSQL(c.Conditions, " and ", true, func(c condition.Condition) (sql.Fragment, error) {
			return t.fieldSQL(col, typ, c)
		})
	case *condition.Or:
		return t.joinSQL(c.Conditions, " or ", false, func(c condition.Condition) (sql.Fragment, error) {
			return t.fieldSQL(col, typ, c)
		})
	default:
		return sql.Fragment{}, postgraph.NewInvariantError("condition %s can not apply to a field", c)
	}
}

func (t *Transformer) joinSQL(conds []condition.Condition, sep string, empty bool, compile func(condition.Condition) (sql.Fragment, error)) (sql.Fragment, error) {
	if len(conds) == 0 {
		return constantSQL(empty), nil
	}
	frags := make([]sql.Fragment, len(conds))
	for i, c := range conds {
		f, err := compile(c)
		if err != nil {
			return sql.Fragment{}, err
		}
		frags[i] = sql.Parens(f)
	}
	return sql.Join(frags, sep), nil
}

func constantSQL(b bool) sql.Fragment {
	if b {
		return sql.Raw("true")
	}
	return sql.Raw("false")
}
