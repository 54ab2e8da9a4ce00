package postgres

import (
	"context"
	"fmt"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

// function calls a PostgreSQL function.
type function struct {
	entity string
	ident  sql.Fragment
	args   []inventory.ProcedureArg
	// typ is the type of one returned value.
	typ types.Type
	tr  *Transformer
}

// call returns a fragment calling the function with the given arguments.
func (f *function) call(args []any) (sql.Fragment, error) {
	if len(args) != len(f.args) {
		return sql.Fragment{}, fmt.Errorf("%w: %s takes %d arguments, got %d", postgraph.ErrInvalidArgument, f.entity, len(f.args), len(args))
	}
	frags := make([]sql.Fragment, len(args))
	for i, a := range f.args {
		v, err := f.tr.ToSQL(a.Type, args[i])
		if err != nil {
			return sql.Fragment{}, err
		}
		frags[i] = v
	}
	return sql.Concat(f.ident, sql.Parens(sql.Join(frags, ", "))), nil
}

// single calls a function returning one value.
func (f *function) single(ctx context.Context, args []any) (any, error) {
	call, err := f.call(args)
	if err != nil {
		return nil, err
	}
	rows, err := queryJSON(ctx, sql.Concat(sql.Raw("select to_json("), call, sql.Raw(") as value")))
	if err != nil {
		return nil, wrapError(f.entity, "call", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return f.tr.FromSQL(f.typ, rows[0])
}

// set calls a set returning function and reads every value.
func (f *function) set(ctx context.Context, args []any) (any, error) {
	call, err := f.call(args)
	if err != nil {
		return nil, err
	}
	rows, err := queryJSON(ctx, sql.Concat(sql.Raw("select to_json("), local, sql.Raw(") as value from "), call, sql.Raw(" as "), local))
	if err != nil {
		return nil, wrapError(f.entity, "call", err)
	}
	values := make([]any, len(rows))
	for i, raw := range rows {
		if values[i], err = f.tr.FromSQL(f.typ, raw); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// functionPaginator pages the values of a set returning function. It must
// be bound to arguments before use.
type functionPaginator struct {
	paginator
	fn *function
}

var _ inventory.InputBinder = (*functionPaginator)(nil)

func newFunctionPaginator(fn *function) *functionPaginator {
	natural := &ordering{name: "natural", description: "Rows in the order the function returns them."}
	return &functionPaginator{
		paginator: paginator{
			name:      fn.entity,
			entity:    fn.entity,
			typ:       fn.typ,
			tr:        fn.tr,
			orderings: []inventory.Ordering{natural},
			fallback:  natural,
			err:       postgraph.NewInvariantError("function paginator %s is not bound", fn.entity),
		},
		fn: fn,
	}
}

// Bind returns a paginator over the function called with input.
func (p *functionPaginator) Bind(input []any) inventory.Paginator {
	bound := p.paginator
	bound.from, bound.err = p.fn.call(input)
	return &bound
}
