package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

// ordering is a sort order over columns of the local relation. Keyset
// orderings end with the primary key, span only non-null columns and use
// the column values as cursor; the others use the row offset.
type ordering struct {
	name        string
	description string
	columns     []string
	descending  bool
	keyset      bool
}

func (o *ordering) Name() string        { return o.name }
func (o *ordering) Description() string { return o.description }

// paginator reads pages of rows selected as to_json from a relation or a
// set returning function.
type paginator struct {
	name      string
	entity    string
	from      sql.Fragment
	typ       types.Type
	tr        *Transformer
	orderings []inventory.Ordering
	// fallback is used when a request selects no ordering.
	fallback *ordering
	err      error
}

var _ inventory.Paginator = (*paginator)(nil)

func (p *paginator) Name() string                    { return p.name }
func (p *paginator) Type() types.Type                { return p.typ }
func (p *paginator) Orderings() []inventory.Ordering { return p.orderings }

// Count returns the number of rows matching cond.
func (p *paginator) Count(ctx context.Context, cond condition.Condition) (int, error) {
	where, err := p.where(cond)
	if err != nil {
		return 0, err
	}
	n, err := queryInt(ctx, sql.Concat(sql.Raw("select count(*) from "), p.source(), sql.Raw(" where "), where))
	return n, wrapError(p.entity, "count", err)
}

// ReadPage reads one page. Rows past the requested window are fetched to
// learn about neighbouring pages; the side opposite a cursor is checked
// lazily with an exists query.
func (p *paginator) ReadPage(ctx context.Context, req inventory.PageRequest) (inventory.Page, error) {
	for _, n := range []*int{req.First, req.Last} {
		if n != nil && *n < 0 {
			return nil, fmt.Errorf("%w: page size must not be negative", postgraph.ErrInvalidArgument)
		}
	}
	where, err := p.where(req.Condition)
	if err != nil {
		return nil, err
	}
	o := p.fallback
	if req.Ordering != nil {
		var ok bool
		if o, ok = req.Ordering.(*ordering); !ok || !slices.Contains(p.orderings, req.Ordering) {
			return nil, postgraph.NewInvariantError("ordering %s does not belong to %s", req.Ordering.Name(), p.name)
		}
	}
	read := p.readOffset
	if o.keyset {
		read = p.readKeyset
	}
	pg, err := read(ctx, o, where, req)
	if err != nil {
		return nil, wrapError(p.entity, "page", err)
	}
	return pg, nil
}

func (p *paginator) readKeyset(ctx context.Context, o *ordering, where sql.Fragment, req inventory.PageRequest) (*page, error) {
	conds := []sql.Fragment{sql.Parens(where)}
	var afterSQL, beforeSQL sql.Fragment
	if req.After != nil {
		f, err := p.keysetBound(o, req.After, true)
		if err != nil {
			return nil, err
		}
		afterSQL = f
		conds = append(conds, f)
	}
	if req.Before != nil {
		f, err := p.keysetBound(o, req.Before, false)
		if err != nil {
			return nil, err
		}
		beforeSQL = f
		conds = append(conds, f)
	}
	filter := sql.Join(conds, " and ")
	reverse := req.Last != nil && req.First == nil
	limit := req.First
	if reverse {
		limit = req.Last
	}
	raws, err := p.selectRows(ctx, filter, p.orderBy(o, reverse), limit, 0)
	if err != nil {
		return nil, err
	}
	pg := &page{}
	if limit != nil && len(raws) > *limit {
		raws = raws[:*limit]
		if reverse {
			pg.previous = true
		} else {
			pg.next = true
		}
	}
	if reverse {
		slices.Reverse(raws)
	}
	if req.First != nil && req.Last != nil && len(raws) > *req.Last {
		raws = raws[len(raws)-*req.Last:]
		pg.previous = true
	}
	for _, raw := range raws {
		v, err := p.value(raw)
		if err != nil {
			return nil, err
		}
		pg.values = append(pg.values, inventory.PageValue{Value: v, Cursor: keysetPayload(o, raw)})
	}
	if !pg.previous && req.After != nil {
		pg.checkPrevious = p.exists(sql.Concat(sql.Parens(where), sql.Raw(" and not "), sql.Parens(afterSQL)))
	}
	if !pg.next && req.Before != nil {
		pg.checkNext = p.exists(sql.Concat(sql.Parens(where), sql.Raw(" and not "), sql.Parens(beforeSQL)))
	}
	return pg, nil
}

// keysetBound compiles the condition selecting rows strictly after (or
// before) the cursor position.
func (p *paginator) keysetBound(o *ordering, payload any, after bool) (sql.Fragment, error) {
	values, ok := payload.([]any)
	if !ok || len(values) != len(o.columns) {
		return sql.Fragment{}, fmt.Errorf("%w: expected %d cursor values for %s", postgraph.ErrMalformedCursor, len(o.columns), o.name)
	}
	cols := make([]sql.Fragment, len(o.columns))
	vals := make([]sql.Fragment, len(values))
	for i, c := range o.columns {
		cols[i] = sql.Concat(local, sql.Raw("."), sql.Ident(c))
		vals[i] = sql.Value(values[i])
	}
	op := " > "
	if after == o.descending {
		op = " < "
	}
	return sql.Concat(sql.Parens(sql.Join(cols, ", ")), sql.Raw(op), sql.Parens(sql.Join(vals, ", "))), nil
}

func (p *paginator) readOffset(ctx context.Context, o *ordering, where sql.Fragment, req inventory.PageRequest) (*page, error) {
	start, end := 0, -1
	if req.After != nil {
		after, err := offset(req.After)
		if err != nil {
			return nil, err
		}
		start = after + 1
	}
	if req.Before != nil {
		before, err := offset(req.Before)
		if err != nil {
			return nil, err
		}
		end = before
	}
	if req.Last != nil && end < 0 {
		n, err := queryInt(ctx, sql.Concat(sql.Raw("select count(*) from "), p.source(), sql.Raw(" where "), where))
		if err != nil {
			return nil, err
		}
		end = n
	}
	if req.First != nil && (end < 0 || start+*req.First < end) {
		end = start + *req.First
	}
	if req.Last != nil && end-*req.Last > start {
		start = end - *req.Last
	}
	if end >= 0 && end < start {
		end = start
	}
	var limit *int
	if end >= 0 {
		n := end - start
		limit = &n
	}
	raws, err := p.selectRows(ctx, where, p.orderBy(o, false), limit, start)
	if err != nil {
		return nil, err
	}
	pg := &page{previous: start > 0}
	if limit != nil && len(raws) > *limit {
		raws = raws[:*limit]
		pg.next = true
	}
	for i, raw := range raws {
		v, err := p.value(raw)
		if err != nil {
			return nil, err
		}
		pg.values = append(pg.values, inventory.PageValue{Value: v, Cursor: start + i})
	}
	return pg, nil
}

// selectRows selects to_json rows; with a limit one extra row is read.
func (p *paginator) selectRows(ctx context.Context, filter, orderBy sql.Fragment, limit *int, offset int) ([]any, error) {
	q := sql.Concat(
		sql.Raw("select to_json("), local, sql.Raw(") as value from "), p.source(),
		sql.Raw(" where "), filter,
	)
	if !orderBy.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" order by "), orderBy)
	}
	if limit != nil {
		q = sql.Concat(q, sql.Raw(" limit "), sql.Value(*limit+1))
	}
	if offset > 0 {
		q = sql.Concat(q, sql.Raw(" offset "), sql.Value(offset))
	}
	return queryJSON(ctx, q)
}

func (p *paginator) orderBy(o *ordering, reverse bool) sql.Fragment {
	dir := " asc"
	if o.descending != reverse {
		dir = " desc"
	}
	cols := make([]sql.Fragment, len(o.columns))
	for i, c := range o.columns {
		cols[i] = sql.Concat(local, sql.Raw("."), sql.Ident(c), sql.Raw(dir))
	}
	return sql.Join(cols, ", ")
}

func (p *paginator) exists(filter sql.Fragment) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		ok, err := queryBool(ctx, sql.Concat(sql.Raw("select exists(select 1 from "), p.source(), sql.Raw(" where "), filter, sql.Raw(")")))
		return ok, wrapError(p.entity, "page", err)
	}
}

func (p *paginator) source() sql.Fragment {
	return sql.Concat(p.from, sql.Raw(" as "), local)
}

func (p *paginator) where(cond condition.Condition) (sql.Fragment, error) {
	if p.err != nil {
		return sql.Fragment{}, p.err
	}
	if cond == nil || cond == condition.True {
		return sql.Raw("true"), nil
	}
	obj, ok := types.Unwrap(p.typ).(*types.Object)
	if !ok {
		return sql.Fragment{}, postgraph.NewInvariantError("paginator %s can not filter values of type %s", p.name, p.typ.Name())
	}
	return p.tr.whereSQL(obj, cond)
}

func (p *paginator) value(raw any) (any, error) {
	return p.tr.FromSQL(p.typ, raw)
}

func keysetPayload(o *ordering, raw any) any {
	m, _ := raw.(map[string]any)
	payload := make([]any, len(o.columns))
	for i, c := range o.columns {
		payload[i] = m[c]
	}
	return payload
}

func offset(payload any) (int, error) {
	switch n := payload.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return int(i), nil
		}
	}
	return 0, fmt.Errorf("%w: offset cursor payload %v", postgraph.ErrMalformedCursor, payload)
}

// page is a read page whose neighbours may be looked up on demand.
type page struct {
	values        []inventory.PageValue
	next          bool
	previous      bool
	checkNext     func(context.Context) (bool, error)
	checkPrevious func(context.Context) (bool, error)
}

func (p *page) Values() []inventory.PageValue { return p.values }

func (p *page) HasNextPage(ctx context.Context) (bool, error) {
	if p.next || p.checkNext == nil {
		return p.next, nil
	}
	return p.checkNext(ctx)
}

func (p *page) HasPreviousPage(ctx context.Context) (bool, error) {
	if p.previous || p.checkPrevious == nil {
		return p.previous, nil
	}
	return p.checkPrevious(ctx)
}
