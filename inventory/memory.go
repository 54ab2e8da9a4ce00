package inventory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/types"
)

// FieldOrdering sorts values by one object field.
type FieldOrdering struct {
	OrderingName string
	Field        string
	Descending   bool
}

func (o *FieldOrdering) Name() string { return o.OrderingName }

func (o *FieldOrdering) Description() string {
	if o.Descending {
		return "Sorts by " + o.Field + ", descending."
	}
	return "Sorts by " + o.Field + ", ascending."
}

// MemoryPaginator pages over a fixed slice of values. Cursors are offsets
// into the filtered, ordered slice.
type MemoryPaginator struct {
	name      string
	typ       types.Type
	items     []any
	orderings []Ordering
}

// NewMemoryPaginator returns a paginator over items. Orderings of type
// *FieldOrdering sort the items; other orderings keep the slice order.
func NewMemoryPaginator(name string, typ types.Type, items []any, orderings ...Ordering) *MemoryPaginator {
	return &MemoryPaginator{name: name, typ: typ, items: items, orderings: orderings}
}

func (p *MemoryPaginator) Name() string          { return p.name }
func (p *MemoryPaginator) Type() types.Type      { return p.typ }
func (p *MemoryPaginator) Orderings() []Ordering { return p.orderings }

// Count implements Paginator.
func (p *MemoryPaginator) Count(_ context.Context, cond condition.Condition) (int, error) {
	return len(p.filter(cond)), nil
}

// ReadPage implements Paginator.
func (p *MemoryPaginator) ReadPage(_ context.Context, req PageRequest) (Page, error) {
	items := p.filter(req.Condition)
	if o, ok := req.Ordering.(*FieldOrdering); ok {
		slices.SortStableFunc(items, func(a, b any) int {
			c := compare(p.field(a, o.Field), p.field(b, o.Field))
			if o.Descending {
				return -c
			}
			return c
		})
	}
	start, end := 0, len(items)
	if req.After != nil {
		after, err := offset(req.After)
		if err != nil {
			return nil, err
		}
		start = min(after+1, end)
	}
	if req.Before != nil {
		before, err := offset(req.Before)
		if err != nil {
			return nil, err
		}
		end = max(min(before, end), start)
	}
	if req.First != nil {
		end = min(end, start+*req.First)
	}
	if req.Last != nil {
		start = max(start, end-*req.Last)
	}
	page := &StaticPage{HasPrevious: start > 0, HasNext: end < len(items)}
	for i := start; i < end; i++ {
		page.Items = append(page.Items, PageValue{Value: items[i], Cursor: i})
	}
	return page, nil
}

func (p *MemoryPaginator) filter(cond condition.Condition) []any {
	if cond == nil {
		cond = condition.True
	}
	var out []any
	for _, item := range p.items {
		if condition.Eval(cond, func(name string) any { return p.field(item, name) }) {
			out = append(out, item)
		}
	}
	return out
}

func (p *MemoryPaginator) field(item any, name string) any {
	if obj, ok := types.Unwrap(p.typ).(*types.Object); ok {
		if f := obj.Field(name); f != nil {
			return f.Value(item)
		}
	}
	return nil
}

func offset(payload any) (int, error) {
	switch v := payload.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	}
	return 0, fmt.Errorf("%w: offset cursor payload %v", postgraph.ErrMalformedCursor, payload)
}

func compare(a, b any) int {
	switch x := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return 1
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	}
	if b == nil {
		return -1
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

var _ Paginator = (*MemoryPaginator)(nil)
