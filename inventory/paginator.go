package inventory

import (
	"context"

	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/types"
)

// Paginator produces ordered, countable pages of values.
type Paginator interface {
	// Name identifies the paginator; cursors are scoped to it.
	Name() string
	// Type is the type of every value the paginator returns.
	Type() types.Type
	// Orderings returns the orderings a page can be read with.
	Orderings() []Ordering
	// Count returns the number of values matching cond.
	Count(ctx context.Context, cond condition.Condition) (int, error)
	// ReadPage reads one page.
	ReadPage(ctx context.Context, req PageRequest) (Page, error)
}

// InputBinder is implemented by paginators parameterized by field
// arguments, e.g. set returning procedures.
type InputBinder interface {
	Bind(input []any) Paginator
}

// Ordering is a named sort order of a paginator.
type Ordering interface {
	Name() string
	Description() string
}

// NewOrdering returns a plain named ordering.
func NewOrdering(name, description string) Ordering {
	return &basicOrdering{name: name, description: description}
}

type basicOrdering struct {
	name        string
	description string
}

func (o *basicOrdering) Name() string        { return o.name }
func (o *basicOrdering) Description() string { return o.description }

// OrderingName returns the name of o, or nil for no ordering.
func OrderingName(o Ordering) *string {
	if o == nil {
		return nil
	}
	name := o.Name()
	return &name
}

// PageRequest describes one page read. Before and After hold cursor
// payloads; nil means unbounded.
type PageRequest struct {
	Condition condition.Condition
	Ordering  Ordering
	Before    any
	After     any
	First     *int
	Last      *int
}

// Cursor is a position in a paginator under one ordering.
type Cursor struct {
	PaginatorName string
	OrderingName  *string
	Payload       any
}

// PageValue is a value with the cursor payload that points at it.
type PageValue struct {
	Value  any
	Cursor any
}

// Page is the result of ReadPage.
type Page interface {
	Values() []PageValue
	HasNextPage(ctx context.Context) (bool, error)
	HasPreviousPage(ctx context.Context) (bool, error)
}

// StaticPage is a Page whose neighbours are known when it is read.
type StaticPage struct {
	Items       []PageValue
	HasNext     bool
	HasPrevious bool
}

func (p *StaticPage) Values() []PageValue                         { return p.Items }
func (p *StaticPage) HasNextPage(context.Context) (bool, error)     { return p.HasNext, nil }
func (p *StaticPage) HasPreviousPage(context.Context) (bool, error) { return p.HasPrevious, nil }

var _ Page = (*StaticPage)(nil)
