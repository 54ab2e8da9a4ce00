package schema

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

// ConnectionConfig describes a connection field over a paginator.
type ConnectionConfig struct {
	Description string
	Paginator   inventory.Paginator
	// WithFieldsCondition adds an equality argument per field of the
	// paginator object type.
	WithFieldsCondition bool
	// Condition returns the base condition of the field for the parent
	// value. Optional.
	Condition func(source any) condition.Condition
	// Inputs are extra arguments whose values bind the paginator, in
	// declared order. The paginator must implement inventory.InputBinder.
	Inputs []inventory.ProcedureArg
	// StrictInputs makes every input argument required.
	StrictInputs bool
}

type connectionTypes struct {
	typ        types.Type
	connection *graphql.Object
	edge       *graphql.Object
	orderBy    *graphql.Enum
}

// connectionValue is the resolved value of a connection field.
type connectionValue struct {
	paginator inventory.Paginator
	ordering  inventory.Ordering
	condition condition.Condition
	page      inventory.Page
}

type edgeValue struct {
	cursor *inventory.Cursor
	node   any
}

func (c *connectionValue) edges() []*edgeValue {
	values := c.page.Values()
	edges := make([]*edgeValue, len(values))
	for i, v := range values {
		edges[i] = &edgeValue{
			cursor: &inventory.Cursor{
				PaginatorName: c.paginator.Name(),
				OrderingName:  inventory.OrderingName(c.ordering),
				Payload:       v.Cursor,
			},
			node: v.Value,
		}
	}
	return edges
}

// ConnectionField returns a Relay connection field reading pages from the
// configured paginator.
func (b *BuildToken) ConnectionField(cfg ConnectionConfig) (*graphql.Field, error) {
	p := cfg.Paginator
	if p == nil {
		return nil, &postgraph.SchemaError{Message: "connection without paginator", Cause: postgraph.ErrInvalidPaginator}
	}
	ct, err := b.connectionTypes(p)
	if err != nil {
		return nil, err
	}
	args := graphql.FieldConfigArgument{
		"first":  {Type: graphql.Int, Description: "Only read the first `n` values of the set."},
		"last":   {Type: graphql.Int, Description: "Only read the last `n` values of the set."},
		"before": {Type: b.cursor, Description: "Read all values in the set before (above) this cursor."},
		"after":  {Type: b.cursor, Description: "Read all values in the set after (below) this cursor."},
	}
	if ct.orderBy != nil {
		args["orderBy"] = &graphql.ArgumentConfig{Type: ct.orderBy, Description: "The method to use when ordering the values."}
	}
	var obj *types.Object
	if cfg.WithFieldsCondition {
		var ok bool
		if obj, ok = types.Unwrap(p.Type()).(*types.Object); !ok {
			return nil, &postgraph.SchemaError{
				Type:    p.Name(),
				Message: "Can only create a connection which has field argument conditions if the paginator type is an object type.",
				Cause:   postgraph.ErrInvalidPaginator,
			}
		}
		for _, f := range obj.Fields() {
			t, err := b.InputType(f.Type)
			if err != nil {
				return nil, err
			}
			if err := addArg(args, p.Name(), fieldName(f.Name), &graphql.ArgumentConfig{
				Type:        nullable(t).(graphql.Input),
				Description: fmt.Sprintf("Filters the values to those whose `%s` equals the given value.", fieldName(f.Name)),
			}); err != nil {
				return nil, err
			}
		}
	}
	var binder inventory.InputBinder
	if len(cfg.Inputs) > 0 {
		var ok bool
		if binder, ok = p.(inventory.InputBinder); !ok {
			return nil, &postgraph.SchemaError{Type: p.Name(), Message: "paginator with inputs can not be bound", Cause: postgraph.ErrInvalidPaginator}
		}
		for _, in := range cfg.Inputs {
			t, err := b.InputType(in.Type)
			if err != nil {
				return nil, err
			}
			if cfg.StrictInputs {
				t = graphql.NewNonNull(nullable(t))
			}
			if err := addArg(args, p.Name(), fieldName(in.Name), &graphql.ArgumentConfig{Type: t}); err != nil {
				return nil, err
			}
		}
	}
	return &graphql.Field{
		Type:        graphql.NewNonNull(ct.connection),
		Description: cfg.Description,
		Args:        args,
		Resolve: func(rp graphql.ResolveParams) (any, error) {
			req := inventory.PageRequest{}
			for _, name := range []string{"first", "last"} {
				n, ok := rp.Args[name].(int)
				if !ok {
					continue
				}
				if n < 0 {
					return nil, postgraph.NewArgumentError(name, "must not be negative")
				}
				if name == "first" {
					req.First = &n
				} else {
					req.Last = &n
				}
			}
			req.Ordering, _ = rp.Args["orderBy"].(inventory.Ordering)
			for _, name := range []string{"before", "after"} {
				c, ok := rp.Args[name].(*inventory.Cursor)
				if !ok {
					continue
				}
				if !sameOrdering(c.OrderingName, inventory.OrderingName(req.Ordering)) {
					return nil, postgraph.NewCursorMismatchError(name)
				}
				if name == "before" {
					req.Before = c.Payload
				} else {
					req.After = c.Payload
				}
			}
			var conds []condition.Condition
			if cfg.Condition != nil {
				conds = append(conds, cfg.Condition(rp.Source))
			}
			if obj != nil {
				leaves, err := b.fieldConditions(obj, rp.Args)
				if err != nil {
					return nil, err
				}
				conds = append(conds, leaves...)
			}
			req.Condition = condition.Combine(conds...)
			paginator := p
			if binder != nil {
				input := make([]any, len(cfg.Inputs))
				for i, in := range cfg.Inputs {
					v, err := b.inputValue(in.Type, rp.Args[fieldName(in.Name)])
					if err != nil {
						return nil, err
					}
					input[i] = v
				}
				paginator = binder.Bind(input)
			}
			page, err := paginator.ReadPage(rp.Context, req)
			if err != nil {
				return nil, err
			}
			return &connectionValue{paginator: paginator, ordering: req.Ordering, condition: req.Condition, page: page}, nil
		},
	}, nil
}

func addArg(args graphql.FieldConfigArgument, typ, name string, arg *graphql.ArgumentConfig) error {
	if _, ok := args[name]; ok {
		return &postgraph.SchemaError{Type: typ, Field: name, Message: "argument collides with a connection argument", Cause: postgraph.ErrDuplicateField}
	}
	args[name] = arg
	return nil
}

func sameOrdering(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// connectionTypes returns the connection, edge and order by types of a
// paginator, shared by every connection field over it.
func (b *BuildToken) connectionTypes(p inventory.Paginator) (*connectionTypes, error) {
	if ct, ok := b.connections[p.Name()]; ok {
		if ct.typ != p.Type() {
			return nil, &postgraph.SchemaError{Type: p.Name(), Message: "paginator name is used by paginators of different types", Cause: postgraph.ErrInvalidPaginator}
		}
		return ct, nil
	}
	node, err := b.OutputType(p.Type())
	if err != nil {
		return nil, err
	}
	name := typeName(p.Name())
	ct := &connectionTypes{typ: p.Type()}
	if len(p.Orderings()) > 0 {
		values := make(graphql.EnumValueConfigMap, len(p.Orderings()))
		for _, o := range p.Orderings() {
			if err := addEnumValue(values, name+"OrderBy", o.Name(), &graphql.EnumValueConfig{Value: o, Description: o.Description()}); err != nil {
				return nil, err
			}
		}
		ct.orderBy = graphql.NewEnum(graphql.EnumConfig{
			Name:        name + "OrderBy",
			Description: fmt.Sprintf("Methods to use when ordering `%s`.", name),
			Values:      values,
		})
	}
	ct.edge = graphql.NewObject(graphql.ObjectConfig{
		Name:        name + "Edge",
		Description: fmt.Sprintf("A `%s` edge in the connection.", name),
		Fields: graphql.Fields{
			"cursor": &graphql.Field{
				Type:        graphql.NewNonNull(b.cursor),
				Description: "A cursor for use in pagination.",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					return rp.Source.(*edgeValue).cursor, nil
				},
			},
			"node": &graphql.Field{
				Type:        node,
				Description: "The value at the end of the edge.",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					return rp.Source.(*edgeValue).node, nil
				},
			},
		},
	})
	ct.connection = graphql.NewObject(graphql.ObjectConfig{
		Name:        name + "Connection",
		Description: fmt.Sprintf("A connection to a list of `%s` values.", name),
		Fields: graphql.Fields{
			"pageInfo": &graphql.Field{
				Type:        graphql.NewNonNull(b.pageInfoType()),
				Description: "Information to aid in pagination.",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					return rp.Source, nil
				},
			},
			"totalCount": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "The count of *all* values in the set, ignoring pagination.",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					c := rp.Source.(*connectionValue)
					return c.paginator.Count(rp.Context, c.condition)
				},
			},
			"edges": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(ct.edge))),
				Description: "A list of edges which contains the values and cursors to aid in pagination.",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					return rp.Source.(*connectionValue).edges(), nil
				},
			},
			"nodes": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(node)),
				Description: "A list of the values in the connection.",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					values := rp.Source.(*connectionValue).page.Values()
					nodes := make([]any, len(values))
					for i, v := range values {
						nodes[i] = v.Value
					}
					return nodes, nil
				},
			},
		},
	})
	b.connections[p.Name()] = ct
	return ct, nil
}

// pageInfoType returns the shared PageInfo type.
func (b *BuildToken) pageInfoType() *graphql.Object {
	if b.pageInfo != nil {
		return b.pageInfo
	}
	cursorAt := func(first bool) graphql.FieldResolveFn {
		return func(rp graphql.ResolveParams) (any, error) {
			edges := rp.Source.(*connectionValue).edges()
			if len(edges) == 0 {
				return nil, nil
			}
			if first {
				return edges[0].cursor, nil
			}
			return edges[len(edges)-1].cursor, nil
		}
	}
	b.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name:        "PageInfo",
		Description: "Information about pagination in a connection.",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "When paginating forwards, are there more items?",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					return rp.Source.(*connectionValue).page.HasNextPage(rp.Context)
				},
			},
			"hasPreviousPage": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "When paginating backwards, are there more items?",
				Resolve: func(rp graphql.ResolveParams) (any, error) {
					return rp.Source.(*connectionValue).page.HasPreviousPage(rp.Context)
				},
			},
			"startCursor": &graphql.Field{
				Type:        b.cursor,
				Description: "When paginating backwards, the cursor to continue.",
				Resolve:     cursorAt(true),
			},
			"endCursor": &graphql.Field{
				Type:        b.cursor,
				Description: "When paginating forwards, the cursor to continue.",
				Resolve:     cursorAt(false),
			},
		},
	})
	return b.pageInfo
}
