package schema

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

var personKind = types.NewEnum("person-kind", "The kind of a person.", "staff", "guest")

func personType() *types.Object {
	return types.NewObject("person", "A person.").
		MustAddField(&types.ObjectField{Name: "id", Type: types.Integer, HasDefault: true}).
		MustAddField(&types.ObjectField{Name: "name", Type: types.String, Description: "The name of the person."}).
		MustAddField(&types.ObjectField{Name: "team", Type: types.NewNullable(types.String)}).
		MustAddField(&types.ObjectField{Name: "kind", Type: personKind, HasDefault: true})
}

// store is an in-memory people table.
type store struct {
	mu   sync.Mutex
	rows []types.ObjectValue
	next int
}

func newStore() *store {
	return &store{
		rows: []types.ObjectValue{
			{"id": 1, "name": "Cyd", "team": "a", "kind": "staff"},
			{"id": 2, "name": "Ada", "team": "b", "kind": "guest"},
			{"id": 3, "name": "Bea", "team": "a", "kind": "staff"},
		},
		next: 4,
	}
}

func (s *store) items() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]any, len(s.rows))
	for i, r := range s.rows {
		items[i] = r
	}
	return items
}

func (s *store) index(key any) int {
	id := key.(types.ObjectValue)["id"]
	for i, r := range s.rows {
		if r["id"] == id {
			return i
		}
	}
	return -1
}

func (s *store) read(_ context.Context, key any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(key); i >= 0 {
		return s.rows[i], nil
	}
	return nil, nil
}

func (s *store) update(_ context.Context, key any, patch types.ObjectValue) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(key)
	if i < 0 {
		return nil, postgraph.NewNotFoundError("person", key)
	}
	for k, v := range patch {
		s.rows[i][k] = v
	}
	return s.rows[i], nil
}

func (s *store) delete(_ context.Context, key any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(key)
	if i < 0 {
		return nil, postgraph.NewNotFoundError("person", key)
	}
	row := s.rows[i]
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return row, nil
}

func (s *store) create(_ context.Context, value types.ObjectValue) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := types.ObjectValue{"kind": "staff"}
	for k, v := range value {
		if v != nil {
			row[k] = v
		}
	}
	if row["id"] == nil {
		row["id"] = s.next
		s.next++
	}
	s.rows = append(s.rows, row)
	return row, nil
}

// searchPaginator pages over the people whose name contains the bound
// search string.
type searchPaginator struct {
	*inventory.MemoryPaginator
	typ   types.Type
	items []any
}

func (p *searchPaginator) Bind(input []any) inventory.Paginator {
	search, _ := input[0].(string)
	var items []any
	for _, item := range p.items {
		if strings.Contains(item.(types.ObjectValue)["name"].(string), search) {
			items = append(items, item)
		}
	}
	return inventory.NewMemoryPaginator(p.Name(), p.typ, items, p.Orderings()...)
}

type fixture struct {
	store  *store
	person *types.Object
	people *inventory.Collection
	inv    *inventory.Inventory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newStore()
	person := personType()
	orderings := []inventory.Ordering{
		inventory.NewOrdering("natural", "No ordering applied."),
		&inventory.FieldOrdering{OrderingName: "name-asc", Field: "name"},
		&inventory.FieldOrdering{OrderingName: "name-desc", Field: "name", Descending: true},
	}
	pk := &inventory.CollectionKey{
		Name: "id",
		Type: types.NewObject("person-id-key", "").
			MustAddField(&types.ObjectField{Name: "id", Type: types.Integer}),
		Read:   s.read,
		Update: s.update,
		Delete: s.delete,
	}
	people := &inventory.Collection{
		Name:        "people",
		Description: "All the people.",
		Type:        person,
		Paginator:   inventory.NewMemoryPaginator("people", person, s.items(), orderings...),
		PrimaryKey:  pk,
		Keys:        []*inventory.CollectionKey{pk},
		Create:      s.create,
	}
	inv := inventory.New()
	require.NoError(t, inv.AddCollection(people))
	require.NoError(t, inv.AddProcedure(&inventory.Procedure{
		Name:       "add",
		Args:       []inventory.ProcedureArg{{Name: "a", Type: types.Integer}, {Name: "b", Type: types.Integer}},
		ReturnType: types.NewNullable(types.Integer),
		Strict:     true,
		Stable:     true,
		Call: func(_ context.Context, args []any) (any, error) {
			return args[0].(int) + args[1].(int), nil
		},
	}))
	require.NoError(t, inv.AddProcedure(&inventory.Procedure{
		Name:       "search-people",
		Args:       []inventory.ProcedureArg{{Name: "search", Type: types.NewNullable(types.String)}},
		ReturnType: person,
		ReturnsSet: true,
		Strict:     true,
		Stable:     true,
		Paginator: &searchPaginator{
			MemoryPaginator: inventory.NewMemoryPaginator("search-people", person, nil, orderings...),
			typ:             person,
			items:           s.items(),
		},
	}))
	require.NoError(t, inv.AddProcedure(&inventory.Procedure{
		Name:       "bump",
		Args:       []inventory.ProcedureArg{{Name: "amount", Type: types.NewNullable(types.Integer)}},
		ReturnType: types.NewNullable(types.Integer),
		Call: func(_ context.Context, args []any) (any, error) {
			n, _ := args[0].(int)
			return n + 1, nil
		},
	}))
	return &fixture{store: s, person: person, people: people, inv: inv}
}

func (f *fixture) schema(t *testing.T, opts ...Option) graphql.Schema {
	t.Helper()
	s, err := Build(f.inv, opts...)
	require.NoError(t, err)
	return s
}

func do(s graphql.Schema, query string, vars map[string]any) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s,
		RequestString:  query,
		VariableValues: vars,
		Context:        context.Background(),
	})
}

// data runs query and returns the JSON encoded data, failing on errors.
func data(t *testing.T, s graphql.Schema, query string) string {
	t.Helper()
	r := do(s, query, nil)
	require.Empty(t, r.Errors)
	b, err := json.Marshal(r.Data)
	require.NoError(t, err)
	return string(b)
}

// message runs query and returns its first error message.
func message(t *testing.T, s graphql.Schema, query string) string {
	t.Helper()
	r := do(s, query, nil)
	require.NotEmpty(t, r.Errors)
	return r.Errors[0].Message
}
