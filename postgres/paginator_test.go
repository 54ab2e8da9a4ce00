package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/condition"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

func mockContext(t *testing.T) (context.Context, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	drv := sql.OpenDB(db)
	return inventory.WithContext(context.Background(), inventory.NewContext(drv, nil)), mock
}

func personRows(people ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"value"})
	for i, name := range people {
		rows.AddRow([]byte(fmt.Sprintf(`{"id":%d,"name":%q,"email":null,"created_at":"2020-01-01T00:00:00+00:00"}`, i+1, name)))
	}
	return rows
}

func orderingNamed(t *testing.T, p inventory.Paginator, name string) inventory.Ordering {
	t.Helper()
	for _, o := range p.Orderings() {
		if o.Name() == name {
			return o
		}
	}
	t.Fatalf("no ordering %s", name)
	return nil
}

func intp(n int) *int { return &n }

func names(t *testing.T, page inventory.Page) []any {
	t.Helper()
	var out []any
	for _, v := range page.Values() {
		out = append(out, v.Value.(types.ObjectValue)["name"])
	}
	return out
}

func TestPaginatorFirst(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where (true) order by "__local__"."id" asc limit $1`).
		WithArgs(int64(3)).
		WillReturnRows(personRows("Ada", "Grace", "Linus"))

	page, err := p.ReadPage(ctx, inventory.PageRequest{Condition: condition.True, First: intp(2)})
	require.NoError(t, err)
	assert.Equal(t, []any{"Ada", "Grace"}, names(t, page))
	assert.Equal(t, []any{json.Number("1")}, page.Values()[0].Cursor)
	assert.Equal(t, types.ObjectValue{"id": 1, "name": "Ada", "email": nil, "created_at": "2020-01-01T00:00:00+00:00"}, page.Values()[0].Value)
	next, err := page.HasNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, next)
	prev, err := page.HasPreviousPage(ctx)
	require.NoError(t, err)
	assert.False(t, prev)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorAfter(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where ("__local__"."name" = $1) and ("__local__"."id") > ($2) order by "__local__"."id" asc limit $3`).
		WithArgs("Ada", "1", int64(2)).
		WillReturnRows(personRows("Ada"))
	mock.ExpectQuery(`select exists(select 1 from "forum"."people" as "__local__" where ("__local__"."name" = $1) and not (("__local__"."id") > ($2)))`).
		WithArgs("Ada", "1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	page, err := p.ReadPage(ctx, inventory.PageRequest{
		Condition: condition.FieldEquals("name", "Ada"),
		Ordering:  orderingNamed(t, p, "primary-key-asc"),
		After:     []any{json.Number("1")},
		First:     intp(1),
	})
	require.NoError(t, err)
	assert.Len(t, page.Values(), 1)
	next, err := page.HasNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, next)
	prev, err := page.HasPreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, prev)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorLast(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where (true) order by "__local__"."name" asc, "__local__"."id" asc limit $1`).
		WithArgs(int64(3)).
		WillReturnRows(personRows("Ada", "Grace", "Linus"))

	page, err := p.ReadPage(ctx, inventory.PageRequest{
		Ordering: orderingNamed(t, p, "name-desc"),
		Last:     intp(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"Grace", "Ada"}, names(t, page))
	assert.Equal(t, []any{"Grace", json.Number("2")}, page.Values()[0].Cursor)
	prev, err := page.HasPreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, prev)
	next, err := page.HasNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorNaturalLast(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)
	mock.ExpectQuery(`select count(*) from "forum"."people" as "__local__" where true`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where true limit $1 offset $2`).
		WithArgs(int64(3), int64(3)).
		WillReturnRows(personRows("Ada", "Grace"))

	page, err := p.ReadPage(ctx, inventory.PageRequest{
		Ordering: orderingNamed(t, p, "natural"),
		Last:     intp(2),
	})
	require.NoError(t, err)
	require.Len(t, page.Values(), 2)
	assert.Equal(t, 3, page.Values()[0].Cursor)
	assert.Equal(t, 4, page.Values()[1].Cursor)
	prev, err := page.HasPreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, prev)
	next, err := page.HasNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorOffsetAfterBefore(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("recent_posts").Paginator
	ctx, mock := mockContext(t)
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."recent_posts" as "__local__" where true order by "__local__"."headline" desc limit $1 offset $2`).
		WithArgs(int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow([]byte(`{"id":3,"headline":"c"}`)).
			AddRow([]byte(`{"id":2,"headline":"b"}`)).
			AddRow([]byte(`{"id":1,"headline":"a"}`)).
			AddRow([]byte(`{"id":0,"headline":"0"}`)))

	page, err := p.ReadPage(ctx, inventory.PageRequest{
		Ordering: orderingNamed(t, p, "headline-desc"),
		After:    json.Number("1"),
		Before:   5,
	})
	require.NoError(t, err)
	require.Len(t, page.Values(), 3)
	assert.Equal(t, 2, page.Values()[0].Cursor)
	next, err := page.HasNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorNullableOrdering(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)
	// A row comparison with a NULL email bound would select nothing.
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where true order by "__local__"."email" asc, "__local__"."id" asc limit $1 offset $2`).
		WithArgs(int64(3), int64(2)).
		WillReturnRows(personRows("Ada", "Grace", "Linus"))

	page, err := p.ReadPage(ctx, inventory.PageRequest{
		Ordering: orderingNamed(t, p, "email-asc"),
		After:    json.Number("1"),
		First:    intp(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"Ada", "Grace"}, names(t, page))
	assert.Equal(t, 2, page.Values()[0].Cursor)
	assert.Equal(t, 3, page.Values()[1].Cursor)
	next, err := page.HasNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, next)
	prev, err := page.HasPreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, prev)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = p.ReadPage(ctx, inventory.PageRequest{
		Ordering: orderingNamed(t, p, "email-desc"),
		After:    []any{nil, json.Number("1")},
	})
	assert.ErrorIs(t, err, postgraph.ErrMalformedCursor, "nullable orderings take offset cursors")
}

func TestPaginatorCount(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)
	mock.ExpectQuery(`select count(*) from "forum"."people" as "__local__" where ("__local__"."email" is null) and (not ("__local__"."name" = $1))`).
		WithArgs("Ada").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := p.Count(ctx, condition.Combine(
		&condition.Field{Name: "email", Condition: &condition.Equal{}},
		&condition.Field{Name: "name", Condition: &condition.Not{Condition: &condition.Equal{Value: "Ada"}}},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorErrors(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	p := inv.Collection("people").Paginator
	ctx, mock := mockContext(t)

	_, err := p.ReadPage(ctx, inventory.PageRequest{First: intp(-1)})
	require.ErrorIs(t, err, postgraph.ErrInvalidArgument)

	_, err = p.ReadPage(ctx, inventory.PageRequest{After: "nope"})
	require.ErrorIs(t, err, postgraph.ErrMalformedCursor)

	_, err = p.ReadPage(ctx, inventory.PageRequest{Ordering: inventory.NewOrdering("natural", "")})
	require.ErrorIs(t, err, postgraph.ErrInvariant)

	_, err = p.Count(ctx, condition.FieldEquals("missing", 1))
	require.ErrorIs(t, err, postgraph.ErrInvariant)

	_, err = p.ReadPage(context.Background(), inventory.PageRequest{})
	require.ErrorIs(t, err, postgraph.ErrInvariant)

	boom := errors.New("boom")
	mock.ExpectQuery(`select count(*) from "forum"."people" as "__local__" where true`).WillReturnError(boom)
	_, err = p.Count(ctx, nil)
	require.ErrorIs(t, err, boom)
	assert.True(t, postgraph.IsQueryError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeys(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	people := inv.Collection("people")
	ctx, mock := mockContext(t)

	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where "__local__"."id" = $1`).
		WithArgs(int64(1)).
		WillReturnRows(personRows("Ada"))
	v, err := people.PrimaryKey.Read(ctx, types.ObjectValue{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.(types.ObjectValue)["name"])

	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."people" as "__local__" where "__local__"."email" = $1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	v, err = people.Keys[1].Read(ctx, types.ObjectValue{"email": "ada@example.com"})
	require.NoError(t, err)
	assert.Nil(t, v)

	mock.ExpectQuery(`update "forum"."people" as "__local__" set "name" = $1, "email" = null where "__local__"."id" = $2 returning to_json("__local__") as value`).
		WithArgs("Grace", int64(1)).
		WillReturnRows(personRows("Grace"))
	v, err = people.PrimaryKey.Update(ctx, types.ObjectValue{"id": 1}, types.ObjectValue{"email": nil, "name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", v.(types.ObjectValue)["name"])

	mock.ExpectQuery(`delete from "forum"."people" as "__local__" where "__local__"."id" = $1 returning to_json("__local__") as value`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = people.PrimaryKey.Delete(ctx, types.ObjectValue{"id": 9})
	require.ErrorIs(t, err, postgraph.ErrNotFound)

	_, err = people.PrimaryKey.Read(ctx, types.ObjectValue{})
	require.ErrorIs(t, err, postgraph.ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	people := inv.Collection("people")
	ctx, mock := mockContext(t)

	mock.ExpectQuery(`insert into "forum"."people" as "__local__" ("name", "email") values ($1, null) returning to_json("__local__") as value`).
		WithArgs("Ada").
		WillReturnRows(personRows("Ada"))
	v, err := people.Create(ctx, types.ObjectValue{"name": "Ada", "email": nil})
	require.NoError(t, err)
	assert.Equal(t, 1, v.(types.ObjectValue)["id"])

	mock.ExpectQuery(`insert into "forum"."people" as "__local__" default values returning to_json("__local__") as value`).
		WillReturnError(&pq.Error{Code: "23502", Message: "null value in column \"name\" violates not-null constraint"})
	_, err = people.Create(ctx, types.ObjectValue{})
	require.Error(t, err)
	assert.True(t, postgraph.IsConstraintError(err))
	assert.True(t, postgraph.IsQueryError(err))

	mock.ExpectQuery(`insert into "forum"."people" as "__local__" ("email") values ($1) returning to_json("__local__") as value`).
		WithArgs("ada@example.com").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "people_email_key"})
	_, err = people.Create(ctx, types.ObjectValue{"email": "ada@example.com"})
	assert.True(t, postgraph.IsConstraintError(err))
	assert.Contains(t, err.Error(), "people_email_key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedures(t *testing.T) {
	t.Parallel()
	inv, _ := forumInventory(t)
	ctx, mock := mockContext(t)

	mock.ExpectQuery(`select to_json("forum"."add"($1, $2)) as value`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("3")))
	v, err := inv.Procedure("add").Call(ctx, []any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = inv.Procedure("add").Call(ctx, []any{1})
	require.ErrorIs(t, err, postgraph.ErrInvalidArgument)

	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."touch_people"() as "__local__"`).
		WillReturnRows(personRows("Ada", "Grace"))
	v, err = inv.Procedure("touch_people").Call(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, v, 2)

	search := inv.Procedure("search_posts").Paginator
	_, err = search.ReadPage(ctx, inventory.PageRequest{})
	require.ErrorIs(t, err, postgraph.ErrInvariant)

	bound := search.(inventory.InputBinder).Bind([]any{"go"})
	assert.Equal(t, search.Name(), bound.Name())
	mock.ExpectQuery(`select to_json("__local__") as value from "forum"."search_posts"($1) as "__local__" where true limit $2`).
		WithArgs("go", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow([]byte(`{"id":1,"author_id":1,"headline":"go","kind":"text","tags":["a",null],"location":{"x":1.5,"y":2},"period":"[1,5)"}`)))
	page, err := bound.ReadPage(ctx, inventory.PageRequest{First: intp(1)})
	require.NoError(t, err)
	require.Len(t, page.Values(), 1)
	post := page.Values()[0].Value.(types.ObjectValue)
	assert.Equal(t, []any{"a", nil}, post["tags"])
	assert.Equal(t, types.ObjectValue{"x": 1.5, "y": 2.0}, post["location"])
	assert.Equal(t, types.ObjectValue{
		"start": types.ObjectValue{"value": 1, "inclusive": true},
		"end":   types.ObjectValue{"value": 5, "inclusive": false},
	}, post["period"])
	assert.Equal(t, 0, page.Values()[0].Cursor)
	require.NoError(t, mock.ExpectationsWereMet())
}
