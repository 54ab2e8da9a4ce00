package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithVarsOnPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	drv := OpenDB(db)

	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := &Rows{}
	require.NoError(t, drv.Query(WithVar(context.Background(), "foo", "bar"), "select 1", []any{}, rows))
	require.NoError(t, rows.Close(), "closing the rows releases the connection")
	require.NoError(t, mock.ExpectationsWereMet())

	// A variable set twice is reset once.
	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET foo = 'baz'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	ctx := WithVar(WithVar(context.Background(), "foo", "bar"), "foo", "baz")
	require.NoError(t, drv.Query(ctx, "select 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec("SET foo = 'qux'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into person default values").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(WithVar(context.Background(), "foo", "qux"), "insert into person default values", []any{}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVarFromContext(t *testing.T) {
	t.Parallel()

	ctx := WithVar(context.Background(), "statement_timeout", "100")
	child := WithVar(ctx, "search_path", "forum")
	v, ok := VarFromContext(child, "statement_timeout")
	assert.True(t, ok)
	assert.Equal(t, "100", v)
	_, ok = VarFromContext(ctx, "search_path")
	assert.False(t, ok, "a child context does not leak into its parent")
	_, ok = VarFromContext(context.Background(), "statement_timeout")
	assert.False(t, ok)
}

func TestSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	drv := OpenDB(db)

	sess, err := drv.Session(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("SET statement_timeout = '5000'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET statement_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := &Rows{}
	err = sess.Query(WithVar(context.Background(), "statement_timeout", "5000"), "select 1", []any{}, rows)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	mock.ExpectExec("delete from person").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, sess.Exec(context.Background(), "delete from person", []any{}, nil))

	require.NoError(t, sess.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(db)

	t.Run("Args", func(t *testing.T) {
		mock.ExpectQuery("select name from person where id = \\$1").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Ada").AddRow(nil))
		rows := &Rows{}
		require.NoError(t, drv.Query(context.Background(), "select name from person where id = $1", []any{1}, rows))
		var names []*string
		for rows.Next() {
			var name *string
			require.NoError(t, rows.Scan(&name))
			names = append(names, name)
		}
		require.NoError(t, rows.Close())
		require.Len(t, names, 2)
		assert.Equal(t, "Ada", *names[0])
		assert.Nil(t, names[1])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery("select").WillReturnError(errors.New("database error"))
		err := drv.Query(context.Background(), "select", []any{}, &Rows{})
		assert.ErrorContains(t, err, "dialect/sql: query: database error")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BadTypes", func(t *testing.T) {
		assert.ErrorContains(t, drv.Query(context.Background(), "select 1", []any{}, nil), "expect *sql.Rows")
		assert.ErrorContains(t, drv.Query(context.Background(), "select 1", "x", &Rows{}), "expect []any")
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(db)

	t.Run("Result", func(t *testing.T) {
		mock.ExpectExec("update person set name = \\$1 where id = \\$2").
			WithArgs("Ada", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		var res Result
		require.NoError(t, drv.Exec(context.Background(), "update person set name = $1 where id = $2", []any{"Ada", 1}, &res))
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec("delete").WillReturnError(errors.New("constraint violation"))
		err := drv.Exec(context.Background(), "delete from person", []any{}, nil)
		assert.ErrorContains(t, err, "dialect/sql: exec: constraint violation")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BadTarget", func(t *testing.T) {
		assert.ErrorContains(t, drv.Exec(context.Background(), "delete from person", []any{}, new(int)), "expect *sql.Result")
	})
}

func TestDialect(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(db)
	assert.Equal(t, "postgres", drv.Dialect())
	assert.Same(t, db, drv.DB())
}

func TestSettingName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "statement_timeout", true},
		{"dotted", "postgraph.role", true},
		{"underscore", "_private", true},
		{"empty", "", false},
		{"leading digit", "1foo", false},
		{"space", "foo bar", false},
		{"quote", "foo'bar", false},
		{"semicolon", "foo;DROP TABLE", false},
		{"dash", "foo-bar", false},
		{"too long", "a" + string(make([]byte, 128)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validSettingName(tt.input))
		})
	}
}

func TestWithVarsRejectsName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	drv := OpenDB(db)

	ctx := WithVar(context.Background(), "foo; DROP TABLE users; --", "bar")
	err = drv.Query(ctx, "select 1", []any{}, &Rows{})
	assert.ErrorContains(t, err, "invalid session variable name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithVarsQuotesValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	drv := OpenDB(db)

	mock.ExpectExec("SET foo = 'it''s escaped'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := &Rows{}
	require.NoError(t, drv.Query(WithVar(context.Background(), "foo", "it's escaped"), "select 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
